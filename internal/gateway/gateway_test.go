package gateway

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OrlandoBitencourt/flagx/internal/domain"
	"github.com/OrlandoBitencourt/flagx/internal/logging"
)

// recordingLogger keeps error-level entries for assertions.
type recordingLogger struct {
	logging.NopLogger
	mu     sync.Mutex
	errors []map[string]any
}

func (l *recordingLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := map[string]any{"msg": msg}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		entry[keysAndValues[i].(string)] = keysAndValues[i+1]
	}
	l.errors = append(l.errors, entry)
}

func (l *recordingLogger) last() map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.errors) == 0 {
		return nil
	}
	return l.errors[len(l.errors)-1]
}

func newTestGateway(t *testing.T, handler http.HandlerFunc) (*HTTPGateway, *recordingLogger) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := &recordingLogger{}
	gw := New(Config{
		BaseURL:        server.URL,
		ConnectTimeout: time.Second,
		ReadTimeout:    time.Second,
		UserAgent:      "flagx-test",
	}, logger, nil)
	return gw, logger
}

func TestResult(t *testing.T) {
	assert.True(t, Enabled(false).Available())
	assert.False(t, Enabled(false).Enabled)

	r := Unavailable(nil)
	assert.False(t, r.Available())
	assert.Error(t, r.Err)
}

func TestHTTPGateway_URL(t *testing.T) {
	gw := New(Config{BaseURL: "http://flags.local:8080/"}, nil, nil)

	assert.Equal(t, "http://flags.local:8080/flags/evaluate/feat-a", gw.URL("feat-a", ""))
	assert.Equal(t, "http://flags.local:8080/flags/evaluate/feat-a?targetId=u1", gw.URL("feat-a", "u1"))
	assert.Equal(t, "http://flags.local:8080/flags/evaluate/a%2Fb?targetId=user+one", gw.URL("a/b", "user one"))
}

func TestHTTPGateway_Evaluate_Success(t *testing.T) {
	var gotPath, gotTarget, gotUA, gotAccept string
	var hasTarget bool

	gw, logger := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTarget = r.URL.Query().Get("targetId")
		_, hasTarget = r.URL.Query()["targetId"]
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("true"))
	})

	result := gw.Evaluate(context.Background(), "feat-a", "u1")

	require.True(t, result.Available())
	assert.True(t, result.Enabled)
	assert.Equal(t, "/flags/evaluate/feat-a", gotPath)
	assert.Equal(t, "u1", gotTarget)
	assert.True(t, hasTarget)
	assert.Equal(t, "flagx-test", gotUA)
	assert.Equal(t, "application/json", gotAccept)
	assert.Nil(t, logger.last())
}

func TestHTTPGateway_Evaluate_NoTargetParam(t *testing.T) {
	var hasTarget bool
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, hasTarget = r.URL.Query()["targetId"]
		w.Write([]byte("false"))
	})

	result := gw.Evaluate(context.Background(), "feat-a", "")

	require.True(t, result.Available())
	assert.False(t, result.Enabled)
	assert.False(t, hasTarget)
}

func TestHTTPGateway_Evaluate_Bodies(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		available bool
		enabled   bool
	}{
		{"true", "true", true, true},
		{"false", "false", true, false},
		{"whitespace", " \n true \n", true, true},
		{"empty", "", false, false},
		{"null", "null", false, false},
		{"string true", `"true"`, false, false},
		{"number", "1", false, false},
		{"object", `{"enabled":true}`, false, false},
		{"garbage", "<html>", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, logger := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			result := gw.Evaluate(context.Background(), "flag", "")

			assert.Equal(t, tt.available, result.Available())
			assert.Equal(t, tt.enabled, result.Enabled)
			if !tt.available {
				assert.True(t, domain.IsProtocolFailure(result.Err))
				require.NotNil(t, logger.last())
				assert.Equal(t, "protocol", logger.last()["kind"])
			}
		})
	}
}

func TestHTTPGateway_Evaluate_Statuses(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusServiceUnavailable, http.StatusNoContent, http.StatusFound} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			gw, logger := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				// a 302 without Location is returned to the caller as is
				w.WriteHeader(status)
				if status != http.StatusNoContent && status != http.StatusFound {
					w.Write([]byte("true"))
				}
			})

			result := gw.Evaluate(context.Background(), "flag", "")

			assert.False(t, result.Available())
			assert.False(t, result.Enabled)
			assert.True(t, domain.IsProtocolFailure(result.Err))
			require.NotNil(t, logger.last())
			if status != http.StatusNoContent {
				assert.Equal(t, status, logger.last()["status_code"])
			}
		})
	}
}

func TestHTTPGateway_Evaluate_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.Write([]byte("true"))
	}))
	defer server.Close()
	defer close(release)

	logger := &recordingLogger{}
	gw := New(Config{
		BaseURL:        server.URL,
		ConnectTimeout: time.Second,
		ReadTimeout:    50 * time.Millisecond,
	}, logger, nil)

	start := time.Now()
	result := gw.Evaluate(context.Background(), "feat-b", "")

	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, result.Available())
	assert.True(t, domain.IsTransportFailure(result.Err))
	require.NotNil(t, logger.last())
	assert.Equal(t, "transport", logger.last()["kind"])
	assert.Equal(t, "feat-b", logger.last()["flag_key"])
}

func TestHTTPGateway_Evaluate_ConnectionRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	logger := &recordingLogger{}
	gw := New(Config{
		BaseURL:        "http://" + addr,
		ConnectTimeout: 200 * time.Millisecond,
		ReadTimeout:    200 * time.Millisecond,
	}, logger, nil)

	result := gw.Evaluate(context.Background(), "flag", "u1")

	assert.False(t, result.Available())
	assert.True(t, domain.IsTransportFailure(result.Err))
	require.NotNil(t, logger.last())
	assert.Equal(t, "u1", logger.last()["target_id"])
}

func TestHTTPGateway_Evaluate_InvalidBaseURL(t *testing.T) {
	gw := New(Config{BaseURL: "http://bad host"}, nil, nil)

	result := gw.Evaluate(context.Background(), "flag", "")

	assert.False(t, result.Available())
	assert.True(t, domain.IsTransportFailure(result.Err))
}

func TestHTTPGateway_Evaluate_SingleAttempt(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	gw.Evaluate(context.Background(), "flag", "")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "gateway must not retry")
}

func TestHTTPGateway_CustomHTTPClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("true"))
	}))
	defer server.Close()

	gw := New(Config{BaseURL: server.URL, HTTPClient: server.Client()}, nil, nil)
	assert.Same(t, server.Client(), gw.httpClient)

	assert.True(t, gw.Evaluate(context.Background(), "flag", "").Enabled)
}
