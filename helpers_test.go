package flagx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// MockFlagService is a test double for the remote evaluation service.
type MockFlagService struct {
	*httptest.Server

	mu      sync.Mutex
	flags   map[string]bool
	targets map[string]bool
	status  int
	body    string
	delay   time.Duration

	calls   atomic.Int64
	lastURL atomic.Value
}

// NewMockFlagService starts a mock service closed on test cleanup.
func NewMockFlagService(t *testing.T) *MockFlagService {
	t.Helper()
	m := &MockFlagService{
		flags:   make(map[string]bool),
		targets: make(map[string]bool),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.Server.Close)
	return m
}

func (m *MockFlagService) handle(w http.ResponseWriter, r *http.Request) {
	m.calls.Add(1)
	m.lastURL.Store(r.URL.String())

	m.mu.Lock()
	status, body, delay := m.status, m.body, m.delay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
		return
	}

	key, ok := strings.CutPrefix(r.URL.Path, "/flags/evaluate/")
	if !ok || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	target := r.URL.Query().Get("targetId")

	m.mu.Lock()
	value, found := m.targets[key+"|"+target]
	if !found {
		value, found = m.flags[key]
	}
	m.mu.Unlock()

	if !found {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(value)
}

// SetFlag sets the value returned for key regardless of target.
func (m *MockFlagService) SetFlag(key string, value bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[key] = value
}

// SetTargetFlag sets the value returned for key and one target.
func (m *MockFlagService) SetTargetFlag(key, target string, value bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.targets[key+"|"+target] = value
}

// Fail makes every request answer with status and body.
func (m *MockFlagService) Fail(status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	m.body = body
}

// Recover undoes Fail.
func (m *MockFlagService) Recover() {
	m.Fail(0, "")
}

// SetDelay delays every response.
func (m *MockFlagService) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Calls returns the number of requests received.
func (m *MockFlagService) Calls() int {
	return int(m.calls.Load())
}

// LastURL returns the path and query of the last request.
func (m *MockFlagService) LastURL() string {
	v, _ := m.lastURL.Load().(string)
	return v
}

// newTestClient builds a client against svc with logging discarded.
func newTestClient(t *testing.T, svc *MockFlagService, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithBaseURL(svc.URL), WithLogger(NopLogger{})}, opts...)
	client, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}
