// Package gateway performs single remote flag evaluations over HTTP.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/OrlandoBitencourt/flagx/internal/domain"
	"github.com/OrlandoBitencourt/flagx/internal/logging"
	"github.com/OrlandoBitencourt/flagx/internal/telemetry"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 64 << 10

// Evaluator is what the orchestrator needs from the gateway.
type Evaluator interface {
	Evaluate(ctx context.Context, flagKey, targetID string) Result
}

// Result is the outcome of one remote evaluation: either a boolean or the
// Unavailable variant carrying the failure.
type Result struct {
	Enabled bool
	Err     error
}

// Available reports whether the remote service answered with a boolean.
func (r Result) Available() bool {
	return r.Err == nil
}

// Enabled builds a successful result.
func Enabled(value bool) Result {
	return Result{Enabled: value}
}

// Unavailable builds the sentinel result for a failed evaluation.
func Unavailable(err error) Result {
	if err == nil {
		err = errors.New("unavailable")
	}
	return Result{Err: err}
}

// Config configures the HTTP gateway.
type Config struct {
	BaseURL        string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	UserAgent      string

	// HTTPClient overrides the client built from the timeouts.
	HTTPClient *http.Client
}

// HTTPGateway implements Evaluator against GET {base}/flags/evaluate/{key}.
type HTTPGateway struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     logging.Logger
	telemetry  telemetry.Provider
}

// New creates a new HTTP gateway. A nil logger or provider is replaced by a no-op.
func New(cfg Config, logger logging.Logger, provider telemetry.Provider) *HTTPGateway {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if provider == nil {
		provider = telemetry.NewNoOp()
	}

	client := cfg.HTTPClient
	if client == nil {
		client = newHTTPClient(cfg.ConnectTimeout, cfg.ReadTimeout)
	}

	return &HTTPGateway{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: client,
		logger:     logger,
		telemetry:  provider,
	}
}

// newHTTPClient bounds the dial by connectTimeout and the whole round trip
// by readTimeout.
func newHTTPClient(connectTimeout, readTimeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.ResponseHeaderTimeout = readTimeout

	return &http.Client{
		Timeout:   readTimeout,
		Transport: otelhttp.NewTransport(transport),
	}
}

// Evaluate issues exactly one request. It never returns an error: failures
// are logged and reported as Unavailable.
func (g *HTTPGateway) Evaluate(ctx context.Context, flagKey, targetID string) Result {
	ctx, span := g.telemetry.StartSpan(ctx, "flagx.gateway.Evaluate",
		telemetry.WithAttributes(
			telemetry.String("flag.key", flagKey),
			telemetry.String("target.id", targetID),
		))
	defer span.End()

	start := time.Now()
	enabled, err := g.fetch(ctx, flagKey, targetID)
	duration := time.Since(start)

	if err != nil {
		kind := domain.KindOf(err)
		span.RecordError(err)
		g.telemetry.RecordRemoteEvaluation(ctx, flagKey, string(kind), duration)

		fields := []any{
			"flag_key", flagKey,
			"target_id", targetID,
			"kind", string(kind),
			"duration_ms", duration.Milliseconds(),
			"error", err,
		}
		var evalErr *domain.EvaluationError
		if errors.As(err, &evalErr) && evalErr.StatusCode != 0 {
			fields = append(fields, "status_code", evalErr.StatusCode)
			span.SetAttributes(telemetry.Int("http.status_code", evalErr.StatusCode))
		}
		g.logger.Error("remote flag evaluation failed", fields...)

		return Unavailable(err)
	}

	span.SetAttributes(telemetry.Bool("flag.enabled", enabled))
	g.telemetry.RecordRemoteEvaluation(ctx, flagKey, "success", duration)
	return Enabled(enabled)
}

// URL builds the evaluation endpoint for a flag and optional target.
func (g *HTTPGateway) URL(flagKey, targetID string) string {
	endpoint := fmt.Sprintf("%s/flags/evaluate/%s", g.baseURL, url.PathEscape(flagKey))
	if targetID != "" {
		endpoint += "?" + url.Values{"targetId": {targetID}}.Encode()
	}
	return endpoint
}

// fetch performs a single HTTP request and decodes a JSON boolean.
func (g *HTTPGateway) fetch(ctx context.Context, flagKey, targetID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.URL(flagKey, targetID), nil)
	if err != nil {
		return false, domain.NewEvaluationError(flagKey, domain.FailureTransport,
			fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return false, domain.NewEvaluationError(flagKey, domain.FailureTransport,
			fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return false, domain.NewEvaluationError(flagKey, domain.FailureTransport,
			fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, domain.NewStatusError(flagKey, resp.StatusCode, truncate(string(body), 256))
	}

	enabled, err := decodeBool(body)
	if err != nil {
		return false, domain.NewEvaluationError(flagKey, domain.FailureProtocol, err)
	}

	return enabled, nil
}

// decodeBool accepts exactly one JSON boolean. null, strings and numbers are rejected.
func decodeBool(body []byte) (bool, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return false, errors.New("empty response body")
	}

	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return false, fmt.Errorf("failed to unmarshal response: %w (body: %s)", err, truncate(string(trimmed), 256))
	}

	enabled, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("response is not a boolean (body: %s)", truncate(string(trimmed), 256))
	}

	return enabled, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
