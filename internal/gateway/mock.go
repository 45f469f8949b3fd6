package gateway

import (
	"context"
	"errors"
	"sync"

	"github.com/OrlandoBitencourt/flagx/internal/domain"
)

// MockEvaluator is a mock implementation of Evaluator for testing
type MockEvaluator struct {
	mu sync.Mutex

	// Stored results keyed by flag key
	results map[string]Result

	// Mock behaviors
	EvaluateFunc func(ctx context.Context, flagKey, targetID string) Result

	// Call tracking
	EvaluateCalls int
	LastFlagKey   string
	LastTargetID  string
}

// NewMockEvaluator creates a new mock evaluator. Unknown flags are reported
// as a transport failure.
func NewMockEvaluator() *MockEvaluator {
	return &MockEvaluator{results: make(map[string]Result)}
}

// SetFlag makes flagKey evaluate to value.
func (m *MockEvaluator) SetFlag(flagKey string, value bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[flagKey] = Enabled(value)
}

// FailFlag makes flagKey unavailable with the given failure kind.
func (m *MockEvaluator) FailFlag(flagKey string, kind domain.FailureKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[flagKey] = Unavailable(domain.NewEvaluationError(flagKey, kind, errors.New("mock failure")))
}

// Evaluate returns the configured result for flagKey
func (m *MockEvaluator) Evaluate(ctx context.Context, flagKey, targetID string) Result {
	m.mu.Lock()
	m.EvaluateCalls++
	m.LastFlagKey = flagKey
	m.LastTargetID = targetID
	fn := m.EvaluateFunc
	result, ok := m.results[flagKey]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, flagKey, targetID)
	}
	if !ok {
		return Unavailable(domain.NewEvaluationError(flagKey, domain.FailureTransport, errors.New("flag not configured in mock")))
	}
	return result
}

// Calls returns the number of Evaluate calls so far.
func (m *MockEvaluator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.EvaluateCalls
}
