package storage

import (
	"strings"
	"sync"
)

// MockStorage is a map-backed Store that records every call, for testing.
type MockStorage struct {
	mu     sync.Mutex
	values map[string]bool

	// Call tracking
	GetCalls    int
	SetCalls    int
	DeleteCalls int
	PrefixCalls int
	ClearCalls  int
	CloseCalls  int
}

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{values: make(map[string]bool)}
}

func (m *MockStorage) Get(key string) (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	v, ok := m.values[key]
	return v, ok
}

func (m *MockStorage) Set(key string, value bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetCalls++
	m.values[key] = value
}

func (m *MockStorage) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	delete(m.values, key)
}

func (m *MockStorage) DeletePrefix(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PrefixCalls++
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			delete(m.values, key)
		}
	}
}

func (m *MockStorage) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClearCalls++
	m.values = make(map[string]bool)
}

func (m *MockStorage) Metrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Metrics{Size: len(m.values)}
}

func (m *MockStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	return nil
}

// Peek reads a value without counting it as a Get.
func (m *MockStorage) Peek(key string) (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// Accesses returns the total number of recorded calls.
func (m *MockStorage) Accesses() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GetCalls + m.SetCalls + m.DeleteCalls + m.PrefixCalls + m.ClearCalls
}
