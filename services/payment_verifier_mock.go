package services

import (
	"context"
	"sync"
)

// MockPaymentVerifier returns canned results per transaction reference
type MockPaymentVerifier struct {
	mu      sync.Mutex
	results map[string]VerificationResult
	calls   []string

	// Err, when set, is returned by every call
	Err error
}

// NewMockPaymentVerifier creates a verifier with no canned results
func NewMockPaymentVerifier() *MockPaymentVerifier {
	return &MockPaymentVerifier{results: make(map[string]VerificationResult)}
}

// SetResult registers the status returned for ref
func (m *MockPaymentVerifier) SetResult(ref, status string) {
	m.mu.Lock()
	m.results[ref] = VerificationResult{Status: status}
	m.mu.Unlock()
}

// Verify returns the canned status, or pending for unknown references
func (m *MockPaymentVerifier) Verify(ctx context.Context, transactionRef string) (VerificationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, transactionRef)
	if m.Err != nil {
		return VerificationResult{}, m.Err
	}
	if r, ok := m.results[transactionRef]; ok {
		return r, nil
	}
	return VerificationResult{Status: VerificationPending}, nil
}

// Calls returns every reference verified so far
func (m *MockPaymentVerifier) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
