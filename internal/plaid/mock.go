package plaid

import (
	"context"
)

// MockClient is a mock implementation of AccountLister for testing.
type MockClient struct {
	// Functions that can be set by tests to control behavior
	ListAccountsFn func(ctx context.Context) ([]Account, error)

	// Call tracking
	ListAccountsCalls int
}

// NewMockClient creates a new mock Plaid client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// ListAccounts implements AccountLister.ListAccounts.
func (m *MockClient) ListAccounts(ctx context.Context) ([]Account, error) {
	m.ListAccountsCalls++

	if m.ListAccountsFn != nil {
		return m.ListAccountsFn(ctx)
	}

	// Default behavior: return empty slice
	return []Account{}, nil
}

// Reset clears all call tracking.
func (m *MockClient) Reset() {
	m.ListAccountsCalls = 0
}

// Ensure MockClient implements AccountLister interface.
var _ AccountLister = (*MockClient)(nil)
