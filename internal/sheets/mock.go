package sheets

import (
	"context"
	"sync"

	"github.com/jamesfulford/cashflow-projector/internal/service"
)

// MockWriter is a mock implementation of service.LedgerWriter for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, report service.LedgerReport, progress service.ProgressFunc) error
	LastReport     *service.LedgerReport
	WriteCalls     []WriteCall
	WriteCallCount int
	mu             sync.Mutex
}

// WriteCall represents a single call to WriteLedger.
type WriteCall struct {
	Error  error
	Report service.LedgerReport
}

var _ service.LedgerWriter = (*MockWriter)(nil)

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		WriteCalls: make([]WriteCall, 0),
	}
}

// WriteLedger implements service.LedgerWriter. Without a WriteFunc it
// reports every day as written in one step.
func (m *MockWriter) WriteLedger(ctx context.Context, report service.LedgerReport, progress service.ProgressFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.LastReport = &report

	var err error
	if m.WriteFunc != nil {
		err = m.WriteFunc(ctx, report, progress)
	} else if progress != nil {
		progress(len(report.Days), len(report.Days))
	}

	m.WriteCalls = append(m.WriteCalls, WriteCall{
		Report: report,
		Error:  err,
	})

	return err
}

// Reset clears all recorded calls.
func (m *MockWriter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount = 0
	m.WriteCalls = make([]WriteCall, 0)
	m.LastReport = nil
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockWriter) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}

// SetWriteError configures the mock to return err from every WriteLedger call.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(context.Context, service.LedgerReport, service.ProgressFunc) error {
		return err
	}
}
