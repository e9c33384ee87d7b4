// Package numerator provides domain contracts for document numbering.
package numerator

import (
	"context"
	"fmt"
	"sync/atomic"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	NextFunc    func(ctx context.Context, family Family) (string, error)
	SetNextFunc func(ctx context.Context, family Family, value int64) error

	counter int64
}

// Next implements Generator.
func (m *MockGenerator) Next(ctx context.Context, family Family) (string, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, family)
	}
	n := atomic.AddInt64(&m.counter, 1)
	return fmt.Sprintf("%s-%05d", family.Prefix, n), nil
}

// SetNext implements Generator.
func (m *MockGenerator) SetNext(ctx context.Context, family Family, value int64) error {
	if m.SetNextFunc != nil {
		return m.SetNextFunc(ctx, family, value)
	}
	atomic.StoreInt64(&m.counter, value-1)
	return nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
