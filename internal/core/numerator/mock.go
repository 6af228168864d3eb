package numerator

import (
	"context"
	"sync"
	"time"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	GetNextNumberFunc func(ctx context.Context, cfg Config, opts *Options, at time.Time) (string, error)
}

// GetNextNumber implements Generator.
func (m *MockGenerator) GetNextNumber(ctx context.Context, cfg Config, opts *Options, at time.Time) (string, error) {
	if m.GetNextNumberFunc != nil {
		return m.GetNextNumberFunc(ctx, cfg, opts, at)
	}
	return cfg.Prefix + "-00000001" + at.Format("020106"), nil
}

// Sequence returns a MockGenerator that hands out the given numbers in order
// and then repeats the last one.
func Sequence(numbers ...string) *MockGenerator {
	var mu sync.Mutex
	i := 0
	return &MockGenerator{
		GetNextNumberFunc: func(context.Context, Config, *Options, time.Time) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			n := numbers[i]
			if i < len(numbers)-1 {
				i++
			}
			return n, nil
		},
	}
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
