// Package numerator implements invoice numbering.
// It implements core/numerator.Generator.
package numerator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "warungpos/internal/core/numerator"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RandomSource yields a uniform integer in [0, n).
type RandomSource interface {
	IntN(n int) int
}

// Service generates invoice numbers.
//
// The optimistic strategy needs no database; the sequence strategy requires
// a querier over a table with the sys_sequences shape.
type Service struct {
	querier Querier
	now     func() time.Time

	// rnd is not safe for concurrent use on its own
	rndMu sync.Mutex
	rnd   RandomSource
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator service. querier may be nil when only the
// optimistic strategy is used.
func New(querier Querier) *Service {
	return &Service{
		querier: querier,
		now:     time.Now,
		rnd:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
	}
}

// WithClock replaces the clock used for the timestamp digits.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithRandom replaces the random source used for the pad digits.
func (s *Service) WithRandom(r RandomSource) *Service {
	s.rnd = r
	return s
}

// GetNextNumber generates the next invoice number dated at the given instant.
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, opts *corenumerator.Options, at time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}
	if cfg.Prefix == "" {
		return "", fmt.Errorf("numerator prefix is empty")
	}
	if opts == nil {
		opts = corenumerator.DefaultOptions()
	}

	var unique string
	switch opts.Strategy {
	case corenumerator.StrategySequence:
		num, err := s.getNextSequence(ctx, cfg, at)
		if err != nil {
			return "", err
		}
		unique = fmt.Sprintf("%0*d", width(cfg.SequenceWidth, 8), num)
	case corenumerator.StrategyOptimistic:
		fallthrough
	default:
		unique = s.optimisticUnique(cfg)
	}

	return formatNumber(cfg, unique, at), nil
}

// optimisticUnique renders the low clock digits followed by a random pad.
func (s *Service) optimisticUnique(cfg corenumerator.Config) string {
	tsDigits := width(cfg.TimestampDigits, 6)
	rndDigits := width(cfg.RandomDigits, 2)

	ms := s.now().UnixMilli() % pow10(tsDigits)

	s.rndMu.Lock()
	pad := s.rnd.IntN(int(pow10(rndDigits)))
	s.rndMu.Unlock()

	return fmt.Sprintf("%0*d%0*d", tsDigits, ms, rndDigits, pad)
}

// getNextSequence fetches the next counter value using UPSERT + RETURNING.
func (s *Service) getNextSequence(ctx context.Context, cfg corenumerator.Config, at time.Time) (int64, error) {
	if s.querier == nil {
		return 0, fmt.Errorf("sequence strategy requires a database")
	}

	var num int64
	err := s.querier.QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, sequenceKey(cfg, at)).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("sequence next: %w", err)
	}
	return num, nil
}

// sequenceKey resets the counter daily, matching the date part of the number.
func sequenceKey(cfg corenumerator.Config, at time.Time) string {
	return fmt.Sprintf("%s_%s", cfg.Prefix, localDate(cfg, at).Format("2006_01_02"))
}

func formatNumber(cfg corenumerator.Config, unique string, at time.Time) string {
	layout := cfg.DateLayout
	if layout == "" {
		layout = "020106"
	}
	return cfg.Prefix + "-" + unique + localDate(cfg, at).Format(layout)
}

func localDate(cfg corenumerator.Config, at time.Time) time.Time {
	if cfg.Location != nil {
		return at.In(cfg.Location)
	}
	return at
}

func width(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func pow10(n int) int64 {
	p := int64(1)
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}
