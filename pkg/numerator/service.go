// Package numerator provides the PostgreSQL document-numbering service.
//
// Numbers come from a per-family counter row bumped with an atomic
// INSERT .. ON CONFLICT DO UPDATE .. RETURNING. When the querier is bound
// to the caller's transaction, two concurrent creates serialize on the
// counter row lock, so the same number can never be handed out twice and
// a rollback releases the number with the document.
package numerator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	corenumerator "backoffice/internal/core/numerator"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierFunc returns the querier bound to the current transaction, if any.
type QuerierFunc func(ctx context.Context) Querier

// Service provides document numbering backed by the doc_counters table.
type Service struct {
	staticQuerier Querier
	source        QuerierFunc
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator service with a static querier.
// Use for testing scenarios.
func New(querier Querier) *Service {
	return &Service{staticQuerier: querier}
}

// NewWithSource creates a numerator service that resolves its querier
// per call. Wire this with the transaction manager so counter bumps join
// the surrounding document transaction.
func NewWithSource(source QuerierFunc) *Service {
	return &Service{source: source}
}

func (s *Service) getQuerier(ctx context.Context) Querier {
	if s.source != nil {
		return s.source(ctx)
	}
	return s.staticQuerier
}

// Next returns the next formatted number for the family.
func (s *Service) Next(ctx context.Context, family corenumerator.Family) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	var num int64
	err := s.getQuerier(ctx).QueryRow(ctx, `
		INSERT INTO doc_counters (family, current_val)
		VALUES ($1, 1)
		ON CONFLICT (family) DO UPDATE SET current_val = doc_counters.current_val + 1
		RETURNING current_val
	`, family.Code).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next number for %s: %w", family.Code, err)
	}

	return Format(family, num), nil
}

// SetNext seeds the counter so the next assigned value is value.
func (s *Service) SetNext(ctx context.Context, family corenumerator.Family, value int64) error {
	var result int64
	err := s.getQuerier(ctx).QueryRow(ctx, `
		INSERT INTO doc_counters (family, current_val)
		VALUES ($1, $2)
		ON CONFLICT (family) DO UPDATE SET current_val = $2
		RETURNING current_val
	`, family.Code, value-1).Scan(&result)
	if err != nil {
		return fmt.Errorf("seed counter for %s: %w", family.Code, err)
	}
	return nil
}

// Format renders a counter value as a business number.
func Format(family corenumerator.Family, num int64) string {
	padWidth := family.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}
	return fmt.Sprintf("%s-%0*d", family.Prefix, padWidth, num)
}

// Parse extracts the numeric part from a formatted number, stripping any
// non-numeric suffix legacy numbers may carry. Returns -1 if no numeric
// part is found.
func Parse(formatted string) int64 {
	idx := strings.LastIndexByte(formatted, '-')
	if idx < 0 || idx == len(formatted)-1 {
		return -1
	}
	digits := formatted[idx+1:]

	// Strip trailing non-numeric suffix (e.g. "00042B" -> "00042").
	end := 0
	for end < len(digits) && digits[end] >= '0' && digits[end] <= '9' {
		end++
	}
	if end == 0 {
		return -1
	}

	num, err := strconv.ParseInt(digits[:end], 10, 64)
	if err != nil {
		return -1
	}
	return num
}
