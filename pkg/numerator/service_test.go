package numerator

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"

	corenumerator "backoffice/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the counter upsert: every call bumps the value
// for the family key.
type mockQuerier struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{counters: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, _ := args[0].(string)
	if len(args) == 2 {
		// SetNext path: second arg is the seeded value.
		if val, ok := args[1].(int64); ok {
			m.counters[key] = val
			return &mockRow{val: val}
		}
	}
	m.counters[key]++
	return &mockRow{val: m.counters[key]}
}

func TestNext_SequentialPerFamily(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()

	num, err := svc.Next(ctx, corenumerator.FamilySale)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "SAL-00001" {
		t.Errorf("expected SAL-00001, got %s", num)
	}

	num, err = svc.Next(ctx, corenumerator.FamilySale)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "SAL-00002" {
		t.Errorf("expected SAL-00002, got %s", num)
	}

	// Another family has an independent counter.
	num, err = svc.Next(ctx, corenumerator.FamilyQuickSale)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "QSL-00001" {
		t.Errorf("expected QSL-00001, got %s", num)
	}
}

func TestSetNext_SeedsCounter(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()

	if err := svc.SetNext(ctx, corenumerator.FamilyPurchase, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	num, err := svc.Next(ctx, corenumerator.FamilyPurchase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PUR-00100" {
		t.Errorf("expected PUR-00100, got %s", num)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		family corenumerator.Family
		num    int64
		want   string
	}{
		{"default pad", corenumerator.Family{Code: "x", Prefix: "SAL"}, 42, "SAL-00042"},
		{"explicit pad", corenumerator.Family{Code: "x", Prefix: "PUR", PadWidth: 3}, 7, "PUR-007"},
		{"overflow pad", corenumerator.Family{Code: "x", Prefix: "QSL", PadWidth: 3}, 12345, "QSL-12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.family, tt.num); got != tt.want {
				t.Errorf("Format() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		formatted string
		want      int64
	}{
		{"SAL-00042", 42},
		{"SAL-00042B", 42},
		{"no-digits-", -1},
		{"plain", -1},
	}

	for _, tt := range tests {
		if got := Parse(tt.formatted); got != tt.want {
			t.Errorf("Parse(%q) = %d, want %d", tt.formatted, got, tt.want)
		}
	}
}
