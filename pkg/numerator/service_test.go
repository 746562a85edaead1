package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"

	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
)

// Mock objects
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

// mockQuerier simulates the per-tenant UPSERT counter. Each (tenant, key)
// pair has its own value, like rows in sys_sequences.
type mockQuerier struct {
	mu     sync.Mutex
	values map[string]int64
	err    error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{values: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return &mockRow{err: m.err}
	}

	tenantID, _ := args[0].(tenant.ID)
	key, _ := args[1].(string)
	seq := tenantID.String() + "/" + key

	// SetNext passes the explicit value as the third argument.
	if len(args) == 3 {
		if val, ok := args[2].(int64); ok {
			m.values[seq] = val
			return &mockRow{val: val}
		}
	}

	m.values[seq]++
	return &mockRow{val: m.values[seq]}
}

func provider(q Querier) QuerierProvider {
	return func(ctx context.Context) Querier { return q }
}

func TestNext_SequentialPerTenant(t *testing.T) {
	q := newMockQuerier()
	svc := New(provider(q))
	ctx := context.Background()
	cfg := DefaultConfig("S")

	tenantID := id.New()
	for i, want := range []string{"S-00001", "S-00002", "S-00003"} {
		num, err := svc.Next(ctx, tenantID, cfg)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i+1, err)
		}
		if num != want {
			t.Errorf("call %d: expected %s, got %s", i+1, want, num)
		}
	}
}

func TestNext_TenantsCountIndependently(t *testing.T) {
	q := newMockQuerier()
	svc := New(provider(q))
	ctx := context.Background()
	cfg := DefaultConfig("S")

	tenantA, tenantB := id.New(), id.New()
	if _, err := svc.Next(ctx, tenantA, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Next(ctx, tenantA, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	num, err := svc.Next(ctx, tenantB, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "S-00001" {
		t.Errorf("expected second tenant to start at S-00001, got %s", num)
	}
}

func TestNext_PrefixesCountIndependently(t *testing.T) {
	q := newMockQuerier()
	svc := New(provider(q))
	ctx := context.Background()

	tenantID := id.New()
	if _, err := svc.Next(ctx, tenantID, DefaultConfig("S")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	num, err := svc.Next(ctx, tenantID, DefaultConfig("PO"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PO-00001" {
		t.Errorf("expected PO-00001, got %s", num)
	}
}

func TestNext_QueryError(t *testing.T) {
	q := newMockQuerier()
	q.err = errors.New("connection reset")
	svc := New(provider(q))

	_, err := svc.Next(context.Background(), id.New(), DefaultConfig("S"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestSetNext_ResumesFromValue(t *testing.T) {
	q := newMockQuerier()
	svc := New(provider(q))
	ctx := context.Background()
	cfg := DefaultConfig("S")

	tenantID := id.New()
	if err := svc.SetNext(ctx, tenantID, cfg, 41); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	num, err := svc.Next(ctx, tenantID, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "S-00042" {
		t.Errorf("expected S-00042, got %s", num)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		cfg  Config
		num  int64
		want string
	}{
		{DefaultConfig("S"), 1, "S-00001"},
		{DefaultConfig("PO"), 42, "PO-00042"},
		{DefaultConfig("S"), 123456, "S-123456"},
		{Config{Prefix: "INV", PadWidth: 3}, 7, "INV-007"},
		{Config{Prefix: "X"}, 9, "X-00009"}, // zero width falls back to 5
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.cfg, tt.num); got != tt.want {
			t.Errorf("FormatNumber(%q, %d) = %q, want %q", tt.cfg.Prefix, tt.num, got, tt.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"S-00042", 42},
		{"PO-00001", 1},
		{"S-123456", 123456},
		{"garbage", -1},
		{"S-", -1},
		{"S-abc", -1},
		{"", -1},
	}

	for _, tt := range tests {
		if got := ParseNumber(tt.in); got != tt.want {
			t.Errorf("ParseNumber(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
