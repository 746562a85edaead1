// Package numerator provides document auto-numbering.
//
// Receipt and order numbers are human-readable display ids with a strictly
// increasing numeric suffix. The counter is a per-tenant row in
// sys_sequences bumped with UPSERT .. RETURNING, so two concurrent callers
// can never read the same "last" value; the display format is a pure
// formatting layer on top of the counter. The unique index on the number
// column stays as a final guard, and a collision there surfaces as a
// duplicate-entry error the caller retries.
package numerator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"stockledger/internal/core/tenant"
)

// Querier is the database access the numerator needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierProvider yields the querier for the current context. Numbers are
// allocated inside the document's transaction so an aborted document does
// not burn visible numbers out of order with its own retry.
type QuerierProvider func(ctx context.Context) Querier

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g. "S", "PO")
	Prefix string

	// PadWidth is the minimum number width (default 5)
	PadWidth int
}

// DefaultConfig returns the standard five-digit format.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:   prefix,
		PadWidth: 5,
	}
}

// Service allocates document numbers from per-tenant sequences.
type Service struct {
	querier QuerierProvider
}

// New creates a numerator service.
func New(querier QuerierProvider) *Service {
	return &Service{querier: querier}
}

// Next allocates the next number for (tenant, prefix) and formats it.
// Pattern: PREFIX-XXXXX (e.g. S-00042).
func (s *Service) Next(ctx context.Context, tenantID tenant.ID, cfg Config) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	var num int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (tenant_id, key, current_val)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, tenantID, cfg.Prefix).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next sequence value: %w", err)
	}

	return FormatNumber(cfg, num), nil
}

// SetNext sets the counter value (migration from the legacy scan-the-last-
// record numbering).
func (s *Service) SetNext(ctx context.Context, tenantID tenant.ID, cfg Config, value int64) error {
	var result int64
	return s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (tenant_id, key, current_val)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, key) DO UPDATE SET current_val = $3
		RETURNING current_val
	`, tenantID, cfg.Prefix, value).Scan(&result)
}

// FormatNumber renders a counter value in display form.
func FormatNumber(cfg Config, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}

// ParseNumber extracts the numeric suffix from a formatted number.
// Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	idx := strings.LastIndex(formatted, "-")
	if idx < 0 || idx+1 >= len(formatted) {
		return -1
	}
	num, err := strconv.ParseInt(formatted[idx+1:], 10, 64)
	if err != nil {
		return -1
	}
	return num
}
