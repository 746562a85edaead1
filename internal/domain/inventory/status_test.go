package inventory

import (
	"testing"

	"stockledger/internal/core/types"
)

func TestDeriveLevel(t *testing.T) {
	cases := []struct {
		name     string
		quantity int64
		min      int64
		want     StockLevel
	}{
		{"well above threshold", 100, 10, LevelInStock},
		{"one above threshold", 11, 10, LevelInStock},
		{"exactly at threshold", 10, 10, LevelLowStock},
		{"below threshold", 5, 10, LevelLowStock},
		{"exactly zero", 0, 10, LevelOutOfStock},
		{"zero with zero threshold", 0, 0, LevelOutOfStock},
		{"positive with zero threshold", 1, 0, LevelInStock},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveLevel(tc.quantity, tc.min); got != tc.want {
				t.Errorf("DeriveLevel(%d, %d) = %s, want %s", tc.quantity, tc.min, got, tc.want)
			}
		})
	}
}

func TestShouldAlert(t *testing.T) {
	cases := []struct {
		name         string
		from, to     StockLevel
		delta        int64
		wantSeverity AlertSeverity
		wantAlert    bool
	}{
		{"drop into low stock", LevelInStock, LevelLowStock, -5, SeverityHigh, true},
		{"drop into out of stock", LevelLowStock, LevelOutOfStock, -3, SeverityCritical, true},
		{"drop through low straight to out", LevelInStock, LevelOutOfStock, -50, SeverityCritical, true},
		{"decrement without crossing", LevelInStock, LevelInStock, -1, "", false},
		{"decrement while already low", LevelLowStock, LevelLowStock, -1, "", false},
		{"restock into low stays silent", LevelOutOfStock, LevelLowStock, 3, "", false},
		{"restock to in-stock stays silent", LevelLowStock, LevelInStock, 20, "", false},
		{"zero delta", LevelLowStock, LevelLowStock, 0, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := Transition{From: Status(tc.from), To: Status(tc.to)}
			severity, ok := tr.ShouldAlert(tc.delta)
			if ok != tc.wantAlert {
				t.Fatalf("ShouldAlert(%d) ok = %v, want %v", tc.delta, ok, tc.wantAlert)
			}
			if severity != tc.wantSeverity {
				t.Errorf("ShouldAlert(%d) severity = %q, want %q", tc.delta, severity, tc.wantSeverity)
			}
		})
	}
}

func TestShouldAlert_OverrideSuppressesTransition(t *testing.T) {
	item := &Item{
		Quantity:      20,
		MinStockLevel: 10,
		StockLevel:    LevelInStock,
		Override:      OverrideOnOrder,
	}

	before := item.Status()
	item.ApplyQuantityDelta(-15) // drops computed level to low-stock
	after := item.Status()

	tr := Transition{From: before, To: after}
	if _, ok := tr.ShouldAlert(-15); ok {
		t.Error("item under override must not alert")
	}
	if after != Status(OverrideOnOrder) {
		t.Errorf("visible status = %s, want %s", after, OverrideOnOrder)
	}
	if item.StockLevel != LevelLowStock {
		t.Errorf("computed level = %s, want %s (keeps tracking underneath)", item.StockLevel, LevelLowStock)
	}
}

func TestItemStatus_OverridePrecedence(t *testing.T) {
	item := &Item{Quantity: 5, MinStockLevel: 10, StockLevel: LevelLowStock}

	if got := item.Status(); got != Status(LevelLowStock) {
		t.Fatalf("Status() = %s, want computed level", got)
	}

	if err := item.SetOverride(OverrideDiscontinued); err != nil {
		t.Fatalf("SetOverride: %v", err)
	}
	if got := item.Status(); got != Status(OverrideDiscontinued) {
		t.Errorf("Status() = %s, want override", got)
	}

	item.ClearOverride()
	if got := item.Status(); got != Status(LevelLowStock) {
		t.Errorf("Status() after clear = %s, want computed level", got)
	}
}

func TestSetOverride_RejectsUnknown(t *testing.T) {
	item := &Item{}
	if err := item.SetOverride(Override("backordered")); err == nil {
		t.Error("expected validation error for unknown override")
	}
}

func TestApplyQuantityDelta_RecomputesDerivedFields(t *testing.T) {
	item := &Item{
		Quantity:      10,
		MinStockLevel: 4,
		Price:         types.MustMoney("2.50"),
		StockLevel:    LevelInStock,
	}

	item.ApplyQuantityDelta(-7)

	if item.Quantity != 3 {
		t.Fatalf("quantity = %d, want 3", item.Quantity)
	}
	if item.StockLevel != LevelLowStock {
		t.Errorf("level = %s, want %s", item.StockLevel, LevelLowStock)
	}
	if !item.TotalValue.Equal(types.MustMoney("7.50")) {
		t.Errorf("total value = %s, want 7.50", item.TotalValue)
	}
}
