package inventory

// DeriveLevel computes the stock level from quantity and the minimum stock
// threshold. Pure function; the sticky overrides are handled by Item.Status,
// not here.
func DeriveLevel(quantity, minStockLevel int64) StockLevel {
	switch {
	case quantity <= 0:
		return LevelOutOfStock
	case quantity <= minStockLevel:
		return LevelLowStock
	default:
		return LevelInStock
	}
}

// Transition describes the status change produced by one mutation.
type Transition struct {
	From Status
	To   Status
}

// Changed reports whether the user-visible status moved.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// ShouldAlert decides whether this mutation emits a notification, and which
// severity it carries. Rules:
//
//   - at most one alert per mutation, matching the final status — a drop
//     straight through low-stock to out-of-stock alerts once, as out-of-stock;
//   - only stock-decreasing mutations alert; returns and purchase receipts
//     restock silently even when the level stays low;
//   - recovery to in-stock is always silent;
//   - items under a sticky override have no visible transition, so they
//     never alert.
func (t Transition) ShouldAlert(quantityDelta int64) (AlertSeverity, bool) {
	if quantityDelta >= 0 || !t.Changed() {
		return "", false
	}
	switch t.To {
	case Status(LevelOutOfStock):
		return SeverityCritical, true
	case Status(LevelLowStock):
		return SeverityHigh, true
	default:
		return "", false
	}
}

// AlertSeverity is the priority carried by a stock notification.
type AlertSeverity string

const (
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)
