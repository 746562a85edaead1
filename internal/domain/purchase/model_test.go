package purchase

import (
	"context"
	"fmt"
	"testing"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/ledger"
	"stockledger/pkg/numerator"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusOrdered, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusCompleted, false},
		{StatusOrdered, StatusShipped, true},
		{StatusOrdered, StatusCancelled, true},
		{StatusOrdered, StatusCompleted, false},
		{StatusOrdered, StatusPending, false},
		{StatusShipped, StatusCompleted, true},
		{StatusShipped, StatusCancelled, true},
		{StatusShipped, StatusOrdered, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusPending, false},
		{StatusCancelled, StatusOrdered, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_to_%s", tt.from, tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusOrdered, StatusShipped} {
		if IsTerminal(s) {
			t.Errorf("IsTerminal(%s) = true, want false", s)
		}
	}
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		if !IsTerminal(s) {
			t.Errorf("IsTerminal(%s) = false, want true", s)
		}
	}
}

func TestOrderTransition_StampsReceivedDateOnCompletion(t *testing.T) {
	order := &Order{Status: StatusShipped}

	if err := order.Transition(StatusCompleted); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if order.ReceivedDate == nil {
		t.Error("ReceivedDate not stamped on completion")
	}
}

func TestOrderTransition_RejectsIllegalMove(t *testing.T) {
	order := &Order{Status: StatusPending}

	err := order.Transition(StatusCompleted)
	if !apperror.IsCode(err, apperror.CodeInvalidState) {
		t.Fatalf("Transition() error = %v, want INVALID_STATE", err)
	}
	if order.Status != StatusPending {
		t.Errorf("status = %q, want unchanged pending", order.Status)
	}
	if order.ReceivedDate != nil {
		t.Error("ReceivedDate stamped on rejected transition")
	}
}

func TestOrderRecalculateTotal(t *testing.T) {
	order := &Order{
		Lines: []OrderLine{
			{Quantity: 3, UnitPrice: types.MustMoney("2.50")},
			{Quantity: 10, UnitPrice: types.MustMoney("1.00")},
		},
	}
	order.RecalculateTotal()

	if want := types.MustMoney("17.50"); !order.TotalAmount.Equal(want) {
		t.Errorf("total = %s, want %s", order.TotalAmount, want)
	}
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeOrderRepo struct {
	orders map[id.ID]*Order
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *Order) error {
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, tenantID tenant.ID, orderID id.ID) (*Order, error) {
	o, ok := f.orders[orderID]
	if !ok || o.TenantID != tenantID {
		return nil, apperror.NewNotFound("PurchaseOrder", orderID)
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) GetForUpdate(ctx context.Context, tenantID tenant.ID, orderID id.ID) (*Order, error) {
	return f.GetByID(ctx, tenantID, orderID)
}

func (f *fakeOrderRepo) UpdateHeader(ctx context.Context, order *Order) error {
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) List(ctx context.Context, tenantID tenant.ID, filter ListFilter) ([]*Order, error) {
	return nil, nil
}

type recordingCoordinator struct {
	applied []ledger.Mutation
	batches int
}

func (r *recordingCoordinator) ApplyBatch(ctx context.Context, ms []ledger.Mutation) ([]*ledger.Result, error) {
	r.batches++
	r.applied = append(r.applied, ms...)
	results := make([]*ledger.Result, len(ms))
	for i := range results {
		results[i] = &ledger.Result{}
	}
	return results, nil
}

type fakeNumerator struct {
	n int64
}

func (f *fakeNumerator) Next(ctx context.Context, tenantID tenant.ID, cfg numerator.Config) (string, error) {
	f.n++
	return fmt.Sprintf("%s-%05d", cfg.Prefix, f.n), nil
}

func TestSetStatus_CompletionReceivesEveryLine(t *testing.T) {
	repo := &fakeOrderRepo{orders: make(map[id.ID]*Order)}
	coord := &recordingCoordinator{}
	svc := NewService(repo, coord, &fakeNumerator{}, fakeTxManager{})

	tenantID := id.New()
	itemA, itemB := id.New(), id.New()
	order := &Order{
		Supplier: "Acme Supply",
		Lines: []OrderLine{
			{ItemID: itemA, Quantity: 20, UnitPrice: types.MustMoney("1.50")},
			{ItemID: itemB, Quantity: 5, UnitPrice: types.MustMoney("4.00")},
		},
	}
	if err := svc.Create(context.Background(), tenantID, order); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if order.OrderNumber != "PO-00001" {
		t.Errorf("order number = %q, want PO-00001", order.OrderNumber)
	}

	for _, to := range []Status{StatusOrdered, StatusShipped} {
		if _, err := svc.SetStatus(context.Background(), tenantID, order.ID, to); err != nil {
			t.Fatalf("SetStatus(%s) error = %v", to, err)
		}
	}
	if len(coord.applied) != 0 {
		t.Fatalf("stock received before completion: %d mutations", len(coord.applied))
	}

	completed, err := svc.SetStatus(context.Background(), tenantID, order.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("SetStatus(completed) error = %v", err)
	}
	if completed.ReceivedDate == nil {
		t.Error("ReceivedDate not stamped")
	}

	if len(coord.applied) != 2 {
		t.Fatalf("applied %d mutations, want one per line", len(coord.applied))
	}
	if coord.batches != 1 {
		t.Errorf("batches = %d, want all receipts in one batch", coord.batches)
	}
	for i, m := range coord.applied {
		if m.Kind != ledger.KindPurchaseReceipt {
			t.Errorf("mutation %d kind = %q, want purchase_receipt", i, m.Kind)
		}
		if m.ReferenceID != order.ID {
			t.Errorf("mutation %d reference = %s, want order id", i, m.ReferenceID)
		}
	}
	if coord.applied[0].QuantityDelta != 20 || coord.applied[1].QuantityDelta != 5 {
		t.Errorf("deltas = %d/%d, want 20/5", coord.applied[0].QuantityDelta, coord.applied[1].QuantityDelta)
	}
}

func TestSetStatus_TerminalOrderRejectsFurtherMoves(t *testing.T) {
	repo := &fakeOrderRepo{orders: make(map[id.ID]*Order)}
	svc := NewService(repo, &recordingCoordinator{}, &fakeNumerator{}, fakeTxManager{})

	tenantID := id.New()
	order := &Order{
		Lines: []OrderLine{{ItemID: id.New(), Quantity: 1, UnitPrice: types.MustMoney("1.00")}},
	}
	if err := svc.Create(context.Background(), tenantID, order); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.SetStatus(context.Background(), tenantID, order.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel error = %v", err)
	}

	_, err := svc.SetStatus(context.Background(), tenantID, order.ID, StatusOrdered)
	if !apperror.IsCode(err, apperror.CodeInvalidState) {
		t.Fatalf("SetStatus() error = %v, want INVALID_STATE", err)
	}
}
