package sales

import (
	"context"
	"fmt"
	"testing"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/inventory"
	"stockledger/internal/domain/ledger"
	"stockledger/pkg/numerator"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeCoordinator mutates in-memory items the way the real coordinator
// does, so round-trip tests can assert stock conservation.
type fakeCoordinator struct {
	items   map[id.ID]*inventory.Item
	applied []ledger.Mutation
	batches int
}

func (f *fakeCoordinator) Apply(ctx context.Context, m ledger.Mutation) (*ledger.Result, error) {
	item, ok := f.items[m.ItemID]
	if !ok {
		return nil, apperror.NewNotFound("InventoryItem", m.ItemID)
	}
	if m.QuantityDelta < 0 && item.Quantity < -m.QuantityDelta {
		return nil, apperror.NewInsufficientStock(item.ID.String(), item.Quantity, -m.QuantityDelta)
	}

	entry := &ledger.Entry{
		ID:        id.New(),
		TenantID:  m.TenantID,
		ItemID:    item.ID,
		Kind:      m.Kind,
		Quantity:  m.QuantityDelta,
		ItemName:  item.Name,
		ItemSKU:   item.SKU,
		UnitPrice: item.Price,
		UnitCost:  item.CostPrice,
	}
	item.ApplyQuantityDelta(m.QuantityDelta)
	f.applied = append(f.applied, m)
	return &ledger.Result{Entry: entry, Item: item}, nil
}

func (f *fakeCoordinator) ApplyBatch(ctx context.Context, ms []ledger.Mutation) ([]*ledger.Result, error) {
	f.batches++
	results := make([]*ledger.Result, 0, len(ms))
	for _, m := range ms {
		res, err := f.Apply(ctx, m)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

type fakeSaleRepo struct {
	sales map[id.ID]*Sale
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: make(map[id.ID]*Sale)}
}

func copySale(s *Sale) *Sale {
	cp := *s
	cp.Items = append([]Line(nil), s.Items...)
	return &cp
}

func (f *fakeSaleRepo) Create(ctx context.Context, sale *Sale) error {
	f.sales[sale.ID] = copySale(sale)
	return nil
}

func (f *fakeSaleRepo) GetByID(ctx context.Context, tenantID tenant.ID, saleID id.ID) (*Sale, error) {
	s, ok := f.sales[saleID]
	if !ok || s.TenantID != tenantID {
		return nil, apperror.NewNotFound("Sale", saleID)
	}
	return copySale(s), nil
}

func (f *fakeSaleRepo) GetForUpdate(ctx context.Context, tenantID tenant.ID, saleID id.ID) (*Sale, error) {
	return f.GetByID(ctx, tenantID, saleID)
}

func (f *fakeSaleRepo) UpdateHeader(ctx context.Context, sale *Sale) error {
	stored, ok := f.sales[sale.ID]
	if !ok {
		return apperror.NewNotFound("Sale", sale.ID)
	}
	lines := stored.Items
	f.sales[sale.ID] = copySale(sale)
	f.sales[sale.ID].Items = lines
	return nil
}

func (f *fakeSaleRepo) UpdateLineReturned(ctx context.Context, tenantID tenant.ID, lineID id.ID, returnedQuantity int64) error {
	for _, s := range f.sales {
		for i := range s.Items {
			if s.Items[i].ID == lineID {
				s.Items[i].ReturnedQuantity = returnedQuantity
				return nil
			}
		}
	}
	return apperror.NewNotFound("sale line", lineID)
}

func (f *fakeSaleRepo) Delete(ctx context.Context, tenantID tenant.ID, saleID id.ID) error {
	if _, ok := f.sales[saleID]; !ok {
		return apperror.NewNotFound("Sale", saleID)
	}
	delete(f.sales, saleID)
	return nil
}

func (f *fakeSaleRepo) List(ctx context.Context, tenantID tenant.ID, filter ListFilter) ([]*Sale, error) {
	return nil, nil
}

type balanceCall struct {
	customerID id.ID
	delta      ledger.CustomerDelta
}

type fakeBalances struct {
	calls []balanceCall
}

func (f *fakeBalances) ApplyDelta(ctx context.Context, tenantID tenant.ID, customerID id.ID, d ledger.CustomerDelta) error {
	f.calls = append(f.calls, balanceCall{customerID: customerID, delta: d})
	return nil
}

type fakeNumerator struct {
	n int64
}

func (f *fakeNumerator) Next(ctx context.Context, tenantID tenant.ID, cfg numerator.Config) (string, error) {
	f.n++
	return fmt.Sprintf("%s-%05d", cfg.Prefix, f.n), nil
}

type salesHarness struct {
	svc      *Service
	repo     *fakeSaleRepo
	coord    *fakeCoordinator
	balances *fakeBalances
}

func newSalesHarness(items ...*inventory.Item) *salesHarness {
	coord := &fakeCoordinator{items: make(map[id.ID]*inventory.Item)}
	for _, it := range items {
		coord.items[it.ID] = it
	}
	h := &salesHarness{
		repo:     newFakeSaleRepo(),
		coord:    coord,
		balances: &fakeBalances{},
	}
	h.svc = NewService(h.repo, h.coord, h.balances, &fakeNumerator{}, fakeTxManager{})
	return h
}

func stockedItem(tenantID tenant.ID, sku string, quantity int64, price string) *inventory.Item {
	item := &inventory.Item{
		ID:        id.New(),
		TenantID:  tenantID,
		SKU:       sku,
		Name:      "Item " + sku,
		Unit:      "pcs",
		Quantity:  quantity,
		Price:     types.MustMoney(price),
		CostPrice: types.MustMoney("1.00"),
	}
	item.StockLevel = inventory.DeriveLevel(quantity, 0)
	return item
}

func TestSaleCreate_SnapshotsPricesAndComputesTotals(t *testing.T) {
	tenantID := id.New()
	itemA := stockedItem(tenantID, "A-1", 10, "4.00")
	itemB := stockedItem(tenantID, "B-1", 6, "2.50")
	h := newSalesHarness(itemA, itemB)

	customerID := id.New()
	sale, err := h.svc.Create(context.Background(), tenantID, CreateInput{
		CustomerID: customerID,
		Items: []CreateLineInput{
			{ItemID: itemA.ID, Quantity: 3},
			{ItemID: itemB.ID, Quantity: 2},
		},
		Tax:        types.MustMoney("1.00"),
		Discount:   types.MustMoney("0.50"),
		AmountPaid: types.MustMoney("5.00"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if sale.ReceiptNumber != "S-00001" {
		t.Errorf("receipt number = %q, want S-00001", sale.ReceiptNumber)
	}
	// 3×4.00 + 2×2.50 + 1.00 - 0.50
	if want := types.MustMoney("17.50"); !sale.TotalAmount.Equal(want) {
		t.Errorf("total = %s, want %s", sale.TotalAmount, want)
	}
	if sale.PaymentStatus != PaymentPartial {
		t.Errorf("payment status = %q, want partial", sale.PaymentStatus)
	}
	if !sale.Items[0].Price.Equal(types.MustMoney("4.00")) {
		t.Errorf("line price = %s, want snapshot 4.00", sale.Items[0].Price)
	}

	if itemA.Quantity != 7 || itemB.Quantity != 4 {
		t.Errorf("stock = %d/%d, want 7/4", itemA.Quantity, itemB.Quantity)
	}
	if h.coord.batches != 1 {
		t.Errorf("batches = %d, want both lines in one batch", h.coord.batches)
	}

	if len(h.balances.calls) != 1 {
		t.Fatalf("balance calls = %d, want 1", len(h.balances.calls))
	}
	delta := h.balances.calls[0].delta
	if !delta.SpentDelta.Equal(types.MustMoney("17.50")) {
		t.Errorf("spent delta = %s, want 17.50", delta.SpentDelta)
	}
	if !delta.BalanceDelta.Equal(types.MustMoney("12.50")) {
		t.Errorf("balance delta = %s, want outstanding 12.50", delta.BalanceDelta)
	}
	if delta.SaleAt == nil {
		t.Error("sale date not carried in delta")
	}
}

func TestSaleCreate_InsufficientLineFailsWholeSale(t *testing.T) {
	tenantID := id.New()
	itemA := stockedItem(tenantID, "A-1", 10, "4.00")
	itemB := stockedItem(tenantID, "B-1", 1, "2.50")
	h := newSalesHarness(itemA, itemB)

	_, err := h.svc.Create(context.Background(), tenantID, CreateInput{
		Items: []CreateLineInput{
			{ItemID: itemA.ID, Quantity: 3},
			{ItemID: itemB.ID, Quantity: 2},
		},
	})
	if !apperror.IsInsufficientStock(err) {
		t.Fatalf("Create() error = %v, want INSUFFICIENT_STOCK", err)
	}
	if len(h.repo.sales) != 0 {
		t.Error("sale persisted despite failed line")
	}
	if len(h.balances.calls) != 0 {
		t.Error("customer balance touched despite failed sale")
	}
}

func TestSaleCreate_RejectsDiscountExceedingTotal(t *testing.T) {
	tenantID := id.New()
	item := stockedItem(tenantID, "A-1", 10, "4.00")
	h := newSalesHarness(item)

	_, err := h.svc.Create(context.Background(), tenantID, CreateInput{
		Items:    []CreateLineInput{{ItemID: item.ID, Quantity: 2}},
		Tax:      types.MustMoney("1.00"),
		Discount: types.MustMoney("9.50"),
	})
	if !apperror.IsCode(err, apperror.CodeValidation) {
		t.Fatalf("Create() error = %v, want VALIDATION_ERROR", err)
	}
	if len(h.repo.sales) != 0 {
		t.Error("sale persisted with negative total")
	}
}

func TestSaleCreate_RequiresLines(t *testing.T) {
	h := newSalesHarness()
	_, err := h.svc.Create(context.Background(), id.New(), CreateInput{})
	if !apperror.IsCode(err, apperror.CodeValidation) {
		t.Fatalf("Create() error = %v, want VALIDATION_ERROR", err)
	}
}

func TestRecordPayment_StatusProgression(t *testing.T) {
	tenantID := id.New()
	item := stockedItem(tenantID, "A-1", 100, "10.00")
	h := newSalesHarness(item)

	customerID := id.New()
	sale, err := h.svc.Create(context.Background(), tenantID, CreateInput{
		CustomerID: customerID,
		Items:      []CreateLineInput{{ItemID: item.ID, Quantity: 10}},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sale.PaymentStatus != PaymentPending {
		t.Fatalf("initial status = %q, want pending", sale.PaymentStatus)
	}

	sale, err = h.svc.RecordPayment(context.Background(), tenantID, sale.ID, types.MustMoney("40.00"))
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	if sale.PaymentStatus != PaymentPartial {
		t.Errorf("status after partial payment = %q, want partial", sale.PaymentStatus)
	}

	sale, err = h.svc.RecordPayment(context.Background(), tenantID, sale.ID, types.MustMoney("60.00"))
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	if sale.PaymentStatus != PaymentPaid {
		t.Errorf("status after full payment = %q, want paid", sale.PaymentStatus)
	}
	if !sale.Outstanding().Equal(types.ZeroMoney()) {
		t.Errorf("outstanding = %s, want 0", sale.Outstanding())
	}

	// Each payment reduces the customer's balance by its amount.
	last := h.balances.calls[len(h.balances.calls)-1].delta
	if !last.BalanceDelta.Equal(types.MustMoney("-60.00")) {
		t.Errorf("balance delta = %s, want -60.00", last.BalanceDelta)
	}
}

func TestRecordPayment_RejectsNonPositiveAmount(t *testing.T) {
	h := newSalesHarness()
	_, err := h.svc.RecordPayment(context.Background(), id.New(), id.New(), types.ZeroMoney())
	if !apperror.IsCode(err, apperror.CodeValidation) {
		t.Fatalf("RecordPayment() error = %v, want VALIDATION_ERROR", err)
	}
}

func TestProcessReturn_CumulativeAcrossPartialReturns(t *testing.T) {
	tenantID := id.New()
	item := stockedItem(tenantID, "A-1", 10, "5.00")
	h := newSalesHarness(item)

	sale, err := h.svc.Create(context.Background(), tenantID, CreateInput{
		Items: []CreateLineInput{{ItemID: item.ID, Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	lineID := sale.Items[0].ID

	for i := 0; i < 2; i++ {
		if _, err := h.svc.ProcessReturn(context.Background(), tenantID, sale.ID, lineID, 2); err != nil {
			t.Fatalf("return %d error = %v", i+1, err)
		}
	}

	// 4 of 5 returned; the third return of 2 exceeds the remaining 1.
	_, err = h.svc.ProcessReturn(context.Background(), tenantID, sale.ID, lineID, 2)
	if !apperror.IsCode(err, apperror.CodeBusinessRule) {
		t.Fatalf("third return error = %v, want BUSINESS_RULE_VIOLATION", err)
	}

	stored, _ := h.repo.GetByID(context.Background(), tenantID, sale.ID)
	if stored.Items[0].ReturnedQuantity != 4 {
		t.Errorf("returned quantity = %d, want 4", stored.Items[0].ReturnedQuantity)
	}
	if item.Quantity != 9 {
		t.Errorf("stock = %d, want 9 (5 sold, 4 returned)", item.Quantity)
	}

	if _, err := h.svc.ProcessReturn(context.Background(), tenantID, sale.ID, lineID, 1); err != nil {
		t.Fatalf("final unit return error = %v", err)
	}
	if item.Quantity != 10 {
		t.Errorf("stock = %d, want full restoration to 10", item.Quantity)
	}
}

func TestProcessReturn_AdjustsTotalsAndCustomer(t *testing.T) {
	tenantID := id.New()
	item := stockedItem(tenantID, "A-1", 10, "5.00")
	h := newSalesHarness(item)

	customerID := id.New()
	sale, err := h.svc.Create(context.Background(), tenantID, CreateInput{
		CustomerID: customerID,
		Items:      []CreateLineInput{{ItemID: item.ID, Quantity: 4}},
		AmountPaid: types.MustMoney("20.00"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	sale, err = h.svc.ProcessReturn(context.Background(), tenantID, sale.ID, sale.Items[0].ID, 1)
	if err != nil {
		t.Fatalf("ProcessReturn() error = %v", err)
	}

	if want := types.MustMoney("15.00"); !sale.TotalAmount.Equal(want) {
		t.Errorf("total = %s, want %s", sale.TotalAmount, want)
	}
	if sale.PaymentStatus != PaymentPaid {
		t.Errorf("status = %q, want paid after refunding overpayment", sale.PaymentStatus)
	}

	// The return mutation carries the customer reversal.
	last := h.coord.applied[len(h.coord.applied)-1]
	if last.Kind != ledger.KindReturn || last.Customer == nil {
		t.Fatalf("last mutation = %+v, want return with customer delta", last)
	}
	if !last.Customer.SpentDelta.Equal(types.MustMoney("-5.00")) {
		t.Errorf("spent delta = %s, want -5.00", last.Customer.SpentDelta)
	}
}

func TestSaleDelete_RestoresRemainingQuantities(t *testing.T) {
	tenantID := id.New()
	item := stockedItem(tenantID, "A-1", 10, "5.00")
	h := newSalesHarness(item)

	customerID := id.New()
	sale, err := h.svc.Create(context.Background(), tenantID, CreateInput{
		CustomerID: customerID,
		Items:      []CreateLineInput{{ItemID: item.ID, Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := h.svc.ProcessReturn(context.Background(), tenantID, sale.ID, sale.Items[0].ID, 2); err != nil {
		t.Fatalf("ProcessReturn() error = %v", err)
	}

	if err := h.svc.Delete(context.Background(), tenantID, sale.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// 5 sold, 2 returned, 3 restocked on delete.
	if item.Quantity != 10 {
		t.Errorf("stock = %d, want conservation back to 10", item.Quantity)
	}
	if _, err := h.repo.GetByID(context.Background(), tenantID, sale.ID); !apperror.IsNotFound(err) {
		t.Error("sale still readable after delete")
	}

	last := h.coord.applied[len(h.coord.applied)-1]
	if last.Kind != ledger.KindReturn || last.QuantityDelta != 3 {
		t.Errorf("final mutation = %+v, want return of remaining 3", last)
	}
}
