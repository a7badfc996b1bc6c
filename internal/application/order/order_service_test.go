package order

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradelink/backend/internal/domain/catalog"
	"github.com/tradelink/backend/internal/domain/order"
	"github.com/tradelink/backend/internal/domain/shared"
	"github.com/tradelink/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// fakeOrderRepo is an in-memory order.Repository. FindByID hands out copies
// so a rolled-back attempt cannot leak mutations into the store, mirroring
// how a real transaction behaves.
type fakeOrderRepo struct {
	orders        map[uuid.UUID]*order.Order
	nextNumber    int
	conflictsLeft int
	saveErr       error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*order.Order), nextNumber: 1}
}

func (r *fakeOrderRepo) put(o *order.Order) {
	cp := *o
	cp.AssignmentHistory = append([]order.AssignmentEvent(nil), o.AssignmentHistory...)
	r.orders[o.ID] = &cp
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *o
	cp.AssignmentHistory = append([]order.AssignmentEvent(nil), o.AssignmentHistory...)
	return &cp, nil
}

func (r *fakeOrderRepo) FindAll(_ context.Context, _ shared.Filter) ([]order.Order, error) {
	var out []order.Order
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (r *fakeOrderRepo) FindForActor(ctx context.Context, actor order.Actor, filter shared.Filter) ([]order.Order, error) {
	var out []order.Order
	for _, o := range r.orders {
		if r.visible(o, actor) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) visible(o *order.Order, actor order.Actor) bool {
	switch actor.Role {
	case order.RoleRetailer:
		return o.RetailerID == actor.UserID
	case order.RoleWholesaler:
		return o.WholesalerID == actor.UserID
	case order.RoleTransporter:
		if o.TransporterID != nil {
			return *o.TransporterID == actor.UserID
		}
		return o.Status == order.StatusAssignedToTransporter
	case order.RoleAdmin:
		return true
	}
	return false
}

func (r *fakeOrderRepo) CountForActor(ctx context.Context, actor order.Actor, filter shared.Filter) (int64, error) {
	orders, err := r.FindForActor(ctx, actor, filter)
	return int64(len(orders)), err
}

func (r *fakeOrderRepo) Save(_ context.Context, o *order.Order) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.put(o)
	return nil
}

func (r *fakeOrderRepo) SaveWithLock(_ context.Context, o *order.Order) error {
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return shared.ErrConcurrencyConflict
	}
	stored, ok := r.orders[o.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != o.Version {
		return shared.ErrConcurrencyConflict
	}
	o.Version++
	r.put(o)
	return nil
}

func (r *fakeOrderRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.orders[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *fakeOrderRepo) CountByStatusForActor(ctx context.Context, actor order.Actor) (map[order.OrderStatus]int64, error) {
	counts := make(map[order.OrderStatus]int64)
	for _, o := range r.orders {
		if r.visible(o, actor) {
			counts[o.Status]++
		}
	}
	return counts, nil
}

func (r *fakeOrderRepo) SumRevenueForActor(ctx context.Context, actor order.Actor) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, o := range r.orders {
		if r.visible(o, actor) && o.CertifiedAt != nil && o.PaymentStatus == order.PaymentPaid {
			sum = sum.Add(o.TotalPrice)
		}
	}
	return sum, nil
}

func (r *fakeOrderRepo) GenerateOrderNumber(_ context.Context) (string, error) {
	n := r.nextNumber
	r.nextNumber++
	return fmt.Sprintf("ORD-2026-%05d", n), nil
}

var _ order.Repository = (*fakeOrderRepo)(nil)

// fakeLedgerRepo is an in-memory stock.Repository. Save and SaveWithLock
// fail independently so a mirror failure can be injected without breaking
// the decrement.
type fakeLedgerRepo struct {
	ledgers     map[uuid.UUID]*stock.Ledger
	saveErr     error
	saveLockErr error
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{ledgers: make(map[uuid.UUID]*stock.Ledger)}
}

func (r *fakeLedgerRepo) FindByID(_ context.Context, id uuid.UUID) (*stock.Ledger, error) {
	if l, ok := r.ledgers[id]; ok {
		return l, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeLedgerRepo) FindForProduct(_ context.Context, kind stock.LedgerKind, ownerID, productID uuid.UUID) (*stock.Ledger, error) {
	for _, l := range r.ledgers {
		if l.Kind == kind && l.OwnerID == ownerID && l.ProductID == productID {
			return l, nil
		}
	}
	return nil, nil
}

func (r *fakeLedgerRepo) FindBySourceOrder(_ context.Context, orderID uuid.UUID) (*stock.Ledger, error) {
	for _, l := range r.ledgers {
		if l.SourceOrderID != nil && *l.SourceOrderID == orderID {
			return l, nil
		}
	}
	return nil, nil
}

func (r *fakeLedgerRepo) ExistsForSourceOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	l, err := r.FindBySourceOrder(ctx, orderID)
	return l != nil, err
}

func (r *fakeLedgerRepo) FindByOwner(_ context.Context, kind stock.LedgerKind, ownerID uuid.UUID, _ shared.Filter) ([]stock.Ledger, error) {
	var out []stock.Ledger
	for _, l := range r.ledgers {
		if l.Kind == kind && l.OwnerID == ownerID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) CountByOwner(ctx context.Context, kind stock.LedgerKind, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	ledgers, err := r.FindByOwner(ctx, kind, ownerID, filter)
	return int64(len(ledgers)), err
}

func (r *fakeLedgerRepo) FindLowStockByOwner(_ context.Context, kind stock.LedgerKind, ownerID uuid.UUID) ([]stock.Ledger, error) {
	var out []stock.Ledger
	for _, l := range r.ledgers {
		if l.Kind == kind && l.OwnerID == ownerID && l.LowStockAlert {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) Save(_ context.Context, l *stock.Ledger) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.ledgers[l.ID] = l
	return nil
}

func (r *fakeLedgerRepo) SaveWithLock(_ context.Context, l *stock.Ledger) error {
	if r.saveLockErr != nil {
		return r.saveLockErr
	}
	r.ledgers[l.ID] = l
	return nil
}

var _ stock.Repository = (*fakeLedgerRepo)(nil)

// fakeProductRepo serves a fixed product catalog.
type fakeProductRepo struct {
	products map[uuid.UUID]*catalog.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*catalog.Product)}
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	return r.products[id], nil
}

func (r *fakeProductRepo) FindByWholesaler(_ context.Context, wholesalerID uuid.UUID, _ shared.Filter) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range r.products {
		if p.WholesalerID == wholesalerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

var _ catalog.Repository = (*fakeProductRepo)(nil)

type serviceFixture struct {
	service     *Service
	orderRepo   *fakeOrderRepo
	ledgerRepo  *fakeLedgerRepo
	productRepo *fakeProductRepo
	wholesaler  order.Actor
	retailer    order.Actor
	product     *catalog.Product
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	orderRepo := newFakeOrderRepo()
	ledgerRepo := newFakeLedgerRepo()
	productRepo := newFakeProductRepo()

	wholesalerID := uuid.New()
	product := &catalog.Product{
		BaseEntity:      shared.BaseEntity{ID: uuid.New()},
		WholesalerID:    wholesalerID,
		Name:            "Olive Oil 5L",
		Price:           decimal.NewFromInt(40),
		Quantity:        decimal.NewFromInt(500),
		MeasurementUnit: "can",
		IsActive:        true,
	}
	productRepo.products[product.ID] = product

	scope := NewNoOpTransactionScope(orderRepo, ledgerRepo)
	service := NewService(orderRepo, productRepo, scope, zap.NewNop())

	return &serviceFixture{
		service:     service,
		orderRepo:   orderRepo,
		ledgerRepo:  ledgerRepo,
		productRepo: productRepo,
		wholesaler:  order.Actor{UserID: wholesalerID, Role: order.RoleWholesaler},
		retailer:    order.Actor{UserID: uuid.New(), Role: order.RoleRetailer},
		product:     product,
	}
}

// placeOrder creates an order and walks it to the given status through the
// service itself.
func (f *serviceFixture) placeOrder(t *testing.T, target order.OrderStatus) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	resp, err := f.service.Create(ctx, f.retailer, CreateOrderRequest{
		ProductID:     f.product.ID,
		Quantity:      decimal.NewFromInt(10),
		DeliveryPlace: "Dock 4",
	})
	require.NoError(t, err)
	orderID := resp.ID
	if target == order.StatusPending {
		return orderID
	}

	transporterID := uuid.New()
	transporter := order.Actor{UserID: transporterID, Role: order.RoleTransporter}
	steps := []struct {
		actor order.Actor
		req   UpdateStatusRequest
		stop  order.OrderStatus
	}{
		{f.wholesaler, UpdateStatusRequest{Status: string(order.StatusAccepted)}, order.StatusAccepted},
		{f.wholesaler, UpdateStatusRequest{Status: string(order.StatusProcessing)}, order.StatusProcessing},
		{f.wholesaler, UpdateStatusRequest{Status: string(order.StatusAssignedToTransporter), TransporterID: &transporterID}, order.StatusAssignedToTransporter},
		{transporter, UpdateStatusRequest{Status: string(order.StatusAcceptedByTransporter)}, order.StatusAcceptedByTransporter},
		{transporter, UpdateStatusRequest{Status: string(order.StatusInTransit)}, order.StatusInTransit},
		{transporter, UpdateStatusRequest{Status: string(order.StatusDelivered)}, order.StatusDelivered},
	}
	for _, step := range steps {
		_, err := f.service.UpdateStatus(ctx, step.actor, orderID, step.req)
		require.NoError(t, err)
		if step.stop == target {
			return orderID
		}
	}
	t.Fatalf("unsupported target status %s", target)
	return uuid.Nil
}

func (f *serviceFixture) addWholesalerStock(t *testing.T, quantity int64) *stock.Ledger {
	t.Helper()
	l, err := stock.NewLedger(stock.KindWholesaler, f.wholesaler.UserID, f.product.ID,
		decimal.NewFromInt(quantity), decimal.Zero)
	require.NoError(t, err)
	f.ledgerRepo.ledgers[l.ID] = l
	return l
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots product terms", func(t *testing.T) {
		f := newServiceFixture(t)
		f.product.BulkDiscount = catalog.BulkDiscountRule{
			MinQuantity:        decimal.NewFromInt(10),
			DiscountPercentage: decimal.NewFromInt(5),
		}

		resp, err := f.service.Create(ctx, f.retailer, CreateOrderRequest{
			ProductID:     f.product.ID,
			Quantity:      decimal.NewFromInt(10),
			DeliveryPlace: "Dock 4",
		})
		require.NoError(t, err)

		assert.Equal(t, "ORD-2026-00001", resp.OrderNumber)
		assert.Equal(t, f.wholesaler.UserID, resp.WholesalerID)
		assert.Equal(t, "Olive Oil 5L", resp.ProductName)
		assert.True(t, resp.UnitPrice.Equal(decimal.NewFromInt(40)))
		// 10 * 40 = 400, 5% off = 20
		assert.True(t, resp.BulkDiscountUsed)
		assert.True(t, resp.TotalPrice.Equal(decimal.NewFromInt(380)), "got %s", resp.TotalPrice)
		assert.Equal(t, string(order.StatusPending), resp.Status)
	})

	t.Run("only retailers may create", func(t *testing.T) {
		f := newServiceFixture(t)
		for _, actor := range []order.Actor{
			f.wholesaler,
			{UserID: uuid.New(), Role: order.RoleTransporter},
			{UserID: uuid.New(), Role: order.RoleAdmin},
		} {
			_, err := f.service.Create(ctx, actor, CreateOrderRequest{ProductID: f.product.ID, Quantity: decimal.NewFromInt(1)})
			require.ErrorIs(t, err, shared.ErrForbidden, "role=%s", actor.Role)
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.service.Create(ctx, f.retailer, CreateOrderRequest{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1)})
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "PRODUCT_NOT_FOUND", derr.Code)
	})

	t.Run("inactive product", func(t *testing.T) {
		f := newServiceFixture(t)
		f.product.IsActive = false
		_, err := f.service.Create(ctx, f.retailer, CreateOrderRequest{ProductID: f.product.ID, Quantity: decimal.NewFromInt(1)})
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "PRODUCT_INACTIVE", derr.Code)
	})

	t.Run("below minimum order quantity", func(t *testing.T) {
		f := newServiceFixture(t)
		f.product.MinOrderQuantity = decimal.NewFromInt(5)
		_, err := f.service.Create(ctx, f.retailer, CreateOrderRequest{ProductID: f.product.ID, Quantity: decimal.NewFromInt(4)})
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "BELOW_MIN_ORDER_QUANTITY", derr.Code)
	})

	t.Run("quantity above available stock", func(t *testing.T) {
		f := newServiceFixture(t)
		f.product.Quantity = decimal.NewFromInt(3)

		_, err := f.service.Create(ctx, f.retailer, CreateOrderRequest{
			ProductID:     f.product.ID,
			Quantity:      decimal.NewFromInt(500),
			DeliveryPlace: "Dock 4",
		})
		require.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Empty(t, f.orderRepo.orders, "no order may be persisted")
	})
}

func TestServiceGetByID(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	orderID := f.placeOrder(t, order.StatusPending)

	t.Run("parties and admins read", func(t *testing.T) {
		_, err := f.service.GetByID(ctx, f.retailer, orderID)
		require.NoError(t, err)
		_, err = f.service.GetByID(ctx, f.wholesaler, orderID)
		require.NoError(t, err)
		_, err = f.service.GetByID(ctx, order.Actor{UserID: uuid.New(), Role: order.RoleAdmin}, orderID)
		require.NoError(t, err)
	})

	t.Run("strangers are refused", func(t *testing.T) {
		_, err := f.service.GetByID(ctx, order.Actor{UserID: uuid.New(), Role: order.RoleRetailer}, orderID)
		require.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := f.service.GetByID(ctx, f.retailer, uuid.New())
		require.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestServiceUpdateStatusCertification(t *testing.T) {
	ctx := context.Background()

	t.Run("deducts stock, mirrors it and marks paid", func(t *testing.T) {
		f := newServiceFixture(t)
		ledger := f.addWholesalerStock(t, 100)
		orderID := f.placeOrder(t, order.StatusDelivered)

		resp, err := f.service.UpdateStatus(ctx, f.retailer, orderID, UpdateStatusRequest{
			Status: string(order.StatusCertified),
		})
		require.NoError(t, err)
		assert.Empty(t, resp.Warnings)
		assert.Equal(t, string(order.StatusCertified), resp.Order.Status)
		assert.Equal(t, string(order.PaymentPaid), resp.Order.PaymentStatus)

		assert.True(t, ledger.Quantity.Equal(decimal.NewFromInt(90)))
		mirror, err := f.ledgerRepo.FindBySourceOrder(ctx, orderID)
		require.NoError(t, err)
		require.NotNil(t, mirror)
		assert.Equal(t, stock.KindSystem, mirror.Kind)
		assert.Equal(t, f.retailer.UserID, mirror.OwnerID)
		assert.True(t, mirror.Quantity.Equal(decimal.NewFromInt(10)))
	})

	t.Run("insufficient stock blocks certification", func(t *testing.T) {
		f := newServiceFixture(t)
		f.addWholesalerStock(t, 5)
		orderID := f.placeOrder(t, order.StatusDelivered)

		_, err := f.service.UpdateStatus(ctx, f.retailer, orderID, UpdateStatusRequest{
			Status: string(order.StatusCertified),
		})
		require.ErrorIs(t, err, shared.ErrInsufficientStock)

		got, err := f.service.GetByID(ctx, f.retailer, orderID)
		require.NoError(t, err)
		assert.Equal(t, string(order.StatusDelivered), got.Status, "order must stay delivered")
	})

	t.Run("missing ledger blocks certification", func(t *testing.T) {
		f := newServiceFixture(t)
		orderID := f.placeOrder(t, order.StatusDelivered)

		_, err := f.service.UpdateStatus(ctx, f.retailer, orderID, UpdateStatusRequest{
			Status: string(order.StatusCertified),
		})
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "STOCK_NOT_FOUND", derr.Code)
	})

	t.Run("mirror failure surfaces as a warning", func(t *testing.T) {
		f := newServiceFixture(t)
		ledger := f.addWholesalerStock(t, 100)
		orderID := f.placeOrder(t, order.StatusDelivered)
		// The mirror entry goes through Save; the decrement uses SaveWithLock
		// and stays healthy.
		f.ledgerRepo.saveErr = shared.NewDomainError("DB_DOWN", "boom")

		resp, err := f.service.UpdateStatus(ctx, f.retailer, orderID, UpdateStatusRequest{
			Status: string(order.StatusCertified),
		})
		require.NoError(t, err)
		require.Len(t, resp.Warnings, 1)
		assert.Contains(t, resp.Warnings[0], string(order.EffectMirrorSystemStock))
		assert.Equal(t, string(order.StatusCertified), resp.Order.Status)
		assert.True(t, ledger.Quantity.Equal(decimal.NewFromInt(90)), "decrement still applied")
	})
}

func TestServiceUpdateStatusRetries(t *testing.T) {
	ctx := context.Background()

	t.Run("retries version conflicts and succeeds", func(t *testing.T) {
		f := newServiceFixture(t)
		orderID := f.placeOrder(t, order.StatusPending)
		f.orderRepo.conflictsLeft = 2

		resp, err := f.service.UpdateStatus(ctx, f.wholesaler, orderID, UpdateStatusRequest{
			Status: string(order.StatusAccepted),
		})
		require.NoError(t, err)
		assert.Equal(t, string(order.StatusAccepted), resp.Order.Status)
	})

	t.Run("gives up after exhausting retries", func(t *testing.T) {
		f := newServiceFixture(t)
		orderID := f.placeOrder(t, order.StatusPending)
		f.orderRepo.conflictsLeft = 10

		_, err := f.service.UpdateStatus(ctx, f.wholesaler, orderID, UpdateStatusRequest{
			Status: string(order.StatusAccepted),
		})
		require.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("invalid transition is not retried", func(t *testing.T) {
		f := newServiceFixture(t)
		orderID := f.placeOrder(t, order.StatusPending)

		_, err := f.service.UpdateStatus(ctx, f.wholesaler, orderID, UpdateStatusRequest{
			Status: string(order.StatusDelivered),
		})
		var invalid *order.InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
	})
}

func TestServiceAssignmentTypes(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit free offer goes to the pool", func(t *testing.T) {
		f := newServiceFixture(t)
		orderID := f.placeOrder(t, order.StatusProcessing)

		resp, err := f.service.UpdateStatus(ctx, f.wholesaler, orderID, UpdateStatusRequest{
			Status:         string(order.StatusAssignedToTransporter),
			AssignmentType: "free",
		})
		require.NoError(t, err)
		assert.Nil(t, resp.Order.TransporterID)
		require.NotEmpty(t, resp.Order.AssignmentHistory)
		last := resp.Order.AssignmentHistory[len(resp.Order.AssignmentHistory)-1]
		assert.Equal(t, string(order.AssignmentFree), last.Type)
	})

	t.Run("specific assignment needs a transporter", func(t *testing.T) {
		f := newServiceFixture(t)
		orderID := f.placeOrder(t, order.StatusProcessing)

		_, err := f.service.UpdateStatus(ctx, f.wholesaler, orderID, UpdateStatusRequest{
			Status:         string(order.StatusAssignedToTransporter),
			AssignmentType: "specific",
		})
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_ASSIGNMENT_TYPE", derr.Code)
	})

	t.Run("free offer cannot target a transporter", func(t *testing.T) {
		f := newServiceFixture(t)
		orderID := f.placeOrder(t, order.StatusProcessing)
		transporterID := uuid.New()

		_, err := f.service.UpdateStatus(ctx, f.wholesaler, orderID, UpdateStatusRequest{
			Status:         string(order.StatusAssignedToTransporter),
			TransporterID:  &transporterID,
			AssignmentType: "free",
		})
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_ASSIGNMENT_TYPE", derr.Code)
	})
}

func TestServiceReturnFlow(t *testing.T) {
	ctx := context.Background()

	returnedOrder := func(t *testing.T, f *serviceFixture) uuid.UUID {
		t.Helper()
		orderID := f.placeOrder(t, order.StatusDelivered)

		_, err := f.service.UpdateStatus(ctx, f.retailer, orderID, UpdateStatusRequest{
			Status: string(order.StatusCertified),
		})
		require.NoError(t, err)
		_, err = f.service.UpdateStatus(ctx, f.retailer, orderID, UpdateStatusRequest{
			Status: string(order.StatusDisputed),
			Reason: "wrong product",
		})
		require.NoError(t, err)

		got, err := f.orderRepo.FindByID(ctx, orderID)
		require.NoError(t, err)
		require.NotNil(t, got.TransporterID)
		transporter := order.Actor{UserID: *got.TransporterID, Role: order.RoleTransporter}

		_, err = f.service.UpdateStatus(ctx, transporter, orderID, UpdateStatusRequest{
			Status: string(order.StatusReturnToWholesaler),
			Reason: "retailer refused the goods",
		})
		require.NoError(t, err)
		return orderID
	}

	t.Run("accepted return restores stock and refunds", func(t *testing.T) {
		f := newServiceFixture(t)
		ledger := f.addWholesalerStock(t, 100)
		orderID := returnedOrder(t, f)
		require.True(t, ledger.Quantity.Equal(decimal.NewFromInt(90)))

		resp, err := f.service.HandleReturn(ctx, f.wholesaler, orderID, HandleReturnRequest{Action: "accept"})
		require.NoError(t, err)
		assert.Equal(t, string(order.StatusReturnAccepted), resp.Order.Status)
		assert.Equal(t, string(order.PaymentRefunded), resp.Order.PaymentStatus)
		assert.True(t, ledger.Quantity.Equal(decimal.NewFromInt(100)))
	})

	t.Run("rejected return keeps stock deducted", func(t *testing.T) {
		f := newServiceFixture(t)
		ledger := f.addWholesalerStock(t, 100)
		orderID := returnedOrder(t, f)

		resp, err := f.service.HandleReturn(ctx, f.wholesaler, orderID, HandleReturnRequest{
			Action: "reject",
			Reason: "seal broken",
		})
		require.NoError(t, err)
		assert.Equal(t, string(order.StatusReturnRejected), resp.Order.Status)
		assert.True(t, ledger.Quantity.Equal(decimal.NewFromInt(90)))
	})

	t.Run("unknown action settles nothing", func(t *testing.T) {
		f := newServiceFixture(t)
		ledger := f.addWholesalerStock(t, 100)
		orderID := returnedOrder(t, f)

		_, err := f.service.HandleReturn(ctx, f.wholesaler, orderID, HandleReturnRequest{Action: "discard"})
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_ACTION", derr.Code)

		got, err := f.orderRepo.FindByID(ctx, orderID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusReturnToWholesaler, got.Status)
		assert.Equal(t, order.PaymentPaid, got.PaymentStatus)
		assert.True(t, ledger.Quantity.Equal(decimal.NewFromInt(90)), "stock must stay deducted")
	})

	t.Run("no pending return to settle", func(t *testing.T) {
		f := newServiceFixture(t)
		orderID := f.placeOrder(t, order.StatusPending)
		_, err := f.service.HandleReturn(ctx, f.wholesaler, orderID, HandleReturnRequest{Action: "accept"})
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_STATE", derr.Code)
	})
}

func TestServiceResolveDispute(t *testing.T) {
	ctx := context.Background()

	disputedOrder := func(t *testing.T, f *serviceFixture) uuid.UUID {
		t.Helper()
		f.addWholesalerStock(t, 100)
		orderID := f.placeOrder(t, order.StatusDelivered)
		_, err := f.service.UpdateStatus(ctx, f.retailer, orderID, UpdateStatusRequest{
			Status: string(order.StatusDisputed),
			Reason: "crushed boxes",
		})
		require.NoError(t, err)
		return orderID
	}

	t.Run("wholesaler resolves with reassignment", func(t *testing.T) {
		f := newServiceFixture(t)
		orderID := disputedOrder(t, f)

		resp, err := f.service.ResolveDispute(ctx, f.wholesaler, orderID, ResolveDisputeRequest{
			Notes:    "replacement sent",
			Reassign: true,
		})
		require.NoError(t, err)
		assert.Equal(t, string(order.StatusAssignedToTransporter), resp.Status)
		assert.Nil(t, resp.TransporterID)
		require.NotNil(t, resp.Dispute)
		assert.True(t, resp.Dispute.Resolved)
	})

	t.Run("only the order's wholesaler may resolve", func(t *testing.T) {
		f := newServiceFixture(t)
		orderID := disputedOrder(t, f)

		_, err := f.service.ResolveDispute(ctx, f.retailer, orderID, ResolveDisputeRequest{})
		require.ErrorIs(t, err, shared.ErrForbidden)

		_, err = f.service.ResolveDispute(ctx, order.Actor{UserID: uuid.New(), Role: order.RoleWholesaler}, orderID, ResolveDisputeRequest{})
		require.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("retailer deletes a pending order", func(t *testing.T) {
		f := newServiceFixture(t)
		orderID := f.placeOrder(t, order.StatusPending)

		require.NoError(t, f.service.Delete(ctx, f.retailer, orderID))
		_, err := f.orderRepo.FindByID(ctx, orderID)
		require.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("in-flight orders cannot be deleted", func(t *testing.T) {
		f := newServiceFixture(t)
		orderID := f.placeOrder(t, order.StatusInTransit)

		err := f.service.Delete(ctx, f.retailer, orderID)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "ORDER_NOT_DELETABLE", derr.Code)
	})

	t.Run("only the owning retailer may delete", func(t *testing.T) {
		f := newServiceFixture(t)
		orderID := f.placeOrder(t, order.StatusPending)

		err := f.service.Delete(ctx, f.wholesaler, orderID)
		require.ErrorIs(t, err, shared.ErrForbidden)
		err = f.service.Delete(ctx, order.Actor{UserID: uuid.New(), Role: order.RoleRetailer}, orderID)
		require.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestServiceListAndStatistics(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.addWholesalerStock(t, 100)

	pendingID := f.placeOrder(t, order.StatusPending)
	certifiedID := f.placeOrder(t, order.StatusDelivered)
	_, err := f.service.UpdateStatus(ctx, f.retailer, certifiedID, UpdateStatusRequest{
		Status: string(order.StatusCertified),
	})
	require.NoError(t, err)

	t.Run("retailer sees own orders", func(t *testing.T) {
		page, err := f.service.List(ctx, f.retailer, OrderListFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
	})

	t.Run("strangers see nothing", func(t *testing.T) {
		page, err := f.service.List(ctx, order.Actor{UserID: uuid.New(), Role: order.RoleRetailer}, OrderListFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), page.Total)
	})

	t.Run("statistics count status buckets and revenue", func(t *testing.T) {
		stats, err := f.service.Statistics(ctx, f.retailer)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.TotalOrders)
		assert.Equal(t, int64(1), stats.CountsByStatus[string(order.StatusPending)])
		assert.Equal(t, int64(1), stats.CountsByStatus[string(order.StatusCertified)])
		// One certified order of 10 * 40.
		assert.True(t, stats.TotalRevenue.Equal(decimal.NewFromInt(400)), "got %s", stats.TotalRevenue)
	})

	_ = pendingID
}
