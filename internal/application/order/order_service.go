package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tradelink/backend/internal/domain/catalog"
	"github.com/tradelink/backend/internal/domain/order"
	"github.com/tradelink/backend/internal/domain/shared"
	"github.com/tradelink/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// maxTransitionRetries bounds the optimistic-lock retry loop on status
// transitions. Each retry re-reads the order and re-decides the transition.
const maxTransitionRetries = 3

// Metrics records business-level measurements for order operations.
// Implementations must be safe for concurrent use.
type Metrics interface {
	RecordOrderCreated(ctx context.Context)
	RecordTransition(ctx context.Context, from, to, role string)
	RecordTransitionDenied(ctx context.Context, from, to, role string)
	RecordTransitionRetry(ctx context.Context)
	RecordStockEffect(ctx context.Context, kind string, success bool)
}

// Service handles order lifecycle operations
type Service struct {
	orderRepo      order.Repository
	productRepo    catalog.Repository
	txScope        TransactionScope
	machine        *order.StateMachine
	stockSync      *stock.Synchronizer
	eventPublisher shared.EventPublisher
	metrics        Metrics
	logger         *zap.Logger
}

// NewService creates a new order Service
func NewService(
	orderRepo order.Repository,
	productRepo catalog.Repository,
	txScope TransactionScope,
	logger *zap.Logger,
) *Service {
	return &Service{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		txScope:     txScope,
		machine:     order.NewStateMachine(order.NewTransitionTable()),
		stockSync:   stock.NewSynchronizer(),
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the optional business metrics recorder
func (s *Service) SetMetrics(metrics Metrics) {
	s.metrics = metrics
}

// Create places a new order for the acting retailer against a catalog
// product. Pricing, unit and bulk discount terms are snapshotted from the
// product at creation time.
func (s *Service) Create(ctx context.Context, actor order.Actor, req CreateOrderRequest) (*OrderResponse, error) {
	if actor.Role != order.RoleRetailer {
		return nil, shared.ErrForbidden
	}

	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product does not exist")
	}
	if !product.IsActive {
		return nil, shared.NewDomainError("PRODUCT_INACTIVE", "Product is not available for ordering")
	}
	if product.MinOrderQuantity.IsPositive() && req.Quantity.LessThan(product.MinOrderQuantity) {
		return nil, shared.NewDomainError("BELOW_MIN_ORDER_QUANTITY",
			fmt.Sprintf("Minimum order quantity for this product is %s", product.MinOrderQuantity))
	}
	if req.Quantity.GreaterThan(product.Quantity) {
		return nil, shared.ErrInsufficientStock
	}

	orderNumber, err := s.orderRepo.GenerateOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	o, err := order.NewOrder(order.NewOrderParams{
		OrderNumber:     orderNumber,
		RetailerID:      actor.UserID,
		WholesalerID:    product.WholesalerID,
		ProductID:       product.ID,
		ProductName:     product.Name,
		Quantity:        req.Quantity,
		UnitPrice:       product.Price,
		MeasurementUnit: product.MeasurementUnit,
		BulkDiscount: order.BulkDiscount{
			MinQuantity:        product.BulkDiscount.MinQuantity,
			DiscountPercentage: product.BulkDiscount.DiscountPercentage,
		},
		DeliveryPlace:     req.DeliveryPlace,
		DeliveryLatitude:  req.DeliveryLatitude,
		DeliveryLongitude: req.DeliveryLongitude,
		PaymentMethod:     req.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated(ctx)
	}
	s.publishEvents(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// GetByID retrieves an order visible to the actor
func (s *Service) GetByID(ctx context.Context, actor order.Actor, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !s.machine.CanRead(o, actor) {
		return nil, shared.ErrForbidden
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// List retrieves the orders visible to the actor with filtering and
// pagination: own orders for the three trading roles, everything for admins
func (s *Service) List(ctx context.Context, actor order.Actor, filter OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = *filter.Status
	}
	if filter.ProductID != nil {
		domainFilter.Filters["product_id"] = *filter.ProductID
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}

	orders, err := s.orderRepo.FindForActor(ctx, actor, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.CountForActor(ctx, actor, domainFilter)
	if err != nil {
		return nil, err
	}

	page := shared.NewPaginated(ToOrderResponses(orders), total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// UpdateStatus moves an order to a new status on behalf of the actor. The
// transition and its stock side effects run in one transaction; version
// conflicts are retried against a fresh read.
func (s *Service) UpdateStatus(ctx context.Context, actor order.Actor, orderID uuid.UUID, req UpdateStatusRequest) (*StatusUpdateResponse, error) {
	target := order.OrderStatus(req.Status)
	treq := order.TransitionRequest{
		Actor:          actor,
		Target:         target,
		Reason:         req.Reason,
		TransporterID:  req.TransporterID,
		AssignmentType: order.AssignmentType(req.AssignmentType),
	}

	var lastErr error
	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		resp, err := s.transition(ctx, orderID, treq)
		if err == nil {
			return resp, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
		lastErr = err
		if s.metrics != nil {
			s.metrics.RecordTransitionRetry(ctx)
		}
		s.logger.Debug("order transition hit a version conflict, retrying",
			zap.String("order_id", orderID.String()),
			zap.String("target", string(target)),
			zap.Int("attempt", attempt+1))
	}
	return nil, lastErr
}

// transition runs a single attempt of the transition transaction
func (s *Service) transition(ctx context.Context, orderID uuid.UUID, treq order.TransitionRequest) (*StatusUpdateResponse, error) {
	var (
		updated    *order.Order
		warnings   []string
		fromStatus order.OrderStatus
	)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		fromStatus = o.Status

		decision, err := s.machine.Decide(o, treq)
		if err != nil {
			return err
		}
		if err := s.machine.Apply(o, treq, decision); err != nil {
			return err
		}

		for _, effect := range decision.Effects {
			effectErr := s.runEffect(ctx, repos, o, effect)
			if s.metrics != nil {
				s.metrics.RecordStockEffect(ctx, string(effect.Kind), effectErr == nil)
			}
			if effectErr != nil {
				if effect.Fatal {
					return effectErr
				}
				s.logger.Warn("non-fatal stock side effect failed",
					zap.String("order_id", o.ID.String()),
					zap.String("effect", string(effect.Kind)),
					zap.Error(effectErr))
				warnings = append(warnings, fmt.Sprintf("%s: %s", effect.Kind, effectErr.Error()))
			}
		}

		if err := repos.OrderRepo().SaveWithLock(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		var invalid *order.InvalidTransitionError
		if s.metrics != nil && errors.As(err, &invalid) {
			s.metrics.RecordTransitionDenied(ctx, string(invalid.From), string(invalid.To), string(invalid.Role))
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordTransition(ctx, string(fromStatus), string(updated.Status), string(treq.Actor.Role))
	}
	s.publishEvents(ctx, updated)

	return &StatusUpdateResponse{
		Order:    ToOrderResponse(updated),
		Warnings: warnings,
	}, nil
}

// runEffect executes one stock side effect through the synchronizer
func (s *Service) runEffect(ctx context.Context, repos TransactionalRepositories, o *order.Order, effect order.Effect) error {
	switch effect.Kind {
	case order.EffectDecrementStock:
		return s.stockSync.Decrement(ctx, repos.StockRepo(), o)
	case order.EffectMirrorSystemStock:
		return s.stockSync.MirrorCertifiedOrder(ctx, repos.StockRepo(), o)
	case order.EffectRestoreStock:
		return s.stockSync.Restore(ctx, repos.StockRepo(), o)
	}
	return shared.NewDomainError("UNKNOWN_EFFECT", fmt.Sprintf("Unknown stock effect %q", effect.Kind))
}

// ResolveDispute settles an open dispute on behalf of the order's wholesaler.
// With reassign the order goes back to the free transporter pool.
func (s *Service) ResolveDispute(ctx context.Context, actor order.Actor, orderID uuid.UUID, req ResolveDisputeRequest) (*OrderResponse, error) {
	if actor.Role != order.RoleWholesaler {
		return nil, shared.ErrForbidden
	}

	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.WholesalerID != actor.UserID {
		return nil, shared.ErrForbidden
	}

	if err := o.ResolveDispute(actor.UserID, req.Notes, req.Reassign); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// HandleReturn settles a returned order: accept restores wholesaler stock and
// refunds the payment, reject records the reason and awaits reassignment.
func (s *Service) HandleReturn(ctx context.Context, actor order.Actor, orderID uuid.UUID, req HandleReturnRequest) (*StatusUpdateResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusReturnToWholesaler {
		return nil, shared.NewDomainError("INVALID_STATE", "Order has no pending return to settle")
	}

	var target order.OrderStatus
	switch req.Action {
	case "accept":
		target = order.StatusReturnAccepted
	case "reject":
		target = order.StatusReturnRejected
	default:
		return nil, shared.NewDomainError("INVALID_ACTION",
			fmt.Sprintf("Return action must be accept or reject, got %q", req.Action))
	}

	return s.UpdateStatus(ctx, actor, orderID, UpdateStatusRequest{
		Status: string(target),
		Reason: req.Reason,
	})
}

// Delete hard-deletes an order. Only the owning retailer may delete, and only
// while the order sits in a status without downstream obligations.
func (s *Service) Delete(ctx context.Context, actor order.Actor, orderID uuid.UUID) error {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if actor.Role != order.RoleRetailer || o.RetailerID != actor.UserID {
		return shared.ErrForbidden
	}
	if !o.IsDeletable() {
		return shared.NewDomainError("ORDER_NOT_DELETABLE",
			fmt.Sprintf("Orders in status %s cannot be deleted", o.Status))
	}
	return s.orderRepo.Delete(ctx, orderID)
}

// Statistics aggregates the orders visible to the actor: total count, counts
// per status, and revenue from certified non-refunded orders
func (s *Service) Statistics(ctx context.Context, actor order.Actor) (*StatisticsResponse, error) {
	counts, err := s.orderRepo.CountByStatusForActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	revenue, err := s.orderRepo.SumRevenueForActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	resp := &StatisticsResponse{
		CountsByStatus: make(map[string]int64, len(counts)),
		TotalRevenue:   revenue,
	}
	for status, count := range counts {
		resp.CountsByStatus[string(status)] = count
		resp.TotalOrders += count
	}
	return resp, nil
}

// publishEvents publishes and clears pending domain events. Event delivery is
// best effort; failures are logged, not returned.
func (s *Service) publishEvents(ctx context.Context, o *order.Order) {
	if s.eventPublisher == nil {
		o.ClearDomainEvents()
		return
	}
	for _, event := range o.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.String("order_id", o.ID.String()),
				zap.Error(err))
		}
	}
	o.ClearDomainEvents()
}
