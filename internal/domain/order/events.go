package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradelink/backend/internal/domain/shared"
)

// Event types for the order aggregate
const (
	EventOrderCreated        = "order.created"
	EventOrderStatusChanged  = "order.status_changed"
	EventOrderCertified      = "order.certified"
	EventOrderDisputed       = "order.disputed"
	EventDisputeResolved     = "order.dispute_resolved"
	EventTransporterAssigned = "order.transporter_assigned"
	EventAssignmentDeclined  = "order.assignment_declined"
	EventReturnSettled       = "order.return_settled"
)

const aggregateType = "Order"

// OrderCreatedEvent is emitted when a retailer places a new order
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderNumber  string          `json:"order_number"`
	RetailerID   uuid.UUID       `json:"retailer_id"`
	WholesalerID uuid.UUID       `json:"wholesaler_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

// NewOrderCreatedEvent creates an OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderCreated, aggregateType, o.ID),
		OrderNumber:     o.OrderNumber,
		RetailerID:      o.RetailerID,
		WholesalerID:    o.WholesalerID,
		ProductID:       o.ProductID,
		Quantity:        o.Quantity,
		TotalPrice:      o.TotalPrice,
	}
}

// OrderStatusChangedEvent is emitted on every lifecycle transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	ActorID   uuid.UUID   `json:"actor_id"`
	ActorRole Role        `json:"actor_role"`
	Reason    string      `json:"reason,omitempty"`
}

// NewOrderStatusChangedEvent creates an OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, from, to OrderStatus, actor Actor, reason string) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderStatusChanged, aggregateType, o.ID),
		From:            from,
		To:              to,
		ActorID:         actor.UserID,
		ActorRole:       actor.Role,
		Reason:          reason,
	}
}

// OrderCertifiedEvent is emitted when the retailer certifies delivery;
// payment is finalized and stock is decremented as part of the same
// transition
type OrderCertifiedEvent struct {
	shared.BaseDomainEvent
	RetailerID   uuid.UUID       `json:"retailer_id"`
	WholesalerID uuid.UUID       `json:"wholesaler_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

// NewOrderCertifiedEvent creates an OrderCertifiedEvent
func NewOrderCertifiedEvent(o *Order) *OrderCertifiedEvent {
	return &OrderCertifiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderCertified, aggregateType, o.ID),
		RetailerID:      o.RetailerID,
		WholesalerID:    o.WholesalerID,
		ProductID:       o.ProductID,
		Quantity:        o.Quantity,
		TotalPrice:      o.TotalPrice,
	}
}

// OrderDisputedEvent is emitted when the retailer raises a delivery dispute
type OrderDisputedEvent struct {
	shared.BaseDomainEvent
	RaisedBy uuid.UUID `json:"raised_by"`
	Reason   string    `json:"reason"`
}

// NewOrderDisputedEvent creates an OrderDisputedEvent
func NewOrderDisputedEvent(o *Order, raisedBy uuid.UUID, reason string) *OrderDisputedEvent {
	return &OrderDisputedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderDisputed, aggregateType, o.ID),
		RaisedBy:        raisedBy,
		Reason:          reason,
	}
}

// DisputeResolvedEvent is emitted when the wholesaler settles a dispute
type DisputeResolvedEvent struct {
	shared.BaseDomainEvent
	ResolvedBy uuid.UUID `json:"resolved_by"`
	Reassigned bool      `json:"reassigned"`
}

// NewDisputeResolvedEvent creates a DisputeResolvedEvent
func NewDisputeResolvedEvent(o *Order, resolvedBy uuid.UUID, reassigned bool) *DisputeResolvedEvent {
	return &DisputeResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventDisputeResolved, aggregateType, o.ID),
		ResolvedBy:      resolvedBy,
		Reassigned:      reassigned,
	}
}

// TransporterAssignedEvent is emitted when an order is offered to a specific
// transporter or to the free pool
type TransporterAssignedEvent struct {
	shared.BaseDomainEvent
	TransporterID *uuid.UUID     `json:"transporter_id,omitempty"`
	Type          AssignmentType `json:"assignment_type"`
}

// NewTransporterAssignedEvent creates a TransporterAssignedEvent
func NewTransporterAssignedEvent(o *Order, transporterID *uuid.UUID, assignmentType AssignmentType) *TransporterAssignedEvent {
	return &TransporterAssignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTransporterAssigned, aggregateType, o.ID),
		TransporterID:   transporterID,
		Type:            assignmentType,
	}
}

// AssignmentDeclinedEvent is emitted when a transporter rejects or cancels
// an assignment
type AssignmentDeclinedEvent struct {
	shared.BaseDomainEvent
	TransporterID uuid.UUID         `json:"transporter_id"`
	Outcome       AssignmentOutcome `json:"outcome"`
	Reason        string            `json:"reason"`
}

// NewAssignmentDeclinedEvent creates an AssignmentDeclinedEvent
func NewAssignmentDeclinedEvent(o *Order, transporterID uuid.UUID, outcome AssignmentOutcome, reason string) *AssignmentDeclinedEvent {
	return &AssignmentDeclinedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventAssignmentDeclined, aggregateType, o.ID),
		TransporterID:   transporterID,
		Outcome:         outcome,
		Reason:          reason,
	}
}

// ReturnSettledEvent is emitted when the wholesaler accepts or rejects a
// returned order
type ReturnSettledEvent struct {
	shared.BaseDomainEvent
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// NewReturnSettledEvent creates a ReturnSettledEvent
func NewReturnSettledEvent(o *Order, accepted bool, reason string) *ReturnSettledEvent {
	return &ReturnSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventReturnSettled, aggregateType, o.ID),
		Accepted:        accepted,
		Reason:          reason,
	}
}
