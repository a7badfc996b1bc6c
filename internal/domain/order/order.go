package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradelink/backend/internal/domain/shared"
)

// AssignmentType distinguishes a direct transporter assignment from a
// free-pool offer any transporter may pick up
type AssignmentType string

const (
	AssignmentSpecific AssignmentType = "specific"
	AssignmentFree     AssignmentType = "free"
)

// AssignmentOutcome records what happened to a transporter assignment
type AssignmentOutcome string

const (
	OutcomeAssigned  AssignmentOutcome = "assigned"
	OutcomeAccepted  AssignmentOutcome = "accepted"
	OutcomeRejected  AssignmentOutcome = "rejected"
	OutcomeCancelled AssignmentOutcome = "cancelled"
)

// AssignmentEvent is one append-only entry in an order's assignment history
type AssignmentEvent struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID         `gorm:"type:uuid;not null;index"`
	TransporterID *uuid.UUID        `gorm:"type:uuid"`
	Type          AssignmentType    `gorm:"type:varchar(16);not null"`
	Outcome       AssignmentOutcome `gorm:"type:varchar(16);not null"`
	Reason        string            `gorm:"type:varchar(500)"`
	CreatedAt     time.Time
}

// TableName returns the table name for GORM
func (AssignmentEvent) TableName() string {
	return "order_assignment_events"
}

// BulkDiscount describes an automatic percentage reduction applied when the
// order quantity reaches MinQuantity. A zero-valued descriptor means no
// discount is configured.
type BulkDiscount struct {
	MinQuantity        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Applied            bool            `gorm:"not null;default:false"`
}

// Configured reports whether a bulk discount descriptor is present
func (d BulkDiscount) Configured() bool {
	return d.DiscountPercentage.GreaterThan(decimal.Zero) && d.MinQuantity.GreaterThan(decimal.Zero)
}

// CancellationDetails records who cancelled or declined an order, when, why,
// and from which status. Created lazily on the first relevant transition.
type CancellationDetails struct {
	CancelledBy    *uuid.UUID  `gorm:"type:uuid"`
	CancelledRole  Role        `gorm:"type:varchar(16)"`
	Reason         string      `gorm:"type:varchar(500)"`
	PreviousStatus OrderStatus `gorm:"type:varchar(32)"`
	CancelledAt    *time.Time
}

// Present reports whether cancellation details have been recorded
func (c CancellationDetails) Present() bool {
	return c.CancelledAt != nil
}

// DeliveryDispute records a retailer's formal objection to a delivered
// order, pending wholesaler resolution
type DeliveryDispute struct {
	RaisedBy        *uuid.UUID `gorm:"type:uuid"`
	Reason          string     `gorm:"type:varchar(500)"`
	RaisedAt        *time.Time
	Resolved        bool   `gorm:"not null;default:false"`
	ResolutionNotes string `gorm:"type:varchar(500)"`
	ResolvedAt      *time.Time
}

// Present reports whether a dispute has been raised
func (d DeliveryDispute) Present() bool {
	return d.RaisedAt != nil
}

// ReturnDetails records a transporter-initiated return of a disputed order
// to the wholesaler, and the wholesaler's accept/reject decision
type ReturnDetails struct {
	RequestedBy     *uuid.UUID `gorm:"type:uuid"`
	Reason          string     `gorm:"type:varchar(500)"`
	RequestedAt     *time.Time
	AcceptedAt      *time.Time
	RejectedAt      *time.Time
	RejectionReason string `gorm:"type:varchar(500)"`
}

// Present reports whether a return has been requested
func (r ReturnDetails) Present() bool {
	return r.RequestedAt != nil
}

// Order is the aggregate root of the trade order lifecycle. It is created in
// StatusPending by a retailer and mutated in place by the state machine until
// it reaches a terminal status.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber   string     `gorm:"type:varchar(50);not null;uniqueIndex"`
	RetailerID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	WholesalerID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	TransporterID *uuid.UUID `gorm:"type:uuid;index"`

	ProductName     string          `gorm:"type:varchar(200);not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	MeasurementUnit string          `gorm:"type:varchar(20)"`
	BulkDiscount    BulkDiscount    `gorm:"embedded;embeddedPrefix:bulk_discount_"`
	DiscountApplied decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null"`

	Status        OrderStatus   `gorm:"type:varchar(32);not null;index"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(16);not null;default:'pending'"`
	PaymentMethod string        `gorm:"type:varchar(50)"`

	DeliveryPlace     string `gorm:"type:varchar(200)"`
	DeliveryLatitude  *float64
	DeliveryLongitude *float64

	DeliveredAt *time.Time
	CertifiedAt *time.Time

	// Idempotency markers for stock side effects: a stock mutation is applied
	// at most once per order and event kind, even across retried requests.
	StockDeductedAt *time.Time
	StockRestoredAt *time.Time

	Cancellation CancellationDetails `gorm:"embedded;embeddedPrefix:cancellation_"`
	Dispute      DeliveryDispute     `gorm:"embedded;embeddedPrefix:dispute_"`
	Return       ReturnDetails       `gorm:"embedded;embeddedPrefix:return_"`

	AssignmentHistory []AssignmentEvent `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrderParams carries the inputs for creating an order. Price, unit and
// discount descriptor come from the product read model at creation time.
type NewOrderParams struct {
	OrderNumber       string
	RetailerID        uuid.UUID
	WholesalerID      uuid.UUID
	ProductID         uuid.UUID
	ProductName       string
	Quantity          decimal.Decimal
	UnitPrice         decimal.Decimal
	MeasurementUnit   string
	BulkDiscount      BulkDiscount
	DeliveryPlace     string
	DeliveryLatitude  *float64
	DeliveryLongitude *float64
	PaymentMethod     string
}

// NewOrder creates a new order in StatusPending
func NewOrder(p NewOrderParams) (*Order, error) {
	if p.OrderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if p.RetailerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RETAILER", "Retailer ID cannot be empty")
	}
	if p.WholesalerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WHOLESALER", "Wholesaler ID cannot be empty")
	}
	if p.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if p.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if p.UnitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       p.OrderNumber,
		RetailerID:        p.RetailerID,
		WholesalerID:      p.WholesalerID,
		ProductID:         p.ProductID,
		ProductName:       p.ProductName,
		Quantity:          p.Quantity,
		UnitPrice:         p.UnitPrice,
		MeasurementUnit:   p.MeasurementUnit,
		BulkDiscount:      p.BulkDiscount,
		DiscountApplied:   decimal.Zero,
		Status:            StatusPending,
		PaymentStatus:     PaymentPending,
		PaymentMethod:     p.PaymentMethod,
		DeliveryPlace:     p.DeliveryPlace,
		DeliveryLatitude:  p.DeliveryLatitude,
		DeliveryLongitude: p.DeliveryLongitude,
		AssignmentHistory: make([]AssignmentEvent, 0),
	}
	order.recalculateTotal()

	order.AddDomainEvent(NewOrderCreatedEvent(order))

	return order, nil
}

// recalculateTotal recomputes DiscountApplied and TotalPrice from quantity,
// unit price and the bulk discount descriptor. Invariant:
// totalPrice = quantity * unitPrice - discountApplied.
func (o *Order) recalculateTotal() {
	gross := o.Quantity.Mul(o.UnitPrice)
	if o.BulkDiscount.Configured() && o.Quantity.GreaterThanOrEqual(o.BulkDiscount.MinQuantity) {
		o.DiscountApplied = gross.Mul(o.BulkDiscount.DiscountPercentage).Div(decimal.NewFromInt(100)).Round(4)
		o.BulkDiscount.Applied = true
	} else {
		o.DiscountApplied = decimal.Zero
		o.BulkDiscount.Applied = false
	}
	o.TotalPrice = gross.Sub(o.DiscountApplied)
}

// UpdateQuantity changes the ordered quantity and recomputes the total.
// Only allowed while the order is still pending.
func (o *Order) UpdateQuantity(quantity decimal.Decimal) error {
	if o.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Quantity can only be changed on a pending order")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	o.Quantity = quantity
	o.recalculateTotal()
	o.UpdatedAt = time.Now()
	return nil
}

// UpdateUnitPrice changes the unit price and recomputes the total.
// Only allowed while the order is still pending.
func (o *Order) UpdateUnitPrice(unitPrice decimal.Decimal) error {
	if o.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Price can only be changed on a pending order")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	o.UnitPrice = unitPrice
	o.recalculateTotal()
	o.UpdatedAt = time.Now()
	return nil
}

// LastAssignment returns the most recent assignment history entry, or nil if
// the order has never been assigned
func (o *Order) LastAssignment() *AssignmentEvent {
	if len(o.AssignmentHistory) == 0 {
		return nil
	}
	return &o.AssignmentHistory[len(o.AssignmentHistory)-1]
}

// appendAssignment appends an entry to the assignment history. Prior entries
// are never mutated or removed.
func (o *Order) appendAssignment(transporterID *uuid.UUID, assignmentType AssignmentType, outcome AssignmentOutcome, reason string) {
	o.AssignmentHistory = append(o.AssignmentHistory, AssignmentEvent{
		ID:            uuid.New(),
		OrderID:       o.ID,
		TransporterID: transporterID,
		Type:          assignmentType,
		Outcome:       outcome,
		Reason:        reason,
		CreatedAt:     time.Now(),
	})
}

// recordCancellation captures who abandoned the order, from which status,
// and why
func (o *Order) recordCancellation(by uuid.UUID, role Role, reason string) {
	now := time.Now()
	o.Cancellation = CancellationDetails{
		CancelledBy:    &by,
		CancelledRole:  role,
		Reason:         reason,
		PreviousStatus: o.Status,
		CancelledAt:    &now,
	}
}

// clearResolutionState wipes cancellation, dispute and return records before
// a fresh reassignment
func (o *Order) clearResolutionState() {
	o.Cancellation = CancellationDetails{}
	o.Dispute = DeliveryDispute{}
	o.Return = ReturnDetails{}
}

// ResolveDispute marks the open dispute resolved. With reassign the order
// re-enters assigned_to_transporter as a free-pool offer with the transporter
// cleared; the dispute record itself is kept for audit.
func (o *Order) ResolveDispute(resolvedBy uuid.UUID, notes string, reassign bool) error {
	if o.Status != StatusDisputed {
		return shared.NewDomainError("NOT_DISPUTED", "Order has no open dispute to resolve")
	}
	if !o.Dispute.Present() {
		return shared.NewDomainError("NOT_DISPUTED", "Order has no open dispute to resolve")
	}

	now := time.Now()
	o.Dispute.Resolved = true
	o.Dispute.ResolutionNotes = notes
	o.Dispute.ResolvedAt = &now
	o.UpdatedAt = now

	if reassign {
		o.TransporterID = nil
		o.Status = StatusAssignedToTransporter
		o.appendAssignment(nil, AssignmentFree, OutcomeAssigned, "reassigned after dispute resolution")
	}

	o.AddDomainEvent(NewDisputeResolvedEvent(o, resolvedBy, reassign))

	return nil
}

// IsDeletable reports whether the owning retailer may hard-delete the order
func (o *Order) IsDeletable() bool {
	return o.Status.IsDeletable()
}

// IsParty reports whether the given user is the retailer, wholesaler or
// assigned transporter of this order
func (o *Order) IsParty(userID uuid.UUID) bool {
	if o.RetailerID == userID || o.WholesalerID == userID {
		return true
	}
	return o.TransporterID != nil && *o.TransporterID == userID
}
