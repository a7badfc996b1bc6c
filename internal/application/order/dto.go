package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradelink/backend/internal/domain/order"
)

// ==================== Request DTOs ====================

// CreateOrderRequest represents a retailer's request to place an order.
// Pricing terms are snapshotted from the product catalog, not supplied here.
type CreateOrderRequest struct {
	ProductID         uuid.UUID       `json:"product_id" binding:"required"`
	Quantity          decimal.Decimal `json:"quantity" binding:"required"`
	DeliveryPlace     string          `json:"delivery_place" binding:"required,min=1,max=200"`
	DeliveryLatitude  *float64        `json:"delivery_latitude"`
	DeliveryLongitude *float64        `json:"delivery_longitude"`
	PaymentMethod     string          `json:"payment_method" binding:"omitempty,max=50"`
}

// UpdateStatusRequest represents a request to move an order to a new status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	// Reason is required for rejections, cancellations, disputes and returns
	Reason string `json:"reason" binding:"omitempty,max=500"`
	// TransporterID targets a specific transporter when entering
	// assigned_to_transporter; nil offers the order to the free pool
	TransporterID *uuid.UUID `json:"transporter_id"`
	// AssignmentType makes the specific/free choice explicit instead of
	// inferring it from TransporterID
	AssignmentType string `json:"assignment_type" binding:"omitempty,oneof=specific free"`
}

// ResolveDisputeRequest represents the wholesaler's resolution of a dispute
type ResolveDisputeRequest struct {
	Notes    string `json:"notes" binding:"omitempty,max=500"`
	Reassign bool   `json:"reassign"`
}

// HandleReturnRequest represents the wholesaler's decision on a returned order
type HandleReturnRequest struct {
	Action string `json:"action" binding:"required,oneof=accept reject"`
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	Status    *string    `form:"status"`
	ProductID *uuid.UUID `form:"product_id"`
	StartDate *time.Time `form:"start_date"`
	EndDate   *time.Time `form:"end_date"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ==================== Response DTOs ====================

// AssignmentEventResponse represents one assignment history entry
type AssignmentEventResponse struct {
	ID            uuid.UUID  `json:"id"`
	TransporterID *uuid.UUID `json:"transporter_id,omitempty"`
	Type          string     `json:"type"`
	Outcome       string     `json:"outcome"`
	Reason        string     `json:"reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// CancellationResponse represents recorded cancellation details
type CancellationResponse struct {
	CancelledBy    *uuid.UUID `json:"cancelled_by,omitempty"`
	CancelledRole  string     `json:"cancelled_role,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	PreviousStatus string     `json:"previous_status,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
}

// DisputeResponse represents a recorded delivery dispute
type DisputeResponse struct {
	RaisedBy        *uuid.UUID `json:"raised_by,omitempty"`
	Reason          string     `json:"reason,omitempty"`
	RaisedAt        *time.Time `json:"raised_at,omitempty"`
	Resolved        bool       `json:"resolved"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

// ReturnResponse represents a recorded return request and its settlement
type ReturnResponse struct {
	RequestedBy     *uuid.UUID `json:"requested_by,omitempty"`
	Reason          string     `json:"reason,omitempty"`
	RequestedAt     *time.Time `json:"requested_at,omitempty"`
	AcceptedAt      *time.Time `json:"accepted_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                uuid.UUID                 `json:"id"`
	OrderNumber       string                    `json:"order_number"`
	RetailerID        uuid.UUID                 `json:"retailer_id"`
	WholesalerID      uuid.UUID                 `json:"wholesaler_id"`
	TransporterID     *uuid.UUID                `json:"transporter_id,omitempty"`
	ProductID         uuid.UUID                 `json:"product_id"`
	ProductName       string                    `json:"product_name"`
	Quantity          decimal.Decimal           `json:"quantity"`
	UnitPrice         decimal.Decimal           `json:"unit_price"`
	MeasurementUnit   string                    `json:"measurement_unit,omitempty"`
	DiscountApplied   decimal.Decimal           `json:"discount_applied"`
	BulkDiscountUsed  bool                      `json:"bulk_discount_used"`
	TotalPrice        decimal.Decimal           `json:"total_price"`
	Status            string                    `json:"status"`
	PaymentStatus     string                    `json:"payment_status"`
	PaymentMethod     string                    `json:"payment_method,omitempty"`
	DeliveryPlace     string                    `json:"delivery_place,omitempty"`
	DeliveryLatitude  *float64                  `json:"delivery_latitude,omitempty"`
	DeliveryLongitude *float64                  `json:"delivery_longitude,omitempty"`
	DeliveredAt       *time.Time                `json:"delivered_at,omitempty"`
	CertifiedAt       *time.Time                `json:"certified_at,omitempty"`
	Cancellation      *CancellationResponse     `json:"cancellation,omitempty"`
	Dispute           *DisputeResponse          `json:"dispute,omitempty"`
	Return            *ReturnResponse           `json:"return,omitempty"`
	AssignmentHistory []AssignmentEventResponse `json:"assignment_history"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// StatusUpdateResponse wraps the updated order together with warnings from
// non-fatal side effects that failed
type StatusUpdateResponse struct {
	Order    OrderResponse `json:"order"`
	Warnings []string      `json:"warnings,omitempty"`
}

// StatisticsResponse aggregates the orders visible to the caller
type StatisticsResponse struct {
	TotalOrders    int64            `json:"total_orders"`
	CountsByStatus map[string]int64 `json:"counts_by_status"`
	TotalRevenue   decimal.Decimal  `json:"total_revenue"`
}

// ==================== Converters ====================

// ToOrderResponse converts an order aggregate to its API representation
func ToOrderResponse(o *order.Order) OrderResponse {
	resp := OrderResponse{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		RetailerID:        o.RetailerID,
		WholesalerID:      o.WholesalerID,
		TransporterID:     o.TransporterID,
		ProductID:         o.ProductID,
		ProductName:       o.ProductName,
		Quantity:          o.Quantity,
		UnitPrice:         o.UnitPrice,
		MeasurementUnit:   o.MeasurementUnit,
		DiscountApplied:   o.DiscountApplied,
		BulkDiscountUsed:  o.BulkDiscount.Applied,
		TotalPrice:        o.TotalPrice,
		Status:            string(o.Status),
		PaymentStatus:     string(o.PaymentStatus),
		PaymentMethod:     o.PaymentMethod,
		DeliveryPlace:     o.DeliveryPlace,
		DeliveryLatitude:  o.DeliveryLatitude,
		DeliveryLongitude: o.DeliveryLongitude,
		DeliveredAt:       o.DeliveredAt,
		CertifiedAt:       o.CertifiedAt,
		AssignmentHistory: make([]AssignmentEventResponse, 0, len(o.AssignmentHistory)),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}

	if o.Cancellation.Present() {
		resp.Cancellation = &CancellationResponse{
			CancelledBy:    o.Cancellation.CancelledBy,
			CancelledRole:  string(o.Cancellation.CancelledRole),
			Reason:         o.Cancellation.Reason,
			PreviousStatus: string(o.Cancellation.PreviousStatus),
			CancelledAt:    o.Cancellation.CancelledAt,
		}
	}
	if o.Dispute.Present() {
		resp.Dispute = &DisputeResponse{
			RaisedBy:        o.Dispute.RaisedBy,
			Reason:          o.Dispute.Reason,
			RaisedAt:        o.Dispute.RaisedAt,
			Resolved:        o.Dispute.Resolved,
			ResolutionNotes: o.Dispute.ResolutionNotes,
			ResolvedAt:      o.Dispute.ResolvedAt,
		}
	}
	if o.Return.Present() {
		resp.Return = &ReturnResponse{
			RequestedBy:     o.Return.RequestedBy,
			Reason:          o.Return.Reason,
			RequestedAt:     o.Return.RequestedAt,
			AcceptedAt:      o.Return.AcceptedAt,
			RejectedAt:      o.Return.RejectedAt,
			RejectionReason: o.Return.RejectionReason,
		}
	}

	for _, e := range o.AssignmentHistory {
		resp.AssignmentHistory = append(resp.AssignmentHistory, AssignmentEventResponse{
			ID:            e.ID,
			TransporterID: e.TransporterID,
			Type:          string(e.Type),
			Outcome:       string(e.Outcome),
			Reason:        e.Reason,
			CreatedAt:     e.CreatedAt,
		})
	}

	return resp
}

// ToOrderResponses converts a slice of orders
func ToOrderResponses(orders []order.Order) []OrderResponse {
	responses := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, ToOrderResponse(&orders[i]))
	}
	return responses
}
