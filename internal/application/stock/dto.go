package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradelink/backend/internal/domain/stock"
)

// CreateLedgerRequest represents a request to establish a manually tracked
// ledger entry for a product
type CreateLedgerRequest struct {
	ProductID     uuid.UUID       `json:"product_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
}

// SetThresholdRequest represents a request to change a ledger's reorder
// threshold
type SetThresholdRequest struct {
	MinStockLevel decimal.Decimal `json:"min_stock_level" binding:"required"`
}

// RestockRequest represents a request to add quantity to a ledger entry
type RestockRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// LedgerListFilter represents filter options for the ledger list
type LedgerListFilter struct {
	Kind     *string `form:"kind" binding:"omitempty,oneof=wholesaler retailer system"`
	LowStock *bool   `form:"low_stock"`
	Page     int     `form:"page" binding:"omitempty,min=1"`
	PageSize int     `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string  `form:"order_by"`
	OrderDir string  `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// LedgerResponse represents a stock ledger entry in API responses
type LedgerResponse struct {
	ID               uuid.UUID        `json:"id"`
	Kind             string           `json:"kind"`
	OwnerID          uuid.UUID        `json:"owner_id"`
	ProductID        uuid.UUID        `json:"product_id"`
	SourceOrderID    *uuid.UUID       `json:"source_order_id,omitempty"`
	Quantity         decimal.Decimal  `json:"quantity"`
	OriginalQuantity *decimal.Decimal `json:"original_quantity,omitempty"`
	MinStockLevel    decimal.Decimal  `json:"min_stock_level"`
	LowStockAlert    bool             `json:"low_stock_alert"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ToLedgerResponse converts a ledger aggregate to its API representation
func ToLedgerResponse(l *stock.Ledger) LedgerResponse {
	return LedgerResponse{
		ID:               l.ID,
		Kind:             string(l.Kind),
		OwnerID:          l.OwnerID,
		ProductID:        l.ProductID,
		SourceOrderID:    l.SourceOrderID,
		Quantity:         l.Quantity,
		OriginalQuantity: l.OriginalQuantity,
		MinStockLevel:    l.MinStockLevel,
		LowStockAlert:    l.LowStockAlert,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

// ToLedgerResponses converts a slice of ledger entries
func ToLedgerResponses(ledgers []stock.Ledger) []LedgerResponse {
	responses := make([]LedgerResponse, 0, len(ledgers))
	for i := range ledgers {
		responses = append(responses, ToLedgerResponse(&ledgers[i]))
	}
	return responses
}
