package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradelink/backend/internal/domain/shared"
)

// BulkDiscountRule is the wholesaler-configured quantity discount on a
// product. A zero MinQuantity means no rule is configured.
type BulkDiscountRule struct {
	MinQuantity        decimal.Decimal `gorm:"column:bulk_discount_min_quantity;type:decimal(18,4);not null;default:0"`
	DiscountPercentage decimal.Decimal `gorm:"column:bulk_discount_percentage;type:decimal(7,4);not null;default:0"`
}

// Configured reports whether a discount rule is set on the product
func (r BulkDiscountRule) Configured() bool {
	return r.MinQuantity.IsPositive() && r.DiscountPercentage.IsPositive()
}

// Product is the catalog read model orders are placed against. Order creation
// snapshots its pricing terms; the catalog itself is maintained elsewhere.
type Product struct {
	shared.BaseEntity
	WholesalerID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	Name             string           `gorm:"type:varchar(255);not null"`
	Price            decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Quantity         decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	MeasurementUnit  string           `gorm:"type:varchar(32);not null;default:'unit'"`
	MinOrderQuantity decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	BulkDiscount     BulkDiscountRule `gorm:"embedded"`
	IsActive         bool             `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// Repository is the read-only product lookup used during order creation
type Repository interface {
	// FindByID finds a product by ID. A missing product is (nil, nil),
	// not an error.
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByWholesaler finds a wholesaler's products
	FindByWholesaler(ctx context.Context, wholesalerID uuid.UUID, filter shared.Filter) ([]Product, error)
}
