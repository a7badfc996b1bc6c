package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tradelink/backend/internal/domain/shared"
	"github.com/tradelink/backend/internal/domain/stock"
	"gorm.io/gorm"
)

// GormStockRepository implements stock.Repository using GORM
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// FindByID finds a ledger entry by ID
func (r *GormStockRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.Ledger, error) {
	var ledger stock.Ledger
	if err := r.db.WithContext(ctx).First(&ledger, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ledger, nil
}

// FindForProduct finds the ledger entry of kind/owner/product.
// A missing entry is (nil, nil), not an error.
func (r *GormStockRepository) FindForProduct(ctx context.Context, kind stock.LedgerKind, ownerID, productID uuid.UUID) (*stock.Ledger, error) {
	var ledger stock.Ledger
	err := r.db.WithContext(ctx).
		Where("kind = ? AND owner_id = ? AND product_id = ?", kind, ownerID, productID).
		First(&ledger).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ledger, nil
}

// FindBySourceOrder finds the system-kind entry created for an order.
// A missing entry is (nil, nil), not an error.
func (r *GormStockRepository) FindBySourceOrder(ctx context.Context, orderID uuid.UUID) (*stock.Ledger, error) {
	var ledger stock.Ledger
	err := r.db.WithContext(ctx).
		Where("kind = ? AND source_order_id = ?", stock.KindSystem, orderID).
		First(&ledger).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ledger, nil
}

// ExistsForSourceOrder checks whether an order already has a system entry
func (r *GormStockRepository) ExistsForSourceOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&stock.Ledger{}).
		Where("kind = ? AND source_order_id = ?", stock.KindSystem, orderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByOwner finds all ledger entries of a kind for an owner
func (r *GormStockRepository) FindByOwner(ctx context.Context, kind stock.LedgerKind, ownerID uuid.UUID, filter shared.Filter) ([]stock.Ledger, error) {
	var ledgers []stock.Ledger
	query := r.db.WithContext(ctx).Model(&stock.Ledger{}).
		Where("kind = ? AND owner_id = ?", kind, ownerID)
	query = r.applyFilter(query, filter)
	if err := query.Find(&ledgers).Error; err != nil {
		return nil, err
	}
	return ledgers, nil
}

// CountByOwner counts ledger entries of a kind for an owner
func (r *GormStockRepository) CountByOwner(ctx context.Context, kind stock.LedgerKind, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&stock.Ledger{}).
		Where("kind = ? AND owner_id = ?", kind, ownerID)
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindLowStockByOwner finds entries with the low-stock alert raised
func (r *GormStockRepository) FindLowStockByOwner(ctx context.Context, kind stock.LedgerKind, ownerID uuid.UUID) ([]stock.Ledger, error) {
	var ledgers []stock.Ledger
	if err := r.db.WithContext(ctx).
		Where("kind = ? AND owner_id = ? AND low_stock_alert = ?", kind, ownerID, true).
		Order("quantity ASC").
		Find(&ledgers).Error; err != nil {
		return nil, err
	}
	return ledgers, nil
}

// Save creates or updates a ledger entry
func (r *GormStockRepository) Save(ctx context.Context, l *stock.Ledger) error {
	return r.db.WithContext(ctx).Save(l).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormStockRepository) SaveWithLock(ctx context.Context, l *stock.Ledger) error {
	// Aggregate methods already incremented the in-memory version; the row
	// must still hold the version we loaded.
	loadedVersion := l.Version - 1

	l.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).Model(&stock.Ledger{}).
		Where("id = ? AND version = ?", l.ID, loadedVersion).
		Updates(map[string]interface{}{
			"quantity":          l.Quantity,
			"original_quantity": l.OriginalQuantity,
			"min_stock_level":   l.MinStockLevel,
			"low_stock_alert":   l.LowStockAlert,
			"version":           l.Version,
			"updated_at":        l.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormStockRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormStockRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "low_stock_alert":
			query = query.Where("low_stock_alert = ?", value)
		}
	}
	return query
}

// Ensure GormStockRepository implements stock.Repository
var _ stock.Repository = (*GormStockRepository)(nil)
