package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradelink/backend/internal/domain/order"
	"github.com/tradelink/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its ID with the assignment history loaded
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("AssignmentHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindAll finds orders with filtering and pagination
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	var orders []order.Order
	query := r.applyFilter(r.db.WithContext(ctx).Model(&order.Order{}), filter)
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// scopeForActor narrows a query to the orders the actor may see
func (r *GormOrderRepository) scopeForActor(query *gorm.DB, actor order.Actor) *gorm.DB {
	switch actor.Role {
	case order.RoleRetailer:
		return query.Where("retailer_id = ?", actor.UserID)
	case order.RoleWholesaler:
		return query.Where("wholesaler_id = ?", actor.UserID)
	case order.RoleTransporter:
		// Own assignments plus unclaimed free-pool offers.
		return query.Where("transporter_id = ? OR (transporter_id IS NULL AND status = ?)",
			actor.UserID, order.StatusAssignedToTransporter)
	case order.RoleAdmin:
		return query
	}
	// Unknown role sees nothing.
	return query.Where("1 = 0")
}

// FindForActor finds the orders visible to the actor
func (r *GormOrderRepository) FindForActor(ctx context.Context, actor order.Actor, filter shared.Filter) ([]order.Order, error) {
	var orders []order.Order
	query := r.scopeForActor(r.db.WithContext(ctx).Model(&order.Order{}), actor)
	query = r.applyFilter(query, filter)
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// CountForActor counts the orders visible to the actor
func (r *GormOrderRepository) CountForActor(ctx context.Context, actor order.Actor, filter shared.Filter) (int64, error) {
	var count int64
	query := r.scopeForActor(r.db.WithContext(ctx).Model(&order.Order{}), actor)
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an order together with its assignment history
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("AssignmentHistory").Save(o).Error; err != nil {
			return err
		}
		// History is append-only: existing entries are never touched.
		for i := range o.AssignmentHistory {
			o.AssignmentHistory[i].OrderID = o.ID
			if err := tx.Save(&o.AssignmentHistory[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&order.Order{}).
			Where("id = ?", o.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if currentVersion != o.Version {
			return shared.ErrConcurrencyConflict
		}

		o.Version++
		o.UpdatedAt = time.Now()

		result := tx.Model(&order.Order{}).
			Where("id = ? AND version = ?", o.ID, currentVersion).
			Updates(map[string]interface{}{
				"transporter_id":                    o.TransporterID,
				"quantity":                          o.Quantity,
				"unit_price":                        o.UnitPrice,
				"bulk_discount_min_quantity":        o.BulkDiscount.MinQuantity,
				"bulk_discount_discount_percentage": o.BulkDiscount.DiscountPercentage,
				"bulk_discount_applied":             o.BulkDiscount.Applied,
				"discount_applied":                  o.DiscountApplied,
				"total_price":                       o.TotalPrice,
				"status":                            o.Status,
				"payment_status":                    o.PaymentStatus,
				"delivered_at":                      o.DeliveredAt,
				"certified_at":                      o.CertifiedAt,
				"stock_deducted_at":                 o.StockDeductedAt,
				"stock_restored_at":                 o.StockRestoredAt,
				"cancellation_cancelled_by":         o.Cancellation.CancelledBy,
				"cancellation_cancelled_role":       o.Cancellation.CancelledRole,
				"cancellation_reason":               o.Cancellation.Reason,
				"cancellation_previous_status":      o.Cancellation.PreviousStatus,
				"cancellation_cancelled_at":         o.Cancellation.CancelledAt,
				"dispute_raised_by":                 o.Dispute.RaisedBy,
				"dispute_reason":                    o.Dispute.Reason,
				"dispute_raised_at":                 o.Dispute.RaisedAt,
				"dispute_resolved":                  o.Dispute.Resolved,
				"dispute_resolution_notes":          o.Dispute.ResolutionNotes,
				"dispute_resolved_at":               o.Dispute.ResolvedAt,
				"return_requested_by":               o.Return.RequestedBy,
				"return_reason":                     o.Return.Reason,
				"return_requested_at":               o.Return.RequestedAt,
				"return_accepted_at":                o.Return.AcceptedAt,
				"return_rejected_at":                o.Return.RejectedAt,
				"return_rejection_reason":           o.Return.RejectionReason,
				"version":                           o.Version,
				"updated_at":                        o.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		for i := range o.AssignmentHistory {
			o.AssignmentHistory[i].OrderID = o.ID
			if err := tx.Save(&o.AssignmentHistory[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete hard-deletes an order and its assignment history
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&order.AssignmentEvent{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&order.Order{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// CountByStatusForActor counts orders per status visible to the actor
func (r *GormOrderRepository) CountByStatusForActor(ctx context.Context, actor order.Actor) (map[order.OrderStatus]int64, error) {
	var rows []struct {
		Status order.OrderStatus
		Count  int64
	}
	query := r.scopeForActor(r.db.WithContext(ctx).Model(&order.Order{}), actor)
	if err := query.
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[order.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// SumRevenueForActor sums total price of certified, non-refunded orders
// visible to the actor
func (r *GormOrderRepository) SumRevenueForActor(ctx context.Context, actor order.Actor) (decimal.Decimal, error) {
	var revenue decimal.NullDecimal
	query := r.scopeForActor(r.db.WithContext(ctx).Model(&order.Order{}), actor)
	if err := query.
		Where("certified_at IS NOT NULL AND payment_status = ?", order.PaymentPaid).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&revenue).Error; err != nil {
		return decimal.Zero, err
	}
	if !revenue.Valid {
		return decimal.Zero, nil
	}
	return revenue.Decimal, nil
}

// existsByOrderNumber checks if an order number is already taken
func (r *GormOrderRepository) existsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateOrderNumber generates a unique order number.
// Format: ORD-YYYY-NNNNN (e.g., ORD-2026-00001)
func (r *GormOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("ORD-%d-", year)

	var lastOrder order.Order
	err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		First(&lastOrder).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastOrder.OrderNumber != "" {
		parts := strings.Split(lastOrder.OrderNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	orderNumber := fmt.Sprintf("%s%05d", prefix, nextNum)

	exists, err := r.existsByOrderNumber(ctx, orderNumber)
	if err != nil {
		return "", err
	}
	if exists {
		for i := 0; i < 100; i++ {
			nextNum++
			orderNumber = fmt.Sprintf("%s%05d", prefix, nextNum)
			exists, err = r.existsByOrderNumber(ctx, orderNumber)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return orderNumber, nil
}

// applyFilter applies filter options to the query
func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
func (r *GormOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at <= ?", t)
			}
		}
	}
	return query
}

// Ensure GormOrderRepository implements order.Repository
var _ order.Repository = (*GormOrderRepository)(nil)
