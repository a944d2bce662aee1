package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saiembroidery/storefront-backend/pkg/db/models"
	"github.com/saiembroidery/storefront-backend/pkg/enums"
)

// OrderRepository manages persisted order rows.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository binds the repository to the provided DB handle.
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	if tx == nil {
		return r
	}
	return &OrderRepository{db: tx}
}

// Insert persists one order row.
func (r *OrderRepository) Insert(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// CountByCategory returns the all-time number of orders in the category.
func (r *OrderRepository) CountByCategory(ctx context.Context, category enums.DesignCategory) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("category = ?", category).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ErrWorkStatusFinal is returned when an order's work status has already
// left pending and cannot move again.
var ErrWorkStatusFinal = errors.New("work status already final")

// UpdateWorkStatus transitions an order's embroidery work status. Only rows
// still at pending are touched, so a finished order never regresses.
func (r *OrderRepository) UpdateWorkStatus(ctx context.Context, id uuid.UUID, status enums.WorkStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND work_status = ?", id, enums.WorkStatusPending).
		Update("work_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.Order{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrWorkStatusFinal
	}
	return nil
}
