package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saiembroidery/storefront-backend/pkg/db/models"
	"github.com/saiembroidery/storefront-backend/pkg/enums"
)

// LineRow is a cart line joined with its design snapshot fields.
type LineRow struct {
	ID           uuid.UUID            `gorm:"column:id"`
	UserID       uuid.UUID            `gorm:"column:user_id"`
	DesignID     int64                `gorm:"column:design_id"`
	Quantity     int                  `gorm:"column:quantity"`
	DesignNo     string               `gorm:"column:design_no"`
	MainImageURL *string              `gorm:"column:main_image_url"`
	PricePaise   int64                `gorm:"column:price_paise"`
	Category     enums.DesignCategory `gorm:"column:category"`
	InStock      bool                 `gorm:"column:in_stock"`
}

// LineRepository manages persistent cart lines.
type LineRepository struct {
	db *gorm.DB
}

// NewLineRepository binds the repository to the provided DB handle.
func NewLineRepository(db *gorm.DB) *LineRepository {
	return &LineRepository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *LineRepository) WithTx(tx *gorm.DB) *LineRepository {
	if tx == nil {
		return r
	}
	return &LineRepository{db: tx}
}

// ListByUser returns the user's cart lines joined with design data,
// oldest line first.
func (r *LineRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]LineRow, error) {
	var rows []LineRow
	err := r.db.WithContext(ctx).
		Table("cart_lines").
		Select("cart_lines.id, cart_lines.user_id, cart_lines.design_id, cart_lines.quantity, designs.design_no, designs.main_image_url, designs.price_paise, designs.category, designs.in_stock").
		Joins("JOIN designs ON designs.id = cart_lines.design_id").
		Where("cart_lines.user_id = ?", userID).
		Order("cart_lines.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByUserAndDesign returns the line for (user, design) or gorm.ErrRecordNotFound.
func (r *LineRepository) FindByUserAndDesign(ctx context.Context, userID uuid.UUID, designID int64) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND design_id = ?", userID, designID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// Insert persists a new cart line.
func (r *LineRepository) Insert(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// UpdateQuantity sets the quantity of the user's line. The user scope keeps
// one session from mutating another user's cart.
func (r *LineRepository) UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) error {
	result := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ? AND user_id = ?", lineID, userID).
		Update("quantity", quantity)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the user's line.
func (r *LineRepository) Delete(ctx context.Context, userID, lineID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", lineID, userID).
		Delete(&models.CartLine{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountByUser returns the number of distinct lines in the user's cart.
func (r *LineRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteByUser empties the user's cart.
func (r *LineRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartLine{}).Error
}
