package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saiembroidery/storefront-backend/pkg/db/models"
)

// AddressRepository manages persistent delivery addresses.
type AddressRepository struct {
	db *gorm.DB
}

// NewAddressRepository binds the repository to the provided DB handle.
func NewAddressRepository(db *gorm.DB) *AddressRepository {
	return &AddressRepository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *AddressRepository) WithTx(tx *gorm.DB) *AddressRepository {
	if tx == nil {
		return r
	}
	return &AddressRepository{db: tx}
}

// Insert persists a new address.
func (r *AddressRepository) Insert(ctx context.Context, addr *models.Address) error {
	return r.db.WithContext(ctx).Create(addr).Error
}

// ListByUser returns the user's addresses, newest first.
func (r *AddressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var addrs []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&addrs).Error
	if err != nil {
		return nil, err
	}
	return addrs, nil
}

// FindByUserAndID returns the address only if the user owns it.
func (r *AddressRepository) FindByUserAndID(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	var addr models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&addr).Error
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// Update overwrites the mutable fields of the user's address.
func (r *AddressRepository) Update(ctx context.Context, addr *models.Address) error {
	result := r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("id = ? AND user_id = ?", addr.ID, addr.UserID).
		Updates(map[string]any{
			"name":             addr.Name,
			"house_no":         addr.HouseNo,
			"landmark":         addr.Landmark,
			"city":             addr.City,
			"district":         addr.District,
			"state":            addr.State,
			"pincode":          addr.Pincode,
			"primary_mobile":   addr.PrimaryMobile,
			"secondary_mobile": addr.SecondaryMobile,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the user's address.
func (r *AddressRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Address{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
