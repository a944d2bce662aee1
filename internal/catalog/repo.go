package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/saiembroidery/storefront-backend/pkg/db/models"
	"github.com/saiembroidery/storefront-backend/pkg/enums"
)

// DesignRepository manages the read-side catalog of embroidery designs.
type DesignRepository struct {
	db *gorm.DB
}

// NewDesignRepository binds the repository to the provided DB handle.
func NewDesignRepository(db *gorm.DB) *DesignRepository {
	return &DesignRepository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *DesignRepository) WithTx(tx *gorm.DB) *DesignRepository {
	if tx == nil {
		return r
	}
	return &DesignRepository{db: tx}
}

// FindByID loads a single design.
func (r *DesignRepository) FindByID(ctx context.Context, id int64) (*models.Design, error) {
	var design models.Design
	if err := r.db.WithContext(ctx).First(&design, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &design, nil
}

// FindByIDs loads the designs for the given ids. Missing ids are simply
// absent from the result.
func (r *DesignRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.Design, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var designs []models.Design
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&designs).Error; err != nil {
		return nil, err
	}
	return designs, nil
}

// ListParams filters the catalog listing.
type ListParams struct {
	Category    *enums.DesignCategory
	InStockOnly bool
	Limit       int
	Offset      int
}

// List returns designs ordered by newest first.
func (r *DesignRepository) List(ctx context.Context, params ListParams) ([]models.Design, error) {
	query := r.db.WithContext(ctx).Model(&models.Design{})
	if params.Category != nil {
		query = query.Where("category = ?", *params.Category)
	}
	if params.InStockOnly {
		query = query.Where("in_stock = TRUE")
	}
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}
	if params.Offset > 0 {
		query = query.Offset(params.Offset)
	}
	var designs []models.Design
	if err := query.Order("created_at DESC").Find(&designs).Error; err != nil {
		return nil, err
	}
	return designs, nil
}
