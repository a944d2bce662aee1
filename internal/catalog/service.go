package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/saiembroidery/storefront-backend/pkg/db/models"
	"github.com/saiembroidery/storefront-backend/pkg/enums"
	pkgerrors "github.com/saiembroidery/storefront-backend/pkg/errors"
)

type designLoader interface {
	FindByID(ctx context.Context, id int64) (*models.Design, error)
	FindByIDs(ctx context.Context, ids []int64) ([]models.Design, error)
	List(ctx context.Context, params ListParams) ([]models.Design, error)
}

// Service exposes catalog lookups used by the cart and checkout flows.
type Service interface {
	GetDesign(ctx context.Context, id int64) (*models.Design, error)
	GetDesigns(ctx context.Context, ids []int64) (map[int64]models.Design, error)
	ListDesigns(ctx context.Context, params ListParams) ([]models.Design, error)
}

type service struct {
	repo designLoader
}

// NewService builds a catalog service backed by the provided repository.
func NewService(repo designLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("design repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetDesign(ctx context.Context, id int64) (*models.Design, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "design id is required")
	}
	design, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "design not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load design")
	}
	return design, nil
}

// GetDesigns resolves the given ids into a lookup map. Callers decide how to
// treat ids that no longer resolve.
func (s *service) GetDesigns(ctx context.Context, ids []int64) (map[int64]models.Design, error) {
	if len(ids) == 0 {
		return map[int64]models.Design{}, nil
	}
	designs, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load designs")
	}
	byID := make(map[int64]models.Design, len(designs))
	for _, d := range designs {
		byID[d.ID] = d
	}
	return byID, nil
}

func (s *service) ListDesigns(ctx context.Context, params ListParams) ([]models.Design, error) {
	if params.Category != nil && !params.Category.IsKnown() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown category %q", *params.Category))
	}
	designs, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list designs")
	}
	return designs, nil
}

// CategoryOrUnknown parses a raw category string for listing filters.
func CategoryOrUnknown(raw string) (enums.DesignCategory, bool) {
	cat := enums.DesignCategory(raw)
	return cat, cat.IsKnown()
}
