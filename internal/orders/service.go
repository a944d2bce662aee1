package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saiembroidery/storefront-backend/pkg/db/models"
	"github.com/saiembroidery/storefront-backend/pkg/enums"
	pkgerrors "github.com/saiembroidery/storefront-backend/pkg/errors"
)

type orderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	CountByCategory(ctx context.Context, category enums.DesignCategory) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	UpdateWorkStatus(ctx context.Context, id uuid.UUID, status enums.WorkStatus) error
}

// Service exposes order persistence and the work-status lifecycle.
type Service interface {
	Place(ctx context.Context, order *models.Order) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	MarkWorkStatus(ctx context.Context, id uuid.UUID, status enums.WorkStatus) error
	CountByCategory(ctx context.Context, category enums.DesignCategory) (int64, error)
}

type service struct {
	repo orderStore
}

// NewService builds the orders service.
func NewService(repo orderStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &service{repo: repo}, nil
}

// Place persists one order row. The checkout orchestrator owns id
// generation and payment status; this only guards obvious corruption.
func (s *service) Place(ctx context.Context, order *models.Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	if order.CustomOrderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "custom order id is required")
	}
	if order.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if order.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !order.PaymentStatus.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
	if err := s.repo.Insert(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
	}
	return nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	out, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return out, nil
}

// MarkWorkStatus moves the embroidery work state forward. The transition is
// one way; a finished order never goes back to pending.
func (s *service) MarkWorkStatus(ctx context.Context, id uuid.UUID, status enums.WorkStatus) error {
	if status != enums.WorkStatusSuccessful {
		return pkgerrors.New(pkgerrors.CodeValidation, "work status can only move to successful")
	}
	if err := s.repo.UpdateWorkStatus(ctx, id, status); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		case errors.Is(err, ErrWorkStatusFinal):
			return pkgerrors.New(pkgerrors.CodeConflict, "work already marked successful")
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update work status")
		}
	}
	return nil
}

func (s *service) CountByCategory(ctx context.Context, category enums.DesignCategory) (int64, error) {
	return s.repo.CountByCategory(ctx, category)
}
