package address

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saiembroidery/storefront-backend/pkg/db/models"
	pkgerrors "github.com/saiembroidery/storefront-backend/pkg/errors"
)

var (
	pincodeRe = regexp.MustCompile(`^\d{6}$`)
	mobileRe  = regexp.MustCompile(`^\d{10}$`)
)

type addressStore interface {
	Insert(ctx context.Context, addr *models.Address) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	FindByUserAndID(ctx context.Context, userID, id uuid.UUID) (*models.Address, error)
	Update(ctx context.Context, addr *models.Address) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// Input carries the writable address fields.
type Input struct {
	Name            string  `json:"name" validate:"required,max=100"`
	HouseNo         string  `json:"house_no" validate:"required,max=200"`
	Landmark        *string `json:"landmark,omitempty" validate:"omitempty,max=200"`
	City            string  `json:"city" validate:"required,max=100"`
	District        string  `json:"district" validate:"required,max=100"`
	State           string  `json:"state" validate:"required,max=100"`
	Pincode         string  `json:"pincode" validate:"required"`
	PrimaryMobile   string  `json:"primary_mobile" validate:"required"`
	SecondaryMobile *string `json:"secondary_mobile,omitempty"`
}

// Service exposes the delivery address book.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input Input) (*models.Address, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Address, error)
	Update(ctx context.Context, userID, id uuid.UUID, input Input) (*models.Address, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	repo addressStore
}

// NewService builds the address book service.
func NewService(repo addressStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input Input) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	addr := &models.Address{
		ID:              uuid.New(),
		UserID:          userID,
		Name:            input.Name,
		HouseNo:         input.HouseNo,
		Landmark:        input.Landmark,
		City:            input.City,
		District:        input.District,
		State:           input.State,
		Pincode:         input.Pincode,
		PrimaryMobile:   input.PrimaryMobile,
		SecondaryMobile: input.SecondaryMobile,
	}
	if err := s.repo.Insert(ctx, addr); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert address")
	}
	return addr, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	addrs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return addrs, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	addr, err := s.repo.FindByUserAndID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return addr, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input Input) (*models.Address, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	addr := &models.Address{
		ID:              id,
		UserID:          userID,
		Name:            input.Name,
		HouseNo:         input.HouseNo,
		Landmark:        input.Landmark,
		City:            input.City,
		District:        input.District,
		State:           input.State,
		Pincode:         input.Pincode,
		PrimaryMobile:   input.PrimaryMobile,
		SecondaryMobile: input.SecondaryMobile,
	}
	if err := s.repo.Update(ctx, addr); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
	}
	return addr, nil
}

// Delete removes the address. Orders keep their address_id, so historical
// orders referencing a deleted address are resolved at read time.
func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	return nil
}

func validateInput(input *Input) error {
	input.Name = strings.TrimSpace(input.Name)
	input.HouseNo = strings.TrimSpace(input.HouseNo)
	input.City = strings.TrimSpace(input.City)
	input.District = strings.TrimSpace(input.District)
	input.State = strings.TrimSpace(input.State)
	input.Pincode = strings.TrimSpace(input.Pincode)
	input.PrimaryMobile = strings.TrimSpace(input.PrimaryMobile)

	details := map[string]string{}
	if input.Name == "" {
		details["name"] = "is required"
	}
	if input.HouseNo == "" {
		details["house_no"] = "is required"
	}
	if input.City == "" {
		details["city"] = "is required"
	}
	if input.District == "" {
		details["district"] = "is required"
	}
	if input.State == "" {
		details["state"] = "is required"
	}
	if !pincodeRe.MatchString(input.Pincode) {
		details["pincode"] = "must be a 6 digit pincode"
	}
	if !mobileRe.MatchString(input.PrimaryMobile) {
		details["primary_mobile"] = "must be a 10 digit mobile number"
	}
	if input.SecondaryMobile != nil {
		trimmed := strings.TrimSpace(*input.SecondaryMobile)
		if trimmed == "" {
			input.SecondaryMobile = nil
		} else if !mobileRe.MatchString(trimmed) {
			details["secondary_mobile"] = "must be a 10 digit mobile number"
		} else {
			input.SecondaryMobile = &trimmed
		}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}
