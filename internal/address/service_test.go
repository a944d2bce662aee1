package address

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saiembroidery/storefront-backend/pkg/db/models"
	pkgerrors "github.com/saiembroidery/storefront-backend/pkg/errors"
)

type fakeAddressRepo struct {
	addrs map[uuid.UUID]*models.Address
}

func newFakeAddressRepo() *fakeAddressRepo {
	return &fakeAddressRepo{addrs: make(map[uuid.UUID]*models.Address)}
}

func (f *fakeAddressRepo) Insert(_ context.Context, addr *models.Address) error {
	copied := *addr
	f.addrs[addr.ID] = &copied
	return nil
}

func (f *fakeAddressRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Address, error) {
	var out []models.Address
	for _, a := range f.addrs {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAddressRepo) FindByUserAndID(_ context.Context, userID, id uuid.UUID) (*models.Address, error) {
	if a, ok := f.addrs[id]; ok && a.UserID == userID {
		copied := *a
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAddressRepo) Update(_ context.Context, addr *models.Address) error {
	existing, ok := f.addrs[addr.ID]
	if !ok || existing.UserID != addr.UserID {
		return gorm.ErrRecordNotFound
	}
	copied := *addr
	copied.CreatedAt = existing.CreatedAt
	f.addrs[addr.ID] = &copied
	return nil
}

func (f *fakeAddressRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	if a, ok := f.addrs[id]; ok && a.UserID == userID {
		delete(f.addrs, id)
		return nil
	}
	return gorm.ErrRecordNotFound
}

func validAddressInput() Input {
	return Input{
		Name:          "Lakshmi",
		HouseNo:       "12-3-456, Sardar Patel Road",
		City:          "Bhuj",
		District:      "Kutch",
		State:         "Gujarat",
		Pincode:       "370001",
		PrimaryMobile: "9876543210",
	}
}

func newAddressService(t *testing.T) (Service, *fakeAddressRepo) {
	t.Helper()
	repo := newFakeAddressRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestCreateAndListAddress(t *testing.T) {
	svc, _ := newAddressService(t)
	userID := uuid.New()

	created, err := svc.Create(context.Background(), userID, validAddressInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected generated address id")
	}

	addrs, err := svc.List(context.Background(), userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(addrs) != 1 {
		t.Fatalf("expected 1 address, got %d", len(addrs))
	}
}

func TestCreateValidatesPincodeAndMobile(t *testing.T) {
	svc, _ := newAddressService(t)

	input := validAddressInput()
	input.Pincode = "370"
	input.PrimaryMobile = "12345"

	_, err := svc.Create(context.Background(), uuid.New(), input)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	typed := pkgerrors.As(err)
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	if _, ok := details["pincode"]; !ok {
		t.Fatal("expected pincode detail")
	}
	if _, ok := details["primary_mobile"]; !ok {
		t.Fatal("expected primary_mobile detail")
	}
}

func TestUpdateRejectsForeignAddress(t *testing.T) {
	svc, _ := newAddressService(t)
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, validAddressInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Update(context.Background(), uuid.New(), created.ID, validAddressInput())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not-found for foreign user, got %v", err)
	}
}

func TestDeleteAddress(t *testing.T) {
	svc, repo := newAddressService(t)
	userID := uuid.New()

	created, err := svc.Create(context.Background(), userID, validAddressInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), userID, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(repo.addrs) != 0 {
		t.Fatal("expected address removed")
	}

	if err := svc.Delete(context.Background(), userID, created.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not-found on second delete, got %v", err)
	}
}

func TestSecondaryMobileNormalization(t *testing.T) {
	svc, _ := newAddressService(t)

	blank := "   "
	input := validAddressInput()
	input.SecondaryMobile = &blank

	created, err := svc.Create(context.Background(), uuid.New(), input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.SecondaryMobile != nil {
		t.Fatal("expected blank secondary mobile dropped")
	}
}
