package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/saiembroidery/storefront-backend/api/responses"
	"github.com/saiembroidery/storefront-backend/api/validators"
	addresssvc "github.com/saiembroidery/storefront-backend/internal/address"
	"github.com/saiembroidery/storefront-backend/pkg/db/models"
	pkgerrors "github.com/saiembroidery/storefront-backend/pkg/errors"
	"github.com/saiembroidery/storefront-backend/pkg/logger"
)

// CreateAddress adds an entry to the user's address book.
func CreateAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := addressActor(w, r, svc, logg)
		if !ok {
			return
		}

		var payload addresssvc.Input
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addr, err := svc.Create(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newAddressResponse(addr))
	}
}

// ListAddresses returns the user's saved delivery addresses.
func ListAddresses(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := addressActor(w, r, svc, logg)
		if !ok {
			return
		}

		addrs, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]addressResponse, 0, len(addrs))
		for i := range addrs {
			out = append(out, newAddressResponse(&addrs[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// GetAddress returns one saved address.
func GetAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := addressActor(w, r, svc, logg)
		if !ok {
			return
		}
		id, err := addressIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addr, err := svc.Get(r.Context(), userID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAddressResponse(addr))
	}
}

// UpdateAddress overwrites a saved address.
func UpdateAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := addressActor(w, r, svc, logg)
		if !ok {
			return
		}
		id, err := addressIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addresssvc.Input
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addr, err := svc.Update(r.Context(), userID, id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAddressResponse(addr))
	}
}

// DeleteAddress removes a saved address.
func DeleteAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := addressActor(w, r, svc, logg)
		if !ok {
			return
		}
		id, err := addressIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), userID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func addressActor(w http.ResponseWriter, r *http.Request, svc addresssvc.Service, logg *logger.Logger) (uuid.UUID, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
		return uuid.Nil, false
	}
	userID, err := userIDFromContext(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, false
	}
	return userID, true
}

func addressIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "addressID"))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid address id")
	}
	return id, nil
}

type addressResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	HouseNo         string    `json:"house_no"`
	Landmark        *string   `json:"landmark,omitempty"`
	City            string    `json:"city"`
	District        string    `json:"district"`
	State           string    `json:"state"`
	Pincode         string    `json:"pincode"`
	PrimaryMobile   string    `json:"primary_mobile"`
	SecondaryMobile *string   `json:"secondary_mobile,omitempty"`
}

func newAddressResponse(addr *models.Address) addressResponse {
	if addr == nil {
		return addressResponse{}
	}
	return addressResponse{
		ID:              addr.ID,
		Name:            addr.Name,
		HouseNo:         addr.HouseNo,
		Landmark:        addr.Landmark,
		City:            addr.City,
		District:        addr.District,
		State:           addr.State,
		Pincode:         addr.Pincode,
		PrimaryMobile:   addr.PrimaryMobile,
		SecondaryMobile: addr.SecondaryMobile,
	}
}
