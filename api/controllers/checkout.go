package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/saiembroidery/storefront-backend/api/responses"
	"github.com/saiembroidery/storefront-backend/api/validators"
	checkoutsvc "github.com/saiembroidery/storefront-backend/internal/checkout"
	pkgerrors "github.com/saiembroidery/storefront-backend/pkg/errors"
	"github.com/saiembroidery/storefront-backend/pkg/logger"
)

// BeginCheckout opens a payment for the current cart.
func BeginCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := checkoutActor(w, r, svc, logg)
		if !ok {
			return
		}

		var payload beginCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := svc.Begin(r.Context(), userID, payload.AddressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, res)
	}
}

// CompleteCheckout turns the paid cart into orders. A partial failure is
// reported with the placed and failed lines so the storefront can retry.
func CompleteCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := checkoutActor(w, r, svc, logg)
		if !ok {
			return
		}

		var payload checkoutsvc.CompleteInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := svc.Complete(r.Context(), userID, payload)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodePartialCheckout) && res != nil {
				typed := pkgerrors.As(err)
				responses.WriteError(r.Context(), logg, w, typed.WithDetails(res))
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, res)
	}
}

// DismissCheckout records that the shopper closed the payment dialog.
func DismissCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := checkoutActor(w, r, svc, logg)
		if !ok {
			return
		}

		var payload dismissCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// a dismissal is reported to the client as a payment failure
		if err := svc.Dismiss(r.Context(), userID, payload.GatewayOrderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "dismissed"})
	}
}

func checkoutActor(w http.ResponseWriter, r *http.Request, svc checkoutsvc.Service, logg *logger.Logger) (uuid.UUID, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
		return uuid.Nil, false
	}
	userID, err := userIDFromContext(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, false
	}
	return userID, true
}

type beginCheckoutRequest struct {
	AddressID uuid.UUID `json:"address_id" validate:"required"`
}

type dismissCheckoutRequest struct {
	GatewayOrderID string `json:"gateway_order_id" validate:"required"`
}
