package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/saiembroidery/storefront-backend/api/responses"
	"github.com/saiembroidery/storefront-backend/api/validators"
	"github.com/saiembroidery/storefront-backend/internal/cart"
	pkgerrors "github.com/saiembroidery/storefront-backend/pkg/errors"
	"github.com/saiembroidery/storefront-backend/pkg/logger"
)

// GetCart returns the current snapshot, refreshing when asked.
func GetCart(mgr *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromRequest(w, r, mgr, logg)
		if !ok {
			return
		}

		if r.URL.Query().Get("refresh") == "true" {
			snap, err := session.RefreshCart(r.Context())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, snap)
			return
		}

		responses.WriteSuccess(w, session.Snapshot())
	}
}

// AddCartItem adds or merges a design into the cart.
func AddCartItem(mgr *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromRequest(w, r, mgr, logg)
		if !ok {
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := session.AddToCart(r.Context(), payload.DesignID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, snap)
	}
}

// UpdateCartItem sets a line's quantity.
func UpdateCartItem(mgr *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromRequest(w, r, mgr, logg)
		if !ok {
			return
		}

		lineID, err := uuid.Parse(chi.URLParam(r, "lineID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid cart item id"))
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := session.UpdateCartItem(r.Context(), lineID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// RemoveCartItem deletes a line.
func RemoveCartItem(mgr *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromRequest(w, r, mgr, logg)
		if !ok {
			return
		}

		lineID, err := uuid.Parse(chi.URLParam(r, "lineID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid cart item id"))
			return
		}

		snap, err := session.RemoveFromCart(r.Context(), lineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// ClearCart empties the cart.
func ClearCart(mgr *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromRequest(w, r, mgr, logg)
		if !ok {
			return
		}

		if err := session.ClearCart(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session.Snapshot())
	}
}

func sessionFromRequest(w http.ResponseWriter, r *http.Request, mgr *cart.Manager, logg *logger.Logger) (cart.Session, bool) {
	if mgr == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart manager unavailable"))
		return nil, false
	}
	userID, err := userIDFromContext(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	session, err := mgr.SessionFor(r.Context(), userID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	return session, true
}

type addCartItemRequest struct {
	DesignID int64 `json:"design_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,gt=0"`
}

// Quantity zero (or below) removes the line, so no lower bound here.
type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}
