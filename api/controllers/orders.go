package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/saiembroidery/storefront-backend/api/responses"
	"github.com/saiembroidery/storefront-backend/api/validators"
	orderssvc "github.com/saiembroidery/storefront-backend/internal/orders"
	"github.com/saiembroidery/storefront-backend/pkg/db/models"
	"github.com/saiembroidery/storefront-backend/pkg/enums"
	pkgerrors "github.com/saiembroidery/storefront-backend/pkg/errors"
	"github.com/saiembroidery/storefront-backend/pkg/logger"
)

// ListOrders returns the user's order history, newest first.
func ListOrders(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]orderResponse, 0, len(orders))
		for i := range orders {
			out = append(out, newOrderResponse(orders[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// MarkOrderWorkStatus transitions an order's embroidery work status.
func MarkOrderWorkStatus(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		var payload workStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseWorkStatus(payload.WorkStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid work status"))
			return
		}

		if err := svc.MarkWorkStatus(r.Context(), orderID, status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(status)})
	}
}

type workStatusRequest struct {
	WorkStatus string `json:"work_status" validate:"required"`
}

type orderResponse struct {
	ID            uuid.UUID `json:"id"`
	CustomOrderID string    `json:"custom_order_id"`
	DesignNo      string    `json:"design_no"`
	Quantity      int       `json:"quantity"`
	PricePaise    int64     `json:"price_paise"`
	PaymentStatus string    `json:"payment_status"`
	WorkStatus    string    `json:"work_status"`
	Category      string    `json:"category"`
	CreatedAt     time.Time `json:"created_at"`
}

func newOrderResponse(o models.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		CustomOrderID: o.CustomOrderID,
		DesignNo:      o.DesignNo,
		Quantity:      o.Quantity,
		PricePaise:    o.PricePaise,
		PaymentStatus: string(o.PaymentStatus),
		WorkStatus:    string(o.WorkStatus),
		Category:      string(o.Category),
		CreatedAt:     o.CreatedAt,
	}
}
