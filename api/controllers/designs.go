package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/saiembroidery/storefront-backend/api/responses"
	"github.com/saiembroidery/storefront-backend/internal/catalog"
	"github.com/saiembroidery/storefront-backend/pkg/db/models"
	"github.com/saiembroidery/storefront-backend/pkg/enums"
	pkgerrors "github.com/saiembroidery/storefront-backend/pkg/errors"
	"github.com/saiembroidery/storefront-backend/pkg/logger"
)

const maxDesignPageSize = 100

// ListDesigns serves the public catalog.
func ListDesigns(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params := catalog.ListParams{Limit: maxDesignPageSize, InStockOnly: r.URL.Query().Get("in_stock") == "true"}

		if raw := r.URL.Query().Get("category"); raw != "" {
			category := enums.DesignCategory(raw)
			params.Category = &category
		}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit <= 0 || limit > maxDesignPageSize {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be between 1 and 100"))
				return
			}
			params.Limit = limit
		}
		if raw := r.URL.Query().Get("offset"); raw != "" {
			offset, err := strconv.Atoi(raw)
			if err != nil || offset < 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "offset must be non-negative"))
				return
			}
			params.Offset = offset
		}

		designs, err := svc.ListDesigns(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]designResponse, 0, len(designs))
		for _, d := range designs {
			out = append(out, newDesignResponse(d))
		}
		responses.WriteSuccess(w, out)
	}
}

// GetDesign serves one catalog entry.
func GetDesign(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := strconv.ParseInt(chi.URLParam(r, "designID"), 10, 64)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid design id"))
			return
		}

		design, err := svc.GetDesign(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDesignResponse(*design))
	}
}

type designResponse struct {
	ID           int64   `json:"id"`
	DesignNo     string  `json:"design_no"`
	MainImageURL *string `json:"main_image_url,omitempty"`
	PricePaise   int64   `json:"price_paise"`
	Category     string  `json:"category"`
	InStock      bool    `json:"in_stock"`
}

func newDesignResponse(d models.Design) designResponse {
	return designResponse{
		ID:           d.ID,
		DesignNo:     d.DesignNo,
		MainImageURL: d.MainImageURL,
		PricePaise:   d.PricePaise,
		Category:     string(d.Category),
		InStock:      d.InStock,
	}
}
