package controllers

import (
	"net/http"
	"net/url"

	"github.com/pharmalink/pharmalink-backend/api/responses"
	"github.com/pharmalink/pharmalink-backend/api/validators"
	"github.com/pharmalink/pharmalink-backend/internal/filters"
	pkgerrors "github.com/pharmalink/pharmalink-backend/pkg/errors"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
)

type applyFiltersRequest struct {
	Query  string         `json:"query" validate:"max=4096"`
	Update filters.Update `json:"update"`
	Clear  bool           `json:"clear"`
}

type applyFiltersResponse struct {
	Query   string      `json:"query"`
	Filters filters.Set `json:"filters"`
}

// FiltersApply merges an update into a query string the way the dashboard's
// URL-synced filters do, and returns the new query with its parsed form.
func FiltersApply(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload applyFiltersRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.Clear {
			cleared := filters.Clear()
			responses.WriteSuccess(w, applyFiltersResponse{Query: cleared.Encode(), Filters: filters.Parse(cleared)})
			return
		}

		next, err := filters.ApplyString(payload.Query, payload.Update)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Paramètres de filtre invalides"))
			return
		}
		values, err := url.ParseQuery(next)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, ""))
			return
		}
		responses.WriteSuccess(w, applyFiltersResponse{Query: next, Filters: filters.Parse(values)})
	}
}
