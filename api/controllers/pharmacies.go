package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pharmalink/pharmalink-backend/api/middleware"
	"github.com/pharmalink/pharmalink-backend/api/responses"
	"github.com/pharmalink/pharmalink-backend/api/validators"
	"github.com/pharmalink/pharmalink-backend/internal/pharmacies"
	pkgerrors "github.com/pharmalink/pharmalink-backend/pkg/errors"
	"github.com/pharmalink/pharmalink-backend/pkg/geo"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
)

const maxListLimit = 100

// callerPosition prefers explicit lat/lng and falls back to the position the
// session shared earlier.
func callerPosition(r *http.Request) (*geo.Coords, error) {
	coords, err := validators.ParseQueryCoords(r)
	if err != nil || coords != nil {
		return coords, err
	}
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		if c, ok := sess.Location.Coords(); ok {
			return &c, nil
		}
	}
	return nil, nil
}

func PharmaciesList(svc *pharmacies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		near, err := callerPosition(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		onDuty, err := validators.ParseQueryBool(r, "on_duty")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		open, err := validators.ParseQueryBool(r, "open")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		listings, err := svc.Search(r.Context(), pharmacies.SearchParams{
			Query:      validators.SanitizeText(q.Get("q"), maxSearchRunes),
			City:       strings.TrimSpace(q.Get("city")),
			OnDutyOnly: onDuty != nil && *onDuty,
			OpenOnly:   open != nil && *open,
			Near:       near,
			Limit:      limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nonNil(listings))
	}
}

// PharmaciesOnDuty lists pharmacies on duty or open at ?at (RFC 3339),
// defaulting to now.
func PharmaciesOnDuty(svc *pharmacies.Service, now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		near, err := callerPosition(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		at := now()
		if raw := strings.TrimSpace(r.URL.Query().Get("at")); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Date invalide").
					WithDetails(map[string]any{"field": "at"}))
				return
			}
			at = parsed
		}

		listings, err := svc.OnDuty(r.Context(), at, near)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nonNil(listings))
	}
}

// PharmaciesNearest needs a position, either in the query or in the session.
func PharmaciesNearest(svc *pharmacies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		near, err := callerPosition(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if near == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Position requise pour trouver les pharmacies proches"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 5, 1, maxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listings, err := svc.Nearest(r.Context(), *near, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nonNil(listings))
	}
}

func PharmacyGet(svc *pharmacies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		near, err := callerPosition(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.Get(r.Context(), chi.URLParam(r, "pharmacyId"), near)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

func MedicationsSearch(svc *pharmacies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := medicationQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.SearchMedications(r.Context(), q)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nonNil(items))
	}
}

func MedicationGet(svc *pharmacies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := svc.Product(r.Context(), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// SearchSuggest is the debounced variant of MedicationsSearch: a request
// superseded by a newer one from the same session answers 409.
func SearchSuggest(searcher *pharmacies.Searcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}
		q, err := medicationQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := searcher.Suggest(r.Context(), sess.ID, q)
		if err != nil {
			if errors.Is(err, pharmacies.ErrSuperseded) {
				err = pkgerrors.Wrap(pkgerrors.CodeConflict, err, "Recherche remplacée par une saisie plus récente")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nonNil(items))
	}
}

const maxSearchRunes = 100

func medicationQuery(r *http.Request) (pharmacies.MedicationQuery, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxListLimit)
	if err != nil {
		return pharmacies.MedicationQuery{}, err
	}
	inStock, err := validators.ParseQueryBool(r, "in_stock")
	if err != nil {
		return pharmacies.MedicationQuery{}, err
	}
	prescription, err := validators.ParseQueryBool(r, "requires_prescription")
	if err != nil {
		return pharmacies.MedicationQuery{}, err
	}

	q := r.URL.Query()
	return pharmacies.MedicationQuery{
		Query:                validators.SanitizeText(q.Get("q"), maxSearchRunes),
		Category:             strings.TrimSpace(q.Get("category")),
		PharmacyID:           strings.TrimSpace(q.Get("pharmacy_id")),
		InStockOnly:          inStock != nil && *inStock,
		RequiresPrescription: prescription,
		Limit:                limit,
	}, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
