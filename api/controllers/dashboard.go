package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pharmalink/pharmalink-backend/api/middleware"
	"github.com/pharmalink/pharmalink-backend/api/responses"
	"github.com/pharmalink/pharmalink-backend/api/validators"
	"github.com/pharmalink/pharmalink-backend/internal/filters"
	"github.com/pharmalink/pharmalink-backend/internal/orders"
	"github.com/pharmalink/pharmalink-backend/pkg/enums"
	pkgerrors "github.com/pharmalink/pharmalink-backend/pkg/errors"
	"github.com/pharmalink/pharmalink-backend/pkg/format"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
	"github.com/pharmalink/pharmalink-backend/pkg/pagination"
)

const forbiddenMessage = "Accès refusé"

// dashboardScope returns the pharmacy the caller may act for. Admins get ""
// which means every pharmacy.
func dashboardScope(r *http.Request) (string, error) {
	role := enums.MemberRole(middleware.RoleFromContext(r.Context()))
	if !role.CanManageOrders() {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, forbiddenMessage)
	}
	if role == enums.MemberRoleAdmin {
		return "", nil
	}
	pharmacyID := middleware.PharmacyIDFromContext(r.Context())
	if pharmacyID == "" {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, forbiddenMessage)
	}
	return pharmacyID, nil
}

// DashboardOrders lists the orders containing a line from the caller's pharmacy.
func DashboardOrders(store *orders.Store, now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := dashboardScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		set := filters.Parse(r.URL.Query())
		q, err := set.ToOrderQuery(now(), pagination.DefaultLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if scope != "" {
			q.PharmacyID = scope
		}

		result, err := store.ListOrders(r.Context(), q)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderListResponse{ListResult: result, Filters: set})
	}
}

// DashboardOrdersByStatus returns every order in one status, or all of them
// for "all", most recent first and without pagination.
func DashboardOrdersByStatus(store *orders.Store, now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := dashboardScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		matched, err := store.FilterOrdersByStatus(r.Context(), chi.URLParam(r, "status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		at := now()
		out := make([]orderView, 0, len(matched))
		for i := range matched {
			if scope != "" && !matched[i].IncludesPharmacy(scope) {
				continue
			}
			view := viewOrder(&matched[i])
			view.CreatedAgo = format.RelativeTime(matched[i].CreatedAt, at)
			out = append(out, view)
		}
		responses.WriteSuccess(w, out)
	}
}

type updateStatusRequest struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
}

// DashboardUpdateStatus sets any status; the transition is not constrained.
func DashboardUpdateStatus(store *orders.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := dashboardScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		current, err := store.GetOrderByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, mapOrderError(err))
			return
		}
		if scope != "" && !current.IncludesPharmacy(scope) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, forbiddenMessage))
			return
		}

		updated, err := store.UpdateOrderStatus(r.Context(), id, payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, mapOrderError(err))
			return
		}
		responses.WriteSuccess(w, viewOrder(updated))
	}
}

// DashboardStats aggregates the caller's orders, optionally over a period.
func DashboardStats(store *orders.Store, now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := dashboardScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := orders.Query{PharmacyID: scope}
		if period := r.URL.Query().Get(filters.KeyPeriod); period != "" {
			since, ok := orders.PeriodStart(period, now())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Période inconnue").
					WithDetails(map[string]any{"field": filters.KeyPeriod}))
				return
			}
			q.Since = &since
		}

		var stats orders.Stats
		if q.PharmacyID == "" && q.Since == nil {
			stats, err = store.GetOrderStats(r.Context())
		} else {
			stats, err = store.GetScopedStats(r.Context(), q)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
