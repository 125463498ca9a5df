package controllers

import (
	"net/http"
	"time"

	"github.com/pharmalink/pharmalink-backend/api/responses"
	"github.com/pharmalink/pharmalink-backend/api/validators"
	"github.com/pharmalink/pharmalink-backend/internal/filters"
	"github.com/pharmalink/pharmalink-backend/internal/orders"
	"github.com/pharmalink/pharmalink-backend/internal/session"
	"github.com/pharmalink/pharmalink-backend/pkg/enums"
	pkgerrors "github.com/pharmalink/pharmalink-backend/pkg/errors"
	"github.com/pharmalink/pharmalink-backend/pkg/format"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
	"github.com/pharmalink/pharmalink-backend/pkg/pagination"
)

const orderNotFoundMessage = "Commande introuvable"

// orderView adds the display strings the order screens print.
type orderView struct {
	*orders.Order
	FormattedTotal     string `json:"formattedTotal"`
	FormattedCreatedAt string `json:"formattedCreatedAt"`
	CreatedAgo         string `json:"createdAgo,omitempty"`
}

func viewOrder(o *orders.Order) orderView {
	return orderView{
		Order:              o,
		FormattedTotal:     format.Currency(o.TotalAmount),
		FormattedCreatedAt: format.DateTime(o.CreatedAt),
	}
}

type orderListResponse struct {
	orders.ListResult
	Filters filters.Set `json:"filters"`
}

// OrdersCreate checks out the session cart. The cart is cleared only once the
// order is stored.
func OrdersCreate(store *orders.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		var form orders.Form
		if err := validators.DecodeJSONBody(r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(string(form.PaymentDetails.Method))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Mode de paiement inconnu").
				WithDetails(map[string]any{"field": "paymentDetails.method"}))
			return
		}
		form.PaymentDetails.Method = method

		order, err := store.CreateOrder(r.Context(), sess.ID, form, sess.Cart.Items())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess.Cart.ClearCart(r.Context())
		sess.Toasts.AddDefault("Commande "+order.OrderNumber+" enregistrée ("+format.Currency(order.TotalAmount)+")", enums.ToastKindSuccess)

		responses.WriteSuccessStatus(w, http.StatusCreated, viewOrder(order))
	}
}

// OrdersList lists the session's orders narrowed by the filter query string.
func OrdersList(store *orders.Store, now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		set := filters.Parse(r.URL.Query())
		q, err := set.ToOrderQuery(now(), pagination.DefaultLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q.SessionID = sess.ID

		result, err := store.ListOrders(r.Context(), q)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderListResponse{ListResult: result, Filters: set})
	}
}

func OrdersGet(store *orders.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}
		order, err := sessionOrder(r, store, sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, viewOrder(order))
	}
}

// OrdersCancel cancels a pending or confirmed order of the session.
func OrdersCancel(store *orders.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}
		order, err := sessionOrder(r, store, sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cancelled, err := store.CancelOrder(r.Context(), order.ID)
		if err != nil {
			if orders.IsCancelRejected(err) {
				sess.Toasts.AddDefault(orders.CancelRejectedMessage, enums.ToastKindError)
			}
			responses.WriteError(r.Context(), logg, w, mapOrderError(err))
			return
		}
		sess.Toasts.AddDefault("Commande "+cancelled.OrderNumber+" annulée", enums.ToastKindInfo)
		responses.WriteSuccess(w, viewOrder(cancelled))
	}
}

// sessionOrder loads the order from the URL and hides orders placed by other
// sessions behind the same not-found error.
func sessionOrder(r *http.Request, store *orders.Store, sess *session.Session) (*orders.Order, error) {
	id, err := orderIDParam(r)
	if err != nil {
		return nil, err
	}
	order, err := store.GetOrderByID(r.Context(), id)
	if err != nil {
		return nil, mapOrderError(err)
	}
	if order.SessionID != sess.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, orderNotFoundMessage)
	}
	return order, nil
}

func mapOrderError(err error) error {
	if orders.IsNotFound(err) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, orderNotFoundMessage)
	}
	return err
}
