package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pharmalink/pharmalink-backend/api/responses"
	"github.com/pharmalink/pharmalink-backend/api/validators"
	"github.com/pharmalink/pharmalink-backend/internal/cart"
	"github.com/pharmalink/pharmalink-backend/internal/catalog"
	"github.com/pharmalink/pharmalink-backend/internal/session"
	"github.com/pharmalink/pharmalink-backend/pkg/enums"
	"github.com/pharmalink/pharmalink-backend/pkg/format"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
)

// ProductLookup resolves a product id against the catalog or the backend.
type ProductLookup interface {
	Product(ctx context.Context, id string) (*catalog.Product, error)
}

type cartResponse struct {
	Items          []cart.Item `json:"items"`
	IsCartOpen     bool        `json:"isCartOpen"`
	Total          int64       `json:"total"`
	FormattedTotal string      `json:"formattedTotal"`
	ItemCount      int         `json:"itemCount"`
}

func newCartResponse(store *cart.Store) cartResponse {
	items := store.Items()
	if items == nil {
		items = []cart.Item{}
	}
	total := store.GetTotal()
	return cartResponse{
		Items:          items,
		IsCartOpen:     store.IsOpen(),
		Total:          total,
		FormattedTotal: format.Currency(total),
		ItemCount:      store.GetItemCount(),
	}
}

func CartGet(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}
		responses.WriteSuccess(w, newCartResponse(sess.Cart))
	}
}

type addCartItemRequest struct {
	ProductID string `json:"productId" validate:"required,max=64"`
}

// CartAddItem resolves the product server-side so clients cannot forge price
// or stock. An out-of-stock product leaves the cart unchanged and raises a
// warning toast.
func CartAddItem(products ProductLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := products.Product(r.Context(), strings.TrimSpace(payload.ProductID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		before := quantityOf(sess, product.ID)
		sess.Cart.AddToCart(r.Context(), *product)
		switch {
		case quantityOf(sess, product.ID) > before:
			sess.Toasts.AddDefault(product.Name+" ajouté au panier", enums.ToastKindSuccess)
		case product.Stock < 1:
			sess.Toasts.AddDefault(product.Name+" est en rupture de stock", enums.ToastKindWarning)
		default:
			sess.Toasts.AddDefault("Stock maximum atteint pour "+product.Name, enums.ToastKindWarning)
		}

		responses.WriteSuccess(w, newCartResponse(sess.Cart))
	}
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

func CartUpdateItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess.Cart.UpdateQuantity(r.Context(), chi.URLParam(r, "productId"), *payload.Quantity)
		responses.WriteSuccess(w, newCartResponse(sess.Cart))
	}
}

func CartRemoveItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}
		sess.Cart.RemoveFromCart(r.Context(), chi.URLParam(r, "productId"))
		responses.WriteSuccess(w, newCartResponse(sess.Cart))
	}
}

func CartClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}
		sess.Cart.ClearCart(r.Context())
		responses.WriteSuccess(w, newCartResponse(sess.Cart))
	}
}

func CartToggle(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}
		sess.Cart.ToggleCart(r.Context())
		responses.WriteSuccess(w, newCartResponse(sess.Cart))
	}
}

func quantityOf(sess *session.Session, productID string) int {
	for _, item := range sess.Cart.Items() {
		if item.Product.ID == productID {
			return item.Quantity
		}
	}
	return 0
}
