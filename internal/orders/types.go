package orders

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pharmalink/pharmalink-backend/internal/cart"
	"github.com/pharmalink/pharmalink-backend/pkg/enums"
	pkgerrors "github.com/pharmalink/pharmalink-backend/pkg/errors"
	"github.com/pharmalink/pharmalink-backend/pkg/types"
)

// ErrNotFound is returned when no order matches the requested id.
var ErrNotFound = errors.New("order not found")

// CancelRejectedMessage is shown to the customer when cancellation is refused.
const CancelRejectedMessage = "Cette commande ne peut plus être annulée"

// StatusEntry is one element of the append-only status history.
type StatusEntry struct {
	Status    enums.OrderStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
}

// Order is a checkout snapshot. Items are copied from the cart and the total is
// never recomputed after creation.
type Order struct {
	ID                   uuid.UUID             `json:"id"`
	OrderNumber          string                `json:"orderNumber"`
	Items                []cart.Item           `json:"items"`
	TotalAmount          int64                 `json:"totalAmount"`
	Status               enums.OrderStatus     `json:"status"`
	DeliveryAddress      types.DeliveryAddress `json:"deliveryAddress"`
	PaymentDetails       types.PaymentDetails  `json:"paymentDetails"`
	RequiresPrescription bool                  `json:"requiresPrescription"`
	SessionID            string                `json:"-"`
	CreatedAt            time.Time             `json:"createdAt"`
	UpdatedAt            time.Time             `json:"updatedAt"`
	StatusHistory        []StatusEntry         `json:"statusHistory"`
}

// Form is the checkout form content.
type Form struct {
	DeliveryAddress types.DeliveryAddress `json:"deliveryAddress" validate:"required"`
	PaymentDetails  types.PaymentDetails  `json:"paymentDetails" validate:"required"`
}

// Stats aggregates orders for the pharmacist dashboard.
type Stats struct {
	Total    int                       `json:"total"`
	ByStatus map[enums.OrderStatus]int `json:"byStatus"`
	// Revenue sums totals of orders that were not cancelled.
	Revenue int64 `json:"revenue"`
}

func (o Order) clone() Order {
	out := o
	out.Items = append([]cart.Item(nil), o.Items...)
	for i := range out.Items {
		if d := out.Items[i].Product.Discount; d != nil {
			v := *d
			out.Items[i].Product.Discount = &v
		}
	}
	out.StatusHistory = append([]StatusEntry(nil), o.StatusHistory...)
	if loc := o.DeliveryAddress.Location; loc != nil {
		v := *loc
		out.DeliveryAddress.Location = &v
	}
	return out
}

func (o *Order) transition(status enums.OrderStatus, at time.Time) {
	o.Status = status
	o.UpdatedAt = at
	o.StatusHistory = append(o.StatusHistory, StatusEntry{Status: status, Timestamp: at})
}

func cancelRejected(current enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, CancelRejectedMessage).
		WithDetails(map[string]any{"status": current})
}

// IsCancelRejected reports whether err is a refused cancellation.
func IsCancelRejected(err error) bool {
	return pkgerrors.HasCode(err, pkgerrors.CodeStateConflict)
}
