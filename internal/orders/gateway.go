package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmalink/pharmalink-backend/pkg/enums"
)

// Gateway is the order-management backend. Implementations return ErrNotFound
// for unknown ids and a state-conflict error when Cancel is refused.
type Gateway interface {
	Create(ctx context.Context, order Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// List returns every order, most recent first.
	List(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, at time.Time) (*Order, error)
	// Cancel moves a pending or confirmed order to cancelled atomically.
	Cancel(ctx context.Context, id uuid.UUID, at time.Time) (*Order, error)
}
