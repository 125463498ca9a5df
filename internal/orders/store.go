package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmalink/pharmalink-backend/internal/cart"
	"github.com/pharmalink/pharmalink-backend/pkg/enums"
	pkgerrors "github.com/pharmalink/pharmalink-backend/pkg/errors"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
	"github.com/pharmalink/pharmalink-backend/pkg/metrics"
)

// StatusAll selects every order in FilterOrdersByStatus.
const StatusAll = "all"

// Store runs the order lifecycle on top of a Gateway.
type Store struct {
	gateway Gateway
	numbers *Numberer
	metrics *metrics.OrderMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics records lifecycle counters.
func WithMetrics(m *metrics.OrderMetrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// NewStore builds an order store with the required dependencies.
func NewStore(gateway Gateway, numbers *Numberer, logg *logger.Logger, opts ...StoreOption) (*Store, error) {
	if gateway == nil {
		return nil, fmt.Errorf("order gateway required")
	}
	if numbers == nil {
		return nil, fmt.Errorf("order numberer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	s := &Store{
		gateway: gateway,
		numbers: numbers,
		logg:    logg,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateOrder snapshots items into a new pending order.
func (s *Store) CreateOrder(ctx context.Context, sessionID string, form Form, items []cart.Item) (*Order, error) {
	lines := make([]cart.Item, 0, len(items))
	requiresPrescription := false
	for _, item := range items {
		if item.Quantity <= 0 || item.Product.ID == "" {
			continue
		}
		lines = append(lines, item)
		requiresPrescription = requiresPrescription || item.Product.RequiresPrescription
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Le panier est vide")
	}

	now := s.now()
	number, err := s.numbers.Next(ctx, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "")
	}

	order := Order{
		ID:                   uuid.New(),
		OrderNumber:          number,
		Items:                lines,
		TotalAmount:          cart.Total(lines),
		Status:               enums.OrderStatusPending,
		DeliveryAddress:      form.DeliveryAddress,
		PaymentDetails:       form.PaymentDetails,
		RequiresPrescription: requiresPrescription,
		SessionID:            sessionID,
		CreatedAt:            now,
		UpdatedAt:            now,
		StatusHistory:        []StatusEntry{{Status: enums.OrderStatusPending, Timestamp: now}},
	}
	order = order.clone()
	if err := s.gateway.Create(ctx, order); err != nil {
		return nil, err
	}

	s.metrics.IncCreated()
	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"total_amount": order.TotalAmount,
	})
	s.logg.Info(ctx, "order created")
	return &order, nil
}

// GetOrderByID returns ErrNotFound for unknown ids.
func (s *Store) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.gateway.GetByID(ctx, id)
}

// GetOrderHistory returns every order, most recent first.
func (s *Store) GetOrderHistory(ctx context.Context) ([]Order, error) {
	return s.gateway.List(ctx)
}

// UpdateOrderStatus sets any status and appends a history entry.
func (s *Store) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("statut de commande inconnu %q", status))
	}
	order, err := s.gateway.UpdateStatus(ctx, id, status, s.now())
	if err != nil {
		return nil, err
	}
	s.metrics.IncStatusChange(status.String())
	s.logg.Info(s.logg.WithField(s.logg.WithOrderID(ctx, id.String()), "status", status), "order status updated")
	return order, nil
}

// CancelOrder cancels a pending or confirmed order. Any other status yields a
// state-conflict error carrying a customer-facing message.
func (s *Store) CancelOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	ctx = s.logg.WithOrderID(ctx, id.String())
	order, err := s.gateway.Cancel(ctx, id, s.now())
	if err != nil {
		if IsCancelRejected(err) {
			s.metrics.IncCancelRejected()
			s.logg.Warn(ctx, "order cancellation rejected")
		}
		return nil, err
	}
	s.metrics.IncStatusChange(enums.OrderStatusCancelled.String())
	s.logg.Info(ctx, "order cancelled")
	return order, nil
}

// FilterOrdersByStatus keeps the orders in status, or every order for "all".
func (s *Store) FilterOrdersByStatus(ctx context.Context, status string) ([]Order, error) {
	status = strings.TrimSpace(status)
	var want enums.OrderStatus
	if status != "" && status != StatusAll {
		parsed, err := enums.ParseOrderStatus(status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "")
		}
		want = parsed
	}

	all, err := s.gateway.List(ctx)
	if err != nil {
		return nil, err
	}
	if want == "" {
		return all, nil
	}
	out := make([]Order, 0, len(all))
	for _, o := range all {
		if o.Status == want {
			out = append(out, o)
		}
	}
	return out, nil
}

// ListOrders applies q over the order history.
func (s *Store) ListOrders(ctx context.Context, q Query) (ListResult, error) {
	all, err := s.gateway.List(ctx)
	if err != nil {
		return ListResult{}, err
	}
	return q.Apply(all), nil
}

// GetOrderStats counts orders per status.
func (s *Store) GetOrderStats(ctx context.Context) (Stats, error) {
	all, err := s.gateway.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(all), nil
}

// GetScopedStats counts the orders matching q. Pagination in q is ignored.
func (s *Store) GetScopedStats(ctx context.Context, q Query) (Stats, error) {
	all, err := s.gateway.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	matched := make([]Order, 0, len(all))
	for _, o := range all {
		if q.Matches(o) {
			matched = append(matched, o)
		}
	}
	return ComputeStats(matched), nil
}

// ComputeStats aggregates orders. Every known status is present in ByStatus.
func ComputeStats(orders []Order) Stats {
	stats := Stats{ByStatus: make(map[enums.OrderStatus]int, 5)}
	for _, status := range enums.OrderStatuses() {
		stats.ByStatus[status] = 0
	}
	for _, o := range orders {
		stats.Total++
		stats.ByStatus[o.Status]++
		if o.Status != enums.OrderStatusCancelled {
			stats.Revenue += o.TotalAmount
		}
	}
	return stats
}

// IsNotFound reports whether err means the order does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
