package orders

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pharmalink/pharmalink-backend/pkg/enums"
	"github.com/pharmalink/pharmalink-backend/pkg/scheduler"
)

// MemoryGateway keeps orders in process memory and delays every call by a
// fixed latency to stand in for a network round trip.
type MemoryGateway struct {
	latency time.Duration

	mu     sync.RWMutex
	orders []Order
	index  map[uuid.UUID]int
}

func NewMemoryGateway(latency time.Duration) *MemoryGateway {
	return &MemoryGateway{latency: latency, index: make(map[uuid.UUID]int)}
}

func (g *MemoryGateway) Create(ctx context.Context, order Order) error {
	if err := scheduler.Wait(ctx, g.latency); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.index[order.ID] = len(g.orders)
	g.orders = append(g.orders, order.clone())
	return nil
}

func (g *MemoryGateway) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	if err := scheduler.Wait(ctx, g.latency); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	idx, ok := g.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := g.orders[idx].clone()
	return &out, nil
}

func (g *MemoryGateway) List(ctx context.Context) ([]Order, error) {
	if err := scheduler.Wait(ctx, g.latency); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Order, 0, len(g.orders))
	for i := len(g.orders) - 1; i >= 0; i-- {
		out = append(out, g.orders[i].clone())
	}
	return out, nil
}

func (g *MemoryGateway) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, at time.Time) (*Order, error) {
	if err := scheduler.Wait(ctx, g.latency); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	idx, ok := g.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	g.orders[idx].transition(status, at)
	out := g.orders[idx].clone()
	return &out, nil
}

func (g *MemoryGateway) Cancel(ctx context.Context, id uuid.UUID, at time.Time) (*Order, error) {
	if err := scheduler.Wait(ctx, g.latency); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	idx, ok := g.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	if current := g.orders[idx].Status; !current.CanCancel() {
		return nil, cancelRejected(current)
	}
	g.orders[idx].transition(enums.OrderStatusCancelled, at)
	out := g.orders[idx].clone()
	return &out, nil
}
