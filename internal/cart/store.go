package cart

import (
	"context"
	"sync"

	"github.com/pharmalink/pharmalink-backend/internal/catalog"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
	"github.com/pharmalink/pharmalink-backend/pkg/persist"
	"github.com/shopspring/decimal"
)

// Item is a product annotated with the selected quantity.
type Item struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// LineTotal is the discounted price times quantity, rounded once.
func (i Item) LineTotal() decimal.Decimal {
	return i.Product.LineTotal(i.Quantity)
}

// State is the persisted cart-storage shape.
type State struct {
	Items      []Item `json:"items"`
	IsCartOpen bool   `json:"isCartOpen"`
}

// Store holds the cart of one shopping session. Operations never fail: invalid
// input degrades to a no-op or a removal, and persistence failures are logged.
type Store struct {
	mu        sync.Mutex
	state     State
	persister persist.Persister[State]
	logg      *logger.Logger
}

// New rehydrates the cart once from persister.
func New(ctx context.Context, persister persist.Persister[State], logg *logger.Logger) *Store {
	s := &Store{persister: persister, logg: logg}
	state, ok, err := persister.Load(ctx)
	if err != nil {
		logg.Error(ctx, "cart rehydration failed, starting empty", err)
		return s
	}
	if ok {
		s.state = sanitize(state)
	}
	return s
}

// AddToCart inserts product with quantity 1 or increments the existing line.
// The quantity never exceeds product stock; extra adds are silently ignored.
func (s *Store) AddToCart(ctx context.Context, product catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(product.ID); idx >= 0 {
		item := &s.state.Items[idx]
		if item.Quantity+1 > product.Stock {
			return
		}
		item.Product = product
		item.Quantity++
	} else {
		if product.Stock < 1 {
			return
		}
		s.state.Items = append(s.state.Items, Item{Product: product, Quantity: 1})
	}
	s.save(ctx)
}

// RemoveFromCart deletes the line for productID, if any.
func (s *Store) RemoveFromCart(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.removeLocked(productID) {
		s.save(ctx)
	}
}

// UpdateQuantity sets the line quantity to min(quantity, stock). A
// non-positive quantity removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID)
	if idx < 0 {
		return
	}
	item := &s.state.Items[idx]
	quantity = min(quantity, item.Product.Stock)
	if quantity <= 0 {
		s.removeLocked(productID)
	} else {
		item.Quantity = quantity
	}
	s.save(ctx)
}

// ClearCart empties the cart. Visibility is left untouched.
func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Items = nil
	s.save(ctx)
}

// ToggleCart flips the cart drawer visibility.
func (s *Store) ToggleCart(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.IsCartOpen = !s.state.IsCartOpen
	s.save(ctx)
	return s.state.IsCartOpen
}

// GetTotal sums the discounted line totals.
func (s *Store) GetTotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Total(s.state.Items)
}

// GetItemCount sums quantities, not distinct lines.
func (s *Store) GetItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.state.Items {
		count += item.Quantity
	}
	return count
}

// Items returns a copy of the cart lines in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item(nil), s.state.Items...)
}

// IsOpen reports the drawer visibility.
func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsCartOpen
}

// Snapshot returns a copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Items: append([]Item(nil), s.state.Items...), IsCartOpen: s.state.IsCartOpen}
}

// Total sums the discounted line totals of items, in FCFA.
func Total(items []Item) int64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total.IntPart()
}

func (s *Store) indexOf(productID string) int {
	for i, item := range s.state.Items {
		if item.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) removeLocked(productID string) bool {
	idx := s.indexOf(productID)
	if idx < 0 {
		return false
	}
	s.state.Items = append(s.state.Items[:idx], s.state.Items[idx+1:]...)
	return true
}

func (s *Store) save(ctx context.Context) {
	snapshot := State{Items: append([]Item(nil), s.state.Items...), IsCartOpen: s.state.IsCartOpen}
	if err := s.persister.Save(ctx, snapshot); err != nil {
		s.logg.Error(ctx, "cart persistence failed", err)
	}
}

// sanitize restores the quantity invariant on rehydrated data, which may have
// been written by an older client.
func sanitize(state State) State {
	out := State{IsCartOpen: state.IsCartOpen}
	seen := make(map[string]int, len(state.Items))
	for _, item := range state.Items {
		if item.Product.ID == "" {
			continue
		}
		quantity := min(item.Quantity, item.Product.Stock)
		if quantity < 1 {
			continue
		}
		if idx, dup := seen[item.Product.ID]; dup {
			out.Items[idx].Quantity = min(out.Items[idx].Quantity+quantity, item.Product.Stock)
			continue
		}
		seen[item.Product.ID] = len(out.Items)
		out.Items = append(out.Items, Item{Product: item.Product, Quantity: quantity})
	}
	return out
}
