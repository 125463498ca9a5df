package pharmacies

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/pharmalink/pharmalink-backend/internal/catalog"
	pkgerrors "github.com/pharmalink/pharmalink-backend/pkg/errors"
	"github.com/pharmalink/pharmalink-backend/pkg/format"
	"github.com/pharmalink/pharmalink-backend/pkg/geo"
)

const (
	msgPharmacyNotFound = "Pharmacie introuvable"
	msgProductNotFound  = "Médicament introuvable"
	DefaultNearestLimit = 5
)

// Gateway is the read side of the pharmacy backend. Both the remote Client
// and the seeded catalog satisfy it.
type Gateway interface {
	ListPharmacies(ctx context.Context) ([]catalog.Pharmacy, error)
	GetPharmacy(ctx context.Context, id string) (*catalog.Pharmacy, error)
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

var (
	_ Gateway = (*Client)(nil)
	_ Gateway = (*catalog.Catalog)(nil)
)

// Listing is a pharmacy decorated for one caller: open state at the query
// time and, when the caller shared a position, the distance to it.
type Listing struct {
	catalog.Pharmacy
	IsOpen         bool     `json:"isOpen"`
	FormattedPhone string   `json:"formattedPhone,omitempty"`
	DistanceKm     *float64 `json:"distanceKm,omitempty"`
	Distance       string   `json:"distance,omitempty"`
}

// SearchParams narrows a pharmacy search. Zero values disable a criterion.
type SearchParams struct {
	Query      string
	City       string
	OnDutyOnly bool
	OpenOnly   bool
	Near       *geo.Coords
	Limit      int
}

// MedicationQuery narrows a medication search.
type MedicationQuery struct {
	Query                string
	Category             string
	PharmacyID           string
	InStockOnly          bool
	RequiresPrescription *bool
	Limit                int
}

// Medication is a product joined with the pharmacy that stocks it.
type Medication struct {
	catalog.Product
	FinalPrice     int64  `json:"finalPrice"`
	FormattedPrice string `json:"formattedPrice"`
	DiscountLabel  string `json:"discountLabel,omitempty"`
	PharmacyName   string `json:"pharmacyName,omitempty"`
	InStock        bool   `json:"inStock"`
}

type Service struct {
	gateway Gateway
	now     func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithClock overrides the clock used to compute open state.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(gateway Gateway, opts ...ServiceOption) *Service {
	s := &Service{gateway: gateway, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns one pharmacy decorated for the caller.
func (s *Service) Get(ctx context.Context, id string, near *geo.Coords) (*Listing, error) {
	p, err := s.gateway.GetPharmacy(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, mapGatewayError(err)
	}
	l := s.decorate(*p, s.now(), near)
	return &l, nil
}

// Search matches the query against name, address and city, ignoring case
// and accents. Results are sorted by distance when Near is set, by name otherwise.
func (s *Service) Search(ctx context.Context, params SearchParams) ([]Listing, error) {
	all, err := s.gateway.ListPharmacies(ctx)
	if err != nil {
		return nil, mapGatewayError(err)
	}

	now := s.now()
	needle := format.Fold(strings.TrimSpace(params.Query))
	city := format.Fold(strings.TrimSpace(params.City))

	out := make([]Listing, 0, len(all))
	for _, p := range all {
		if needle != "" && !strings.Contains(format.Fold(p.Name+" "+p.Address+" "+p.City), needle) {
			continue
		}
		if city != "" && format.Fold(p.City) != city {
			continue
		}
		if params.OnDutyOnly && !p.OnDuty {
			continue
		}
		l := s.decorate(p, now, params.Near)
		if params.OpenOnly && !l.IsOpen {
			continue
		}
		out = append(out, l)
	}

	s.order(out, params.Near)
	return limit(out, params.Limit), nil
}

// OnDuty lists the pharmacies de garde and every pharmacy open at the given
// time, nearest first when coords are known.
func (s *Service) OnDuty(ctx context.Context, at time.Time, near *geo.Coords) ([]Listing, error) {
	all, err := s.gateway.ListPharmacies(ctx)
	if err != nil {
		return nil, mapGatewayError(err)
	}
	out := make([]Listing, 0, len(all))
	for _, p := range all {
		l := s.decorate(p, at, near)
		if p.OnDuty || l.IsOpen {
			out = append(out, l)
		}
	}
	s.order(out, near)
	return out, nil
}

// Nearest returns the limit closest pharmacies to origin. Pharmacies without
// coordinates are skipped.
func (s *Service) Nearest(ctx context.Context, origin geo.Coords, n int) ([]Listing, error) {
	if !origin.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Coordonnées invalides")
	}
	if n <= 0 {
		n = DefaultNearestLimit
	}
	all, err := s.gateway.ListPharmacies(ctx)
	if err != nil {
		return nil, mapGatewayError(err)
	}
	now := s.now()
	out := make([]Listing, 0, len(all))
	for _, p := range all {
		if p.Location == nil {
			continue
		}
		out = append(out, s.decorate(p, now, &origin))
	}
	s.order(out, &origin)
	return limit(out, n), nil
}

// SearchMedications matches products by name, category or description.
func (s *Service) SearchMedications(ctx context.Context, q MedicationQuery) ([]Medication, error) {
	products, err := s.gateway.ListProducts(ctx)
	if err != nil {
		return nil, mapGatewayError(err)
	}
	pharmacies, err := s.gateway.ListPharmacies(ctx)
	if err != nil {
		return nil, mapGatewayError(err)
	}
	names := make(map[string]string, len(pharmacies))
	for _, p := range pharmacies {
		names[p.ID] = p.Name
	}

	needle := format.Fold(strings.TrimSpace(q.Query))
	category := format.Fold(strings.TrimSpace(q.Category))

	out := make([]Medication, 0)
	for _, p := range products {
		if needle != "" && !strings.Contains(format.Fold(p.Name+" "+p.Category+" "+p.Description), needle) {
			continue
		}
		if category != "" && format.Fold(p.Category) != category {
			continue
		}
		if q.PharmacyID != "" && p.PharmacyID != q.PharmacyID {
			continue
		}
		if q.InStockOnly && p.Stock < 1 {
			continue
		}
		if q.RequiresPrescription != nil && p.RequiresPrescription != *q.RequiresPrescription {
			continue
		}
		out = append(out, newMedication(p, names[p.PharmacyID]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return format.Fold(out[i].Name) < format.Fold(out[j].Name)
	})
	return limit(out, q.Limit), nil
}

// Product resolves a product id, typically before adding it to a cart.
func (s *Service) Product(ctx context.Context, id string) (*catalog.Product, error) {
	p, err := s.gateway.GetProduct(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, mapGatewayError(err)
	}
	return p, nil
}

func newMedication(p catalog.Product, pharmacyName string) Medication {
	final := p.UnitPrice().Round(0).IntPart()
	m := Medication{
		Product:        p,
		FinalPrice:     final,
		FormattedPrice: format.Currency(final),
		PharmacyName:   pharmacyName,
		InStock:        p.Stock > 0,
	}
	if rate := p.DiscountRate(); rate.IsPositive() {
		m.DiscountLabel = format.Percent(rate.InexactFloat64())
	}
	return m
}

func (s *Service) decorate(p catalog.Pharmacy, at time.Time, near *geo.Coords) Listing {
	l := Listing{Pharmacy: p, IsOpen: p.IsOpenAt(at)}
	if p.Phone != "" {
		l.FormattedPhone = format.Phone(p.Phone)
	}
	if near != nil && p.Location != nil {
		km := geo.Distance(*near, *p.Location)
		l.DistanceKm = &km
		l.Distance = geo.FormatDistance(km)
	}
	return l
}

func (s *Service) order(items []Listing, near *geo.Coords) {
	if near != nil {
		geo.SortByDistance(items, *near, func(l Listing) (geo.Coords, bool) { return l.Position() })
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		return format.Fold(items[i].Name) < format.Fold(items[j].Name)
	})
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// mapGatewayError turns catalog sentinels into typed not-found errors; typed
// backend errors pass through unchanged.
func mapGatewayError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrPharmacyNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, msgPharmacyNotFound)
	case errors.Is(err, catalog.ErrProductNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, msgProductNotFound)
	case pkgerrors.As(err) != nil:
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "")
}
