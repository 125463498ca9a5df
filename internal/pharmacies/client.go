package pharmacies

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pharmalink/pharmalink-backend/internal/catalog"
	"github.com/pharmalink/pharmalink-backend/pkg/backend"
	"github.com/pharmalink/pharmalink-backend/pkg/geo"
)

// Client talks to the remote pharmacy API.
type Client struct {
	http *backend.Client
}

// NewClient wraps an already configured backend client.
func NewClient(api *backend.Client) *Client {
	return &Client{http: api}
}

// flexID accepts ids the backend encodes as either numbers or strings.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type pharmacyWire struct {
	ID          flexID   `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	Phone       string   `json:"phone"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	IsOnDuty    bool     `json:"is_on_duty"`
	OpeningTime string   `json:"opening_time"`
	ClosingTime string   `json:"closing_time"`
}

func (w pharmacyWire) toPharmacy() catalog.Pharmacy {
	p := catalog.Pharmacy{
		ID:      string(w.ID),
		Name:    w.Name,
		Address: w.Address,
		City:    w.City,
		Phone:   w.Phone,
		OnDuty:  w.IsOnDuty,
		Opens:   trimSeconds(w.OpeningTime),
		Closes:  trimSeconds(w.ClosingTime),
	}
	if w.Latitude != nil && w.Longitude != nil {
		p.Location = &geo.Coords{Lat: *w.Latitude, Lng: *w.Longitude}
	}
	return p
}

// trimSeconds turns "08:00:00" into "08:00".
func trimSeconds(hhmmss string) string {
	parts := strings.Split(strings.TrimSpace(hhmmss), ":")
	if len(parts) == 3 {
		return parts[0] + ":" + parts[1]
	}
	return strings.TrimSpace(hhmmss)
}

type productWire struct {
	ID                   flexID   `json:"id"`
	Name                 string   `json:"name"`
	Price                int64    `json:"price"`
	Stock                int      `json:"stock"`
	Discount             *float64 `json:"discount"`
	Category             string   `json:"category"`
	Pharmacy             flexID   `json:"pharmacy"`
	RequiresPrescription bool     `json:"requires_prescription"`
	Description          string   `json:"description"`
}

func (w productWire) toProduct() catalog.Product {
	return catalog.Product{
		ID:                   string(w.ID),
		Name:                 w.Name,
		Price:                w.Price,
		Stock:                w.Stock,
		Discount:             w.Discount,
		Category:             w.Category,
		PharmacyID:           string(w.Pharmacy),
		RequiresPrescription: w.RequiresPrescription,
		Description:          w.Description,
	}
}

// listEnvelope decodes both bare arrays and paginated {"results": [...]} bodies.
type listEnvelope[T any] struct {
	items []T
}

func (l *listEnvelope[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &l.items)
	}
	var paged struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(data, &paged); err != nil {
		return err
	}
	l.items = paged.Results
	return nil
}

// PharmacyInput is the body of create and partial update calls.
type PharmacyInput struct {
	Name        string   `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Address     string   `json:"address,omitempty"`
	City        string   `json:"city,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	IsOnDuty    *bool    `json:"is_on_duty,omitempty"`
	OpeningTime string   `json:"opening_time,omitempty"`
	ClosingTime string   `json:"closing_time,omitempty"`
}

// LocationUpdate is the body of the update_location action.
type LocationUpdate struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
	Precision float64 `json:"precision" validate:"gte=0"`
	Method    string  `json:"method" validate:"required,oneof=gps manual geocoding"`
}

func pharmacyPath(id string) string {
	return fmt.Sprintf("pharmacies/%s/", url.PathEscape(id))
}

// ListPharmacies fetches every pharmacy.
func (c *Client) ListPharmacies(ctx context.Context) ([]catalog.Pharmacy, error) {
	var body listEnvelope[pharmacyWire]
	if err := c.http.Do(ctx, http.MethodGet, "pharmacies/", nil, &body); err != nil {
		return nil, err
	}
	out := make([]catalog.Pharmacy, 0, len(body.items))
	for _, w := range body.items {
		out = append(out, w.toPharmacy())
	}
	return out, nil
}

// GetPharmacy fetches one pharmacy.
func (c *Client) GetPharmacy(ctx context.Context, id string) (*catalog.Pharmacy, error) {
	var w pharmacyWire
	if err := c.http.Do(ctx, http.MethodGet, pharmacyPath(id), nil, &w); err != nil {
		return nil, err
	}
	p := w.toPharmacy()
	return &p, nil
}

// CreatePharmacy registers a new pharmacy.
func (c *Client) CreatePharmacy(ctx context.Context, in PharmacyInput) (*catalog.Pharmacy, error) {
	var w pharmacyWire
	if err := c.http.Do(ctx, http.MethodPost, "pharmacies/", in, &w); err != nil {
		return nil, err
	}
	p := w.toPharmacy()
	return &p, nil
}

// UpdatePharmacy patches the fields set in in.
func (c *Client) UpdatePharmacy(ctx context.Context, id string, in PharmacyInput) (*catalog.Pharmacy, error) {
	var w pharmacyWire
	if err := c.http.Do(ctx, http.MethodPatch, pharmacyPath(id), in, &w); err != nil {
		return nil, err
	}
	p := w.toPharmacy()
	return &p, nil
}

func (c *Client) DeletePharmacy(ctx context.Context, id string) error {
	return c.http.Do(ctx, http.MethodDelete, pharmacyPath(id), nil, nil)
}

// UpdateLocation records a new position for the pharmacy.
func (c *Client) UpdateLocation(ctx context.Context, id string, loc LocationUpdate) error {
	return c.http.Do(ctx, http.MethodPost, pharmacyPath(id)+"update_location/", loc, nil)
}

// ListProducts fetches the medication catalog.
func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var body listEnvelope[productWire]
	if err := c.http.Do(ctx, http.MethodGet, "products/", nil, &body); err != nil {
		return nil, err
	}
	out := make([]catalog.Product, 0, len(body.items))
	for _, w := range body.items {
		out = append(out, w.toProduct())
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	var w productWire
	if err := c.http.Do(ctx, http.MethodGet, fmt.Sprintf("products/%s/", url.PathEscape(id)), nil, &w); err != nil {
		return nil, err
	}
	p := w.toProduct()
	return &p, nil
}
