package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/pharmalink/pharmalink-backend/pkg/scheduler"
	"gopkg.in/yaml.v3"
)

var (
	ErrPharmacyNotFound = errors.New("pharmacy not found")
	ErrProductNotFound  = errors.New("product not found")
)

// Seed is the on-disk shape of the catalog file.
type Seed struct {
	Pharmacies []Pharmacy `yaml:"pharmacies"`
	Products   []Product  `yaml:"products"`
}

// Catalog is the mock product/pharmacy backend. Every read waits for the
// configured latency to stand in for a network round trip.
type Catalog struct {
	latency    time.Duration
	pharmacies []Pharmacy
	products   []Product
	pharmIdx   map[string]int
	prodIdx    map[string]int
}

// LoadFile reads a YAML seed file.
func LoadFile(path string, latency time.Duration) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog seed: %w", err)
	}
	return Parse(data, latency)
}

// Parse decodes a YAML seed document.
func Parse(data []byte, latency time.Duration) (*Catalog, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode catalog seed: %w", err)
	}
	return New(seed, latency)
}

// New indexes seed. Duplicate identifiers and products pointing at unknown
// pharmacies are rejected.
func New(seed Seed, latency time.Duration) (*Catalog, error) {
	c := &Catalog{
		latency:    latency,
		pharmacies: append([]Pharmacy(nil), seed.Pharmacies...),
		products:   append([]Product(nil), seed.Products...),
		pharmIdx:   make(map[string]int, len(seed.Pharmacies)),
		prodIdx:    make(map[string]int, len(seed.Products)),
	}
	for i, p := range c.pharmacies {
		if p.ID == "" {
			return nil, fmt.Errorf("pharmacy #%d has no id", i)
		}
		if _, dup := c.pharmIdx[p.ID]; dup {
			return nil, fmt.Errorf("duplicate pharmacy id %q", p.ID)
		}
		if p.Location != nil && !p.Location.Valid() {
			return nil, fmt.Errorf("pharmacy %q has invalid coordinates", p.ID)
		}
		c.pharmIdx[p.ID] = i
	}
	for i, p := range c.products {
		if p.ID == "" {
			return nil, fmt.Errorf("product #%d has no id", i)
		}
		if _, dup := c.prodIdx[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		if p.PharmacyID != "" {
			if _, ok := c.pharmIdx[p.PharmacyID]; !ok {
				return nil, fmt.Errorf("product %q references unknown pharmacy %q", p.ID, p.PharmacyID)
			}
		}
		if p.Price < 0 || p.Stock < 0 {
			return nil, fmt.Errorf("product %q has negative price or stock", p.ID)
		}
		c.prodIdx[p.ID] = i
	}
	return c, nil
}

// ListPharmacies returns every pharmacy sorted by name.
func (c *Catalog) ListPharmacies(ctx context.Context) ([]Pharmacy, error) {
	if err := scheduler.Wait(ctx, c.latency); err != nil {
		return nil, err
	}
	out := append([]Pharmacy(nil), c.pharmacies...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetPharmacy looks a pharmacy up by id.
func (c *Catalog) GetPharmacy(ctx context.Context, id string) (*Pharmacy, error) {
	if err := scheduler.Wait(ctx, c.latency); err != nil {
		return nil, err
	}
	idx, ok := c.pharmIdx[id]
	if !ok {
		return nil, ErrPharmacyNotFound
	}
	p := c.pharmacies[idx]
	return &p, nil
}

// ListProducts returns every product in seed order.
func (c *Catalog) ListProducts(ctx context.Context) ([]Product, error) {
	if err := scheduler.Wait(ctx, c.latency); err != nil {
		return nil, err
	}
	return append([]Product(nil), c.products...), nil
}

// GetProduct looks a product up by id.
func (c *Catalog) GetProduct(ctx context.Context, id string) (*Product, error) {
	if err := scheduler.Wait(ctx, c.latency); err != nil {
		return nil, err
	}
	idx, ok := c.prodIdx[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	p := c.products[idx]
	return &p, nil
}
