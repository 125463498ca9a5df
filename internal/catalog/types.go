package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/pharmalink/pharmalink-backend/pkg/geo"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Product is a medication or parapharmacy item sold by a pharmacy.
// Price is expressed in FCFA, which has no minor unit.
type Product struct {
	ID                   string   `json:"id" yaml:"id" validate:"required"`
	Name                 string   `json:"name" yaml:"name" validate:"required"`
	Price                int64    `json:"price" yaml:"price" validate:"gte=0"`
	Stock                int      `json:"stock" yaml:"stock" validate:"gte=0"`
	Discount             *float64 `json:"discount,omitempty" yaml:"discount,omitempty" validate:"omitempty,gte=0,lte=100"`
	Category             string   `json:"category" yaml:"category"`
	PharmacyID           string   `json:"pharmacyId" yaml:"pharmacy_id"`
	RequiresPrescription bool     `json:"requiresPrescription" yaml:"requires_prescription"`
	Description          string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// DiscountRate returns the discount percentage clamped to [0, 100]; absence means 0.
func (p Product) DiscountRate() decimal.Decimal {
	if p.Discount == nil || *p.Discount <= 0 {
		return decimal.Zero
	}
	if *p.Discount >= 100 {
		return hundred
	}
	return decimal.NewFromFloat(*p.Discount)
}

// UnitPrice is the price after discount, unrounded.
func (p Product) UnitPrice() decimal.Decimal {
	price := decimal.NewFromInt(p.Price)
	rate := p.DiscountRate()
	if rate.IsZero() {
		return price
	}
	return price.Mul(hundred.Sub(rate)).Div(hundred)
}

// LineTotal is UnitPrice times quantity, rounded once to the nearest franc.
func (p Product) LineTotal(quantity int) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	return p.UnitPrice().Mul(decimal.NewFromInt(int64(quantity))).Round(0)
}

// Pharmacy is a dispensary listed by the locator.
type Pharmacy struct {
	ID       string      `json:"id" yaml:"id"`
	Name     string      `json:"name" yaml:"name"`
	Address  string      `json:"address" yaml:"address"`
	City     string      `json:"city" yaml:"city"`
	Phone    string      `json:"phone,omitempty" yaml:"phone,omitempty"`
	Location *geo.Coords `json:"location,omitempty" yaml:"location,omitempty"`
	// OnDuty marks the pharmacie de garde, open around the clock.
	OnDuty bool   `json:"isOnDuty" yaml:"on_duty"`
	Opens  string `json:"opensAt,omitempty" yaml:"opens,omitempty"`
	Closes string `json:"closesAt,omitempty" yaml:"closes,omitempty"`
}

// Position implements the accessor expected by geo.SortByDistance.
func (p Pharmacy) Position() (geo.Coords, bool) {
	if p.Location == nil {
		return geo.Coords{}, false
	}
	return *p.Location, true
}

// IsOpenAt reports whether the pharmacy serves customers at t (local time).
// Pharmacies on duty are always open; hours wrapping past midnight are supported.
func (p Pharmacy) IsOpenAt(t time.Time) bool {
	if p.OnDuty {
		return true
	}
	opens, okOpen := minutesOfDay(p.Opens)
	closes, okClose := minutesOfDay(p.Closes)
	if !okOpen || !okClose {
		return false
	}
	now := t.Hour()*60 + t.Minute()
	if opens <= closes {
		return now >= opens && now < closes
	}
	return now >= opens || now < closes
}

func minutesOfDay(hhmm string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(hhmm), ":")
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
