package types

import (
	"github.com/pharmalink/pharmalink-backend/pkg/enums"
	"github.com/pharmalink/pharmalink-backend/pkg/geo"
)

// DeliveryAddress is stored verbatim on the order as entered at checkout.
type DeliveryAddress struct {
	FullName string      `json:"fullName" validate:"required,max=120"`
	Phone    string      `json:"phone" validate:"required,min=7,max=20"`
	Street   string      `json:"street" validate:"required,max=200"`
	City     string      `json:"city" validate:"required,max=80"`
	District string      `json:"district,omitempty" validate:"max=80"`
	Notes    string      `json:"notes,omitempty" validate:"max=500"`
	Location *geo.Coords `json:"location,omitempty"`
}

// PaymentDetails records the payment choice. Nothing is charged.
type PaymentDetails struct {
	Method      enums.PaymentMethod `json:"method" validate:"required"`
	Provider    string              `json:"provider,omitempty" validate:"max=40"`
	PhoneNumber string              `json:"phoneNumber,omitempty" validate:"max=20"`
}
