package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmalink/pharmalink-backend/pkg/enums"
	"github.com/pharmalink/pharmalink-backend/pkg/types"
)

// Order is the persisted checkout snapshot. Items, address and payment are
// stored as JSON so later catalog changes never alter a placed order.
type Order struct {
	ID                   uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber          string                `gorm:"column:order_number;not null;uniqueIndex"`
	Status               enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'pending'"`
	TotalAmount          int64                 `gorm:"column:total_amount;not null"`
	Items                []OrderLine           `gorm:"column:items;type:jsonb;serializer:json;not null"`
	DeliveryAddress      types.DeliveryAddress `gorm:"column:delivery_address;type:jsonb;serializer:json;not null"`
	PaymentDetails       types.PaymentDetails  `gorm:"column:payment_details;type:jsonb;serializer:json;not null"`
	RequiresPrescription bool                  `gorm:"column:requires_prescription;not null;default:false"`
	SessionID            string                `gorm:"column:session_id;index"`
	StatusHistory        []OrderStatusHistory  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time             `gorm:"column:created_at"`
	UpdatedAt            time.Time             `gorm:"column:updated_at"`
}

func (Order) TableName() string { return "orders" }

// OrderLine is the frozen product data of one ordered item.
type OrderLine struct {
	ProductID            string   `json:"productId"`
	Name                 string   `json:"name"`
	Price                int64    `json:"price"`
	Discount             *float64 `json:"discount,omitempty"`
	Stock                int      `json:"stock"`
	Category             string   `json:"category,omitempty"`
	PharmacyID           string   `json:"pharmacyId,omitempty"`
	RequiresPrescription bool     `json:"requiresPrescription,omitempty"`
	Quantity             int      `json:"quantity"`
}
