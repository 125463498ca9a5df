package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmalink/pharmalink-backend/pkg/enums"
)

// OrderStatusHistory is one append-only status transition.
type OrderStatusHistory struct {
	ID        int64             `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null"`
	ChangedAt time.Time         `gorm:"column:changed_at;not null"`
}

func (OrderStatusHistory) TableName() string { return "order_status_history" }
