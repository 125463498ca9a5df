package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pharmalink/pharmalink-backend/internal/cart"
	"github.com/pharmalink/pharmalink-backend/internal/catalog"
	"github.com/pharmalink/pharmalink-backend/pkg/db/models"
	"github.com/pharmalink/pharmalink-backend/pkg/enums"
	pkgerrors "github.com/pharmalink/pharmalink-backend/pkg/errors"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Repository is the SQL Gateway backed by the orders and
// order_status_history tables.
type Repository struct {
	db *gorm.DB
	tx txRunner
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB, tx txRunner) *Repository {
	return &Repository{db: db, tx: tx}
}

func (r *Repository) Create(ctx context.Context, order Order) error {
	model := toModel(order)
	err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&model).Error
	})
	if constraint, ok := pkgerrors.UniqueViolation(err); ok {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "Numéro de commande déjà utilisé").
			WithDetails(map[string]any{"constraint": constraint})
	}
	return err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.find(ctx, r.db, id)
}

func (r *Repository) List(ctx context.Context) ([]Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("StatusHistory", orderHistory).
		Order("created_at DESC").
		Order("order_number DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, at time.Time) (*Order, error) {
	var updated *Order
	err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ?", id).
			Updates(map[string]any{"status": status, "updated_at": at})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := appendHistory(tx, id, status, at); err != nil {
			return err
		}
		order, err := r.find(ctx, tx, id)
		updated = order
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Repository) Cancel(ctx context.Context, id uuid.UUID, at time.Time) (*Order, error) {
	var cancelled *Order
	err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		// The status guard lives in the UPDATE so concurrent transitions cannot race it.
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status IN ?", id, []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusConfirmed}).
			Updates(map[string]any{"status": enums.OrderStatusCancelled, "updated_at": at})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			current, err := r.find(ctx, tx, id)
			if err != nil {
				return err
			}
			return cancelRejected(current.Status)
		}
		if err := appendHistory(tx, id, enums.OrderStatusCancelled, at); err != nil {
			return err
		}
		order, err := r.find(ctx, tx, id)
		cancelled = order
		return err
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (r *Repository) find(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Order, error) {
	var row models.Order
	err := db.WithContext(ctx).
		Preload("StatusHistory", orderHistory).
		Where("id = ?", id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	order := fromModel(row)
	return &order, nil
}

// orderHistory returns entries in insertion order. The serial id tracks
// appends even when the wall clock steps backwards.
func orderHistory(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

func appendHistory(tx *gorm.DB, id uuid.UUID, status enums.OrderStatus, at time.Time) error {
	return tx.Create(&models.OrderStatusHistory{OrderID: id, Status: status, ChangedAt: at}).Error
}

func toModel(o Order) models.Order {
	lines := make([]models.OrderLine, 0, len(o.Items))
	for _, item := range o.Items {
		p := item.Product
		lines = append(lines, models.OrderLine{
			ProductID:            p.ID,
			Name:                 p.Name,
			Price:                p.Price,
			Discount:             p.Discount,
			Stock:                p.Stock,
			Category:             p.Category,
			PharmacyID:           p.PharmacyID,
			RequiresPrescription: p.RequiresPrescription,
			Quantity:             item.Quantity,
		})
	}
	history := make([]models.OrderStatusHistory, 0, len(o.StatusHistory))
	for _, entry := range o.StatusHistory {
		history = append(history, models.OrderStatusHistory{OrderID: o.ID, Status: entry.Status, ChangedAt: entry.Timestamp})
	}
	return models.Order{
		ID:                   o.ID,
		OrderNumber:          o.OrderNumber,
		Status:               o.Status,
		TotalAmount:          o.TotalAmount,
		Items:                lines,
		DeliveryAddress:      o.DeliveryAddress,
		PaymentDetails:       o.PaymentDetails,
		RequiresPrescription: o.RequiresPrescription,
		SessionID:            o.SessionID,
		StatusHistory:        history,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
}

func fromModel(m models.Order) Order {
	items := make([]cart.Item, 0, len(m.Items))
	for _, line := range m.Items {
		items = append(items, cart.Item{
			Product: catalog.Product{
				ID:                   line.ProductID,
				Name:                 line.Name,
				Price:                line.Price,
				Stock:                line.Stock,
				Discount:             line.Discount,
				Category:             line.Category,
				PharmacyID:           line.PharmacyID,
				RequiresPrescription: line.RequiresPrescription,
			},
			Quantity: line.Quantity,
		})
	}
	history := make([]StatusEntry, 0, len(m.StatusHistory))
	for _, h := range m.StatusHistory {
		history = append(history, StatusEntry{Status: h.Status, Timestamp: h.ChangedAt.UTC()})
	}
	return Order{
		ID:                   m.ID,
		OrderNumber:          m.OrderNumber,
		Items:                items,
		TotalAmount:          m.TotalAmount,
		Status:               m.Status,
		DeliveryAddress:      m.DeliveryAddress,
		PaymentDetails:       m.PaymentDetails,
		RequiresPrescription: m.RequiresPrescription,
		SessionID:            m.SessionID,
		CreatedAt:            m.CreatedAt.UTC(),
		UpdatedAt:            m.UpdatedAt.UTC(),
		StatusHistory:        history,
	}
}
