package orders

import (
	"sort"
	"strings"
	"time"

	"github.com/pharmalink/pharmalink-backend/pkg/enums"
	"github.com/pharmalink/pharmalink-backend/pkg/format"
	"github.com/pharmalink/pharmalink-backend/pkg/pagination"
)

// Recognized ordering keys. A leading "-" sorts descending.
const (
	OrderingCreatedAt   = "created_at"
	OrderingTotalAmount = "total_amount"
	OrderingOrderNumber = "order_number"
	OrderingStatus      = "status"
)

// Prescription status filter values.
const (
	PrescriptionRequired    = "required"
	PrescriptionNotRequired = "not_required"
)

// Query narrows an order listing. Zero fields do not filter.
type Query struct {
	Statuses           []enums.OrderStatus
	SessionID          string
	PharmacyID         string
	DateFrom           *time.Time
	DateTo             *time.Time
	Since              *time.Time
	PriceMin           *float64
	PriceMax           *float64
	HasPrescription    *bool
	PrescriptionStatus string
	Search             string
	Ordering           string
	Page               pagination.Params
}

// ListResult is one page of matching orders.
type ListResult struct {
	Orders []Order         `json:"orders"`
	Meta   pagination.Meta `json:"meta"`
}

// PeriodStart maps a period keyword (today, week, month, year) to the start of
// the window ending at now.
func PeriodStart(period string, now time.Time) (time.Time, bool) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "today":
		return day, true
	case "week":
		return day.AddDate(0, 0, -6), true
	case "month":
		return day.AddDate(0, -1, 0), true
	case "year":
		return day.AddDate(-1, 0, 0), true
	}
	return time.Time{}, false
}

// Matches reports whether o satisfies every filter of q.
func (q Query) Matches(o Order) bool {
	if len(q.Statuses) > 0 && !containsStatus(q.Statuses, o.Status) {
		return false
	}
	if q.SessionID != "" && o.SessionID != q.SessionID {
		return false
	}
	if q.PharmacyID != "" && !hasPharmacy(o, q.PharmacyID) {
		return false
	}
	if q.DateFrom != nil && o.CreatedAt.Before(*q.DateFrom) {
		return false
	}
	// DateTo is inclusive of the whole day.
	if q.DateTo != nil && !o.CreatedAt.Before(q.DateTo.AddDate(0, 0, 1)) {
		return false
	}
	if q.Since != nil && o.CreatedAt.Before(*q.Since) {
		return false
	}
	if q.PriceMin != nil && float64(o.TotalAmount) < *q.PriceMin {
		return false
	}
	if q.PriceMax != nil && float64(o.TotalAmount) > *q.PriceMax {
		return false
	}
	if q.HasPrescription != nil && o.RequiresPrescription != *q.HasPrescription {
		return false
	}
	switch q.PrescriptionStatus {
	case PrescriptionRequired:
		if !o.RequiresPrescription {
			return false
		}
	case PrescriptionNotRequired:
		if o.RequiresPrescription {
			return false
		}
	}
	if q.Search != "" && !matchesSearch(o, format.Fold(q.Search)) {
		return false
	}
	return true
}

// Apply filters, sorts and paginates orders, which must be most recent first.
func (q Query) Apply(orders []Order) ListResult {
	matched := make([]Order, 0, len(orders))
	for _, o := range orders {
		if q.Matches(o) {
			matched = append(matched, o)
		}
	}
	sortOrders(matched, q.Ordering)

	start, end := q.Page.Window(len(matched))
	return ListResult{
		Orders: matched[start:end],
		Meta:   q.Page.MetaFor(len(matched)),
	}
}

func sortOrders(orders []Order, ordering string) {
	desc := strings.HasPrefix(ordering, "-")
	key := strings.TrimPrefix(ordering, "-")

	var less func(a, b Order) bool
	switch key {
	case OrderingTotalAmount:
		less = func(a, b Order) bool { return a.TotalAmount < b.TotalAmount }
	case OrderingOrderNumber:
		less = func(a, b Order) bool { return a.OrderNumber < b.OrderNumber }
	case OrderingStatus:
		less = func(a, b Order) bool { return a.Status < b.Status }
	case OrderingCreatedAt:
		less = func(a, b Order) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		// Input is already most recent first.
		return
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if desc {
			return less(orders[j], orders[i])
		}
		return less(orders[i], orders[j])
	})
}

func containsStatus(statuses []enums.OrderStatus, status enums.OrderStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// IncludesPharmacy reports whether any line of o comes from pharmacyID.
func (o Order) IncludesPharmacy(pharmacyID string) bool {
	return hasPharmacy(o, pharmacyID)
}

func hasPharmacy(o Order, pharmacyID string) bool {
	for _, item := range o.Items {
		if item.Product.PharmacyID == pharmacyID {
			return true
		}
	}
	return false
}

func matchesSearch(o Order, needle string) bool {
	candidates := []string{o.OrderNumber, o.DeliveryAddress.FullName, o.DeliveryAddress.Phone}
	for _, item := range o.Items {
		candidates = append(candidates, item.Product.Name)
	}
	for _, c := range candidates {
		if strings.Contains(format.Fold(c), needle) {
			return true
		}
	}
	return false
}
