package filters

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/pharmalink/pharmalink-backend/internal/orders"
	"github.com/pharmalink/pharmalink-backend/pkg/enums"
	pkgerrors "github.com/pharmalink/pharmalink-backend/pkg/errors"
	"github.com/pharmalink/pharmalink-backend/pkg/pagination"
)

const dateLayout = "2006-01-02"

// ToOrderQuery translates the filter set into an order listing query. The
// period keyword is resolved relative to now.
func (s Set) ToOrderQuery(now time.Time, pageSize int) (orders.Query, error) {
	q := orders.Query{Page: pagination.Params{Limit: pageSize}}

	for _, raw := range s.Status {
		if raw == orders.StatusAll {
			q.Statuses = nil
			break
		}
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return orders.Query{}, invalid(KeyStatus, raw)
		}
		q.Statuses = append(q.Statuses, status)
	}
	if s.PharmacyID != nil {
		q.PharmacyID = *s.PharmacyID
	}
	if s.DateFrom != nil {
		from, err := time.ParseInLocation(dateLayout, *s.DateFrom, now.Location())
		if err != nil {
			return orders.Query{}, invalid(KeyDateFrom, *s.DateFrom)
		}
		q.DateFrom = &from
	}
	if s.DateTo != nil {
		to, err := time.ParseInLocation(dateLayout, *s.DateTo, now.Location())
		if err != nil {
			return orders.Query{}, invalid(KeyDateTo, *s.DateTo)
		}
		q.DateTo = &to
	}
	if s.Period != nil {
		since, ok := orders.PeriodStart(*s.Period, now)
		if !ok {
			return orders.Query{}, invalid(KeyPeriod, *s.Period)
		}
		q.Since = &since
	}
	q.PriceMin = s.PriceMin
	q.PriceMax = s.PriceMax
	q.HasPrescription = s.HasPrescription
	if s.PrescriptionStatus != nil {
		q.PrescriptionStatus = *s.PrescriptionStatus
	}
	if s.Search != nil {
		q.Search = *s.Search
	}
	if s.Ordering != nil {
		q.Ordering = *s.Ordering
	}
	if s.Page != nil {
		page, ok := pageNumber(*s.Page)
		if !ok {
			return orders.Query{}, invalid(KeyPage, strconv.FormatFloat(*s.Page, 'g', -1, 64))
		}
		q.Page.Page = page
	}
	return q, nil
}

// pageNumber accepts whole numbers in [1, pagination.MaxPage].
func pageNumber(f float64) (int, bool) {
	if math.IsNaN(f) || f < 1 || f > pagination.MaxPage || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func invalid(key, value string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("valeur invalide pour %s: %q", key, value)).
		WithDetails(map[string]any{"field": key})
}
