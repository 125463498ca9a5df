package orders

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmalink/pharmalink-backend/internal/cart"
	"github.com/pharmalink/pharmalink-backend/internal/catalog"
	"github.com/pharmalink/pharmalink-backend/pkg/enums"
	"github.com/pharmalink/pharmalink-backend/pkg/pagination"
	"github.com/pharmalink/pharmalink-backend/pkg/types"
	"github.com/stretchr/testify/require"
)

func sampleOrders() []Order {
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	mk := func(number string, status enums.OrderStatus, total int64, age time.Duration, pharmacy string, rx bool) Order {
		return Order{
			ID:                   uuid.New(),
			OrderNumber:          number,
			Status:               status,
			TotalAmount:          total,
			CreatedAt:            base.Add(-age),
			RequiresPrescription: rx,
			SessionID:            "s-" + number[len(number)-1:],
			DeliveryAddress:      types.DeliveryAddress{FullName: "Fatou Diop"},
			Items: []cart.Item{{
				Product:  catalog.Product{ID: number, Name: "Paracétamol", PharmacyID: pharmacy},
				Quantity: 1,
			}},
		}
	}
	// Most recent first.
	return []Order{
		mk("CMD202503100003", enums.OrderStatusPending, 1500, time.Hour, "ph-a", false),
		mk("CMD202503090002", enums.OrderStatusConfirmed, 9000, 26*time.Hour, "ph-b", true),
		mk("CMD202502010001", enums.OrderStatusDelivered, 4500, 40*24*time.Hour, "ph-a", false),
	}
}

func TestQueryStatusesAndPharmacy(t *testing.T) {
	orders := sampleOrders()
	res := Query{Statuses: []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusConfirmed}}.Apply(orders)
	require.Len(t, res.Orders, 2)

	res = Query{PharmacyID: "ph-a"}.Apply(orders)
	require.Len(t, res.Orders, 2)
	require.Equal(t, "CMD202503100003", res.Orders[0].OrderNumber)
}

func TestQueryDatesAndPrices(t *testing.T) {
	orders := sampleOrders()
	from := time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)
	res := Query{DateFrom: &from, DateTo: &to}.Apply(orders)
	require.Len(t, res.Orders, 1)
	require.Equal(t, "CMD202503090002", res.Orders[0].OrderNumber)

	minPrice, maxPrice := 2000.0, 5000.0
	res = Query{PriceMin: &minPrice, PriceMax: &maxPrice}.Apply(orders)
	require.Len(t, res.Orders, 1)
	require.Equal(t, int64(4500), res.Orders[0].TotalAmount)

	since, ok := PeriodStart("week", time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC))
	require.True(t, ok)
	res = Query{Since: &since}.Apply(orders)
	require.Len(t, res.Orders, 2)

	_, ok = PeriodStart("decade", time.Now())
	require.False(t, ok)
}

func TestQueryPrescriptionAndSearch(t *testing.T) {
	orders := sampleOrders()
	yes := true
	require.Len(t, Query{HasPrescription: &yes}.Apply(orders).Orders, 1)
	require.Len(t, Query{PrescriptionStatus: PrescriptionNotRequired}.Apply(orders).Orders, 2)
	require.Len(t, Query{PrescriptionStatus: PrescriptionRequired}.Apply(orders).Orders, 1)

	require.Len(t, Query{Search: "paracetamol"}.Apply(orders).Orders, 3)
	require.Len(t, Query{Search: "0302"}.Apply(orders).Orders, 0)
	require.Len(t, Query{Search: "20250201"}.Apply(orders).Orders, 1)
	require.Len(t, Query{Search: "fatou"}.Apply(orders).Orders, 3)
}

func TestQueryOrderingAndPaging(t *testing.T) {
	orders := sampleOrders()

	res := Query{Ordering: "total_amount"}.Apply(orders)
	require.Equal(t, []int64{1500, 4500, 9000}, totals(res.Orders))

	res = Query{Ordering: "-total_amount"}.Apply(orders)
	require.Equal(t, []int64{9000, 4500, 1500}, totals(res.Orders))

	res = Query{Ordering: "created_at"}.Apply(orders)
	require.Equal(t, "CMD202502010001", res.Orders[0].OrderNumber)

	res = Query{Page: pagination.Params{Page: 2, Limit: 2}}.Apply(orders)
	require.Len(t, res.Orders, 1)
	require.Equal(t, pagination.Meta{Page: 2, PageSize: 2, Total: 3, TotalPages: 2}, res.Meta)
}

func totals(orders []Order) []int64 {
	out := make([]int64, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.TotalAmount)
	}
	return out
}

func TestQueryHugePageServesEmptyPage(t *testing.T) {
	orders := sampleOrders()
	var res ListResult
	require.NotPanics(t, func() {
		res = Query{Page: pagination.Params{Page: 461168601842738791, Limit: 20}}.Apply(orders)
	})
	require.Empty(t, res.Orders)
	require.Equal(t, len(orders), res.Meta.Total)
	require.Equal(t, pagination.MaxPage, res.Meta.Page)
}
