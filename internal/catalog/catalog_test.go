package catalog

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestProductPricing(t *testing.T) {
	tensiometre := Product{ID: "p", Price: 59900, Stock: 3, Discount: ptr(25)}
	require.Equal(t, "44925", tensiometre.UnitPrice().String())
	require.Equal(t, int64(59900*0.75*2), tensiometre.LineTotal(2).IntPart())

	plain := Product{ID: "q", Price: 1000}
	require.Equal(t, int64(2000), plain.LineTotal(2).IntPart())
	require.True(t, plain.LineTotal(0).IsZero())

	free := Product{ID: "r", Price: 1000, Discount: ptr(150)}
	require.True(t, free.UnitPrice().IsZero())

	negative := Product{ID: "s", Price: 1000, Discount: ptr(-5)}
	require.Equal(t, int64(1000), negative.UnitPrice().IntPart())
}

func TestLineTotalRoundsOncePerLine(t *testing.T) {
	p := Product{ID: "p", Price: 999, Discount: ptr(33)}
	// 999 * 0.67 = 669.33 per unit, 3 units = 2007.99
	require.Equal(t, int64(2008), p.LineTotal(3).IntPart())
}

func TestIsOpenAt(t *testing.T) {
	day := func(h, m int) time.Time { return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC) }

	regular := Pharmacy{Opens: "08:00", Closes: "21:00"}
	require.True(t, regular.IsOpenAt(day(8, 0)))
	require.True(t, regular.IsOpenAt(day(20, 59)))
	require.False(t, regular.IsOpenAt(day(21, 0)))
	require.False(t, regular.IsOpenAt(day(7, 59)))

	overnight := Pharmacy{Opens: "09:00", Closes: "02:00"}
	require.True(t, overnight.IsOpenAt(day(23, 30)))
	require.True(t, overnight.IsOpenAt(day(1, 0)))
	require.False(t, overnight.IsOpenAt(day(5, 0)))

	require.True(t, Pharmacy{OnDuty: true}.IsOpenAt(day(4, 0)))
	require.False(t, Pharmacy{Opens: "bad"}.IsOpenAt(day(12, 0)))
}

func TestLoadSeedFile(t *testing.T) {
	cat, err := LoadFile(seedPath(t), 0)
	require.NoError(t, err)

	ctx := context.Background()
	pharmacies, err := cat.ListPharmacies(ctx)
	require.NoError(t, err)
	require.Len(t, pharmacies, 4)
	require.Equal(t, "Pharmacie Centrale de Thiès", pharmacies[0].Name)

	medina, err := cat.GetPharmacy(ctx, "ph-medina")
	require.NoError(t, err)
	require.True(t, medina.OnDuty)
	require.NotNil(t, medina.Location)

	product, err := cat.GetProduct(ctx, "prd-tensiometre")
	require.NoError(t, err)
	require.Equal(t, int64(59900), product.Price)
	require.InDelta(t, 25, *product.Discount, 1e-9)

	_, err = cat.GetProduct(ctx, "missing")
	require.ErrorIs(t, err, ErrProductNotFound)
	_, err = cat.GetPharmacy(ctx, "missing")
	require.ErrorIs(t, err, ErrPharmacyNotFound)
}

func TestNewRejectsInconsistentSeed(t *testing.T) {
	_, err := New(Seed{Pharmacies: []Pharmacy{{ID: "a"}, {ID: "a"}}}, 0)
	require.ErrorContains(t, err, "duplicate pharmacy")

	_, err = New(Seed{Products: []Product{{ID: "p", PharmacyID: "ghost"}}}, 0)
	require.ErrorContains(t, err, "unknown pharmacy")

	_, err = Parse([]byte("pharmacies: [:"), 0)
	require.Error(t, err)
}

func TestReadsHonourCancellation(t *testing.T) {
	cat, err := New(Seed{}, time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = cat.ListProducts(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func seedPath(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	path := filepath.Join(filepath.Dir(file), "..", "..", "data", "catalog.yaml")
	_, err := os.Stat(path)
	require.NoError(t, err)
	return path
}
