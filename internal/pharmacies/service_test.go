package pharmacies

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pharmalink/pharmalink-backend/internal/catalog"
	pkgerrors "github.com/pharmalink/pharmalink-backend/pkg/errors"
	"github.com/pharmalink/pharmalink-backend/pkg/geo"
	"github.com/pharmalink/pharmalink-backend/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	dakarCenter = geo.Coords{Lat: 14.6928, Lng: -17.4467}
	thies       = geo.Coords{Lat: 14.7910, Lng: -16.9359}
	medina      = geo.Coords{Lat: 14.6840, Lng: -17.4550}
)

func ptr[T any](v T) *T { return &v }

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(catalog.Seed{
		Pharmacies: []catalog.Pharmacy{
			{ID: "ph-thies", Name: "Pharmacie de Thiès", City: "Thiès", Location: &thies, Opens: "08:00", Closes: "20:00"},
			{ID: "ph-medina", Name: "Pharmacie Médina", City: "Dakar", Location: &medina, OnDuty: true},
			{ID: "ph-plateau", Name: "Pharmacie du Plateau", City: "Dakar", Location: &dakarCenter, Opens: "08:00", Closes: "20:00"},
			{ID: "ph-nowhere", Name: "Pharmacie Sans Adresse", City: "Dakar", Opens: "09:00", Closes: "02:00"},
		},
		Products: []catalog.Product{
			{ID: "prd-doliprane", Name: "Doliprane 1000 mg", Price: 1500, Stock: 12, Category: "Antalgique", PharmacyID: "ph-plateau"},
			{ID: "prd-amox", Name: "Amoxicilline", Price: 3500, Stock: 0, Category: "Antibiotique", PharmacyID: "ph-medina", RequiresPrescription: true},
			{ID: "prd-vitc", Name: "Vitamine C", Price: 2000, Stock: 30, Discount: ptr(10.0), Category: "Vitamines", PharmacyID: "ph-thies", Description: "Complément élevé"},
		},
	}, 0)
	require.NoError(t, err)
	return c
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 1, 15, hour, minute, 0, 0, time.UTC)
}

func TestSearchFoldsAccentsAndCase(t *testing.T) {
	svc := NewService(testCatalog(t), WithClock(func() time.Time { return at(10, 0) }))

	got, err := svc.Search(context.Background(), SearchParams{Query: "MEDINA"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ph-medina", got[0].ID)
	assert.True(t, got[0].IsOpen)
	assert.Nil(t, got[0].DistanceKm)

	got, err = svc.Search(context.Background(), SearchParams{City: "thies"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ph-thies", got[0].ID)
}

func TestSearchSortsByDistanceWhenNearIsSet(t *testing.T) {
	svc := NewService(testCatalog(t), WithClock(func() time.Time { return at(10, 0) }))

	got, err := svc.Search(context.Background(), SearchParams{Near: &dakarCenter})
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, l := range got {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"ph-plateau", "ph-medina", "ph-thies", "ph-nowhere"}, ids)
	require.NotNil(t, got[0].DistanceKm)
	assert.Equal(t, "0 m", got[0].Distance)
	assert.Empty(t, got[3].Distance)
}

func TestOnDutyAtNightKeepsGardeAndOvernightPharmacies(t *testing.T) {
	svc := NewService(testCatalog(t))

	got, err := svc.OnDuty(context.Background(), at(23, 30), &dakarCenter)
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, l := range got {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"ph-medina", "ph-nowhere"}, ids)
}

func TestNearestSkipsUnlocatedAndLimits(t *testing.T) {
	svc := NewService(testCatalog(t), WithClock(func() time.Time { return at(10, 0) }))

	got, err := svc.Nearest(context.Background(), thies, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ph-thies", got[0].ID)

	_, err = svc.Nearest(context.Background(), geo.Coords{Lat: 120}, 2)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestSearchMedications(t *testing.T) {
	svc := NewService(testCatalog(t))

	got, err := svc.SearchMedications(context.Background(), MedicationQuery{Query: "eleve"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "prd-vitc", got[0].ID)
	assert.Equal(t, int64(1800), got[0].FinalPrice)
	assert.Equal(t, "1 800 FCFA", got[0].FormattedPrice)
	assert.Equal(t, "-10 %", got[0].DiscountLabel)
	assert.Equal(t, "Pharmacie de Thiès", got[0].PharmacyName)

	got, err = svc.SearchMedications(context.Background(), MedicationQuery{InStockOnly: true})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.SearchMedications(context.Background(), MedicationQuery{RequiresPrescription: ptr(true)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].InStock)
}

func TestGetMapsCatalogNotFound(t *testing.T) {
	svc := NewService(testCatalog(t))

	_, err := svc.Get(context.Background(), "missing", nil)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Equal(t, "Pharmacie introuvable", typed.PublicMessage())
	assert.True(t, errors.Is(err, catalog.ErrPharmacyNotFound))
}

func TestSearcherCollapsesBursts(t *testing.T) {
	sched := scheduler.NewManual()
	searcher := NewSearcher(NewService(testCatalog(t)), sched, 300*time.Millisecond)

	type outcome struct {
		items []Medication
		err   error
	}
	first := make(chan outcome, 1)
	second := make(chan outcome, 1)

	go func() {
		items, err := searcher.Suggest(context.Background(), "s1", MedicationQuery{Query: "dol"})
		first <- outcome{items, err}
	}()
	require.Eventually(t, func() bool { return sched.Pending() == 1 }, time.Second, time.Millisecond)

	go func() {
		items, err := searcher.Suggest(context.Background(), "s1", MedicationQuery{Query: "vit"})
		second <- outcome{items, err}
	}()

	res := <-first
	assert.ErrorIs(t, res.err, ErrSuperseded)
	// the newer query is rescheduled under the same lock that superseded the first
	searcher.mu.Lock()
	searcher.mu.Unlock()
	require.Equal(t, 1, sched.Pending())

	sched.Advance(299 * time.Millisecond)
	select {
	case <-second:
		t.Fatal("search ran before the quiet period elapsed")
	default:
	}

	sched.Advance(time.Millisecond)
	res = <-second
	require.NoError(t, res.err)
	require.Len(t, res.items, 1)
	assert.Equal(t, "prd-vitc", res.items[0].ID)
}

func TestSearcherReturnsOnContextCancel(t *testing.T) {
	sched := scheduler.NewManual()
	searcher := NewSearcher(NewService(testCatalog(t)), sched, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := searcher.Suggest(ctx, "s1", MedicationQuery{Query: "dol"})
		done <- err
	}()
	require.Eventually(t, func() bool { return sched.Pending() == 1 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 0, sched.Pending())
}
