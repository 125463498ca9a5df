package geo

import (
	"fmt"
	"math"
	"sort"
)

// EarthRadiusKm is the mean earth radius used by Distance.
const EarthRadiusKm = 6371.0

// Coords is a WGS84 position.
type Coords struct {
	Lat float64 `json:"latitude" yaml:"latitude"`
	Lng float64 `json:"longitude" yaml:"longitude"`
}

// Valid reports whether the coordinates are within WGS84 bounds.
func (c Coords) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Distance returns the great-circle distance between a and b in kilometres.
func Distance(a, b Coords) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// FormatDistance renders km as metres below one kilometre and with one decimal above.
func FormatDistance(km float64) string {
	if math.IsNaN(km) || km < 0 {
		return "N/A"
	}
	if km < 1 {
		return fmt.Sprintf("%d m", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1f km", km)
}

// SortByDistance orders items by their distance to origin, nearest first.
// Items without a position sort last.
func SortByDistance[T any](items []T, origin Coords, position func(T) (Coords, bool)) {
	sort.SliceStable(items, func(i, j int) bool {
		pi, okI := position(items[i])
		pj, okJ := position(items[j])
		switch {
		case !okI:
			return false
		case !okJ:
			return true
		}
		return Distance(origin, pi) < Distance(origin, pj)
	})
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
