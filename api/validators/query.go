package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/pharmalink/pharmalink-backend/pkg/errors"
	"github.com/pharmalink/pharmalink-backend/pkg/geo"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "Le paramètre doit être numérique").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "Paramètre hors limites").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryBool reads key as a tri-state flag: nil when absent.
func ParseQueryBool(r *http.Request, key string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Le paramètre doit être un booléen").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// ParseQueryCoords reads lat and lng together. Both absent yields nil.
func ParseQueryCoords(r *http.Request) (*geo.Coords, error) {
	q := r.URL.Query()
	rawLat, rawLng := strings.TrimSpace(q.Get("lat")), strings.TrimSpace(q.Get("lng"))
	if rawLat == "" && rawLng == "" {
		return nil, nil
	}
	lat, errLat := strconv.ParseFloat(rawLat, 64)
	lng, errLng := strconv.ParseFloat(rawLng, 64)
	coords := geo.Coords{Lat: lat, Lng: lng}
	if errLat != nil || errLng != nil || !coords.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Coordonnées invalides").WithDetails(map[string]any{"lat": rawLat, "lng": rawLng})
	}
	return &coords, nil
}
