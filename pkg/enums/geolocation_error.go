package enums

import "fmt"

// GeolocationErrorKind enumerates the failures reported by the browser geolocation API.
type GeolocationErrorKind string

const (
	GeolocationPermissionDenied    GeolocationErrorKind = "permission_denied"
	GeolocationPositionUnavailable GeolocationErrorKind = "position_unavailable"
	GeolocationTimeout             GeolocationErrorKind = "timeout"
)

var validGeolocationErrorKinds = []GeolocationErrorKind{
	GeolocationPermissionDenied,
	GeolocationPositionUnavailable,
	GeolocationTimeout,
}

// String implements fmt.Stringer.
func (g GeolocationErrorKind) String() string {
	return string(g)
}

// IsValid reports whether the kind is recognized.
func (g GeolocationErrorKind) IsValid() bool {
	for _, candidate := range validGeolocationErrorKinds {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGeolocationErrorKind converts a raw string into a GeolocationErrorKind.
func ParseGeolocationErrorKind(value string) (GeolocationErrorKind, error) {
	for _, candidate := range validGeolocationErrorKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid geolocation error kind %q", value)
}
