package enums

import "fmt"

// ToastKind is the severity of a transient notification.
type ToastKind string

const (
	ToastKindSuccess ToastKind = "success"
	ToastKindError   ToastKind = "error"
	ToastKindWarning ToastKind = "warning"
	ToastKindInfo    ToastKind = "info"
)

var validToastKinds = []ToastKind{
	ToastKindSuccess,
	ToastKindError,
	ToastKindWarning,
	ToastKindInfo,
}

// String implements fmt.Stringer.
func (k ToastKind) String() string {
	return string(k)
}

// IsValid reports whether the kind is recognized.
func (k ToastKind) IsValid() bool {
	for _, candidate := range validToastKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseToastKind converts a raw string into a ToastKind.
func ParseToastKind(value string) (ToastKind, error) {
	for _, candidate := range validToastKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid toast kind %q", value)
}
