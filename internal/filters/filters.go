// Package filters keeps list-view filters and the query string in sync. The
// query string is the only source of truth; nothing here holds state.
package filters

import (
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// Recognized query keys.
const (
	KeyStatus             = "status"
	KeyPharmacyID         = "pharmacy_id"
	KeyDateFrom           = "date_from"
	KeyDateTo             = "date_to"
	KeyPeriod             = "period"
	KeyPriceMin           = "price_min"
	KeyPriceMax           = "price_max"
	KeyHasPrescription    = "has_prescription"
	KeyPrescriptionStatus = "prescription_status"
	KeySearch             = "search"
	KeyOrdering           = "ordering"
	KeyPage               = "page"
)

var scalarKeys = []string{
	KeyPharmacyID, KeyDateFrom, KeyDateTo, KeyPeriod,
	KeyPrescriptionStatus, KeySearch, KeyOrdering,
}

var numericKeys = []string{KeyPriceMin, KeyPriceMax, KeyPage}

// Set is the sparse structured view of the query string. A nil field means
// the key is absent.
type Set struct {
	Status             []string `json:"status,omitempty"`
	PharmacyID         *string  `json:"pharmacy_id,omitempty"`
	DateFrom           *string  `json:"date_from,omitempty"`
	DateTo             *string  `json:"date_to,omitempty"`
	Period             *string  `json:"period,omitempty"`
	PriceMin           *float64 `json:"price_min,omitempty"`
	PriceMax           *float64 `json:"price_max,omitempty"`
	HasPrescription    *bool    `json:"has_prescription,omitempty"`
	PrescriptionStatus *string  `json:"prescription_status,omitempty"`
	Search             *string  `json:"search,omitempty"`
	Ordering           *string  `json:"ordering,omitempty"`
	Page               *float64 `json:"page,omitempty"`
}

// Update is a partial filter change keyed by query key. Nil, empty strings
// and empty slices delete the key.
type Update map[string]any

// Parse decodes the recognized keys of query.
func Parse(query url.Values) Set {
	var s Set
	if values, ok := query[KeyStatus]; ok {
		s.Status = append([]string{}, values...)
	}
	for _, key := range scalarKeys {
		if !query.Has(key) {
			continue
		}
		value := query.Get(key)
		*s.scalar(key) = &value
	}
	for _, key := range numericKeys {
		raw := query.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			continue
		}
		*s.numeric(key) = &n
	}
	if query.Has(KeyHasPrescription) {
		v := query.Get(KeyHasPrescription) == "true"
		s.HasPrescription = &v
	}
	return s
}

// Apply merges update into query and returns the new query. query is not
// modified. Unless update sets page explicitly, any page is dropped.
func Apply(query url.Values, update Update) url.Values {
	next := cloneValues(query)
	for key, value := range update {
		applyOne(next, key, value)
	}
	if _, explicit := update[KeyPage]; !explicit {
		next.Del(KeyPage)
	}
	return next
}

// ApplyString is Apply over a raw query string.
func ApplyString(rawQuery string, update Update) (string, error) {
	query, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		return "", fmt.Errorf("parse query: %w", err)
	}
	return Apply(query, update).Encode(), nil
}

// Clear resets every filter.
func Clear() url.Values {
	return url.Values{}
}

// Update converts s back into a partial update with only the present keys.
func (s Set) Update() Update {
	u := Update{}
	if s.Status != nil {
		u[KeyStatus] = append([]string{}, s.Status...)
	}
	for _, key := range scalarKeys {
		if v := *s.scalar(key); v != nil {
			u[key] = *v
		}
	}
	for _, key := range numericKeys {
		if v := *s.numeric(key); v != nil {
			u[key] = *v
		}
	}
	if s.HasPrescription != nil {
		u[KeyHasPrescription] = *s.HasPrescription
	}
	return u
}

func (s *Set) scalar(key string) **string {
	switch key {
	case KeyPharmacyID:
		return &s.PharmacyID
	case KeyDateFrom:
		return &s.DateFrom
	case KeyDateTo:
		return &s.DateTo
	case KeyPeriod:
		return &s.Period
	case KeyPrescriptionStatus:
		return &s.PrescriptionStatus
	case KeySearch:
		return &s.Search
	case KeyOrdering:
		return &s.Ordering
	}
	panic("filters: unknown scalar key " + key)
}

func (s *Set) numeric(key string) **float64 {
	switch key {
	case KeyPriceMin:
		return &s.PriceMin
	case KeyPriceMax:
		return &s.PriceMax
	case KeyPage:
		return &s.Page
	}
	panic("filters: unknown numeric key " + key)
}

func applyOne(query url.Values, key string, value any) {
	if isEmpty(value) {
		query.Del(key)
		return
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		query.Del(key)
		for i := 0; i < rv.Len(); i++ {
			query.Add(key, stringify(rv.Index(i).Interface()))
		}
		return
	}
	query.Set(key, stringify(value))
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() == 0
	case reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return isEmpty(rv.Elem().Interface())
	}
	return false
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case fmt.Stringer:
		return v.String()
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return stringify(rv.Elem().Interface())
	}
	return fmt.Sprint(value)
}

func cloneValues(query url.Values) url.Values {
	out := make(url.Values, len(query))
	for key, values := range query {
		out[key] = append([]string(nil), values...)
	}
	return out
}
