// Package validate implements the plausibility gate applied to raw provider
// responses before they are trusted. Rules are data, so each domain registers
// its own required fields and numeric bounds.
package validate

import (
	"encoding/json"
	"math"
	"strconv"
)

// Bound constrains the absolute value of a numeric field.
type Bound struct {
	// Field is the raw response key.
	Field string
	// MaxAbs is the exclusive bound: |value| must be < MaxAbs.
	MaxAbs float64
}

// Rules describes the checks for one domain's provider response.
type Rules struct {
	// Required fields must be present and non-nil.
	Required []string
	// Positive fields must parse as numbers strictly greater than zero.
	Positive []string
	// Bounded fields must parse as numbers within their absolute bound.
	Bounded []Bound
}

// Valid reports whether raw passes every rule. It never panics: missing or
// malformed fields fail the check, and any single violation fails the whole
// response regardless of the other fields.
func Valid(raw map[string]any, rules Rules) bool {
	if raw == nil {
		return false
	}

	for _, field := range rules.Required {
		v, ok := raw[field]
		if !ok || v == nil {
			return false
		}
	}

	for _, field := range rules.Positive {
		n, ok := Number(raw[field])
		if !ok || n <= 0 {
			return false
		}
	}

	for _, bound := range rules.Bounded {
		n, ok := Number(raw[bound.Field])
		if !ok || math.Abs(n) >= bound.MaxAbs {
			return false
		}
	}

	return true
}

// Number coerces the value forms providers actually send: JSON numbers decode
// as float64, but several providers quote numeric fields as strings.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
