package orders

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is a lenient numeric field. Checkout clients send amounts and
// quantities as JSON numbers or numeric strings. Decoding never fails;
// Present and Valid describe what was received.
type Number struct {
	Value   decimal.Decimal
	Present bool
	Valid   bool
}

// NumberOf returns a valid Number holding v.
func NumberOf(v decimal.Decimal) Number {
	return Number{Value: v, Present: true, Valid: true}
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	n.Present = true

	raw := string(trimmed)
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			n.Present = false
			return nil
		}
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	n.Value = value
	n.Valid = true
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Present || !n.Valid {
		return []byte("null"), nil
	}
	return []byte(n.Value.String()), nil
}

// Positive reports whether the value was supplied and is greater than zero.
func (n Number) Positive() bool {
	return n.Valid && n.Value.IsPositive()
}
