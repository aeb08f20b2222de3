package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimal is a monetary amount read under the coercion policy: the backend
// sends numbers and numeric strings interchangeably, and anything missing or
// unparseable reads as zero. It is always written back as a string.
type Decimal struct {
	d decimal.Decimal
}

// NewDecimal wraps a decimal value.
func NewDecimal(d decimal.Decimal) Decimal {
	return Decimal{d: d}
}

// ParseDecimal parses s, returning zero for empty or malformed input.
func ParseDecimal(s string) Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Decimal{}
	}
	return Decimal{d: d}
}

// ParseDecimalStrict parses s and reports whether it was a valid number.
func ParseDecimalStrict(s string) (Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Decimal{}, false
	}
	return Decimal{d: d}, true
}

// Value returns the underlying decimal.
func (m Decimal) Value() decimal.Decimal { return m.d }

// String returns the canonical textual form ("12.5", "0").
func (m Decimal) String() string { return m.d.String() }

// Fixed returns the amount with exactly two decimals.
func (m Decimal) Fixed() string { return m.d.StringFixed(2) }

// Float returns the amount as a float64 for display and charting.
func (m Decimal) Float() float64 { return m.d.InexactFloat64() }

// IsPositive reports whether the amount is strictly greater than zero.
func (m Decimal) IsPositive() bool { return m.d.IsPositive() }

// MarshalJSON writes the amount as a JSON string.
func (m Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.d.String())
}

// UnmarshalJSON accepts numbers, numeric strings, empty strings and null.
// Anything else decodes to zero rather than failing the whole payload.
func (m *Decimal) UnmarshalJSON(data []byte) error {
	m.d = decimal.Zero
	raw, ok := scalarText(data)
	if !ok {
		return nil
	}
	if d, err := decimal.NewFromString(strings.TrimSpace(raw)); err == nil {
		m.d = d
	}
	return nil
}

// Quantity is a stock count read under the coercion policy. Strings are
// parsed like an integer prefix ("4 pcs" is 4, "2.9" is 2); anything without
// a leading integer is zero. It is written back as a string.
type Quantity int

// ParseQuantity parses the leading integer of s, or returns zero.
func ParseQuantity(s string) Quantity {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return Quantity(n)
}

// String returns the decimal representation of q.
func (q Quantity) String() string { return strconv.Itoa(int(q)) }

// MarshalJSON writes the quantity as a JSON string.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

// UnmarshalJSON accepts numbers, numeric strings, empty strings and null.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	*q = 0
	raw, ok := scalarText(data)
	if !ok {
		return nil
	}
	*q = ParseQuantity(raw)
	return nil
}

// Key is a record identifier. The backend keeps IDs as strings but some
// responses carry them as bare numbers, so both decode.
type Key string

// UnmarshalJSON accepts a string or a number.
func (k *Key) UnmarshalJSON(data []byte) error {
	*k = ""
	raw, ok := scalarText(data)
	if !ok {
		return nil
	}
	*k = Key(strings.TrimSpace(raw))
	return nil
}

// scalarText extracts the text of a JSON string or number. Objects, arrays,
// booleans and null report false.
func scalarText(data []byte) (string, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", false
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", false
		}
		return s, true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(data), true
	default:
		return "", false
	}
}
