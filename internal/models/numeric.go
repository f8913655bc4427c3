package models

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber reads the leading decimal number of s ("12.5坪" yields 12.5).
// ok is false when s does not start with a number.
func ParseNumber(s string) (float64, bool) {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Numeric is a numeric field that the webhook may deliver as a JSON number,
// a string, or null. The raw text is kept so records round-trip unchanged.
type Numeric string

// NumericFromFloat formats f without trailing zeros.
func NumericFromFloat(f float64) Numeric {
	return Numeric(strconv.FormatFloat(f, 'f', -1, 64))
}

// Float coerces the value, treating anything unparsable as 0.
func (n Numeric) Float() float64 {
	f, _ := ParseNumber(string(n))
	return f
}

func (n Numeric) String() string {
	return string(n)
}

// Valid reports whether the value starts with a number.
func (n Numeric) Valid() bool {
	_, ok := ParseNumber(string(n))
	return ok
}

func (n *Numeric) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*n = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Numeric(s)
	default:
		*n = Numeric(b)
	}
	return nil
}

func (n Numeric) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return []byte("null"), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
	}
	return json.Marshal(string(n))
}

// Text is a string field that some webhook rows send as a number.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		*t = Text(b)
	}
	return nil
}

func (t Text) String() string {
	return string(t)
}
