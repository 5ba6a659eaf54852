// Package wire holds the JSON value types shared by the domain gateways. The
// remote service is not strict about scalar types: ids arrive as numbers or
// strings, prices as numbers or numeric strings, and lists either bare or
// wrapped in an envelope object.
package wire

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// FlexID is an identifier that may be encoded as a JSON number or string.
type FlexID string

func (id FlexID) String() string { return string(id) }

func (id FlexID) IsZero() bool { return id == "" }

func (id *FlexID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null" || s == "":
		*id = ""
	case s[0] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = FlexID(str)
	default:
		*id = FlexID(s)
	}
	return nil
}

// MarshalJSON writes purely numeric ids as numbers.
func (id FlexID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Amount is a money value. Numeric strings are parsed; anything that does not
// parse, including null, becomes NaN so that price checks reject it.
type Amount float64

func (a Amount) Float() float64 { return float64(a) }

func (a Amount) IsNaN() bool { return math.IsNaN(float64(a)) }

// Positive reports whether the amount is a number strictly greater than zero.
func (a Amount) Positive() bool {
	f := float64(a)
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f > 0
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == "" {
		*a = Amount(math.NaN())
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return fmt.Errorf("decode amount: %w", err)
		}
		s = str
	}
	*a = ParseAmount(s)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	f := float64(a)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

// ParseAmount parses a price as the server or a user writes it. Anything
// that is not a plain number is NaN.
func ParseAmount(s string) Amount {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Amount(math.NaN())
	}
	return Amount(f)
}

// DecodeList decodes either a bare JSON array or an object carrying the array
// under the first present key. Tries "results" and "data" after the given keys.
func DecodeList(raw []byte, out any, keys ...string) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '[' {
		return json.Unmarshal(raw, out)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode list envelope: %w", err)
	}
	for _, k := range append(keys, "results", "data") {
		if v, ok := envelope[k]; ok {
			return DecodeList(v, out)
		}
	}
	return fmt.Errorf("list not found in response (looked for %s)", strings.Join(append(keys, "results", "data"), ", "))
}
