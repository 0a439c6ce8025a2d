package money

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amounts cross the API boundary as grouped decimal strings such as
// "12,345.00". Parse tolerates arbitrary comma placement so both western
// (12,345) and lakh-style (12,34,567) groupings round-trip.

// Amount is a monetary value stored as a plain numeric in the database but
// marshalled to its grouped string form in JSON.
type Amount float64

func (a Amount) String() string {
	return Format(float64(a))
}

// MarshalJSON renders the amount as a grouped decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(Format(float64(a)))
}

// UnmarshalJSON accepts both the grouped string form and a bare number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		value, err := Parse(raw)
		if err != nil {
			return err
		}
		*a = Amount(value)
		return nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*a = Amount(value)
	return nil
}

// Parse converts a formatted amount string into its numeric value.
func Parse(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return value, nil
}

// Format renders a numeric amount as a grouped decimal string with two
// fractional digits, e.g. 12345.0 -> "12,345.00".
func Format(value float64) string {
	negative := value < 0
	abs := math.Abs(value)

	// Round to cents before splitting to avoid 0.999999 artifacts.
	cents := math.Round(abs * 100)
	whole := int64(cents / 100)
	frac := int64(cents) % 100

	digits := strconv.FormatInt(whole, 10)
	var grouped strings.Builder
	pre := len(digits) % 3
	if pre > 0 {
		grouped.WriteString(digits[:pre])
		if len(digits) > pre {
			grouped.WriteByte(',')
		}
	}
	for i := pre; i < len(digits); i += 3 {
		grouped.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			grouped.WriteByte(',')
		}
	}

	out := fmt.Sprintf("%s.%02d", grouped.String(), frac)
	if negative {
		return "-" + out
	}
	return out
}
