package vmath

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrFixedRange is returned when a decimal does not fit in Q16.16
var ErrFixedRange = errors.New("value out of fixed-point range")

// maxFracDigits bounds parsed fractional digits; further digits are below resolution
const maxFracDigits = 9

// ParseFixed parses a decimal literal such as "-12.375" without passing through float
func ParseFixed(s string) (Fixed, error) {
	text := strings.TrimSpace(s)
	neg := false
	if text != "" && (text[0] == '-' || text[0] == '+') {
		neg = text[0] == '-'
		text = text[1:]
	}

	intPart, fracPart, _ := strings.Cut(text, ".")
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("parsing fixed %q: empty number", s)
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return 0, fmt.Errorf("parsing fixed %q: invalid syntax", s)
	}

	var whole int64
	if intPart != "" {
		v, err := strconv.ParseInt(intPart, 10, 64)
		if err != nil || v > math.MaxInt16+1 {
			return 0, fmt.Errorf("parsing fixed %q: %w", s, ErrFixedRange)
		}
		whole = v
	}

	var frac int64
	if fracPart != "" {
		if len(fracPart) > maxFracDigits {
			fracPart = fracPart[:maxFracDigits]
		}
		digits, _ := strconv.ParseInt(fracPart, 10, 64)
		den := int64(1)
		for range len(fracPart) {
			den *= 10
		}
		frac = (digits<<Shift + den/2) / den
	}

	raw := whole<<Shift + frac
	if neg {
		raw = -raw
	}
	if raw > math.MaxInt32 || raw < math.MinInt32 {
		return 0, fmt.Errorf("parsing fixed %q: %w", s, ErrFixedRange)
	}
	return Fixed(raw), nil
}

// MustParseFixed panics on malformed input, for literals in tables and tests
func MustParseFixed(s string) Fixed {
	v, err := ParseFixed(s)
	if err != nil {
		panic(err)
	}
	return v
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// formatFixed prints up to six fractional digits, enough to round-trip Q16.16
func formatFixed(raw int64, shift uint) string {
	sign := ""
	u := uint64(raw)
	if raw < 0 {
		sign = "-"
		u = uabs(raw)
	}
	whole := u >> shift
	frac := u & (1<<shift - 1)
	dec := (frac*1_000_000 + 1<<(shift-1)) >> shift
	if dec >= 1_000_000 {
		whole++
		dec -= 1_000_000
	}
	if dec == 0 {
		if whole == 0 {
			return "0"
		}
		return sign + strconv.FormatUint(whole, 10)
	}
	s := fmt.Sprintf("%s%d.%06d", sign, whole, dec)
	return strings.TrimRight(s, "0")
}

func (a Fixed) String() string { return formatFixed(int64(a), Shift) }
func (w Wide) String() string  { return formatFixed(int64(w), WideShift) }

// UnmarshalYAML reads scalars as decimal text so config never touches float
func (a *Fixed) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: fixed-point value must be a scalar", node.Line)
	}
	v, err := ParseFixed(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*a = v
	return nil
}

func (a Fixed) MarshalYAML() (any, error) {
	return a.String(), nil
}

// MarshalJSON writes the decimal form as a JSON number, matching the YAML form.
// No MarshalText: msgpack would use it, and snapshots keep the raw integer.
func (a Fixed) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a number or a quoted decimal
func (a *Fixed) UnmarshalJSON(data []byte) error {
	text := string(data)
	if text == "null" {
		return nil
	}
	v, err := ParseFixed(strings.Trim(text, `"`))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
