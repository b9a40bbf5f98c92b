package account

import (
	"fmt"
	"strconv"
	"strings"
)

// Amount is a monetary value in minor units (cents). Accounts deal in a
// single currency; formatting concerns stay with the presentation layer.
type Amount int64

// ParseAmount converts a decimal string such as "120.50" into minor units.
// At most two decimal places are accepted.
func ParseAmount(raw string) (Amount, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("account: empty amount")
	}

	negative := false
	if strings.HasPrefix(trimmed, "-") {
		negative = true
		trimmed = trimmed[1:]
	}
	if trimmed == "" {
		return 0, fmt.Errorf("account: malformed amount %q", raw)
	}

	whole := trimmed
	frac := ""
	if idx := strings.IndexByte(trimmed, '.'); idx >= 0 {
		whole = trimmed[:idx]
		frac = trimmed[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("account: amount %q has more than two decimal places", raw)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	// ParseInt tolerates a leading sign, so both segments must be checked
	// for stray signs before conversion.
	if !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("account: malformed amount %q", raw)
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("account: parse amount %q: %w", raw, err)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("account: parse amount %q: %w", raw, err)
	}

	value := units*100 + cents
	if negative {
		value = -value
	}
	return Amount(value), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String renders the amount as a plain decimal, e.g. "120.50".
func (a Amount) String() string {
	value := int64(a)
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	return fmt.Sprintf("%s%d.%02d", sign, value/100, value%100)
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool { return a == 0 }

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool { return a > 0 }
