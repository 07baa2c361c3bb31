// Package money holds the numeric helpers shared by the booking engine.
package money

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Epsilon is the tolerance used when comparing received amounts to a balance.
const Epsilon = 0.0001

var printer = message.NewPrinter(language.English)

// Dec coerces free-text or numeric input to a decimal. Malformed input
// yields zero instead of an error.
func Dec(v any) decimal.Decimal {
	switch t := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return t
	case float64:
		return decimal.NewFromFloat(t)
	case float32:
		return decimal.NewFromFloat32(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case int64:
		return decimal.NewFromInt(t)
	case json.Number:
		return parse(t.String())
	case string:
		return parse(t)
	default:
		return decimal.Zero
	}
}

// Num is Dec converted to float64.
func Num(v any) float64 {
	return Dec(v).InexactFloat64()
}

// Present reports whether free-text input carries a value at all.
func Present(s string) bool {
	return strings.TrimSpace(s) != ""
}

func parse(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	s = strings.NewReplacer(",", "", "₹", "", "Rs.", "", "Rs", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Round rounds half away from zero to whole units.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(0).InexactFloat64()
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Max0 clamps negative values to zero.
func Max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Symbol prefixes formatted amounts.
const Symbol = "₹"

// Format renders an amount with the rupee symbol and grouped digits.
func Format(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + Symbol + printer.Sprintf("%.2f", Round2(amount))
}
