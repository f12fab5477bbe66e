package finance

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money columns are nullable in the orders table and the upstream feeds are
// loosely typed, so every amount goes through a defaulting conversion before
// arithmetic. Unparsable or absent values become the caller's default.

var Zero = decimal.New(0, -2) // 0.00

// ToDecimal converts v to an exact decimal, falling back to def.
// Accepted inputs: decimal.Decimal, decimal.NullDecimal, numeric types and
// strings. The string tokens "None" and "NULL" (any case) count as absent.
func ToDecimal(v interface{}, def decimal.Decimal) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return def
	case decimal.Decimal:
		return x
	case *decimal.Decimal:
		if x == nil {
			return def
		}
		return *x
	case decimal.NullDecimal:
		if !x.Valid {
			return def
		}
		return x.Decimal
	case string:
		s := strings.TrimSpace(x)
		if s == "" || strings.EqualFold(s, "none") || strings.EqualFold(s, "null") {
			return def
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return def
		}
		return d
	case float64:
		return decimal.NewFromFloat(x)
	case float32:
		return decimal.NewFromFloat32(x)
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	default:
		return def
	}
}

// ToMoney unwraps a nullable money column, treating NULL as 0.00.
func ToMoney(nd decimal.NullDecimal) decimal.Decimal {
	if !nd.Valid {
		return Zero
	}
	return nd.Decimal
}

// RoundMoney rounds to 2 fractional digits, half-up (ties away from zero).
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RoundPercent rounds a percentage the same way money is rounded.
func RoundPercent(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
