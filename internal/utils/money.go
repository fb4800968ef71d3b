// internal/utils/money.go
package utils

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// BRLToCents converts reais to centavos, rounding half up.
func BRLToCents(value decimal.Decimal) int64 {
	return value.Mul(hundred).Round(0).IntPart()
}

func CentsToBRL(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatBRL renders "R$ 29.90".
func FormatBRL(value decimal.Decimal) string {
	return "R$ " + value.StringFixed(2)
}
