package domain

import "github.com/shopspring/decimal"

// LineTotal is price*quantity in exact decimal arithmetic.
func LineTotal(price float64, qty int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(qty)))
}

// ToFloat converts a decimal back to the float64 used on the wire.
func ToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
