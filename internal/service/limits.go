package service

import (
	"math"

	"github.com/shopspring/decimal"
)

// Storage bounds. Quantities and stock live in Postgres INT columns; prices in
// decimal(12,2) and totals in decimal(14,2).
const maxQuantity = math.MaxInt32

var (
	maxPrice = decimal.New(1, 10) // exclusive
	maxTotal = decimal.New(1, 12) // exclusive
)

// checkQuantity rejects counts that are not positive or do not fit an INT.
func checkQuantity(field string, q int) error {
	if q <= 0 {
		return invalid(field, "must be greater than zero")
	}
	if q > maxQuantity {
		return invalid(field, "must be at most 2147483647")
	}
	return nil
}

// checkMoney rejects prices the price columns would round or overflow.
func checkMoney(field string, v decimal.Decimal) error {
	switch {
	case v.IsNegative():
		return invalid(field, "must not be negative")
	case v.Exponent() < -2 && !v.Equal(v.Round(2)):
		return invalid(field, "must have at most 2 decimal places")
	case v.GreaterThanOrEqual(maxPrice):
		return invalid(field, "must be less than 10000000000")
	}
	return nil
}

func checkTotal(field string, v decimal.Decimal) error {
	if v.GreaterThanOrEqual(maxTotal) {
		return invalid(field, "must be less than 1000000000000")
	}
	return nil
}
