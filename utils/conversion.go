package utils

import "math"

// Round2 rounds a monetary amount to two decimal places.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// DepositAmount computes a percentage share of a base price, rounded to cents.
func DepositAmount(basePrice float64, percent int) float64 {
	return Round2(basePrice * float64(percent) / 100)
}
