package checkout

import "github.com/shopspring/decimal"

var minorUnitsPerMajor = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit amount to an integer count of minor units,
// rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorUnitsPerMajor).Round(0).IntPart()
}

// FromMinorUnits converts an integer count of minor units back to major units.
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}
