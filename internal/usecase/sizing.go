package usecase

import "github.com/shopspring/decimal"

var two = decimal.NewFromInt(2)

// DetermineInvestmentAmount decides how much of the available quote balance
// to put into one position given the desired target:
//
//	available/target >= 2        -> target
//	minRatio <= ratio < 2        -> all of available
//	ratio < minRatio             -> nothing
func DetermineInvestmentAmount(target, available, minRatio decimal.Decimal) decimal.Decimal {
	if !target.IsPositive() || !available.IsPositive() {
		return decimal.Zero
	}

	ratio := available.Div(target)
	switch {
	case ratio.GreaterThanOrEqual(two):
		return target
	case ratio.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return available
	case ratio.GreaterThanOrEqual(minRatio):
		return available
	default:
		return decimal.Zero
	}
}

// TargetInvestment keeps reservedFloor untouched and splits the rest of the
// equity across riskDivisor concurrent positions.
func TargetInvestment(totalEquity, reservedFloor, riskDivisor decimal.Decimal) decimal.Decimal {
	if !riskDivisor.IsPositive() {
		return decimal.Zero
	}
	free := totalEquity.Sub(reservedFloor)
	if !free.IsPositive() {
		return decimal.Zero
	}
	return free.Div(riskDivisor)
}
