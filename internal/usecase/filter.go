package usecase

import (
	"github.com/shopspring/decimal"
	"github.com/vitos/bracket_trader/internal/domain"
)

// Ticks added to the buy price and subtracted from the stop-limit price so
// the orders still fill after a small move.
const priceSlippageTicks = 2

// Filters is the set of exchange constraints for one market.
type Filters []domain.SymbolFilter

// TickSize returns the step of the price filter, or false if the market has
// none.
func (f Filters) TickSize() (decimal.Decimal, bool) {
	for _, rule := range f {
		if rule.Kind == domain.FilterPrice && rule.Step.IsPositive() {
			return rule.Step, true
		}
	}
	return decimal.Zero, false
}

// Apply turns a strategy order and the amount of quote asset to spend into
// exchange-legal prices and quantity. It fails on the first violated rule.
func (f Filters) Apply(order domain.Order, quoteQuantity decimal.Decimal) (domain.FilteredOrder, error) {
	price := decimal.NewFromFloat(order.Price)
	if !price.IsPositive() {
		return domain.FilteredOrder{}, domain.ErrMinPrice
	}

	quantity := quoteQuantity.Div(price)
	for _, rule := range f {
		if rule.Kind != domain.FilterLotSize && rule.Kind != domain.FilterMarketLotSize {
			continue
		}
		if rule.Min.IsPositive() && quantity.LessThan(rule.Min) {
			return domain.FilteredOrder{}, domain.ErrMinQty
		}
		if rule.Max.IsPositive() && quantity.GreaterThan(rule.Max) {
			return domain.FilteredOrder{}, domain.ErrMaxQty
		}
		if rule.Step.IsPositive() {
			quantity = floorToStep(quantity, rule.Step)
		}
	}
	if !quantity.IsPositive() {
		return domain.FilteredOrder{}, domain.ErrMinQty
	}

	if !order.TakeProfit.Valid || !order.StopLoss.Valid {
		return domain.FilteredOrder{}, domain.ErrMissingBracket
	}

	tick, ok := f.TickSize()
	if !ok {
		return domain.FilteredOrder{}, domain.ErrNoTickSize
	}

	prices := [3]decimal.Decimal{price, order.TakeProfit.Decimal, order.StopLoss.Decimal}
	for i, p := range prices {
		for _, rule := range f {
			if rule.Kind != domain.FilterPrice {
				continue
			}
			if rule.Min.IsPositive() && p.LessThan(rule.Min) {
				return domain.FilteredOrder{}, domain.ErrMinPrice
			}
			if rule.Max.IsPositive() && p.GreaterThan(rule.Max) {
				return domain.FilteredOrder{}, domain.ErrMaxPrice
			}
		}
		prices[i] = roundToStep(p, tick)
	}

	slippage := tick.Mul(decimal.NewFromInt(priceSlippageTicks))
	out := domain.FilteredOrder{
		Market:          order.Market,
		BuyPrice:        prices[0].Add(slippage),
		TakeProfitPrice: prices[1],
		StopLimitPrice:  prices[2],
		StopPrice:       prices[2].Sub(slippage),
		Quantity:        quantity,
	}
	out.QuoteQuantity = out.Quantity.Mul(out.BuyPrice)

	for _, rule := range f {
		if rule.Kind != domain.FilterMinNotional || !rule.Min.IsPositive() {
			continue
		}
		for _, leg := range []decimal.Decimal{out.BuyPrice, out.TakeProfitPrice, out.StopLimitPrice} {
			if leg.Mul(quantity).LessThan(rule.Min) {
				return domain.FilteredOrder{}, domain.ErrMinNotional
			}
		}
	}

	return out, nil
}

func floorToStep(v, step decimal.Decimal) decimal.Decimal {
	return v.Div(step).Floor().Mul(step)
}

func roundToStep(v, step decimal.Decimal) decimal.Decimal {
	return v.Div(step).Round(0).Mul(step)
}
