package strategy

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"
	"github.com/vitos/bracket_trader/internal/domain"
	"github.com/vitos/bracket_trader/internal/indicator"
)

const (
	randomBuyChance   = 0.1
	randomStdevPeriod = 200
)

// Random buys on a fixed share of trades with a bracket one standard
// deviation around the price. A seeded source keeps backtests repeatable.
type Random struct {
	rng   *rand.Rand
	stdev indicator.Stdev
}

func NewRandom(seed uint64) *Random {
	return &Random{
		rng:   rand.New(rand.NewPCG(seed, seed)),
		stdev: indicator.NewStdev(randomStdevPeriod),
	}
}

func (r *Random) Run(trade domain.Trade) *domain.Order {
	r.stdev.Update(trade.Price)
	if r.rng.Float64() >= randomBuyChance {
		return nil
	}
	width := r.stdev.Value()
	if width <= 0 {
		return nil
	}
	return &domain.Order{
		Market:     trade.Market,
		Price:      trade.Price,
		TakeProfit: decimal.NewNullDecimal(decimal.NewFromFloat(trade.Price + width)),
		StopLoss:   decimal.NewNullDecimal(decimal.NewFromFloat(trade.Price - width)),
		Side:       domain.SideBuy,
	}
}

func (r *Random) Name() string {
	return "random"
}
