package strategy

import "github.com/vitos/bracket_trader/internal/domain"

// Hold buys on every trade and never sets an exit. Used as a buy-and-hold
// baseline in backtests.
type Hold struct{}

func NewHold() *Hold {
	return &Hold{}
}

func (h *Hold) Run(trade domain.Trade) *domain.Order {
	return &domain.Order{
		Market: trade.Market,
		Price:  trade.Price,
		Side:   domain.SideBuy,
	}
}

func (h *Hold) Name() string {
	return "hold"
}
