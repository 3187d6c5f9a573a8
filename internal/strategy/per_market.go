package strategy

import (
	"sort"

	"github.com/vitos/bracket_trader/internal/domain"
)

// PerMarket keeps one independent strategy per market, created on the first
// trade of that market.
type PerMarket struct {
	factory    Factory
	name       string
	strategies map[string]Strategy
}

func NewPerMarket(factory Factory) *PerMarket {
	return &PerMarket{
		factory:    factory,
		name:       factory().Name(),
		strategies: make(map[string]Strategy),
	}
}

func (p *PerMarket) Run(trade domain.Trade) *domain.Order {
	s, ok := p.strategies[trade.Market]
	if !ok {
		s = p.factory()
		p.strategies[trade.Market] = s
	}
	return s.Run(trade)
}

func (p *PerMarket) Name() string {
	return p.name
}

// Markets lists the markets seen so far.
func (p *PerMarket) Markets() []string {
	markets := make([]string, 0, len(p.strategies))
	for m := range p.strategies {
		markets = append(markets, m)
	}
	sort.Strings(markets)
	return markets
}
