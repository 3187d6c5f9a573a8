package strategy

import (
	"strings"

	"github.com/vitos/bracket_trader/internal/domain"
)

// Multi feeds every trade to all of its strategies and discards their
// signals. It lets several simulators share one replay.
type Multi struct {
	strategies []Strategy
}

func NewMulti(strategies ...Strategy) *Multi {
	return &Multi{strategies: strategies}
}

func (m *Multi) With(s Strategy) *Multi {
	m.strategies = append(m.strategies, s)
	return m
}

func (m *Multi) Run(trade domain.Trade) *domain.Order {
	for _, s := range m.strategies {
		s.Run(trade)
	}
	return nil
}

func (m *Multi) Name() string {
	names := make([]string, len(m.strategies))
	for i, s := range m.strategies {
		names[i] = s.Name()
	}
	return strings.Join(names, ",")
}

func (m *Multi) Strategies() []Strategy {
	return m.strategies
}
