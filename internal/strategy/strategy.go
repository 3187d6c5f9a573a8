// Package strategy turns a stream of trades into buy signals.
package strategy

import "github.com/vitos/bracket_trader/internal/domain"

// Strategy consumes one trade at a time and returns at most one order signal.
// Implementations are not safe for concurrent use.
type Strategy interface {
	Run(trade domain.Trade) *domain.Order
	Name() string
}

// Factory builds a fresh, independent strategy instance.
type Factory func() Strategy
