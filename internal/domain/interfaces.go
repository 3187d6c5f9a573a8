package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Exchange defines the interface for interacting with a crypto exchange.
type Exchange interface {
	SubscribeTrades(ctx context.Context, markets []string) (TradeStream, error)
	GetBalances(ctx context.Context) ([]Balance, error)
	GetMarketFilters(ctx context.Context, market string) ([]SymbolFilter, error)
	SubmitBuy(ctx context.Context, req BuyRequest) (*BuyResult, error)
	SubmitBracketSell(ctx context.Context, req BracketRequest) error
}

// TradeStream yields batches of trades in the order the exchange sent them.
// Next returns an error once the connection is unusable.
type TradeStream interface {
	Next(ctx context.Context) ([]Trade, error)
	Close() error
}

type OrderStatus string

const (
	OrderFilled  OrderStatus = "FILLED"
	OrderExpired OrderStatus = "EXPIRED"
	OrderPending OrderStatus = "PENDING"
)

// BuyRequest is a market buy when Price is not set and an immediate-or-cancel
// limit buy otherwise.
type BuyRequest struct {
	Market        string
	Quantity      decimal.Decimal
	Price         decimal.NullDecimal
	ClientOrderID string
}

type BuyResult struct {
	OrderID        string
	Status         OrderStatus
	FilledQuantity decimal.Decimal
}

// BracketRequest is a paired take-profit / stop-limit exit. Filling one leg
// cancels the other.
type BracketRequest struct {
	Market         string
	Quantity       decimal.Decimal
	TakeProfit     decimal.Decimal
	StopPrice      decimal.Decimal
	StopLimitPrice decimal.Decimal
	ClientOrderID  string
}

// TradeHistory stores raw trades and serves them back aggregated into
// time buckets, ascending by bucket start.
type TradeHistory interface {
	SaveTrades(ctx context.Context, trades []Trade) error
	ListAggregatedTrades(ctx context.Context, markets []string, from, to time.Time, bucket time.Duration) ([]Trade, error)
}

// PositionRepository keeps the audit log of opened and closed positions.
type PositionRepository interface {
	SavePosition(ctx context.Context, position *Position) error
	UpdatePositionOutcome(ctx context.Context, position *Position) error
	ListPositions(ctx context.Context, limit int) ([]*Position, error)
}
