package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Trade is a single executed market trade. A negative Quantity means the
// aggressor sold.
type Trade struct {
	Market    string  `json:"market"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds
}

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Order is a signal produced by a strategy. It is not exchange-legal yet.
type Order struct {
	Market     string              `json:"market"`
	Price      float64             `json:"price"`
	TakeProfit decimal.NullDecimal `json:"take_profit"`
	StopLoss   decimal.NullDecimal `json:"stop_loss"`
	Side       Side                `json:"side"`
}

func (o Order) String() string {
	tp, sl := "-", "-"
	if o.TakeProfit.Valid {
		tp = o.TakeProfit.Decimal.String()
	}
	if o.StopLoss.Valid {
		sl = o.StopLoss.Decimal.String()
	}
	return fmt.Sprintf("%s %s @ %g (tp %s, sl %s)", o.Side, o.Market, o.Price, tp, sl)
}

// FilteredOrder is an Order after the exchange constraint filter. All prices
// are tick multiples and Quantity is a lot step multiple.
type FilteredOrder struct {
	Market          string
	BuyPrice        decimal.Decimal
	TakeProfitPrice decimal.Decimal
	StopLimitPrice  decimal.Decimal
	StopPrice       decimal.Decimal
	Quantity        decimal.Decimal // base asset
	QuoteQuantity   decimal.Decimal
}

// Balance is an exchange reported asset balance.
type Balance struct {
	Asset string
	Free  decimal.Decimal
	Total decimal.Decimal
}
