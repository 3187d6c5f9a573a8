package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is a bracketed long position. It is open until the price crosses
// either TakeProfit or StopLoss.
type Position struct {
	ID         string              `json:"id"`
	Market     string              `json:"market"`
	Quantity   decimal.Decimal     `json:"quantity"`
	BuyPrice   decimal.Decimal     `json:"buy_price"`
	TakeProfit decimal.NullDecimal `json:"take_profit"`
	StopLoss   decimal.NullDecimal `json:"stop_loss"`
	Profitable *bool               `json:"profitable,omitempty"`
	OpenedAt   time.Time           `json:"opened_at"`

	LastPrice decimal.Decimal `json:"last_price"`
	ExitPrice decimal.Decimal `json:"exit_price"`
	ClosedAt  time.Time       `json:"closed_at"`
}

func (p *Position) IsClosed() bool {
	return p.Profitable != nil
}

// Return is the relative price change from entry to exit, or to the last
// marked price while the position is open.
func (p *Position) Return() decimal.Decimal {
	if p.BuyPrice.IsZero() {
		return decimal.Zero
	}
	exit := p.LastPrice
	if p.IsClosed() {
		exit = p.ExitPrice
	}
	return exit.Div(p.BuyPrice).Sub(decimal.NewFromInt(1))
}

// MillisToTime converts a trade timestamp to UTC time.
func MillisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
