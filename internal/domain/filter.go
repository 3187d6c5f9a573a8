package domain

import "github.com/shopspring/decimal"

type FilterKind string

const (
	FilterPrice         FilterKind = "PRICE_FILTER"
	FilterLotSize       FilterKind = "LOT_SIZE"
	FilterMarketLotSize FilterKind = "MARKET_LOT_SIZE"
	FilterMinNotional   FilterKind = "MIN_NOTIONAL"
)

// SymbolFilter is one exchange constraint for a market. A zero Min or Max
// disables that bound; Step is the tick size or lot step.
type SymbolFilter struct {
	Kind FilterKind      `json:"kind"`
	Min  decimal.Decimal `json:"min"`
	Max  decimal.Decimal `json:"max"`
	Step decimal.Decimal `json:"step"`
}
