package domain

import "fmt"

// FilterError is returned when an order cannot be made exchange-legal.
// The current signal is dropped.
type FilterError int

const (
	ErrMinQty FilterError = iota + 1
	ErrMaxQty
	ErrMinPrice
	ErrMaxPrice
	ErrMinNotional
	ErrNoTickSize
	ErrMissingBracket
)

func (e FilterError) Error() string {
	switch e {
	case ErrMinQty:
		return "filter: quantity below minimum"
	case ErrMaxQty:
		return "filter: quantity above maximum"
	case ErrMinPrice:
		return "filter: price below minimum"
	case ErrMaxPrice:
		return "filter: price above maximum"
	case ErrMinNotional:
		return "filter: notional below minimum"
	case ErrNoTickSize:
		return "filter: no tick size for market"
	case ErrMissingBracket:
		return "filter: order has no take profit or stop loss"
	default:
		return fmt.Sprintf("filter: unknown error %d", int(e))
	}
}

// ExchangeError wraps a network or API failure of the exchange client.
type ExchangeError struct {
	Op  string
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange %s: %v", e.Op, e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// DataError wraps a failure to read or write stored history.
type DataError struct {
	Op  string
	Err error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data %s: %v", e.Op, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }
