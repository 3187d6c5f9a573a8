package strategy

import "github.com/vitos/bracket_trader/internal/domain"

// Interval folds all trades of one time bucket into a single trade and
// forwards it to the wrapped strategy when the next bucket starts. The
// forwarded trade carries the summed quantity and the last price and
// timestamp of its bucket.
type Interval struct {
	next    Strategy
	width   int64
	pending *domain.Trade
}

func NewInterval(next Strategy, widthMs int64) *Interval {
	if widthMs <= 0 {
		widthMs = 1
	}
	return &Interval{next: next, width: widthMs}
}

func (i *Interval) Run(trade domain.Trade) *domain.Order {
	if i.pending == nil {
		t := trade
		i.pending = &t
		return nil
	}

	if i.pending.Timestamp/i.width == trade.Timestamp/i.width {
		i.pending.Timestamp = trade.Timestamp
		i.pending.Price = trade.Price
		i.pending.Quantity += trade.Quantity
		return nil
	}

	out := *i.pending
	*i.pending = trade
	return i.next.Run(out)
}

func (i *Interval) Name() string {
	return i.next.Name()
}
