package usecase

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vitos/bracket_trader/internal/domain"
)

var (
	ErrPositionOpen   = errors.New("position already open for market")
	ErrInvalidBracket = errors.New("take profit must be above buy price and stop loss below it")
)

type LedgerConfig struct {
	MaxConsecutiveLosses int
	LossCooldown         time.Duration
}

func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		MaxConsecutiveLosses: 2,
		LossCooldown:         24 * time.Hour,
	}
}

// PositionLedger holds at most one open position per market and closes it
// when a trade crosses its bracket. Repeated losses pause new entries.
type PositionLedger struct {
	cfg       LedgerConfig
	publisher Publisher

	mu        sync.RWMutex
	open      map[string]*domain.Position
	closed    []*domain.Position
	losses    int
	waitUntil int64
}

// NewPositionLedger creates an empty ledger. publisher may be nil.
func NewPositionLedger(cfg LedgerConfig, publisher Publisher) *PositionLedger {
	return &PositionLedger{
		cfg:       cfg,
		publisher: publisher,
		open:      make(map[string]*domain.Position),
	}
}

func (l *PositionLedger) Open(position *domain.Position) error {
	if !validBracket(position) {
		return ErrInvalidBracket
	}
	if position.ID == "" {
		position.ID = uuid.NewString()
	}
	if position.LastPrice.IsZero() {
		position.LastPrice = position.BuyPrice
	}

	l.mu.Lock()
	if _, ok := l.open[position.Market]; ok {
		l.mu.Unlock()
		return ErrPositionOpen
	}
	l.open[position.Market] = position
	snapshot := *position
	l.mu.Unlock()

	l.publish(EventOpened, snapshot)
	return nil
}

func validBracket(p *domain.Position) bool {
	if p.TakeProfit.Valid && !p.TakeProfit.Decimal.GreaterThan(p.BuyPrice) {
		return false
	}
	if p.StopLoss.Valid && !p.StopLoss.Decimal.LessThan(p.BuyPrice) {
		return false
	}
	return true
}

// Check marks the open position of market at price and closes it if the
// take profit or stop loss is crossed. Take profit wins when both are.
// It returns the closed position, or nil.
func (l *PositionLedger) Check(market string, price decimal.Decimal, timestamp int64) *domain.Position {
	l.mu.Lock()
	p, ok := l.open[market]
	if !ok {
		l.mu.Unlock()
		return nil
	}
	p.LastPrice = price

	var profitable bool
	switch {
	case p.TakeProfit.Valid && price.GreaterThanOrEqual(p.TakeProfit.Decimal):
		profitable = true
	case p.StopLoss.Valid && price.LessThanOrEqual(p.StopLoss.Decimal):
		profitable = false
	default:
		l.mu.Unlock()
		return nil
	}

	p.Profitable = &profitable
	p.ExitPrice = price
	p.ClosedAt = domain.MillisToTime(timestamp)
	delete(l.open, market)
	l.closed = append(l.closed, p)

	if profitable {
		l.losses = 0
	} else {
		l.losses++
		if l.cfg.MaxConsecutiveLosses > 0 && l.losses >= l.cfg.MaxConsecutiveLosses {
			l.waitUntil = timestamp + l.cfg.LossCooldown.Milliseconds()
			l.losses = 0
		}
	}
	snapshot := *p
	l.mu.Unlock()

	l.publish(EventClosed, snapshot)
	return &snapshot
}

func (l *PositionLedger) publish(kind EventKind, p domain.Position) {
	if l.publisher != nil {
		l.publisher.Publish(Event{Kind: kind, Position: p})
	}
}

// CanOpen reports whether the loss cooldown is over at timestamp.
func (l *PositionLedger) CanOpen(timestamp int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.waitUntil < timestamp
}

func (l *PositionLedger) WaitUntil() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.waitUntil
}

func (l *PositionLedger) IsOpen(market string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.open[market]
	return ok
}

func (l *PositionLedger) OpenCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.open)
}

// OpenPositions returns copies ordered by open time, then market.
func (l *PositionLedger) OpenPositions() []domain.Position {
	l.mu.RLock()
	out := make([]domain.Position, 0, len(l.open))
	for _, p := range l.open {
		out = append(out, *p)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].OpenedAt.Before(out[j].OpenedAt)
		}
		return out[i].Market < out[j].Market
	})
	return out
}

// ClosedPositions returns copies in closing order.
func (l *PositionLedger) ClosedPositions() []domain.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Position, len(l.closed))
	for i, p := range l.closed {
		out[i] = *p
	}
	return out
}
