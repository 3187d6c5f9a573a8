package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitos/bracket_trader/internal/domain"
	"github.com/vitos/bracket_trader/internal/strategy"
)

// ReplayBucket is the aggregation width of history fed to simulators.
const ReplayBucket = time.Minute

type SimulatorConfig struct {
	Concurrency int
	Fee         float64
	Ledger      LedgerConfig
}

func DefaultSimulatorConfig(concurrency int) SimulatorConfig {
	return SimulatorConfig{
		Concurrency: concurrency,
		Fee:         0.001,
		Ledger:      DefaultLedgerConfig(),
	}
}

// Simulator wraps a strategy and fills its signals at the trade price,
// closing positions when later trades cross their brackets. It is itself a
// Strategy that never emits orders, so several can share one replay.
type Simulator struct {
	cfg      SimulatorConfig
	inner    strategy.Strategy
	ledger   *PositionLedger
	rejected int
}

func NewSimulator(cfg SimulatorConfig, inner strategy.Strategy) *Simulator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Simulator{
		cfg:    cfg,
		inner:  inner,
		ledger: NewPositionLedger(cfg.Ledger, nil),
	}
}

func (s *Simulator) Name() string {
	return "simulated(" + s.inner.Name() + ")"
}

func (s *Simulator) Run(trade domain.Trade) *domain.Order {
	price := decimal.NewFromFloat(trade.Price)
	s.ledger.Check(trade.Market, price, trade.Timestamp)

	order := s.inner.Run(trade)
	if order == nil {
		return nil
	}
	if s.ledger.OpenCount() >= s.cfg.Concurrency ||
		s.ledger.IsOpen(order.Market) ||
		!s.ledger.CanOpen(trade.Timestamp) {
		return nil
	}

	err := s.ledger.Open(&domain.Position{
		Market:     order.Market,
		Quantity:   decimal.NewFromInt(1),
		BuyPrice:   price,
		TakeProfit: order.TakeProfit,
		StopLoss:   order.StopLoss,
		OpenedAt:   domain.MillisToTime(trade.Timestamp),
		LastPrice:  price,
	})
	if err != nil {
		s.rejected++
	}
	return nil
}

type ReportLine struct {
	Market    string
	OpenedAt  time.Time
	BuyPrice  decimal.Decimal
	ExitPrice decimal.Decimal
	Return    float64
	Open      bool
}

// Report summarises a simulation. Returns are percentages after fees. Total
// weights each position by 1/Concurrency of the capital and PerTrade is
// Total spread over every position.
type Report struct {
	Strategy        string
	Lines           []ReportLine
	Wins            int
	Losses          int
	Open            int
	Rejected        int
	Total           float64
	PerTrade        float64
	ProfitableShare float64
}

func (s *Simulator) Report() Report {
	r := Report{Strategy: s.Name(), Rejected: s.rejected}
	sum := 0.0

	add := func(p domain.Position, exit decimal.Decimal, open bool) {
		ret := s.positionReturn(p.BuyPrice, exit)
		sum += ret
		r.Lines = append(r.Lines, ReportLine{
			Market:    p.Market,
			OpenedAt:  p.OpenedAt,
			BuyPrice:  p.BuyPrice,
			ExitPrice: exit,
			Return:    ret,
			Open:      open,
		})
	}

	for _, p := range s.ledger.ClosedPositions() {
		add(p, p.ExitPrice, false)
		if p.BuyPrice.LessThan(p.ExitPrice) {
			r.Wins++
		} else {
			r.Losses++
		}
	}
	for _, p := range s.ledger.OpenPositions() {
		add(p, p.LastPrice, true)
		r.Open++
	}

	r.Total = sum / float64(s.cfg.Concurrency)
	if n := len(r.Lines); n > 0 {
		r.PerTrade = r.Total / float64(n)
	}
	if closed := r.Wins + r.Losses; closed > 0 {
		r.ProfitableShare = float64(r.Wins) / float64(closed) * 100
	}
	return r
}

func (s *Simulator) positionReturn(buy, exit decimal.Decimal) float64 {
	if buy.IsZero() {
		return 0
	}
	ratio := exit.Div(buy).InexactFloat64()
	return (ratio*(1-2*s.cfg.Fee) - 1) * 100
}

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", r.Strategy)
	for _, l := range r.Lines {
		state := "closed"
		if l.Open {
			state = "open"
		}
		fmt.Fprintf(&b, "%s %-12s %-6s buy %s exit %s return %.2f%%\n",
			l.OpenedAt.Format(time.RFC3339), l.Market, state, l.BuyPrice, l.ExitPrice, l.Return)
	}
	fmt.Fprintf(&b, "wins %d losses %d open %d rejected %d\n", r.Wins, r.Losses, r.Open, r.Rejected)
	fmt.Fprintf(&b, "total %+.2f%% per trade %+.2f%% profitable %.1f%%\n", r.Total, r.PerTrade, r.ProfitableShare)
	return b.String()
}

// Replay loads aggregated history for markets and feeds it to strat in
// timestamp order. It returns the number of trades replayed.
func Replay(ctx context.Context, history domain.TradeHistory, markets []string, from, to time.Time, strat strategy.Strategy) (int, error) {
	trades, err := history.ListAggregatedTrades(ctx, markets, from, to, ReplayBucket)
	if err != nil {
		return 0, &domain.DataError{Op: "load history", Err: err}
	}
	for i, trade := range trades {
		if i%10000 == 0 && ctx.Err() != nil {
			return i, ctx.Err()
		}
		strat.Run(trade)
	}
	return len(trades), nil
}
