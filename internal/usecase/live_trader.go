package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vitos/bracket_trader/internal/domain"
	"github.com/vitos/bracket_trader/internal/strategy"
)

type LiveConfig struct {
	Markets            []string
	ReservedFloor      decimal.Decimal
	RiskDivisor        decimal.Decimal
	MinInvestmentRatio decimal.Decimal
	OrderSafetyFactor  decimal.Decimal
	// HoldingThreshold is the base asset value above which the wallet is
	// considered already invested in a market.
	HoldingThreshold  decimal.Decimal
	HoldingThresholds map[string]decimal.Decimal
	MessageTimeout    time.Duration
	ReconnectDelay    time.Duration
}

// TradeRecorder receives every trade read from the stream.
type TradeRecorder interface {
	Record(trades []domain.Trade)
}

// LiveTrader streams trades from the exchange into a strategy and turns its
// signals into bracketed positions.
type LiveTrader struct {
	cfg      LiveConfig
	exchange domain.Exchange
	strategy strategy.Strategy
	wallet   *Wallet
	ledger   *PositionLedger
	filters  *FilterService
	executor *OrderExecutor
	recorder TradeRecorder
	logger   *zap.Logger

	queue *Queue[domain.Trade]
}

func NewLiveTrader(
	cfg LiveConfig,
	exchange domain.Exchange,
	strat strategy.Strategy,
	wallet *Wallet,
	ledger *PositionLedger,
	filters *FilterService,
	executor *OrderExecutor,
	logger *zap.Logger,
) *LiveTrader {
	return &LiveTrader{
		cfg:      cfg,
		exchange: exchange,
		strategy: strat,
		wallet:   wallet,
		ledger:   ledger,
		filters:  filters,
		executor: executor,
		logger:   logger,
		queue:    NewQueue[domain.Trade](),
	}
}

// WithRecorder makes the producer hand every trade to r.
func (t *LiveTrader) WithRecorder(r TradeRecorder) *LiveTrader {
	t.recorder = r
	return t
}

// Warmup feeds stored trades through the strategy so its indicators are
// settled before live trading. Signals are discarded.
func (t *LiveTrader) Warmup(trades []domain.Trade) {
	signals := 0
	for _, trade := range trades {
		if err := t.wallet.UpdatePrice(trade.Market, decimal.NewFromFloat(trade.Price)); err != nil {
			t.logger.Debug("failed to update wallet price", zap.Error(err))
		}
		if t.strategy.Run(trade) != nil {
			signals++
		}
	}
	t.logger.Info("strategy warmed up",
		zap.Int("trades", len(trades)),
		zap.Int("discarded_signals", signals))
}

// Run blocks until ctx is cancelled or either loop stops. When one loop
// returns the other is cancelled.
func (t *LiveTrader) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer cancel()
		errs[0] = t.produce(ctx)
	}()
	go func() {
		defer wg.Done()
		defer cancel()
		errs[1] = t.consume(ctx)
	}()
	wg.Wait()

	return errors.Join(errs...)
}

func (t *LiveTrader) produce(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		stream, err := t.exchange.SubscribeTrades(ctx, t.cfg.Markets)
		if err != nil {
			t.logger.Error("failed to subscribe to trades", zap.Error(err))
			if !sleepCtx(ctx, t.cfg.ReconnectDelay) {
				return nil
			}
			continue
		}
		t.logger.Info("subscribed to trades", zap.Strings("markets", t.cfg.Markets))

		t.readStream(ctx, stream)
		if err := stream.Close(); err != nil {
			t.logger.Debug("failed to close trade stream", zap.Error(err))
		}
		if !sleepCtx(ctx, t.cfg.ReconnectDelay) {
			return nil
		}
	}
}

// readStream returns when the stream fails, times out or ctx ends.
func (t *LiveTrader) readStream(ctx context.Context, stream domain.TradeStream) {
	for {
		readCtx, cancel := context.WithTimeout(ctx, t.cfg.MessageTimeout)
		trades, err := stream.Next(readCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, context.DeadlineExceeded) {
				t.logger.Warn("no trades received, reconnecting", zap.Duration("timeout", t.cfg.MessageTimeout))
			} else {
				t.logger.Error("trade stream failed, reconnecting", zap.Error(err))
			}
			return
		}

		for _, trade := range trades {
			if closed := t.ledger.Check(trade.Market, decimal.NewFromFloat(trade.Price), trade.Timestamp); closed != nil {
				t.logger.Info("position closed",
					zap.String("market", closed.Market),
					zap.Bool("profitable", *closed.Profitable),
					zap.String("exit_price", closed.ExitPrice.String()))
			}
		}
		t.queue.Push(trades...)
		if t.recorder != nil {
			t.recorder.Record(trades)
		}
	}
}

func (t *LiveTrader) consume(ctx context.Context) error {
	for {
		trade, err := t.queue.Pop(ctx)
		if err != nil {
			return nil
		}
		if err := t.wallet.UpdatePrice(trade.Market, decimal.NewFromFloat(trade.Price)); err != nil {
			t.logger.Debug("failed to update wallet price", zap.Error(err))
		}

		order := t.strategy.Run(trade)
		if order == nil {
			continue
		}
		t.logger.Info("strategy signal", zap.Stringer("order", order))
		if err := t.placeOrder(ctx, *order, trade.Timestamp); err != nil {
			t.logger.Error("failed to place order",
				zap.String("market", order.Market),
				zap.Error(err))
		}
	}
}

func (t *LiveTrader) holdingThreshold(asset string) decimal.Decimal {
	if v, ok := t.cfg.HoldingThresholds[asset]; ok {
		return v
	}
	return t.cfg.HoldingThreshold
}

func (t *LiveTrader) placeOrder(ctx context.Context, order domain.Order, timestamp int64) error {
	log := t.logger.With(zap.String("market", order.Market))

	if t.ledger.IsOpen(order.Market) {
		log.Info("signal dropped, position already open")
		return nil
	}

	if err := t.wallet.Sync(ctx, t.exchange); err != nil {
		return fmt.Errorf("sync wallet: %w", err)
	}

	base, err := t.wallet.BaseAsset(order.Market)
	if err != nil {
		return err
	}
	if held := t.wallet.Value(base); held.GreaterThanOrEqual(t.holdingThreshold(base)) {
		log.Info("signal dropped, already invested", zap.String("held_value", held.String()))
		return nil
	}

	if !t.ledger.CanOpen(timestamp) {
		log.Info("signal dropped, loss cooldown active",
			zap.Time("wait_until", domain.MillisToTime(t.ledger.WaitUntil())))
		return nil
	}

	target := TargetInvestment(t.wallet.TotalValue(), t.cfg.ReservedFloor, t.cfg.RiskDivisor)
	available := t.wallet.Available(t.wallet.QuoteAsset())
	amount := DetermineInvestmentAmount(target, available, t.cfg.MinInvestmentRatio).Mul(t.cfg.OrderSafetyFactor)
	if !amount.IsPositive() {
		log.Info("signal dropped, nothing to invest",
			zap.String("target", target.String()),
			zap.String("available", available.String()))
		return nil
	}

	filters, err := t.filters.Get(ctx, order.Market)
	if err != nil {
		return fmt.Errorf("get filters: %w", err)
	}
	filtered, err := filters.Apply(order, amount)
	if err != nil {
		return err
	}
	if !filtered.TakeProfitPrice.GreaterThan(filtered.BuyPrice) || !filtered.StopLimitPrice.LessThan(filtered.BuyPrice) {
		return ErrInvalidBracket
	}

	position, err := t.executor.Execute(ctx, filtered)
	if err != nil {
		return err
	}
	if position == nil {
		return nil
	}
	if err := t.ledger.Open(position); err != nil {
		return fmt.Errorf("record position: %w", err)
	}
	log.Info("position opened",
		zap.String("id", position.ID),
		zap.String("quantity", position.Quantity.String()),
		zap.String("buy_price", position.BuyPrice.String()),
		zap.String("take_profit", filtered.TakeProfitPrice.String()),
		zap.String("stop_loss", filtered.StopLimitPrice.String()))
	return nil
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
