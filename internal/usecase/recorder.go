package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/vitos/bracket_trader/internal/domain"
)

const recordBatchSize = 500

// HistoryRecorder persists streamed trades in batches from its own
// goroutine so the stream reader never waits on the database.
type HistoryRecorder struct {
	history domain.TradeHistory
	queue   *Queue[domain.Trade]
	logger  *zap.Logger
}

func NewHistoryRecorder(history domain.TradeHistory, logger *zap.Logger) *HistoryRecorder {
	return &HistoryRecorder{
		history: history,
		queue:   NewQueue[domain.Trade](),
		logger:  logger,
	}
}

func (r *HistoryRecorder) Record(trades []domain.Trade) {
	r.queue.Push(trades...)
}

// Run saves queued trades until ctx is cancelled, then flushes what is left.
func (r *HistoryRecorder) Run(ctx context.Context) error {
	for {
		first, err := r.queue.Pop(ctx)
		if err != nil {
			r.flush()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		batch := r.drain([]domain.Trade{first})
		if err := r.history.SaveTrades(ctx, batch); err != nil {
			r.logger.Error("failed to save trades", zap.Int("count", len(batch)), zap.Error(err))
		}
	}
}

func (r *HistoryRecorder) drain(batch []domain.Trade) []domain.Trade {
	for len(batch) < recordBatchSize && r.queue.Len() > 0 {
		trade, err := r.queue.Pop(context.Background())
		if err != nil {
			break
		}
		batch = append(batch, trade)
	}
	return batch
}

func (r *HistoryRecorder) flush() {
	for r.queue.Len() > 0 {
		batch := r.drain(nil)
		if err := r.history.SaveTrades(context.Background(), batch); err != nil {
			r.logger.Error("failed to flush trades", zap.Int("count", len(batch)), zap.Error(err))
			return
		}
	}
}
