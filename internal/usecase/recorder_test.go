package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitos/bracket_trader/internal/domain"
	"github.com/vitos/bracket_trader/internal/usecase"
)

func TestHistoryRecorder_FlushesOnStop(t *testing.T) {
	history := &fakeHistory{}
	recorder := usecase.NewHistoryRecorder(history, zap.NewNop())

	batch := make([]domain.Trade, 1200)
	for i := range batch {
		batch[i] = domain.Trade{Market: "BTCUSDT", Price: float64(100 + i), Timestamp: int64(i)}
	}
	recorder.Record(batch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, recorder.Run(ctx))

	require.Len(t, history.trades, 1200)
	assert.Equal(t, int64(0), history.trades[0].Timestamp)
	assert.Equal(t, int64(1199), history.trades[1199].Timestamp)
}
