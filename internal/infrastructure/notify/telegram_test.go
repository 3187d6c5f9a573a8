package notify

import (
	"context"
	"testing"

	gobot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitos/bracket_trader/internal/domain"
	"github.com/vitos/bracket_trader/internal/usecase"
)

type fakeSender struct {
	sent []gobot.MessageConfig
}

func (f *fakeSender) Send(c gobot.Chattable) (gobot.Message, error) {
	f.sent = append(f.sent, c.(gobot.MessageConfig))
	return gobot.Message{}, nil
}

func position() domain.Position {
	return domain.Position{
		Market:     "BTCUSDT",
		Quantity:   decimal.RequireFromString("0.5"),
		BuyPrice:   decimal.RequireFromString("100"),
		TakeProfit: decimal.NewNullDecimal(decimal.RequireFromString("110")),
		StopLoss:   decimal.NewNullDecimal(decimal.RequireFromString("90")),
	}
}

func TestTelegram_Opened(t *testing.T) {
	sender := &fakeSender{}
	tg := NewTelegram(sender, -100123, "USDT")

	require.NoError(t, tg.Send(context.Background(), usecase.Event{Kind: usecase.EventOpened, Position: position()}))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(-100123), sender.sent[0].ChatID)

	text := sender.sent[0].Text
	assert.Contains(t, text, "Opened Position")
	assert.Contains(t, text, "Price:\t 100.00 BTCUSDT")
	assert.Contains(t, text, "Value:\t 0.5000 BTC\t (50.00 USDT)")
	assert.Contains(t, text, "Take Profit:\t 110.0000\t (55.00 USDT)")
	assert.Contains(t, text, "Stop Loss:\t 90.0000\t (45.00 USDT)")
}

func TestTelegram_Closed(t *testing.T) {
	tg := NewTelegram(&fakeSender{}, 1, "USDT")

	win := position()
	profitable := true
	win.Profitable = &profitable
	win.ExitPrice = decimal.RequireFromString("110")
	text := tg.Format(usecase.Event{Kind: usecase.EventClosed, Position: win})
	assert.Contains(t, text, "🟢 Closed Position")
	assert.Contains(t, text, "Profit:\t +10.00%\t (+5.00 USDT)")

	loss := position()
	lost := false
	loss.Profitable = &lost
	loss.ExitPrice = decimal.RequireFromString("90")
	text = tg.Format(usecase.Event{Kind: usecase.EventClosed, Position: loss})
	assert.Contains(t, text, "🔴 Closed Position")
	assert.Contains(t, text, "Loss:\t -10.00%\t (-5.00 USDT)")
}

func TestTelegram_CancelledContext(t *testing.T) {
	sender := &fakeSender{}
	tg := NewTelegram(sender, 1, "USDT")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, tg.Send(ctx, usecase.Event{Kind: usecase.EventOpened, Position: position()}))
	assert.Empty(t, sender.sent)
}
