package notify

import (
	"context"
	"fmt"
	"strings"

	gobot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/vitos/bracket_trader/internal/usecase"
)

// Sender is the part of gobot.BotAPI used to post messages.
type Sender interface {
	Send(c gobot.Chattable) (gobot.Message, error)
}

// Telegram posts position events to a channel.
type Telegram struct {
	sender     Sender
	channelID  int64
	quoteAsset string
}

func NewTelegram(sender Sender, channelID int64, quoteAsset string) *Telegram {
	return &Telegram{sender: sender, channelID: channelID, quoteAsset: quoteAsset}
}

// NewTelegramBot connects to the Bot API with token.
func NewTelegramBot(token string, channelID int64, quoteAsset string) (*Telegram, error) {
	bot, err := gobot.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	bot.Debug = false
	return NewTelegram(bot, channelID, quoteAsset), nil
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Send(ctx context.Context, event usecase.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gobot.NewMessage(t.channelID, t.Format(event))
	_, err := t.sender.Send(msg)
	return err
}

// Format renders the message text for event.
func (t *Telegram) Format(event usecase.Event) string {
	p := event.Position
	asset := strings.TrimSuffix(p.Market, t.quoteAsset)
	value := func(price decimal.Decimal) string {
		return price.Mul(p.Quantity).StringFixed(2) + " " + t.quoteAsset
	}

	var b strings.Builder
	switch event.Kind {
	case usecase.EventOpened:
		b.WriteString("🔵 Opened Position\n\n")
		fmt.Fprintf(&b, "Price:\t %s %s\n", p.BuyPrice.StringFixed(2), p.Market)
		fmt.Fprintf(&b, "Value:\t %s %s\t (%s)\n", p.Quantity.StringFixed(4), asset, value(p.BuyPrice))
		if p.TakeProfit.Valid {
			fmt.Fprintf(&b, "Take Profit:\t %s\t (%s)\n", p.TakeProfit.Decimal.StringFixed(4), value(p.TakeProfit.Decimal))
		}
		if p.StopLoss.Valid {
			fmt.Fprintf(&b, "Stop Loss:\t %s\t (%s)\n", p.StopLoss.Decimal.StringFixed(4), value(p.StopLoss.Decimal))
		}
	case usecase.EventClosed:
		ret := p.Return()
		label := "Loss"
		icon := "🔴"
		if p.Profitable != nil && *p.Profitable {
			label = "Profit"
			icon = "🟢"
		}
		fmt.Fprintf(&b, "%s Closed Position\n\n", icon)
		fmt.Fprintf(&b, "Price:\t %s %s\n", p.ExitPrice.StringFixed(2), p.Market)
		fmt.Fprintf(&b, "Value:\t %s %s\t (%s)\n\n", p.Quantity.StringFixed(4), asset, value(p.ExitPrice))
		fmt.Fprintf(&b, "%s:\t %s%%\t (%s %s)\n", label,
			signed(ret.Mul(decimal.NewFromInt(100))),
			signed(ret.Mul(p.BuyPrice).Mul(p.Quantity)), t.quoteAsset)
	}
	return strings.TrimRight(b.String(), "\n")
}

func signed(v decimal.Decimal) string {
	s := v.StringFixed(2)
	if !v.IsNegative() {
		return "+" + s
	}
	return s
}
