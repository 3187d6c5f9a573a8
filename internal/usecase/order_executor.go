package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vitos/bracket_trader/internal/domain"
)

type OrderGateway interface {
	SubmitBuy(ctx context.Context, req domain.BuyRequest) (*domain.BuyResult, error)
	SubmitBracketSell(ctx context.Context, req domain.BracketRequest) error
}

// OrderExecutor enters a position with a market buy and protects it with a
// bracket sell.
type OrderExecutor struct {
	gateway         OrderGateway
	entrySizeFactor decimal.Decimal
	logger          *zap.Logger
	timeNow         func() time.Time
}

func NewOrderExecutor(gateway OrderGateway, entrySizeFactor decimal.Decimal, logger *zap.Logger) *OrderExecutor {
	return &OrderExecutor{
		gateway:         gateway,
		entrySizeFactor: entrySizeFactor,
		logger:          logger,
		timeNow:         time.Now,
	}
}

// Execute returns nil without error when the buy did not fill.
func (e *OrderExecutor) Execute(ctx context.Context, order domain.FilteredOrder) (*domain.Position, error) {
	buy := domain.BuyRequest{
		Market:        order.Market,
		Quantity:      order.Quantity.Mul(e.entrySizeFactor),
		ClientOrderID: uuid.NewString(),
	}
	res, err := e.gateway.SubmitBuy(ctx, buy)
	if err != nil {
		return nil, fmt.Errorf("submit buy %s: %w", order.Market, err)
	}
	if res.Status != domain.OrderFilled {
		e.logger.Info("buy order not filled",
			zap.String("market", order.Market),
			zap.String("order_id", res.OrderID),
			zap.String("status", string(res.Status)))
		return nil, nil
	}

	filled := res.FilledQuantity
	if !filled.IsPositive() {
		filled = buy.Quantity
	}

	sell := domain.BracketRequest{
		Market:         order.Market,
		Quantity:       filled,
		TakeProfit:     order.TakeProfitPrice,
		StopPrice:      order.StopPrice,
		StopLimitPrice: order.StopLimitPrice,
		ClientOrderID:  uuid.NewString(),
	}
	if err := e.gateway.SubmitBracketSell(ctx, sell); err != nil {
		return nil, fmt.Errorf("submit bracket sell %s: %w", order.Market, err)
	}

	return &domain.Position{
		Market:     order.Market,
		Quantity:   filled,
		BuyPrice:   order.BuyPrice,
		TakeProfit: decimal.NewNullDecimal(order.TakeProfitPrice),
		StopLoss:   decimal.NewNullDecimal(order.StopLimitPrice),
		OpenedAt:   e.timeNow().UTC(),
		LastPrice:  order.BuyPrice,
	}, nil
}
