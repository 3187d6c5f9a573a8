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

func filteredOrder() domain.FilteredOrder {
	return domain.FilteredOrder{
		Market:          "ETHUSDT",
		BuyPrice:        d("2000.02"),
		TakeProfitPrice: d("2100"),
		StopLimitPrice:  d("1950"),
		StopPrice:       d("1949.98"),
		Quantity:        d("0.1"),
		QuoteQuantity:   d("200.002"),
	}
}

func TestOrderExecutor_Execute(t *testing.T) {
	ex := &MockExchange{BuyStatus: domain.OrderFilled, BuyFilled: d("0.0999")}
	executor := usecase.NewOrderExecutor(ex, d("0.999"), zap.NewNop())

	position, err := executor.Execute(context.Background(), filteredOrder())
	require.NoError(t, err)
	require.NotNil(t, position)

	require.Len(t, ex.Buys, 1)
	assertDecimal(t, "0.0999", ex.Buys[0].Quantity)
	require.Len(t, ex.Brackets, 1)
	assert.NotEqual(t, ex.Buys[0].ClientOrderID, ex.Brackets[0].ClientOrderID)
	assertDecimal(t, "1949.98", ex.Brackets[0].StopPrice)

	assert.Equal(t, "ETHUSDT", position.Market)
	assertDecimal(t, "0.0999", position.Quantity)
	assertDecimal(t, "2100", position.TakeProfit.Decimal)
	assertDecimal(t, "1950", position.StopLoss.Decimal)
	assert.False(t, position.IsClosed())
}

func TestOrderExecutor_NotFilled(t *testing.T) {
	ex := &MockExchange{BuyStatus: domain.OrderExpired}
	executor := usecase.NewOrderExecutor(ex, d("0.999"), zap.NewNop())

	position, err := executor.Execute(context.Background(), filteredOrder())
	require.NoError(t, err)
	assert.Nil(t, position)
	assert.Empty(t, ex.Brackets)
}
