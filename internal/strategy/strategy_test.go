package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/bracket_trader/internal/domain"
)

// recorder remembers every trade it receives and never signals.
type recorder struct {
	trades []domain.Trade
}

func (r *recorder) Run(trade domain.Trade) *domain.Order {
	r.trades = append(r.trades, trade)
	return nil
}

func (r *recorder) Name() string { return "recorder" }

func TestInterval_ForwardsOneTradePerBucket(t *testing.T) {
	rec := &recorder{}
	s := NewInterval(rec, 60)

	s.Run(domain.Trade{Market: "BTCUSDT", Quantity: 1, Price: 100, Timestamp: 0})
	s.Run(domain.Trade{Market: "BTCUSDT", Quantity: -0.5, Price: 101, Timestamp: 10})
	s.Run(domain.Trade{Market: "BTCUSDT", Quantity: 2, Price: 99, Timestamp: 59})
	assert.Empty(t, rec.trades)

	s.Run(domain.Trade{Market: "BTCUSDT", Quantity: 3, Price: 105, Timestamp: 61})
	require.Len(t, rec.trades, 1)
	assert.Equal(t, domain.Trade{Market: "BTCUSDT", Quantity: 2.5, Price: 99, Timestamp: 59}, rec.trades[0])

	s.Run(domain.Trade{Market: "BTCUSDT", Quantity: 1, Price: 106, Timestamp: 300})
	require.Len(t, rec.trades, 2)
	assert.Equal(t, 105.0, rec.trades[1].Price)
	assert.Equal(t, 3.0, rec.trades[1].Quantity)
}

func TestPerMarket_IsolatesMarkets(t *testing.T) {
	var created []*recorder
	p := NewPerMarket(func() Strategy {
		r := &recorder{}
		created = append(created, r)
		return r
	})
	// NewPerMarket builds one instance to learn the name
	created = nil

	p.Run(domain.Trade{Market: "BTCUSDT", Price: 1})
	p.Run(domain.Trade{Market: "ETHUSDT", Price: 2})
	p.Run(domain.Trade{Market: "BTCUSDT", Price: 3})

	require.Len(t, created, 2)
	assert.Len(t, created[0].trades, 2)
	assert.Len(t, created[1].trades, 1)
	for _, tr := range created[0].trades {
		assert.Equal(t, "BTCUSDT", tr.Market)
	}
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, p.Markets())
	assert.Equal(t, "recorder", p.Name())
}

func TestHold_AlwaysBuysWithoutBrackets(t *testing.T) {
	order := NewHold().Run(domain.Trade{Market: "ETHUSDT", Price: 2000})
	require.NotNil(t, order)
	assert.Equal(t, domain.SideBuy, order.Side)
	assert.False(t, order.TakeProfit.Valid)
	assert.False(t, order.StopLoss.Valid)
}

func TestMulti_FeedsAllAndReturnsNothing(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := NewMulti(a).With(b)
	assert.Nil(t, m.Run(domain.Trade{Market: "X", Price: 1}))
	assert.Len(t, a.trades, 1)
	assert.Len(t, b.trades, 1)
	assert.Equal(t, "recorder,recorder", m.Name())
}

func fastParams(cooldown time.Duration) MeanReversionParams {
	p := DefaultMeanReversionParams()
	p.ValOffsetPeriod = 3
	p.ValPricePeriod = 3
	p.DiffPeriod = 1
	p.StdevPeriod = 3
	p.MacdFast, p.MacdSlow, p.MacdSignal = 1, 3, 1
	p.TrendFast, p.TrendSlow, p.TrendSignal = 1, 3, 1
	p.Cooldown = cooldown
	return p
}

// dipSeries is a rising price with a sharp dip at dipAt, recovering on the
// next tick.
func dipSeries(n int, dips ...int) []domain.Trade {
	trades := make([]domain.Trade, n)
	for i := range trades {
		price := 100 + float64(i)
		for _, d := range dips {
			if i == d {
				price *= 0.8
			}
		}
		trades[i] = domain.Trade{Market: "BTCUSDT", Price: price, Timestamp: int64(i+1) * 1000}
	}
	return trades
}

func TestMeanReversion_BuysOnReversalEdge(t *testing.T) {
	s := NewMeanReversion(fastParams(time.Millisecond))

	var signals []int
	var order *domain.Order
	for i, tr := range dipSeries(15, 10) {
		if o := s.Run(tr); o != nil {
			signals = append(signals, i)
			order = o
		}
		if i == 10 {
			assert.True(t, s.LastGates().Undervalued, "dip tick should be undervalued")
		}
	}

	require.Equal(t, []int{11}, signals)
	assert.Equal(t, domain.SideBuy, order.Side)
	price := domainPrice(order)
	assert.True(t, order.TakeProfit.Decimal.GreaterThan(price))
	assert.True(t, order.StopLoss.Decimal.LessThan(price))
}

func TestMeanReversion_CooldownBlocksSecondBuy(t *testing.T) {
	s := NewMeanReversion(fastParams(time.Hour))

	var signals []int
	for i, tr := range dipSeries(25, 10, 20) {
		if s.Run(tr) != nil {
			signals = append(signals, i)
		}
		if i == 21 {
			g := s.LastGates()
			assert.True(t, g.MeanReversal)
			assert.False(t, g.NoBackoff)
		}
	}
	assert.Equal(t, []int{11}, signals)
}

func TestMeanReversion_ConstantPriceNeverBuys(t *testing.T) {
	s := NewMeanReversion(fastParams(time.Millisecond))
	for i := 0; i < 100; i++ {
		assert.Nil(t, s.Run(domain.Trade{Market: "X", Price: 50, Quantity: 1, Timestamp: int64(i) * 1000}))
	}
	assert.False(t, s.LastGates().WorthIt)
}

func domainPrice(o *domain.Order) decimal.Decimal {
	return decimal.NewFromFloat(o.Price)
}

func TestRandom_SeededAndBracketed(t *testing.T) {
	run := func() []*domain.Order {
		s := NewRandom(7)
		var orders []*domain.Order
		for i := 0; i < 2000; i++ {
			price := 100 + float64(i%10)
			if o := s.Run(domain.Trade{Market: "BTCUSDT", Price: price, Timestamp: int64(i)}); o != nil {
				orders = append(orders, o)
			}
		}
		return orders
	}

	first, second := run(), run()
	require.Equal(t, first, second)
	assert.InDelta(t, 200, len(first), 80)
	for _, o := range first {
		assert.True(t, o.TakeProfit.Decimal.GreaterThan(decimal.NewFromFloat(o.Price)))
		assert.True(t, o.StopLoss.Decimal.LessThan(decimal.NewFromFloat(o.Price)))
	}
	assert.Equal(t, "random", NewRandom(1).Name())
}
