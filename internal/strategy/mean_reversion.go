package strategy

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitos/bracket_trader/internal/domain"
	"github.com/vitos/bracket_trader/internal/indicator"
)

type MeanReversionParams struct {
	ValOffsetPeriod   float64       `yaml:"val_offset_period"`
	ValPricePeriod    float64       `yaml:"val_price_period"`
	DiffPeriod        float64       `yaml:"diff_period"`
	StdevPeriod       float64       `yaml:"stdev_period"`
	MacdFast          float64       `yaml:"macd_fast"`
	MacdSlow          float64       `yaml:"macd_slow"`
	MacdSignal        float64       `yaml:"macd_signal"`
	TrendFast         float64       `yaml:"trend_fast"`
	TrendSlow         float64       `yaml:"trend_slow"`
	TrendSignal       float64       `yaml:"trend_signal"`
	UndervaluedFactor float64       `yaml:"undervalued_factor"`
	MaxStdevRatio     float64       `yaml:"max_stdev_ratio"`
	WorthItFactor     float64       `yaml:"worth_it_factor"`
	MinMoveRatio      float64       `yaml:"min_move_ratio"`
	TakeProfitFactor  float64       `yaml:"take_profit_factor"`
	StopLossFactor    float64       `yaml:"stop_loss_factor"`
	Cooldown          time.Duration `yaml:"cooldown"`
	RequireMomentum   bool          `yaml:"require_momentum"`
}

func DefaultMeanReversionParams() MeanReversionParams {
	return MeanReversionParams{
		ValOffsetPeriod:   20000,
		ValPricePeriod:    20000,
		DiffPeriod:        200,
		StdevPeriod:       2000,
		MacdFast:          100,
		MacdSlow:          200,
		MacdSignal:        50,
		TrendFast:         1000,
		TrendSlow:         2000,
		TrendSignal:       1,
		UndervaluedFactor: 1.8,
		MaxStdevRatio:     0.05,
		WorthItFactor:     1.4,
		MinMoveRatio:      0.01,
		TakeProfitFactor:  1.4,
		StopLossFactor:    1.2,
		Cooldown:          12 * time.Hour,
	}
}

// Gates is the evaluation of one tick, kept for logging and tests.
type Gates struct {
	Undervalued  bool
	MeanReversal bool
	WorthIt      bool
	Bullish      bool
	Momentum     bool
	NoBackoff    bool
}

// MeanReversion buys when price recovers from being undervalued against a
// volume weighted fair value, provided volatility is large enough, the long
// trend is up and the previous buy is old enough. Exits are left to the
// bracket levels of the emitted order.
type MeanReversion struct {
	params MeanReversionParams

	val       indicator.Val
	diff      indicator.Ema
	diffStdev indicator.Stdev
	histStdev indicator.Stdev
	macd      indicator.Macd
	trend     indicator.Macd
	stdev     indicator.Stdev

	wasUndervalued bool
	boughtAt       int64
	last           Gates
}

func NewMeanReversion(params MeanReversionParams) *MeanReversion {
	return &MeanReversion{
		params:    params,
		val:       indicator.NewVal(params.ValOffsetPeriod, params.ValPricePeriod),
		diff:      indicator.NewEma(params.DiffPeriod),
		diffStdev: indicator.NewStdev(params.StdevPeriod),
		histStdev: indicator.NewStdev(params.StdevPeriod),
		macd:      indicator.NewMacd(params.MacdFast, params.MacdSlow, params.MacdSignal),
		trend:     indicator.NewMacd(params.TrendFast, params.TrendSlow, params.TrendSignal),
		stdev:     indicator.NewStdev(params.StdevPeriod),
	}
}

func (s *MeanReversion) Run(trade domain.Trade) *domain.Order {
	price := trade.Price

	s.stdev.Update(price)
	s.val.Update(trade.Quantity, price)
	s.diff.Update(price - s.val.Value())
	s.diffStdev.Update(s.diff.Value())
	s.macd.Update(price)
	s.histStdev.Update(s.macd.Hist())
	s.trend.Update(price)

	maxStdev := math.Min(s.stdev.Value(), price*s.params.MaxStdevRatio)
	undervalued := s.diff.Value() < -s.diffStdev.Value()*s.params.UndervaluedFactor

	g := Gates{
		Undervalued:  undervalued,
		MeanReversal: !undervalued && s.wasUndervalued,
		WorthIt:      s.params.WorthItFactor*maxStdev > price*s.params.MinMoveRatio,
		Bullish:      s.trend.Value() > 0,
		Momentum:     s.macd.Hist() > 0,
		NoBackoff:    s.boughtAt+s.params.Cooldown.Milliseconds() < trade.Timestamp,
	}
	s.last = g
	s.wasUndervalued = undervalued

	if !g.MeanReversal || !g.WorthIt || !g.Bullish || !g.NoBackoff {
		return nil
	}
	if s.params.RequireMomentum && !g.Momentum {
		return nil
	}

	s.boughtAt = trade.Timestamp
	return &domain.Order{
		Market:     trade.Market,
		Price:      price,
		TakeProfit: decimal.NewNullDecimal(decimal.NewFromFloat(price + s.params.TakeProfitFactor*maxStdev)),
		StopLoss:   decimal.NewNullDecimal(decimal.NewFromFloat(price - s.params.StopLossFactor*maxStdev)),
		Side:       domain.SideBuy,
	}
}

// LastGates returns the gate evaluation of the most recent trade.
func (s *MeanReversion) LastGates() Gates {
	return s.last
}

func (s *MeanReversion) Name() string {
	return "mean-reversion"
}
