package indicator

import "math"

// Val is a volume weighted fair value estimate. It regresses the deviation of
// price from its average against the deviation of cumulative signed volume
// from its average, and projects the current volume deviation onto price.
type Val struct {
	volume       Cum
	volumeEma    Ema
	priceEma     Ema
	marginalCost Lsq
	value        float64
}

func NewVal(offsetPeriod, marginalPricePeriod float64) Val {
	return Val{
		volumeEma:    NewEma(offsetPeriod),
		priceEma:     NewEma(offsetPeriod),
		marginalCost: NewLsq(marginalPricePeriod),
	}
}

func (v *Val) Update(quantity, price float64) {
	v.volume.Update(quantity)
	v.volumeEma.Update(v.volume.Value())
	v.priceEma.Update(price)

	volumeDev := v.volume.Value() - v.volumeEma.Value()
	priceDev := price - v.priceEma.Value()
	v.marginalCost.Update(volumeDev, priceDev)

	slope := v.marginalCost.Value()
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		v.value = v.priceEma.Value()
		return
	}
	v.value = v.priceEma.Value() + volumeDev*slope
}

func (v *Val) Value() float64 {
	return v.value
}
