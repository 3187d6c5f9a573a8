package indicator

import "math"

// Differential estimates the first and second derivative of a series from
// a MACD with fast = slow/2.
type Differential struct {
	period float64
	macd   Macd
}

func NewDifferential(period float64) Differential {
	return Differential{
		period: period,
		macd:   NewMacd(period/2, period, period/2),
	}
}

func (d *Differential) Update(input float64) {
	d.macd.Update(input)
}

func (d *Differential) FirstDerivative() float64 {
	return d.macd.Value() / (d.period / 4)
}

func (d *Differential) SecondDerivative() float64 {
	return d.macd.Hist() / math.Pow(d.period/4, 2)
}
