// Package indicator holds streaming estimators that update in O(1) per input
// and keep a fixed amount of state.
package indicator

// Ema is an exponential moving average seeded with its first input.
type Ema struct {
	alpha  float64
	output float64
	ready  bool
}

func NewEma(period float64) Ema {
	if period < 1 {
		period = 1
	}
	return Ema{alpha: 2 / (1 + period)}
}

func (e *Ema) Update(input float64) {
	if !e.ready {
		e.output = input
		e.ready = true
		return
	}
	e.output = input*e.alpha + e.output*(1-e.alpha)
}

// Value panics when no input has been seen yet.
func (e *Ema) Value() float64 {
	if !e.ready {
		panic("indicator: ema has no value")
	}
	return e.output
}

func (e *Ema) Ready() bool {
	return e.ready
}
