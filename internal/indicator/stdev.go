package indicator

import "math"

// Stdev tracks an exponentially weighted standard deviation.
type Stdev struct {
	mean Ema
	vari Ema
}

func NewStdev(period float64) Stdev {
	return Stdev{mean: NewEma(period), vari: NewEma(period)}
}

func (s *Stdev) Update(input float64) {
	s.mean.Update(input)
	d := input - s.mean.Value()
	s.vari.Update(d * d)
}

func (s *Stdev) Value() float64 {
	return math.Sqrt(s.vari.Value())
}

func (s *Stdev) Ready() bool {
	return s.vari.Ready()
}
