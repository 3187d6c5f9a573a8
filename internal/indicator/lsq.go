package indicator

// Lsq estimates the least-squares slope of b over a through origin, using
// exponentially weighted means of a*a and a*b. The slope is NaN or Inf while
// the weighted a*a mean is zero.
type Lsq struct {
	aa    Ema
	ab    Ema
	slope float64
}

func NewLsq(period float64) Lsq {
	return Lsq{aa: NewEma(period), ab: NewEma(period)}
}

func (l *Lsq) Update(a, b float64) {
	l.aa.Update(a * a)
	l.ab.Update(a * b)
	l.slope = (1 / l.aa.Value()) * l.ab.Value()
}

func (l *Lsq) Value() float64 {
	return l.slope
}
