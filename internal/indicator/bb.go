package indicator

// Bb is a Bollinger band: an EMA with bands at times standard deviations.
type Bb struct {
	ma    Ema
	sigma Stdev
	times float64
}

func NewBb(period, times float64) Bb {
	return Bb{ma: NewEma(period), sigma: NewStdev(period), times: times}
}

func (b *Bb) Update(input float64) {
	b.ma.Update(input)
	b.sigma.Update(input)
}

func (b *Bb) Middle() float64 {
	return b.ma.Value()
}

func (b *Bb) Upper() float64 {
	return b.Middle() + b.times*b.sigma.Value()
}

func (b *Bb) Lower() float64 {
	return b.Middle() - b.times*b.sigma.Value()
}

func (b *Bb) Range() float64 {
	return b.Upper() - b.Lower()
}
