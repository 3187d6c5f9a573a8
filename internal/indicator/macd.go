package indicator

// Macd is the difference of a fast and a slow EMA, smoothed by a signal EMA.
type Macd struct {
	fast   Ema
	slow   Ema
	signal Ema
}

func NewMacd(fastPeriod, slowPeriod, signalPeriod float64) Macd {
	return Macd{
		fast:   NewEma(fastPeriod),
		slow:   NewEma(slowPeriod),
		signal: NewEma(signalPeriod),
	}
}

func (m *Macd) Update(input float64) {
	m.fast.Update(input)
	m.slow.Update(input)
	m.signal.Update(m.Value())
}

func (m *Macd) Value() float64 {
	return m.fast.Value() - m.slow.Value()
}

func (m *Macd) Signal() float64 {
	return m.signal.Value()
}

// Hist is Value minus Signal.
func (m *Macd) Hist() float64 {
	return m.Value() - m.Signal()
}
