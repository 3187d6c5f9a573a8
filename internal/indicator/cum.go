package indicator

// Cum is a running sum.
type Cum struct {
	sum float64
}

func (c *Cum) Update(input float64) {
	c.sum += input
}

func (c *Cum) Value() float64 {
	return c.sum
}
