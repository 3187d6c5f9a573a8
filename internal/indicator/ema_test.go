package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEma_Basic(t *testing.T) {
	ema := NewEma(3)
	assert.False(t, ema.Ready())

	steps := []struct {
		input float64
		want  float64
	}{
		{0, 0},
		{2, 1},
		{-1, 0},
		{16, 8},
	}
	for _, s := range steps {
		ema.Update(s.input)
		assert.Equal(t, s.want, ema.Value())
	}
}

func TestEma_PeriodOneIsIdentity(t *testing.T) {
	ema := NewEma(1)
	for _, x := range []float64{5, -3, 100.25, 0, 7} {
		ema.Update(x)
		assert.Equal(t, x, ema.Value())
	}
}

func TestEma_ConvergesToConstant(t *testing.T) {
	ema := NewEma(20)
	ema.Update(0)
	for i := 0; i < 1000; i++ {
		ema.Update(42)
	}
	assert.InDelta(t, 42, ema.Value(), 1e-9)
}

func TestEma_ValueBeforeUpdatePanics(t *testing.T) {
	ema := NewEma(10)
	assert.Panics(t, func() { ema.Value() })
}
