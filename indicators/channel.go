package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/tradesim/market"
)

// Channel tracks the highest high and lowest low of the last period bars.
//
// Test a bar against Upper and Lower before feeding it to Update so the
// channel only ever covers prior bars.
type Channel struct {
	period int
	highs  []float64
	lows   []float64
}

// NewChannel creates a rolling high/low channel over period bars.
func NewChannel(period int) *Channel {
	return &Channel{
		period: period,
		highs:  make([]float64, 0, period+1),
		lows:   make([]float64, 0, period+1),
	}
}

func (c *Channel) Name() string {
	return fmt.Sprintf("CHAN(%d)", c.period)
}

func (c *Channel) Warmup() int {
	return c.period
}

func (c *Channel) Reset() {
	c.highs = c.highs[:0]
	c.lows = c.lows[:0]
}

// Update adds b to the window.
func (c *Channel) Update(b market.Bar) {
	c.highs = append(c.highs, b.High)
	c.lows = append(c.lows, b.Low)
	if len(c.highs) > c.period {
		c.highs = c.highs[1:]
		c.lows = c.lows[1:]
	}
}

func (c *Channel) Ready() bool {
	return c.period > 0 && len(c.highs) >= c.period
}

// Upper is the highest high in the window.
func (c *Channel) Upper() float64 {
	if !c.Ready() {
		return 0
	}
	v := math.Inf(-1)
	for _, h := range c.highs {
		v = math.Max(v, h)
	}
	return v
}

// Lower is the lowest low in the window.
func (c *Channel) Lower() float64 {
	if !c.Ready() {
		return 0
	}
	v := math.Inf(1)
	for _, l := range c.lows {
		v = math.Min(v, l)
	}
	return v
}
