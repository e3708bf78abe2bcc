package indicators

import (
	"testing"

	"github.com/rustyeddy/tradesim/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBars() []market.Bar {
	return []market.Bar{
		{Open: 100, High: 105, Low: 99, Close: 102},
		{Open: 102, High: 107, Low: 101, Close: 105},
		{Open: 105, High: 108, Low: 104, Close: 106},
		{Open: 106, High: 110, Low: 105, Close: 108},
		{Open: 108, High: 112, Low: 107, Close: 110},
		{Open: 110, High: 113, Low: 109, Close: 111},
		{Open: 111, High: 115, Low: 110, Close: 113},
		{Open: 113, High: 116, Low: 112, Close: 114},
		{Open: 114, High: 118, Low: 113, Close: 116},
		{Open: 116, High: 120, Low: 115, Close: 118},
	}
}

func TestMA(t *testing.T) {
	bars := createTestBars()

	ma, err := MA(bars, 5)
	require.NoError(t, err)
	// Last 5 closes: 111,113,114,116,118 => 572/5 = 114.4
	assert.InDelta(t, 114.4, ma, 0.001)

	_, err = MA(bars, 0)
	assert.Error(t, err)
	_, err = MA(bars[:2], 3)
	assert.Error(t, err)
}

func TestEMA(t *testing.T) {
	bars := createTestBars()

	ema, err := EMA(bars, 5)
	require.NoError(t, err)
	assert.Greater(t, ema, 0.0)

	_, err = EMA(bars[:2], 3)
	assert.Error(t, err)
}

func TestRollingMean(t *testing.T) {
	bars := market.FromCloses(0, 60, 2, 4, 6, 8)
	got := RollingMean(bars, 3)
	assert.InDeltaSlice(t, []float64{2, 3, 4, 6}, got, 1e-12)

	assert.Equal(t, []float64{0, 0, 0, 0}, RollingMean(bars, 0))
}

func TestNewMovingAverage(t *testing.T) {
	assert.IsType(t, &ExponentialMA{}, NewMovingAverage("ema", 3))
	assert.IsType(t, &SimpleMA{}, NewMovingAverage("sma", 3))
	assert.IsType(t, &SimpleMA{}, NewMovingAverage("", 3))
}

func TestChannel(t *testing.T) {
	bars := createTestBars()

	ch := NewChannel(3)
	assert.Equal(t, "CHAN(3)", ch.Name())
	assert.False(t, ch.Ready())
	assert.Equal(t, 0.0, ch.Upper())

	for _, b := range bars[:3] {
		ch.Update(b)
	}
	require.True(t, ch.Ready())
	assert.Equal(t, 108.0, ch.Upper())
	assert.Equal(t, 99.0, ch.Lower())

	ch.Update(bars[3])
	assert.Equal(t, 110.0, ch.Upper())
	assert.Equal(t, 101.0, ch.Lower())

	ch.Reset()
	assert.False(t, ch.Ready())
}
