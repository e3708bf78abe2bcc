package strategies

import (
	"fmt"

	"github.com/rustyeddy/tradesim/indicators"
	"github.com/rustyeddy/tradesim/market"
)

const DefaultChannel = 20

// Breakout enters when a close clears the prior channel high and exits when
// it breaks the prior channel low.
type Breakout struct{}

func (Breakout) Name() string { return "breakout" }

func (Breakout) Generate(bars []market.Bar, p Params) ([]Signal, error) {
	n := p.Int("channel", DefaultChannel)
	if n <= 0 {
		return nil, fmt.Errorf("breakout: channel must be positive, got %d", n)
	}

	sig := make([]Signal, len(bars))
	ch := indicators.NewChannel(n)
	for i, b := range bars {
		if ch.Ready() {
			switch {
			case b.Close > ch.Upper():
				sig[i] = Enter
			case b.Close < ch.Lower():
				sig[i] = Exit
			}
		}
		ch.Update(b)
	}
	return sig, nil
}
