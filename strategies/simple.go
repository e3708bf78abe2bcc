package strategies

import "github.com/rustyeddy/tradesim/market"

// BuyAndHold enters on the first bar and exits on the last.
type BuyAndHold struct{}

func (BuyAndHold) Name() string { return "buy_and_hold" }

func (BuyAndHold) Generate(bars []market.Bar, _ Params) ([]Signal, error) {
	sig := make([]Signal, len(bars))
	if len(bars) == 0 {
		return sig, nil
	}
	sig[0] = Enter
	sig[len(sig)-1] = Exit
	return sig, nil
}

// Noop never trades.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Generate(bars []market.Bar, _ Params) ([]Signal, error) {
	return make([]Signal, len(bars)), nil
}
