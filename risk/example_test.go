package risk_test

import (
	"fmt"
	"time"

	"github.com/rustyeddy/tradesim/risk"
)

func ExampleGovernor() {
	limits := risk.DefaultLimits()
	limits.DailyLossLimitPercent = 50

	g := risk.NewGovernor(limits, 10000)
	at := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	for _, c := range []float64{9000, 9500, 7800} {
		g.UpdateCapitalAt(at, c)
	}

	d := g.CheckCanOpenPosition()
	fmt.Println(g.State().Status, d.Allowed, d.Reason())
	// Output: CRITICAL false Trading is paused: Max drawdown limit reached
}
