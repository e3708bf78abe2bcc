package risk

import "math"

// PlannedRisk is the absolute loss if a position of qty units entered at
// entry is stopped out at stop.
func PlannedRisk(qty, entry, stop float64) float64 {
	return math.Abs(qty) * math.Abs(entry-stop)
}

// RR is the reward to risk ratio of a planned trade.
func RR(entry, stop, takeProfit float64) float64 {
	risk := math.Abs(entry - stop)
	reward := math.Abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// SizeByRisk returns the quantity that loses riskAmount when price moves
// from entry to stop. It is 0 when the stop distance is zero.
func SizeByRisk(riskAmount, entry, stop float64) float64 {
	dist := math.Abs(entry - stop)
	if dist == 0 || riskAmount <= 0 {
		return 0
	}
	return riskAmount / dist
}

// MaxPositionNotional is the largest position value allowed for capital.
func (l Limits) MaxPositionNotional(capital float64) float64 {
	if capital <= 0 {
		return 0
	}
	return capital * l.MaxPositionSizePercent / 100
}
