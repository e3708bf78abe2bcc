package risk

import "fmt"

// Accepted stop distance from entry, in percent of entry price.
const (
	MinStopDistancePercent = 0.5
	MaxStopDistancePercent = 10.0
)

// StopCheck is the result of validating a proposed stop.
type StopCheck struct {
	Valid           bool    `json:"valid"`
	Stop            float64 `json:"stop"`
	DistancePercent float64 `json:"distance_percent"`
	Defaulted       bool    `json:"defaulted"`
	Reason          string  `json:"reason,omitempty"`
}

// DefaultStop places a stop pct percent away from entry on the losing side.
func DefaultStop(entry, pct float64, dir Direction) float64 {
	if dir == Short {
		return entry * (1 + pct/100)
	}
	return entry * (1 - pct/100)
}

// CheckStop validates stop against entry for dir. A stop <= 0 means none
// was supplied and one is placed defaultPct percent away.
func CheckStop(entry, stop float64, dir Direction, defaultPct float64) StopCheck {
	if entry <= 0 {
		return StopCheck{Stop: stop, Reason: "Entry price must be positive"}
	}

	sc := StopCheck{Stop: stop}
	if stop <= 0 {
		sc.Stop = DefaultStop(entry, defaultPct, dir)
		sc.Defaulted = true
	}

	if dir == Short {
		if sc.Stop <= entry {
			sc.Reason = "Stop loss must be above entry price for short positions"
			return sc
		}
		sc.DistancePercent = (sc.Stop - entry) / entry * 100
	} else {
		if sc.Stop >= entry {
			sc.Reason = "Stop loss must be below entry price for long positions"
			return sc
		}
		sc.DistancePercent = (entry - sc.Stop) / entry * 100
	}

	switch {
	case sc.DistancePercent < MinStopDistancePercent:
		sc.Reason = fmt.Sprintf("Stop loss is too tight (less than %g%%)", MinStopDistancePercent)
	case sc.DistancePercent > MaxStopDistancePercent:
		sc.Reason = fmt.Sprintf("Stop loss is too wide (more than %g%%)", MaxStopDistancePercent)
	default:
		sc.Valid = true
	}
	return sc
}
