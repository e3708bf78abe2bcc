package risk

import "strings"

// Refusal codes reported by CheckCanOpenPosition.
const (
	CodePaused       = "PAUSED"
	CodeMaxPositions = "MAX_POSITIONS"
	CodeMaxDrawdown  = "MAX_DRAWDOWN"
	CodeDailyLoss    = "DAILY_LOSS"
)

type Violation struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// Decision is the structured answer to "may a position be opened now?".
type Decision struct {
	Allowed    bool        `json:"allowed"`
	Violations []Violation `json:"violations,omitempty"`
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Code returns the first violation code, or "" when allowed.
func (d Decision) Code() string {
	if len(d.Violations) == 0 {
		return ""
	}
	return d.Violations[0].Code
}

// Reason joins the violation messages for display.
func (d Decision) Reason() string {
	msgs := make([]string, len(d.Violations))
	for i, v := range d.Violations {
		msgs[i] = v.Msg
	}
	return strings.Join(msgs, "; ")
}
