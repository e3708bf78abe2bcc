package journal

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
	"time"
)

// RunRecord summarizes one simulation run.
type RunRecord struct {
	RunID   string
	Created time.Time
	Dataset string
	Symbol  string

	Strategy string
	Mode     string // "signals" or "rules"
	Params   string // JSON encoded strategy or rule parameters

	FeeRate      float64
	SlippageRate float64

	Start time.Time
	End   time.Time
	Bars  int

	Trades     int
	Wins       int
	Losses     int
	Rejections int

	StartBalance float64
	EndBalance   float64

	NetPL        float64
	ReturnPct    float64
	WinRate      float64 // percent
	ProfitFactor float64
	MaxDDPct     float64
	AvgR         float64
	Sharpe       float64

	OrgPath string

	Notes []string
}

var runOrgFuncs = template.FuncMap{
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"orDash": func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	},
}

var runOrgTmpl = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// RenderOrg returns the run as an Org-mode section.
func (v *RunRecord) RenderOrg() (string, error) {
	buf := new(bytes.Buffer)
	if err := runOrgTmpl.Execute(buf, v); err != nil {
		return "", fmt.Errorf("render run report: %w", err)
	}
	return buf.String(), nil
}

// WriteOrg renders the run to path, or to OrgPath when path is empty.
func (v *RunRecord) WriteOrg(path string) error {
	if path == "" {
		path = v.OrgPath
	}
	if path == "" {
		return fmt.Errorf("write run report: no path")
	}
	s, err := v.RenderOrg()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

const RunOrgTemplate = `* BACKTEST: {{.Strategy}} {{orDash .Symbol}}
:PROPERTIES:
:RUN_ID:      {{orDash .RunID}}
:STRATEGY:    {{.Strategy}}
:MODE:        {{orDash .Mode}}
:DATASET:     {{orDash .Dataset}}
:START_DATE:  {{.Start.UTC.Format "2006-01-02"}}
:END_DATE:    {{.End.UTC.Format "2006-01-02"}}
:BARS:        {{.Bars}}
:START_BAL:   {{printf "%.2f" .StartBalance}}
:END_BAL:     {{printf "%.2f" .EndBalance}}
:NET_PL:      {{printf "%.2f" .NetPL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:  {{printf "%.2f" .MaxDDPct}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" .WinRate}}
:PROFIT_FAC:  {{printf "%.2f" .ProfitFactor}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Parameters
| Parameter | Value |
|-----------+-------|
| Params    | {{orDash .Params}} |
| Fee rate  | {{printf "%.6f" .FeeRate}} |
| Slippage  | {{printf "%.6f" .SlippageRate}} |

** Performance Summary
- Net P/L:          *{{printf "%.2f" .NetPL}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Max Drawdown:     *{{printf "%.2f" .MaxDDPct}}%*
- Win Rate:         *{{printf "%.2f" .WinRate}}%*
- Profit Factor:    *{{printf "%.2f" .ProfitFactor}}*
- Average R:        *{{printf "%.2f" .AvgR}}*
- Sharpe:           *{{printf "%.2f" .Sharpe}}*

** Trade Distribution
| Outcome  | Count |
|----------+-------|
| Wins     | {{.Wins}} |
| Losses   | {{.Losses}} |
| Total    | {{.Trades}} |
| Rejected | {{.Rejections}} |
{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
