package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block. Fills, costs
// and the exit go in the PROPERTIES drawer. Stop, target and excursions are
// only written when the trade carried them. Empty review headings follow.
func FormatTradeOrg(t TradeRecord) string {
	sym := t.Symbol
	if sym == "" {
		sym = "-"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "** Trade %d: %s %s (%s) %s\n", t.Seq, sym, t.Direction, shortID(t.TradeID), t.Reason)

	prop := func(key, format string, v any) {
		fmt.Fprintf(&b, ":%s: "+format+"\n", key, v)
	}
	b.WriteString(":PROPERTIES:\n")
	prop("TRADE_ID", "%s", t.TradeID)
	prop("RUN_ID", "%s", t.RunID)
	prop("SYMBOL", "%s", sym)
	prop("DIRECTION", "%s", t.Direction)
	prop("QUANTITY", "%.6f", t.Quantity)
	prop("ENTRY_TIME", "%s", t.OpenTime.UTC().Format(time.RFC3339))
	prop("ENTRY_PRICE", "%.5f", t.EntryPrice)
	prop("EXIT_TIME", "%s", t.CloseTime.UTC().Format(time.RFC3339))
	prop("EXIT_PRICE", "%.5f", t.ExitPrice)
	if t.Stop != 0 {
		prop("STOP", "%.5f", t.Stop)
	}
	if t.Target != 0 {
		prop("TARGET", "%.5f", t.Target)
	}
	prop("FEES", "%.2f", t.EntryFee+t.ExitFee)
	prop("REALIZED_PL", "%.2f", t.RealizedPL)
	prop("RESULT_R", "%.2f", t.R)
	prop("BARS_HELD", "%d", t.BarsHeld)
	if t.MFE != 0 || t.MAE != 0 {
		prop("MFE", "%.5f", t.MFE)
		prop("MAE", "%.5f", t.MAE)
	}
	prop("EXIT_REASON", "%s", t.Reason)
	b.WriteString(":END:\n\n")

	for i, h := range []string{"Setup", "Management", "Lessons"} {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "*** %s\n- \n", h)
	}
	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
