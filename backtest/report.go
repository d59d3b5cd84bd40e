package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/equitysim/journal"
)

// WriteReport renders a finished run as a plain-text summary.
func WriteReport(w io.Writer, rec journal.RunRecord) {
	r := rec.Result

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", rec.RunID)
	fmt.Fprintf(w, "Created:       %s\n", rec.Created.Format(time.RFC3339))
	fmt.Fprintf(w, "Strategy:      %s\n", rec.Strategy)
	fmt.Fprintf(w, "Granularity:   %s\n", rec.Granularity)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", rec.Start.Format("2006-01-02"))
	fmt.Fprintf(w, "End:           %s\n", rec.End.Format("2006-01-02"))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Cost Model")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Commission:    %.4f%% of notional\n", r.CommissionRate*100)
	fmt.Fprintf(w, "Slippage:      %.4f%% of notional\n", r.SlippageRate*100)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Initial:       %.2f\n", r.InitialCapital)
	fmt.Fprintf(w, "Final:         %.2f\n", r.FinalCapital)
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.TotalReturnPct)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.MaxDrawdownPct)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.WinRatePct)
	fmt.Fprintf(w, "Trades:        %d\n", r.TotalTrades)
	fmt.Fprintf(w, "Snapshots:     %d\n", len(rec.Snapshots))

	fmt.Fprintln(w)
}
