package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/internal/selection"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	doubleLine = "═══════════════════════════════════════════════════════════"
	singleLine = "───────────────────────────────────────────────────────────"
)

// printHeader prints a formatted command header
func printHeader(w io.Writer, title string, lines ...string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleLine)
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, singleLine)
	for _, l := range lines {
		fmt.Fprintf(w, "  %s\n", l)
	}
	if len(lines) > 0 {
		fmt.Fprintln(w, singleLine)
	}
}

// formatPrice groups thousands the way IDX prices are quoted (12.350)
func formatPrice(p int64) string {
	s := strconv.FormatInt(p, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func formatRange(low, high int64) string {
	return formatPrice(low) + " - " + formatPrice(high)
}

func formatTargets(ts []int64) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = formatPrice(t)
	}
	return strings.Join(parts, " / ")
}

// printTable prints a header row, a rule and the rows with fixed widths
func printTable(w io.Writer, columns []string, widths []int, rows [][]string) {
	row := func(values []string) {
		for i, val := range values {
			fmt.Fprintf(w, "%-*s", widths[i], val)
			if i < len(values)-1 {
				fmt.Fprint(w, "  ")
			}
		}
		fmt.Fprintln(w)
	}

	row(columns)
	total := 0
	for i, width := range widths {
		total += width
		if i < len(widths)-1 {
			total += 2
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", total))
	for _, r := range rows {
		row(r)
	}
}

var candidateColumns = []string{"SYMBOL", "SCORE", "LAST", "ENTRY", "STOP", "TARGETS", "GAIN%", "RR", "SIGNAL"}
var candidateWidths = []int{6, 5, 8, 17, 8, 26, 6, 5, 22}

func candidateRows(cs []selection.Candidate) [][]string {
	rows := make([][]string, 0, len(cs))
	for _, c := range cs {
		s := c.Setup
		rows = append(rows, []string{
			s.Symbol,
			strconv.Itoa(s.Score),
			formatPrice(s.LastPrice),
			formatRange(s.EntryLow, s.EntryHigh),
			formatPrice(s.Stop),
			formatTargets(s.Targets),
			fmt.Sprintf("%.1f", c.GainPct),
			fmt.Sprintf("%.2f", s.RiskReward),
			string(c.Signal),
		})
	}
	return rows
}

// printSelection renders the CAN ENTRY / WATCHLIST split of a run
func printSelection(w io.Writer, run *contracts.ScreeningRun, sel *selection.Result) {
	printHeader(w, "Screening: "+string(run.Strategy),
		fmt.Sprintf("Symbols   : %d requested, %d setups, %d no setup, %d failed",
			run.Requested, run.Succeeded, run.NoSetup, run.Failed),
		fmt.Sprintf("Finished  : %s (%.1fs)", run.FinishedAt.Format(time.RFC3339), run.Duration().Seconds()),
	)

	fmt.Fprintf(w, "\nCAN ENTRY (%d)\n", len(sel.CanEntry))
	if len(sel.CanEntry) > 0 {
		printTable(w, candidateColumns, candidateWidths, candidateRows(sel.CanEntry))
	}

	fmt.Fprintf(w, "\nWATCHLIST (%d)\n", len(sel.Watchlist))
	if len(sel.Watchlist) > 0 {
		printTable(w, candidateColumns, candidateWidths, candidateRows(sel.Watchlist))
	}

	if len(sel.Filtered) > 0 {
		parts := make([]string, 0, len(sel.Filtered))
		for _, name := range []string{"min_price", "max_price", "score", "gain"} {
			if n := sel.Filtered[name]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s=%d", name, n))
			}
		}
		fmt.Fprintf(w, "\nFiltered  : %s\n", strings.Join(parts, ", "))
	}

	if run.Cancelled {
		fmt.Fprintln(w, "\n⚠️  Run was cancelled before every symbol was processed")
	}
	if len(run.Failures) > 0 {
		fmt.Fprintln(w, "\nFailures:")
		for _, f := range run.Failures {
			fmt.Fprintf(w, "   • %s [%s]: %s\n", f.Symbol, f.Stage, f.Error)
		}
	}
	fmt.Fprintln(w)
}

// printAnalysis renders the support/resistance and cycle view
func printAnalysis(w io.Writer, r *contracts.AnalysisResult) {
	printHeader(w, "Analysis: "+r.Symbol,
		fmt.Sprintf("Trend     : %s (gap %.1f%%)", r.TrendLabel, r.GapPct),
		fmt.Sprintf("Last      : %s", formatPrice(r.LastPrice)),
		fmt.Sprintf("Support   : %s", formatPrice(r.Support)),
		fmt.Sprintf("Resistance: %s", formatPrice(r.Resistance)),
	)

	if len(r.Supports) > 0 {
		rows := make([][]string, 0, len(r.Supports))
		for _, s := range r.Supports {
			rows = append(rows, []string{string(s.Tier), formatPrice(s.Price), string(s.Rank), formatPrice(s.Distance)})
		}
		printTable(w, []string{"TIER", "PRICE", "RANK", "DISTANCE"}, []int{8, 8, 5, 8}, rows)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Entry zone : %s\n", formatRange(r.EntryZone.Low, r.EntryZone.High))
	fmt.Fprintf(w, "  Entry near : %s\n", formatRange(r.EntryNear.Low, r.EntryNear.High))
	fmt.Fprintf(w, "  Entry deep : %s\n", formatRange(r.EntryDeep.Low, r.EntryDeep.High))
	fmt.Fprintf(w, "  Risk       : %.1f%%\n", r.RiskPct)
	fmt.Fprintf(w, "  Insight    : %s\n", r.Insight)

	if c := r.Cycle; c != nil {
		day := func(t time.Time) string { return t.Format("2006-01-02") }
		win := func(d contracts.DateWindow) string { return day(d.Start) + " ~ " + day(d.End) }

		fmt.Fprintln(w, singleLine)
		fmt.Fprintf(w, "  Cycle      : %d days (±%.1f, %s confidence, %d swing lows)\n",
			c.CycleDays, c.StdDevDays, c.Confidence, c.SwingLowCount)
		fmt.Fprintf(w, "  Last low   : %s\n", day(c.LastLowDate))
		fmt.Fprintf(w, "  Next low   : %s [%s] in %d days\n", day(c.NextLow), win(c.NextLowWin), c.DaysToNextLow)
		fmt.Fprintf(w, "  Next high  : %s [%s] in %d days\n", day(c.NextHigh), win(c.NextHighWin), c.DaysToNextHigh)
		fmt.Fprintf(w, "  Second low : %s [%s] in %d days\n", day(c.SecondLow), win(c.SecondWin), c.DaysToSecondLow)
		fmt.Fprintf(w, "  Second high: %s [%s] in %d days\n", day(c.SecondHigh), win(c.SecondHighWin), c.DaysToSecondHigh)
	}
	fmt.Fprintln(w)
}
