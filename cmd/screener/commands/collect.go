package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/cruzer/internal/collector"
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Fetch and store daily bars",
	Long: `Fetches daily bars for the universe from Yahoo and upserts them into
PostgreSQL (market.daily_bars). Requires DATABASE_URL.

Example:
  go run ./cmd/screener collect
  go run ./cmd/screener collect --symbols BBCA,BBRI --workers 2`,
	RunE: runCollect,
}

var (
	collectSymbols  []string
	collectUniverse string
	collectWorkers  int
)

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringSliceVar(&collectSymbols, "symbols", nil, "comma separated IDX codes")
	collectCmd.Flags().StringVar(&collectUniverse, "universe", "", "universe file (.yaml or .html)")
	collectCmd.Flags().IntVar(&collectWorkers, "workers", 0, "parallel fetches (default SCREENER_WORKERS)")
}

func runCollect(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.collector == nil {
		return errors.New("collect requires DATABASE_URL")
	}

	symbols, err := a.universe(collectSymbols, collectUniverse)
	if err != nil {
		return fmt.Errorf("resolve universe: %w", err)
	}

	workers := collectWorkers
	if workers <= 0 {
		workers = a.cfg.Screener.Workers
	}

	out := cmd.OutOrStdout()
	printHeader(out, "Bar Collection",
		fmt.Sprintf("Symbols   : %d", len(symbols)),
		fmt.Sprintf("Workers   : %d", workers),
	)

	start := time.Now()
	summary := a.collector.CollectBars(ctx, symbols, collector.Config{Workers: workers})

	for _, r := range summary.Results {
		if r.Error != nil {
			fmt.Fprintf(out, "❌ %-6s %v\n", r.Symbol, r.Error)
		}
	}
	fmt.Fprintf(out, "\n✅ %d stored, %d failed, %d bars in %.1fs\n",
		summary.Success, summary.Failed, summary.Bars, time.Since(start).Seconds())

	if summary.Success == 0 && summary.Failed > 0 {
		return fmt.Errorf("collection failed for all %d symbols", summary.Failed)
	}
	return nil
}
