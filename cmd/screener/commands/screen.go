package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/cruzer/internal/selection"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen [strategy]",
	Short: "Run one strategy over the universe",
	Long: `Screens every symbol with the chosen strategy and prints the
CAN ENTRY / WATCHLIST split.

Strategies:
  breakout          - 20-day high breakout on volume
  swing_trade_day   - short-term momentum (2-5 days)
  swing_trade_week  - pullback swing (1-4 weeks)

Symbols come from --symbols, then --universe, then UNIVERSE_SYMBOLS /
UNIVERSE_FILE.

Example:
  go run ./cmd/screener screen breakout --symbols BBCA,BBRI,TLKM
  go run ./cmd/screener screen swing_trade_week --universe configs/universe.yaml --min-score 70
  go run ./cmd/screener screen --json > run.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScreen,
}

var (
	screenSymbols  []string
	screenUniverse string
	screenMinScore int
	screenMinGain  float64
	screenMinPrice float64
	screenMaxPrice float64
	screenJSON     bool
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringSliceVar(&screenSymbols, "symbols", nil, "comma separated IDX codes (BBCA,BBRI)")
	screenCmd.Flags().StringVar(&screenUniverse, "universe", "", "universe file (.yaml or .html)")
	screenCmd.Flags().IntVar(&screenMinScore, "min-score", -1, "minimum score (default SCREENER_MIN_SCORE)")
	screenCmd.Flags().Float64Var(&screenMinGain, "min-gain", -1, "minimum gain to the middle target in % (default SCREENER_MIN_GAIN)")
	screenCmd.Flags().Float64Var(&screenMinPrice, "min-price", 0, "minimum last price, 0 = none")
	screenCmd.Flags().Float64Var(&screenMaxPrice, "max-price", 0, "maximum last price, 0 = none")
	screenCmd.Flags().BoolVar(&screenJSON, "json", false, "print the run and selection as JSON")
}

func runScreen(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	strategy := a.cfg.Screener.DefaultStrategy
	if len(args) == 1 {
		strategy = args[0]
	}

	symbols, err := a.universe(screenSymbols, screenUniverse)
	if err != nil {
		return fmt.Errorf("resolve universe: %w", err)
	}

	run, err := a.engine.Run(ctx, symbols, strategy)
	if err != nil {
		return err
	}

	cfg := a.selectionConfig()
	if screenMinScore >= 0 {
		cfg.MinScore = screenMinScore
	}
	if screenMinGain >= 0 {
		cfg.MinGainPct = screenMinGain
	}
	cfg.MinPrice = screenMinPrice
	cfg.MaxPrice = screenMaxPrice

	sel := selection.NewSelector(cfg, a.log).Select(run)

	out := cmd.OutOrStdout()
	if screenJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"run":       run,
			"selection": sel,
		})
	}

	printSelection(out, run, sel)
	return nil
}
