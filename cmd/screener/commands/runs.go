package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/internal/data"
	"github.com/wonny/cruzer/internal/selection"
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs [strategy]",
	Short: "Show the last recorded run",
	Long: `Prints the latest stored run of a strategy from PostgreSQL or the
SQLite history, with the current selection filters applied.

Example:
  go run ./cmd/screener runs breakout
  go run ./cmd/screener runs --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

var runsJSON bool

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "print the stored run as JSON")
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	strategy := a.cfg.Screener.DefaultStrategy
	if len(args) == 1 {
		strategy = args[0]
	}

	run, err := a.recorder.LatestRun(ctx, contracts.StrategyID(strategy))
	if data.IsNotFound(err) {
		return fmt.Errorf("no recorded %s run (set DATABASE_URL or SQLITE_PATH)", strategy)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	printSelection(out, run, selection.NewSelector(a.selectionConfig(), a.log).Select(run))
	return nil
}
