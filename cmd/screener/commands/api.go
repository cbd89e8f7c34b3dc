package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/cruzer/internal/api"
	"github.com/wonny/cruzer/internal/api/handlers"
	"github.com/wonny/cruzer/internal/realtime"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                  - Health check
  GET  /api/strategies          - Registered strategies
  POST /api/screen/{strategy}   - Run a screen (body: {"symbols": [...]})
  GET  /api/analyze/{symbol}    - Support/resistance + cycle analysis
  GET  /api/runs/latest         - Last stored run (?strategy=)
  GET  /api/data/quality        - Stored bar quality gate
  GET  /api/data/universe       - Configured universe
  POST /api/data/collect        - Store daily bars (needs DATABASE_URL)
  GET  /ws/runs                 - WebSocket push of finished runs

Example:
  go run ./cmd/screener api
  go run ./cmd/screener api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	hub := realtime.NewHub(a.log)
	defer hub.Close()
	a.engine.AddListener(hub)

	universe := a.universeFunc()
	router := api.NewRouter(api.Handlers{
		Screen:  handlers.NewScreenHandler(a.engine, a.recorder, universe, a.selectionConfig(), a.log),
		Analyze: handlers.NewAnalyzeHandler(a.engine, a.cache, a.log),
		Data:    handlers.NewDataHandler(a.collector, a.gate, universe, a.cfg.Screener.Workers, a.log),
		Stream:  hub,
	}, a.log)

	fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Server running on http://localhost:%s (Ctrl+C to stop)\n", a.cfg.Port)

	return api.New(a.cfg, a.log, router).Run(ctx)
}
