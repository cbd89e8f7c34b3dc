package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/cruzer/internal/data"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check configuration and connectivity",
	Long: `Loads the configuration and checks every configured backend.

이 명령어는:
- config 로드 및 검증
- Redis 연결 확인 (REDIS_ENABLED)
- PostgreSQL ping + pool 통계 (DATABASE_URL)
- Yahoo chart API로 샘플 종목 조회
- Universe 해석

Example:
  go run ./cmd/screener check
  go run ./cmd/screener check --symbol TLKM`,
	RunE: runCheck,
}

var checkSymbol string

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkSymbol, "symbol", "BBCA", "symbol used for the Yahoo probe")
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}
	defer a.Close()

	printHeader(out, "Cruzer Check",
		fmt.Sprintf("ENV       : %s", a.cfg.Env),
		fmt.Sprintf("Strategy  : %s", a.cfg.Screener.DefaultStrategy),
	)

	// Redis
	if a.redis.Enabled() {
		fmt.Fprintf(out, "✅ Redis connected (%s:%s)\n", a.cfg.Redis.Host, a.cfg.Redis.Port)
	} else {
		fmt.Fprintln(out, "ℹ️  Redis disabled, bars are not cached")
	}

	// PostgreSQL
	if a.db != nil {
		status, err := a.db.HealthCheck(ctx)
		if err != nil {
			return fmt.Errorf("❌ database health check failed: %w", err)
		}
		fmt.Fprintf(out, "✅ PostgreSQL %s (%v)\n", maskPassword(a.cfg.Database.URL), status.ResponseTime)
		fmt.Fprintf(out, "   Pool: %d/%d connections, %d idle\n",
			status.Stats.TotalConns, status.Stats.MaxConns, status.Stats.IdleConns)

		latest, err := data.NewBarRepository(a.db.Pool).LatestDate(ctx, checkSymbol)
		switch {
		case data.IsNotFound(err):
			fmt.Fprintf(out, "   No stored bars for %s yet\n", checkSymbol)
		case err != nil:
			return fmt.Errorf("❌ read stored bars: %w", err)
		default:
			fmt.Fprintf(out, "   %s stored through %s\n", checkSymbol, latest.Format("2006-01-02"))
		}
	} else if a.cfg.SQLitePath != "" {
		fmt.Fprintf(out, "✅ Run history in SQLite (%s)\n", a.cfg.SQLitePath)
	} else {
		fmt.Fprintln(out, "ℹ️  No DATABASE_URL or SQLITE_PATH, runs are not recorded")
	}

	// Yahoo
	bars, err := a.yahoo.FetchBars(ctx, checkSymbol)
	if err != nil {
		return fmt.Errorf("❌ yahoo %s: %w", a.yahoo.Ticker(checkSymbol), err)
	}
	last := bars.Last()
	fmt.Fprintf(out, "✅ Yahoo %s: %d bars, last %s close %s\n",
		a.yahoo.Ticker(checkSymbol), bars.Len(), last.Date.Format("2006-01-02"), formatPrice(int64(last.Close)))

	// Universe
	symbols, err := a.universe(nil, "")
	if err != nil {
		fmt.Fprintf(out, "⚠️  Universe: %v\n", err)
	} else {
		fmt.Fprintf(out, "✅ Universe: %d symbols\n", len(symbols))

		if a.gate != nil {
			snap, err := a.gate.Check(ctx, symbols)
			if err != nil {
				return fmt.Errorf("❌ quality check: %w", err)
			}
			mark := "✅"
			if !snap.Passed {
				mark = "⚠️ "
			}
			fmt.Fprintf(out, "%s Stored bars: score %.2f, %d/%d valid through %s\n",
				mark, snap.QualityScore, snap.ValidSymbols, snap.TotalSymbols, snap.Date.Format("2006-01-02"))
		}
	}

	fmt.Fprintln(out, "\n✅ All checks passed!")
	return nil
}

// maskPassword hides the password of a connection URL
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
