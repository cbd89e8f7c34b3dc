package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/cruzer/internal/scheduler"
	"github.com/wonny/cruzer/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Daily job scheduler",
	Long: `Runs the after-close jobs on cron specs evaluated in WIB.

Subcommands:
  start   - start the scheduler daemon
  list    - registered jobs and their next run
  run     - run one job now and wait for it

Example:
  go run ./cmd/screener scheduler start
  go run ./cmd/screener scheduler list
  go run ./cmd/screener scheduler run screening`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		Long: `Starts the scheduler and registers:
- collection: SCHEDULE_COLLECT_CRON (default 17:15 WIB Mon-Fri, needs DATABASE_URL)
- screening:  SCHEDULE_SCREEN_CRON (default 17:30 WIB Mon-Fri, every strategy)

Stop with Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, sched, err := initScheduler(ctx)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	sched.Start()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\n✅ Scheduler started")
	printJobs(cmd, sched)
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Fprintln(out, "\nShutting down scheduler...")
	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler(context.Background())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	// entries only get a next time once cron is running
	sched.Start()
	defer sched.Stop()

	printJobs(cmd, sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, sched, err := initScheduler(ctx)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	go func() {
		<-ctx.Done()
		sched.Stop()
	}()

	result, err := sched.RunJobSync(args[0])
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("job %s failed: %s", result.JobName, result.Error)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ %s completed in %.1fs\n", result.JobName, result.Duration.Seconds())
	return nil
}

func printJobs(cmd *cobra.Command, sched *scheduler.Scheduler) {
	out := cmd.OutOrStdout()
	stats := sched.GetJobStats()

	rows := make([][]string, 0, len(stats))
	for _, name := range sched.GetAllJobs() {
		next := "-"
		if t, ok := sched.NextRun(name); ok {
			next = t.In(scheduler.WIB).Format("2006-01-02 15:04 MST")
		}
		rows = append(rows, []string{name, stats[name].Schedule, next})
	}

	fmt.Fprintln(out, "\nRegistered jobs:")
	printTable(out, []string{"JOB", "SCHEDULE", "NEXT RUN"}, []int{12, 18, 22}, rows)
}

func initScheduler(ctx context.Context) (*app, *scheduler.Scheduler, error) {
	a, err := newApp(ctx)
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(a.log)
	universe := a.universeFunc()

	if a.collector != nil {
		job := jobs.NewCollectionJob(a.collector, universe, a.cfg.Screener.Workers, a.cfg.Schedule.CollectCron, a.log).
			WithQualityGate(a.gate)
		if err := sched.AddJob(job); err != nil {
			a.Close()
			return nil, nil, err
		}
	}

	strategies := make([]string, 0, 3)
	for _, id := range a.engine.Strategies() {
		strategies = append(strategies, string(id))
	}
	if err := sched.AddJob(jobs.NewScreeningJob(a.engine, universe, strategies, a.cfg.Schedule.ScreenCron, a.log)); err != nil {
		a.Close()
		return nil, nil, err
	}

	return a, sched, nil
}
