// Package main implements the crudprobe CLI: an automated CRUD and link
// exerciser that drives one authenticated browser session through a web
// application's route manifest and writes a CSV report.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crudprobe/internal/browser"
	"crudprobe/internal/config"
	"crudprobe/internal/exerciser"
	"crudprobe/internal/logging"
	"crudprobe/internal/report"
	"crudprobe/internal/routes"
	"crudprobe/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// run flags. Credentials come from flags or env, are held in memory for
	// the session, and are never written anywhere.
	baseURL      string
	manifestPath string
	identifier   string
	secret       string
	reportPath   string
	historyPath  string
	headless     bool
	seed         int64
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "crudprobe",
	Short: "crudprobe - automated CRUD and link exerciser for web applications",
	Long: `crudprobe drives a single authenticated browser session through a web
application's route manifest: it sweeps every simple page for load health,
then walks each CRUD resource through create, read, update, delete and any
special operations, classifying every outcome into a stable error taxonomy
and writing a CSV report.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

// runCmd executes a full exercise run
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full link sweep and CRUD exercise against a target",
	Long: `Runs the full exercise: authenticate, sweep the capped route list for
page-load health, then exercise each prioritized CRUD resource end to end.

Example:
  crudprobe run --base-url https://app.example.com \
    --manifest routes.json --identifier admin@example.com`,
	RunE: runExercise,
}

// routesCmd previews the catalog without touching a browser
var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Preview the filtered route catalog and resource grouping",
	RunE:  showRoutes,
}

// historyCmd lists archived runs
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent archived runs from the history store",
	RunE:  showHistory,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "crudprobe.yaml", "Config file path")

	for _, cmd := range []*cobra.Command{runCmd, routesCmd} {
		cmd.Flags().StringVar(&baseURL, "base-url", "", "Target application base URL")
		cmd.Flags().StringVar(&manifestPath, "manifest", "", "Route manifest JSON path")
	}
	runCmd.Flags().StringVar(&identifier, "identifier", "", "Login identifier (or CRUDPROBE_IDENTIFIER env)")
	runCmd.Flags().StringVar(&secret, "secret", "", "Login secret (or CRUDPROBE_SECRET env)")
	runCmd.Flags().StringVar(&reportPath, "report", "", "CSV report output path")
	runCmd.Flags().StringVar(&historyPath, "history", "", "SQLite history database path (empty disables)")
	runCmd.Flags().BoolVar(&headless, "headless", true, "Run Chrome headless")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 uses the clock)")
	historyCmd.Flags().StringVar(&historyPath, "history", "", "SQLite history database path")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(routesCmd)
	rootCmd.AddCommand(historyCmd)
}

// loadConfig merges the config file with command-line overrides.
func loadConfig() (config.Run, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if manifestPath != "" {
		cfg.ManifestPath = manifestPath
	}
	if identifier != "" {
		cfg.Identifier = identifier
	}
	if secret != "" {
		cfg.Secret = secret
	}
	if cfg.Identifier == "" {
		cfg.Identifier = os.Getenv("CRUDPROBE_IDENTIFIER")
	}
	if cfg.Secret == "" {
		cfg.Secret = os.Getenv("CRUDPROBE_SECRET")
	}
	if reportPath != "" {
		cfg.Output.ReportPath = reportPath
	}
	if historyPath != "" {
		cfg.Output.HistoryPath = historyPath
	}
	cfg.Browser.Headless = headless
	if cfg.BaseURL == "" {
		return cfg, fmt.Errorf("base URL is required (--base-url or config)")
	}
	return cfg, nil
}

func runExercise(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Identifier == "" || cfg.Secret == "" {
		return fmt.Errorf("credentials are required (--identifier/--secret or CRUDPROBE_* env)")
	}
	log := logging.Get(logging.CategoryRunner)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("interrupt received, finishing current operation")
		cancel()
	}()
	defer signal.Stop(sigCh)

	catalog := routes.LoadFile(cfg.ManifestPath, cfg.Limits)

	session := browser.New(cfg.BaseURL, cfg.Browser)
	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer func() {
		if err := session.Shutdown(); err != nil {
			log.Warn("browser shutdown", zap.Error(err))
		}
	}()

	runSeed := seed
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
	}

	started := time.Now()
	runner := exerciser.NewRunner(exerciser.RunContext{
		Config:  cfg,
		Catalog: catalog,
		Driver:  session,
		Seed:    runSeed,
	})
	runner.Start(ctx)

	for ev := range runner.Progress() {
		if ev.Latest != nil {
			fmt.Printf("[%s] %-22s %-8s %s\n",
				ev.Phase, ev.Latest.Type, ev.Latest.Status, ev.Latest.Label)
		} else {
			fmt.Printf("[%s] phase started\n", ev.Phase)
		}
	}

	results, _, runErr := runner.Wait()
	finished := time.Now()

	sink := report.NewSink()
	sink.AddAll(results)
	if err := sink.WriteCSV(cfg.Output.GetReportPath()); err != nil {
		// Results already collected; a broken report path should not discard them.
		log.Warn("could not write report", zap.Error(err))
	}

	if cfg.Output.HistoryPath != "" {
		archiveRun(ctx, cfg, started, finished, results, log)
	}

	sum := sink.Summarize()
	fmt.Printf("\n%d tested: %d passed, %d failed, %d errored, %d other\n",
		sum.Total, sum.Passed, sum.Failed, sum.Errored, sum.Unknown)
	fmt.Printf("report: %s\n", cfg.Output.GetReportPath())

	return runErr
}

// archiveRun saves the run to the history store. History is best-effort and
// never fails the run.
func archiveRun(ctx context.Context, cfg config.Run, started, finished time.Time, results []exerciser.TestResult, log *zap.Logger) {
	hist, err := store.Open(cfg.Output.HistoryPath)
	if err != nil {
		log.Warn("history store unavailable", zap.Error(err))
		return
	}
	defer hist.Close()
	if _, err := hist.SaveRun(ctx, cfg.BaseURL, started, finished, results); err != nil {
		log.Warn("could not archive run", zap.Error(err))
	}
}

func showRoutes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	catalog := routes.LoadFile(cfg.ManifestPath, cfg.Limits)

	uris := catalog.SimpleRoutes(nil)
	fmt.Printf("link sweep (%d routes):\n", len(uris))
	for _, uri := range uris {
		fmt.Printf("  %s\n", uri)
	}

	groups := routes.PrioritizeGroups(
		routes.GroupByResource(catalog.All()),
		cfg.Limits.GetMaxCrudResources(), nil)
	fmt.Printf("\ncrud resources (%d):\n", len(groups))
	for _, g := range groups {
		fmt.Printf("  %-32s", g.Resource)
		for kind := range g.Operations {
			fmt.Printf(" %s", kind)
		}
		fmt.Println()
	}
	return nil
}

func showHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if historyPath != "" {
		cfg.Output.HistoryPath = historyPath
	}
	if cfg.Output.HistoryPath == "" {
		return fmt.Errorf("no history path configured (--history or config)")
	}
	hist, err := store.Open(cfg.Output.HistoryPath)
	if err != nil {
		return err
	}
	defer hist.Close()

	runs, err := hist.RecentRuns(cmd.Context(), 20)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%s  %-40s %s  total=%d passed=%d failed=%d errored=%d\n",
			r.StartedAt.Format("2006-01-02 15:04"), r.BaseURL, r.ID,
			r.Total, r.Passed, r.Failed, r.Errored)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
