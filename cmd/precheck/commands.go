package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/precheck/precheck/internal/cache"
	"github.com/precheck/precheck/internal/changes"
	"github.com/precheck/precheck/internal/config"
	"github.com/precheck/precheck/internal/executor"
	"github.com/precheck/precheck/internal/planner"
	"github.com/precheck/precheck/internal/report"
	"github.com/precheck/precheck/internal/repostate"
	"github.com/precheck/precheck/internal/watch"
)

// version is set via -ldflags at build time.
var version = "dev"

var (
	runChangedOnly bool
	runFailFast    bool
	runNoFailFast  bool
	runWorkers     int
)

var errChecksFailed = errors.New("checks failed")

func init() {
	runCmd := &cobra.Command{
		Use:   "run [CHECK...]",
		Short: "Run checks (all by default, or only the named ones)",
		RunE:  runRun,
	}
	runCmd.Flags().BoolVar(&runChangedOnly, "changed-only", false, "only run checks whose inputs match files changed since HEAD")
	runCmd.Flags().BoolVar(&runFailFast, "fail-fast", false, "skip remaining checks after the first failure")
	runCmd.Flags().BoolVar(&runNoFailFast, "no-fail-fast", false, "run everything even after a failure")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "parallel workers per phase (default: CPU count)")
	rootCmd.AddCommand(runCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last green run and cache occupancy",
		RunE:  runStatus,
	}
	rootCmd.AddCommand(statusCmd)

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the result cache",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show cache occupancy",
		RunE:  runCacheInfo,
	})
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop all cached results and the last green run record",
		RunE:  runCacheClear,
	})
	rootCmd.AddCommand(cacheCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run checks whenever repository files change",
		RunE:  runWatch,
	}
	rootCmd.AddCommand(watchCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the precheck version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("precheck", version)
		},
	}
	rootCmd.AddCommand(versionCmd)
}

func repoRoot() (string, error) {
	return os.Getwd()
}

func loadConfig(root string) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath(root)
	}
	return config.Load(path)
}

// stateDir resolves the state directory relative to the repository root.
func stateDir(root string, cfg *config.Config) string {
	dir := cfg.General.StateDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return dir
}

func cataloguePath(root string, cfg *config.Config) string {
	path := cfg.General.Catalogue
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	return path
}

func openStores(root string, cfg *config.Config) (*cache.Store, *repostate.Store, error) {
	dir := stateDir(root, cfg)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, err
	}
	store, err := cache.New(filepath.Join(dir, "cache.db"), slog.Default())
	if err != nil {
		return nil, nil, err
	}
	return store, repostate.New(dir), nil
}

func buildExecutor(root string, cfg *config.Config) (*executor.Executor, *cache.Store, error) {
	store, state, err := openStores(root, cfg)
	if err != nil {
		return nil, nil, err
	}

	workers := cfg.General.Workers
	if runWorkers > 0 {
		workers = runWorkers
	}
	failFast := cfg.General.FailFast
	if runFailFast {
		failFast = true
	}
	if runNoFailFast {
		failFast = false
	}

	exe := executor.New(executor.Config{
		Root:           root,
		Workers:        workers,
		FailFast:       failFast,
		DefaultTimeout: cfg.Timeout(),
		Version:        version,
	}, store, state, slog.Default())
	return exe, store, nil
}

// buildSelection resolves named checks and the changed-only flag into a
// planner selection. When git cannot report changes the narrowing is
// dropped and everything runs.
func buildSelection(ctx context.Context, root string, cfg *config.Config, args []string) planner.Selection {
	sel := planner.Selection{Checks: args}

	if runChangedOnly || cfg.General.ChangedOnly {
		paths, ok := changes.NewDetector(root).ChangedPaths(ctx)
		if !ok {
			slog.Warn("cannot determine changed files, running all checks")
			return sel
		}
		sel.ChangedOnly = true
		sel.Changed = paths
	}
	return sel
}

func runRun(cmd *cobra.Command, args []string) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	catalogue, err := config.LoadCatalogue(cataloguePath(root, cfg))
	if err != nil {
		return err
	}

	exe, store, err := buildExecutor(root, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rs, err := exe.Run(ctx, catalogue, buildSelection(ctx, root, cfg, args))
	if err != nil {
		return err
	}

	fmt.Print(report.Summary(rs))
	if out := report.Failures(rs); out != "" {
		fmt.Print(out)
	}

	if len(rs.Failed()) > 0 {
		return errChecksFailed
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	store, state, err := openStores(root, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Len()
	if err != nil {
		return err
	}
	size, err := store.Size()
	if err != nil {
		return err
	}

	fmt.Print(report.Status(state.Load(), entries, size))
	return nil
}

func runCacheInfo(cmd *cobra.Command, args []string) error {
	return runStatus(cmd, args)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	store, state, err := openStores(root, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(); err != nil {
		return err
	}
	if err := state.Clear(); err != nil {
		return err
	}
	fmt.Println("cache cleared")
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	exe, store, err := buildExecutor(root, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Runs are serialized; a batch arriving mid-run queues exactly one
	// follow-up via the fingerprint check in the next invocation.
	var runMu sync.Mutex
	doRun := func() {
		runMu.Lock()
		defer runMu.Unlock()

		// The catalogue is reloaded every cycle so edits to it take
		// effect without restarting the watcher.
		catalogue, err := config.LoadCatalogue(cataloguePath(root, cfg))
		if err != nil {
			slog.Error("catalogue load failed", "error", err)
			return
		}
		rs, err := exe.Run(ctx, catalogue, planner.Selection{})
		if err != nil {
			slog.Error("run failed", "error", err)
			return
		}
		fmt.Print(report.Summary(rs))
	}

	w, err := watch.New(root, func(paths []string) {
		slog.Debug("changes detected", "files", len(paths))
		doRun()
	}, slog.Default())
	if err != nil {
		return err
	}
	defer w.Stop()
	w.SetDebounce(cfg.Debounce())
	w.Start(ctx)

	if expr := cfg.Watch.Schedule; expr != "" {
		sched, err := watch.ParseSchedule(expr)
		if err != nil {
			return fmt.Errorf("watch schedule: %w", err)
		}
		go watch.RunOnSchedule(ctx, sched, doRun)
	}

	fmt.Println("watching for changes (ctrl-c to stop)")
	doRun()

	<-ctx.Done()
	return nil
}
