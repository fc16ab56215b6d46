package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"shaderstore/internal/config"
	"shaderstore/internal/generate"
	"shaderstore/internal/logging"
	"shaderstore/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	dryRun    bool
	forceInit bool
)

// generateCmd writes every header and both registries
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate shader headers and store registries",
	Long: `Scans the input directory and writes one header per shader file plus the
shader store and include store registries.

Name collisions are detected before anything is written. Files whose content
is already current are left untouched.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

// checkCmd compares the would-be output with the disk
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify generated files are up to date",
	Long: `Renders all output in memory and compares it against the files on disk.
Nothing is written. Exits with status 2 when any file is missing or stale.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

// namesCmd lists derived names
var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "List the symbol and header derived for every shader",
	Args:  cobra.NoArgs,
	RunE:  runNames,
}

// watchCmd regenerates on change
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate whenever a shader file changes",
	Long: `Runs a generation, then watches the shader directories and regenerates
after changes settle. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to --config",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	var opts []generate.Option
	if dryRun {
		opts = append(opts, generate.WithSink(&generate.FileSink{BOM: cfg.Output.WriteBOM, DryRun: true}))
	}
	g, err := newGenerator(opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := g.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), renderSummary(res, dryRun))
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	g, err := newGenerator()
	if err != nil {
		return err
	}
	report, err := g.Check(commandContext(cmd))
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), renderCheck(report))
	if !report.OK() {
		return errStale
	}
	return nil
}

func runNames(cmd *cobra.Command, args []string) error {
	g, err := newGenerator()
	if err != nil {
		return err
	}
	rows, err := g.Names(commandContext(cmd))
	if len(rows) > 0 {
		fmt.Fprint(cmd.OutOrStdout(), renderNames(rows))
	}
	return err
}

func runWatch(cmd *cobra.Command, args []string) error {
	g, err := newGenerator()
	if err != nil {
		return err
	}
	watchLog := logging.For(logger, logging.CategoryWatch)

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	regenerate := func(ctx context.Context) error {
		res, err := g.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), renderSummary(res, false))
		return nil
	}

	// Directory errors are fatal; anything else is reported and fixed by
	// editing the shaders while watching.
	if err := regenerate(ctx); err != nil {
		if errors.Is(err, generate.ErrInvalidInputDirectory) || errors.Is(err, generate.ErrInvalidOutputDirectory) {
			return err
		}
		watchLog.Error("Initial generation failed", zap.Error(err))
	}

	dirs, err := watchDirs(cfg)
	if err != nil {
		return err
	}
	w, err := watch.New(dirs, cfg.Input.Extension, cfg.GetDebounce(), regenerate, watchLog)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	watchLog.Info("Watching for shader changes", zap.Strings("dirs", dirs), zap.Duration("debounce", cfg.GetDebounce()))
	return serveWatch(ctx, w, watchLog)
}

// watchRunner is the part of watch.Watcher used by serveWatch.
type watchRunner interface {
	Run(ctx context.Context) error
	Stats() watch.Stats
}

// serveWatch runs w until ctx is cancelled or w stops on its own. Run only
// returns nil once ctx is done and otherwise fails with watch.ErrClosed, so
// the group context is always cancelled and the shutdown goroutine exits.
func serveWatch(ctx context.Context, w watchRunner, watchLog *zap.Logger) error {
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return w.Run(gctx)
	})
	eg.Go(func() error {
		<-gctx.Done()
		watchLog.Info("Stopping watch", zap.Int("runs", w.Stats().Runs))
		return nil
	})
	return eg.Wait()
}

// watchDirs lists the input directories plus every existing extension root,
// so that new module directories are picked up.
func watchDirs(c *config.Config) ([]string, error) {
	idx, err := generate.Scan(c, logging.For(logger, logging.CategoryWalk))
	if err != nil {
		return nil, err
	}
	dirs := generate.WatchDirs(idx)
	for _, root := range c.Input.ExtensionRoots {
		dir := c.ExtensionDir(root)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil && !forceInit {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}
	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}
	logger.Debug("Wrote default configuration", zap.String("path", configPath))
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
	return nil
}
