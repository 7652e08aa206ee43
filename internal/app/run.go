package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/vk/shaderbuild/internal/builder"
	"github.com/vk/shaderbuild/internal/config"
	"github.com/vk/shaderbuild/internal/ctxlog"
	"github.com/vk/shaderbuild/internal/notify"
	"github.com/vk/shaderbuild/internal/placement"
	"github.com/vk/shaderbuild/internal/stats"
)

// BuildFailedError is returned when fail-on-error is set and at least one
// unit failed. Without that setting unit failures only show in the log.
type BuildFailedError struct {
	Failed      int
	PlaceFailed int
}

func (e *BuildFailedError) Error() string {
	return fmt.Sprintf("shader build failed: %d compile failure(s), %d placement failure(s)", e.Failed, e.PlaceFailed)
}

// runBuild resolves the configuration, then compiles and places every
// discovered shader.
func (a *App) runBuild(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	cfg, err := config.Resolve(ctx, a.config.Build)
	if err != nil {
		return err
	}
	if cfg.ProjectDir != "" {
		logger.Info("Shader builder working directory: "+cfg.ProjectDir, "project_dir", cfg.ProjectDir)
	}

	placer, err := placement.New(cfg.Placement)
	if err != nil {
		return &config.ConfigurationError{Field: "placement", Err: err}
	}

	opts := []builder.Option{builder.WithPlacer(placer)}
	if cfg.Notify.Enabled() {
		n, err := notify.Dial(ctx, cfg.Notify)
		if err != nil {
			logger.Warn("Build notifications disabled.", "url", cfg.Notify.URL, "error", err)
		} else {
			defer n.Close()
			opts = append(opts, builder.WithNotifier(n))
		}
	}

	logger.Debug("Starting shader build.", "compiler", cfg.Compiler, "output_dir", cfg.OutputDir)
	summary, err := builder.New(*cfg, opts...).Run(ctx)
	if err != nil {
		return err
	}

	if cfg.FailOnError && summary.HasFailures() {
		return &BuildFailedError{Failed: summary.Failed, PlaceFailed: summary.PlaceFailed}
	}
	return nil
}

// runStats prints line counts for the configured directories.
func (a *App) runStats(ctx context.Context) error {
	dirs := a.config.StatsDirs
	if len(dirs) == 0 {
		getenv := a.config.Build.Getenv
		if getenv == nil {
			getenv = os.Getenv
		}
		root := config.ProjectRoot(a.config.Build.ProjectDir, getenv)
		dirs = []string{filepath.Join(root, "src"), filepath.Join(root, config.ShadersSubdir)}
	}

	report, err := stats.Count(ctx, dirs...)
	if err != nil {
		return fmt.Errorf("failed to count lines: %w", err)
	}

	fmt.Fprintf(a.outW, "Total number of lines in all code files: %s\n\n", humanize.Comma(int64(report.Total())))
	for _, d := range report.Dirs {
		if !d.Exists {
			fmt.Fprintf(a.outW, "The directory %s does not exist.\n", d.Dir)
			continue
		}
		fmt.Fprintf(a.outW, "Total number of lines in all files in %s: %s (%d files)\n", d.Dir, humanize.Comma(int64(d.Lines)), d.Files)
	}
	return nil
}
