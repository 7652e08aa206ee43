package builder

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/vk/shaderbuild/internal/compiler"
	"github.com/vk/shaderbuild/internal/config"
	"github.com/vk/shaderbuild/internal/ctxlog"
	"github.com/vk/shaderbuild/internal/notify"
	"github.com/vk/shaderbuild/internal/placement"
	"github.com/vk/shaderbuild/internal/shader"
)

// Result is the outcome of one unit.
type Result struct {
	Unit       shader.Unit
	State      State
	Err        error // *CompilationError or *PlacementError
	Diagnostic string
	Size       int64
	Placed     string
}

func (r *Result) advance(next State) {
	if !r.State.CanTransition(next) {
		panic(fmt.Sprintf("builder: invalid transition %s -> %s for %s", r.State, next, r.Unit.Name))
	}
	r.State = next
}

// Summary aggregates the results of a run.
type Summary struct {
	RunID       string
	Results     []Result
	Succeeded   int
	Failed      int
	Placed      int
	PlaceFailed int
}

// HasFailures reports whether any unit failed to compile or to be placed.
func (s *Summary) HasFailures() bool {
	return s.Failed > 0 || s.PlaceFailed > 0
}

// Builder runs the compile-and-place pipeline for one BuildConfig.
type Builder struct {
	cfg      config.BuildConfig
	compiler compiler.Compiler
	placer   placement.Placer
	notifier notify.Notifier
}

// Option customizes a Builder.
type Option func(*Builder)

// WithCompiler replaces the subprocess compiler.
func WithCompiler(c compiler.Compiler) Option {
	return func(b *Builder) { b.compiler = c }
}

// WithPlacer sets the secondary placement step. A nil placer means direct
// placement.
func WithPlacer(p placement.Placer) Option {
	return func(b *Builder) { b.placer = p }
}

// WithNotifier sets where unit events are published.
func WithNotifier(n notify.Notifier) Option {
	return func(b *Builder) { b.notifier = n }
}

// New returns a Builder for cfg. Without options it invokes cfg.Compiler,
// places artifacts directly and publishes nothing.
func New(cfg config.BuildConfig, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		compiler: compiler.NewGlslc(cfg.Compiler, cfg.CompilerArgs...),
		notifier: notify.Nop{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Discover lists the units for the configured source directory. Two sources
// competing for one artifact path is a configuration problem.
func (b *Builder) Discover(ctx context.Context) ([]shader.Unit, error) {
	units, err := shader.Discover(ctx, shader.DiscoverOptions{
		SourceDir: b.cfg.SourceDir,
		OutputDir: b.cfg.OutputDir,
		Recursive: b.cfg.Recursive,
		Stages:    b.cfg.Stages,
	})
	if err != nil {
		var dup *shader.DuplicateOutputError
		if errors.As(err, &dup) {
			return nil, &config.ConfigurationError{Field: "source_dir", Err: err}
		}
		return nil, err
	}
	return units, nil
}

// Run discovers every unit and builds them one after another. Unit failures
// are recorded in the summary and never returned as errors; only discovery
// problems are.
func (b *Builder) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.NewString()
	ctx, logger := ctxlog.With(ctx, "run_id", runID)

	units, err := b.Discover(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("Discovered shader sources.", "source_dir", b.cfg.SourceDir, "count", len(units))

	if p, ok := b.placer.(placement.Preparer); ok && len(units) > 0 {
		if err := p.Prepare(ctx); err != nil {
			logger.Warn("Placement destination is not ready.", "destination", b.placer.String(), "error", err)
		}
	}

	summary := &Summary{RunID: runID, Results: make([]Result, 0, len(units))}
	for _, u := range units {
		res := b.BuildUnit(ctx, u)
		summary.Results = append(summary.Results, res)
		switch res.State {
		case Succeeded:
			summary.Succeeded++
		case Copied:
			summary.Succeeded++
			summary.Placed++
		case CopyFailed:
			summary.Succeeded++
			summary.PlaceFailed++
		case Failed:
			summary.Failed++
		}
	}

	logger.Info("Shader build finished.",
		"units", len(units),
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"placed", summary.Placed,
		"place_failed", summary.PlaceFailed,
	)
	return summary, nil
}

// BuildUnit compiles u and, on success, places the artifact. It always
// returns a terminal result.
func (b *Builder) BuildUnit(ctx context.Context, u shader.Unit) Result {
	ctx, logger := ctxlog.With(ctx, "shader", u.Name, "stage", string(u.Stage))
	res := Result{Unit: u, State: Pending}

	res.advance(Invoking)
	out, err := b.compiler.Compile(ctx, u.SourcePath, u.OutputPath)
	if err != nil {
		res.advance(Failed)
		res.Diagnostic = diagnosticOf(out, err)
		res.Err = &CompilationError{Unit: u, Diagnostic: res.Diagnostic, Err: err}
		// A rejected source must not leave an older artifact looking current.
		if rmErr := os.Remove(u.OutputPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warn("Failed to remove stale artifact.", "output", u.OutputPath, "error", rmErr)
		}
		logger.Error(fmt.Sprintf("Failed to compile %s.", u.Name),
			"input", u.SourcePath,
			"error", err,
			"diagnostic", res.Diagnostic,
		)
		b.notify(ctx, res)
		return res
	}

	res.advance(Succeeded)
	if info, statErr := os.Stat(u.OutputPath); statErr == nil {
		res.Size = info.Size()
	}
	logger.Info(fmt.Sprintf("Compiled %s to %s.", u.Name, u.OutputPath),
		"input", u.SourcePath,
		"output", u.OutputPath,
		"size", humanize.Bytes(uint64(res.Size)),
	)

	if b.placer != nil {
		dest, err := b.placer.Place(ctx, u.OutputPath, shader.OutputName(u.Name))
		res.Placed = dest
		if err != nil {
			res.advance(CopyFailed)
			res.Err = &PlacementError{Unit: u, Destination: dest, Err: err}
			logger.Error(fmt.Sprintf("Failed to copy %s to %s.", u.OutputPath, dest), "error", err)
		} else {
			res.advance(Copied)
			logger.Info(fmt.Sprintf("Copied %s to %s.", u.OutputPath, dest), "source", u.OutputPath, "destination", dest)
		}
	}

	b.notify(ctx, res)
	return res
}

func (b *Builder) notify(ctx context.Context, res Result) {
	e := notify.Event{
		Shader: res.Unit.Name,
		Stage:  res.Unit.Stage,
		Output: res.Unit.OutputPath,
		Placed: res.Placed,
		OK:     res.Err == nil,
	}
	if res.Err != nil {
		e.Error = res.Err.Error()
	}
	b.notifier.Notify(ctx, e)
}

func diagnosticOf(out *compiler.Result, err error) string {
	var runErr *compiler.RunError
	if errors.As(err, &runErr) {
		return runErr.Diagnostic()
	}
	if out != nil && out.Output != "" {
		return out.Output
	}
	return err.Error()
}
