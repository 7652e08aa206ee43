package builder

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shaderbuild/internal/compiler"
	"github.com/vk/shaderbuild/internal/config"
	"github.com/vk/shaderbuild/internal/ctxlog"
	"github.com/vk/shaderbuild/internal/notify"
	"github.com/vk/shaderbuild/internal/placement"
	"github.com/vk/shaderbuild/internal/shader"
	"github.com/vk/shaderbuild/internal/testutil"
)

func TestMain(m *testing.M) {
	testutil.RunFakeCompilerIfRequested()
	os.Exit(m.Run())
}

// setupBuild prepares a source and output directory and a context whose
// logger writes into the returned buffer.
func setupBuild(t *testing.T) (context.Context, config.BuildConfig, *testutil.SafeBuffer) {
	t.Helper()
	logs := &testutil.SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	cfg := config.BuildConfig{
		SourceDir: t.TempDir(),
		OutputDir: t.TempDir(),
		Stages:    shader.AllStages(),
	}
	return ctx, cfg, logs
}

type recordingNotifier struct {
	events []notify.Event
}

func (r *recordingNotifier) Notify(_ context.Context, e notify.Event) { r.events = append(r.events, e) }
func (r *recordingNotifier) Close() error                              { return nil }

type failingPlacer struct{}

func (failingPlacer) Place(context.Context, string, string) (string, error) {
	return "/readonly/x.spv", errors.New("permission denied")
}
func (failingPlacer) String() string { return "/readonly" }

func TestRun_EmptySourceDirectory(t *testing.T) {
	ctx, cfg, logs := setupBuild(t)
	fake := testutil.NewFakeCompiler(t)
	cfg.Compiler = fake.Executable

	summary, err := New(cfg).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, summary.Results)
	assert.False(t, summary.HasFailures())
	assert.Empty(t, fake.Invocations(t))
	assert.Empty(t, logs.LinesContaining("level=ERROR"))
}

func TestRun_SingleVertexShader(t *testing.T) {
	ctx, cfg, logs := setupBuild(t)
	fake := testutil.NewFakeCompiler(t)
	cfg.Compiler = fake.Executable
	testutil.WriteShader(t, cfg.SourceDir, "tri.vert", "#version 450\nvoid main() {}\n")

	summary, err := New(cfg).Run(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, Succeeded, summary.Results[0].State)
	assert.Equal(t, 1, summary.Succeeded)

	want := filepath.Join(cfg.OutputDir, "tri.vert.spv")
	assert.FileExists(t, want)
	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	testutil.AssertCompiled(t, logs, "tri.vert")
	assert.Empty(t, logs.LinesContaining("level=ERROR"))
}

func TestRun_RejectedShaderDoesNotStopTheRun(t *testing.T) {
	ctx, cfg, logs := setupBuild(t)
	fake := testutil.NewFakeCompiler(t)
	cfg.Compiler = fake.Executable
	testutil.WriteShader(t, cfg.SourceDir, "a_bad.frag", "#version 450\n#error broken\n")
	testutil.WriteShader(t, cfg.SourceDir, "b_good.vert", "#version 450\n")

	summary, err := New(cfg).Run(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Results, 2)

	bad := summary.Results[0]
	assert.Equal(t, Failed, bad.State)
	var compErr *CompilationError
	require.True(t, errors.As(bad.Err, &compErr))
	assert.Contains(t, compErr.Diagnostic, "rejected by fake compiler")
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "a_bad.frag.spv"))

	assert.Equal(t, Succeeded, summary.Results[1].State)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "b_good.vert.spv"))

	testutil.AssertCompileFailed(t, logs, "a_bad.frag", "rejected by fake compiler")
	testutil.AssertCompiled(t, logs, "b_good.vert")
	assert.True(t, summary.HasFailures())
	assert.Len(t, fake.Invocations(t), 2)
}

func TestRun_MissingCompilerIsReportedPerUnit(t *testing.T) {
	ctx, cfg, logs := setupBuild(t)
	cfg.Compiler = filepath.Join(t.TempDir(), "glslc-not-installed")
	testutil.WriteShader(t, cfg.SourceDir, "a.vert", "void main() {}\n")
	testutil.WriteShader(t, cfg.SourceDir, "b.comp", "void main() {}\n")

	summary, err := New(cfg).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Failed)
	assert.Len(t, logs.LinesContaining("Failed to compile"), 2)
}

func TestRun_RemovesStaleArtifactOnFailure(t *testing.T) {
	ctx, cfg, _ := setupBuild(t)
	fake := testutil.NewFakeCompiler(t)
	cfg.Compiler = fake.Executable
	testutil.WriteShader(t, cfg.SourceDir, "lit.frag", "#error\n")
	stale := filepath.Join(cfg.OutputDir, "lit.frag.spv")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o600))

	_, err := New(cfg).Run(ctx)
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
}

func TestRun_Idempotent(t *testing.T) {
	ctx, cfg, _ := setupBuild(t)
	fake := testutil.NewFakeCompiler(t)
	cfg.Compiler = fake.Executable
	testutil.WriteShader(t, cfg.SourceDir, "a.vert", "#version 450\n")
	testutil.WriteShader(t, cfg.SourceDir, "b.frag", "#version 450\nout vec4 c;\n")

	read := func() map[string][]byte {
		out := map[string][]byte{}
		entries, err := os.ReadDir(cfg.OutputDir)
		require.NoError(t, err)
		for _, e := range entries {
			data, err := os.ReadFile(filepath.Join(cfg.OutputDir, e.Name()))
			require.NoError(t, err)
			out[e.Name()] = data
		}
		return out
	}

	_, err := New(cfg).Run(ctx)
	require.NoError(t, err)
	first := read()

	_, err = New(cfg).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, read())
	assert.Len(t, first, 2)
}

func TestRun_CopyPlacement(t *testing.T) {
	ctx, cfg, logs := setupBuild(t)
	fake := testutil.NewFakeCompiler(t)
	cfg.Compiler = fake.Executable
	testutil.WriteShader(t, cfg.SourceDir, "sky.vert", "#version 450\n")
	dest := filepath.Join(t.TempDir(), "deploy")

	summary, err := New(cfg, WithPlacer(placement.NewLocalCopy(dest))).Run(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, Copied, summary.Results[0].State)
	assert.Equal(t, 1, summary.Placed)

	primary, err := os.ReadFile(filepath.Join(cfg.OutputDir, "sky.vert.spv"))
	require.NoError(t, err)
	copied, err := os.ReadFile(filepath.Join(dest, "sky.vert.spv"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(primary, copied))
	assert.Len(t, logs.LinesContaining("Copied "), 1)
}

func TestRun_PlacementFailureIsDistinct(t *testing.T) {
	ctx, cfg, logs := setupBuild(t)
	fake := testutil.NewFakeCompiler(t)
	cfg.Compiler = fake.Executable
	testutil.WriteShader(t, cfg.SourceDir, "x.comp", "#version 450\n")
	testutil.WriteShader(t, cfg.SourceDir, "y.comp", "#version 450\n")

	summary, err := New(cfg, WithPlacer(failingPlacer{})).Run(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Results, 2)
	for _, res := range summary.Results {
		assert.Equal(t, CopyFailed, res.State)
		var placeErr *PlacementError
		require.True(t, errors.As(res.Err, &placeErr))
		var compErr *CompilationError
		assert.False(t, errors.As(res.Err, &compErr))
		assert.FileExists(t, res.Unit.OutputPath)
	}
	assert.Equal(t, 2, summary.PlaceFailed)
	assert.Equal(t, 0, summary.Failed)
	assert.Len(t, logs.LinesContaining("Failed to copy"), 2)
	assert.Empty(t, logs.LinesContaining("Failed to compile"))
}

func TestRun_CopyIntoOutputDirKeepsArtifact(t *testing.T) {
	ctx, cfg, logs := setupBuild(t)
	fake := testutil.NewFakeCompiler(t)
	cfg.Compiler = fake.Executable
	testutil.WriteShader(t, cfg.SourceDir, "sky.vert", "#version 450\n")

	summary, err := New(cfg, WithPlacer(placement.NewLocalCopy(cfg.OutputDir))).Run(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, CopyFailed, summary.Results[0].State)

	info, err := os.Stat(filepath.Join(cfg.OutputDir, "sky.vert.spv"))
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
	assert.Empty(t, logs.LinesContaining("Copied "))
	assert.Len(t, logs.LinesContaining("Failed to copy"), 1)
}

func TestRun_DuplicateOutputIsConfigurationError(t *testing.T) {
	ctx, cfg, _ := setupBuild(t)
	fake := testutil.NewFakeCompiler(t)
	cfg.Compiler = fake.Executable
	cfg.Recursive = true
	testutil.WriteShader(t, cfg.SourceDir, "a/post.frag", "#version 450\n")
	testutil.WriteShader(t, cfg.SourceDir, "b/post.frag", "#version 450\n")

	_, err := New(cfg).Run(ctx)
	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Empty(t, fake.Invocations(t))
}

func TestRun_NotifiesEachUnit(t *testing.T) {
	ctx, cfg, _ := setupBuild(t)
	fake := testutil.NewFakeCompiler(t)
	cfg.Compiler = fake.Executable
	testutil.WriteShader(t, cfg.SourceDir, "a.vert", "#version 450\n")
	testutil.WriteShader(t, cfg.SourceDir, "b.frag", "#error\n")

	rec := &recordingNotifier{}
	_, err := New(cfg, WithNotifier(rec)).Run(ctx)
	require.NoError(t, err)
	require.Len(t, rec.events, 2)
	assert.True(t, rec.events[0].OK)
	assert.Equal(t, shader.Vertex, rec.events[0].Stage)
	assert.False(t, rec.events[1].OK)
	assert.True(t, strings.Contains(rec.events[1].Error, "b.frag"))
}

type stubCompiler struct {
	err error
}

func (s stubCompiler) Compile(context.Context, string, string) (*compiler.Result, error) {
	return &compiler.Result{Output: "stub output"}, s.err
}

func TestBuildUnit_DiagnosticFallsBackToOutput(t *testing.T) {
	ctx, cfg, _ := setupBuild(t)
	u := shader.NewUnit(filepath.Join(cfg.SourceDir, "a.vert"), cfg.OutputDir, shader.Vertex)

	res := New(cfg, WithCompiler(stubCompiler{err: errors.New("boom")})).BuildUnit(ctx, u)
	assert.Equal(t, Failed, res.State)
	assert.Equal(t, "stub output", res.Diagnostic)
}

func TestState_Transitions(t *testing.T) {
	assert.True(t, Pending.CanTransition(Invoking))
	assert.True(t, Invoking.CanTransition(Succeeded))
	assert.True(t, Invoking.CanTransition(Failed))
	assert.True(t, Succeeded.CanTransition(Copied))
	assert.True(t, Succeeded.CanTransition(CopyFailed))

	assert.False(t, Pending.CanTransition(Succeeded))
	assert.False(t, Failed.CanTransition(Copied))
	assert.False(t, Copied.CanTransition(CopyFailed))
	assert.True(t, CopyFailed.Compiled())
	assert.False(t, Failed.Compiled())
	assert.Equal(t, "copy_failed", CopyFailed.String())
}
