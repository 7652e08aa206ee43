package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shaderbuild/internal/testutil"
)

func TestMain(m *testing.M) {
	testutil.RunFakeCompilerIfRequested()
	os.Exit(m.Run())
}

func TestGlslc_Command(t *testing.T) {
	g := NewGlslc("glslc", "--target-env=vulkan1.2", "-O")
	assert.Equal(t,
		[]string{"glslc", "--target-env=vulkan1.2", "-O", "in.vert", "-o", "out/in.vert.spv"},
		g.Command("in.vert", "out/in.vert.spv"))
}

func TestGlslc_CompileSuccess(t *testing.T) {
	fake := testutil.NewFakeCompiler(t)
	dir := t.TempDir()
	in := testutil.WriteShader(t, dir, "tri.vert", "#version 450\nvoid main() {}\n")
	out := filepath.Join(dir, "tri.vert.spv")

	res, err := NewGlslc(fake.Executable).Compile(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), testutil.ArtifactHeader))
	assert.Equal(t, []string{in + " -o " + out}, fake.Invocations(t))
}

func TestGlslc_CompileRejected(t *testing.T) {
	fake := testutil.NewFakeCompiler(t)
	dir := t.TempDir()
	in := testutil.WriteShader(t, dir, "bad.frag", "#version 450\n#error nope\n")
	out := filepath.Join(dir, "bad.frag.spv")

	res, err := NewGlslc(fake.Executable).Compile(context.Background(), in, out)
	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, 1, runErr.ExitCode)
	assert.Equal(t, 1, res.ExitCode)
	assert.Contains(t, runErr.Diagnostic(), "rejected by fake compiler")
	assert.NoFileExists(t, out)
}

func TestGlslc_ExecutableNotFound(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteShader(t, dir, "tri.vert", "void main() {}\n")

	g := NewGlslc(filepath.Join(dir, "no-such-glslc"))
	_, err := g.Compile(context.Background(), in, in+".spv")

	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, -1, runErr.ExitCode)
	assert.Contains(t, runErr.Diagnostic(), "failed to run")
}
