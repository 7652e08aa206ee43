package testutil

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	fakeCompilerEnv    = "SHADERBUILD_FAKE_GLSLC"
	fakeCompilerLogEnv = "SHADERBUILD_FAKE_GLSLC_LOG"

	// RejectMarker makes the fake compiler fail on any source containing it.
	RejectMarker = "#error"
	// ArtifactHeader prefixes every artifact the fake compiler writes.
	ArtifactHeader = "SPIRV-FAKE\n"
)

// RunFakeCompilerIfRequested turns the current test binary into a
// glslc-like compiler when the parent test asked for it. Call it first
// thing in TestMain; it never returns in compiler mode.
func RunFakeCompilerIfRequested() {
	if os.Getenv(fakeCompilerEnv) != "1" {
		return
	}
	os.Exit(fakeCompile(os.Args[1:]))
}

func fakeCompile(args []string) int {
	if logPath := os.Getenv(fakeCompilerLogEnv); logPath != "" {
		f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err == nil {
			fmt.Fprintln(f, strings.Join(args, " "))
			f.Close()
		}
	}

	var input, output string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-o" && i+1 < len(args):
			output = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-"):
		default:
			input = args[i]
		}
	}
	if input == "" || output == "" {
		fmt.Fprintln(os.Stderr, "glslc: error: no input files")
		return 2
	}

	src, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "glslc: error: cannot open input file: '%s'\n", input)
		return 2
	}
	if bytes.Contains(src, []byte(RejectMarker)) {
		fmt.Fprintf(os.Stderr, "%s:1: error: '#error' : rejected by fake compiler\n1 error generated.\n", input)
		return 1
	}
	if err := os.WriteFile(output, append([]byte(ArtifactHeader), src...), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "glslc: error: cannot write output file: '%s'\n", output)
		return 2
	}
	return 0
}

// FakeCompiler is a handle on the fake compiler configured for one test.
type FakeCompiler struct {
	Executable string
	logPath    string
}

// NewFakeCompiler points child processes of the test binary at the fake
// compiler and returns the path to invoke. The package under test must
// call RunFakeCompilerIfRequested from TestMain.
func NewFakeCompiler(t *testing.T) *FakeCompiler {
	t.Helper()
	exe, err := os.Executable()
	require.NoError(t, err)

	logPath := filepath.Join(t.TempDir(), "invocations.log")
	t.Setenv(fakeCompilerEnv, "1")
	t.Setenv(fakeCompilerLogEnv, logPath)
	return &FakeCompiler{Executable: exe, logPath: logPath}
}

// Invocations returns the argument lists the fake compiler received, in order.
func (f *FakeCompiler) Invocations(t *testing.T) []string {
	t.Helper()
	file, err := os.Open(f.logPath)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	defer file.Close()

	var lines []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

// WriteShader creates a shader source under dir with the given body.
func WriteShader(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}
