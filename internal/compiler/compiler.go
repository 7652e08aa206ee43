// Package compiler invokes the external GLSL to SPIR-V compiler as a
// subprocess. The compiler is an opaque tool: this package only builds its
// command line, waits for it to exit and captures what it printed.
package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/vk/shaderbuild/internal/ctxlog"
)

// Compiler turns one shader source into one SPIR-V artifact.
type Compiler interface {
	Compile(ctx context.Context, input, output string) (*Result, error)
}

// Result is what the subprocess left behind, whether it succeeded or not.
type Result struct {
	Args     []string
	ExitCode int
	Output   string // combined stdout and stderr
}

// RunError is returned when the compiler could not be started or exited
// with a nonzero status.
type RunError struct {
	Args     []string
	ExitCode int // -1 when the process never ran
	Output   string
	Err      error
}

func (e *RunError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("failed to run %s: %v", strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("%s exited with status %d", e.Args[0], e.ExitCode)
}

func (e *RunError) Unwrap() error { return e.Err }

// Diagnostic returns the compiler's own text when it printed any, falling
// back to the process error.
func (e *RunError) Diagnostic() string {
	if out := strings.TrimSpace(e.Output); out != "" {
		return out
	}
	return e.Error()
}

// Glslc runs a glslc-compatible executable as
// "<Executable> [Args...] <input> -o <output>".
type Glslc struct {
	Executable string
	Args       []string
	Env        []string // appended to the current environment
}

// NewGlslc returns a Glslc for the given executable name.
func NewGlslc(executable string, args ...string) *Glslc {
	return &Glslc{Executable: executable, Args: args}
}

// Command returns the argument vector used for one compilation.
func (g *Glslc) Command(input, output string) []string {
	argv := make([]string, 0, len(g.Args)+4)
	argv = append(argv, g.Executable)
	argv = append(argv, g.Args...)
	return append(argv, input, "-o", output)
}

// Compile runs the compiler and blocks until it exits. No timeout is
// applied beyond whatever ctx carries.
func (g *Glslc) Compile(ctx context.Context, input, output string) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	argv := g.Command(input, output)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if len(g.Env) > 0 {
		cmd.Env = append(os.Environ(), g.Env...)
	}

	logger.Debug("Invoking shader compiler.", "args", argv)
	err := cmd.Run()
	res := &Result{Args: argv, Output: buf.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else {
		res.ExitCode = -1
	}
	return res, &RunError{Args: argv, ExitCode: res.ExitCode, Output: res.Output, Err: err}
}
