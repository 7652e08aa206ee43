package builder

import (
	"fmt"

	"github.com/vk/shaderbuild/internal/shader"
)

// CompilationError is a recoverable per-unit failure: the compiler rejected
// the source, or could not be started at all.
type CompilationError struct {
	Unit       shader.Unit
	Diagnostic string
	Err        error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("failed to compile %s: %v", e.Unit.Name, e.Err)
}

func (e *CompilationError) Unwrap() error { return e.Err }

// PlacementError is a recoverable per-unit failure of the secondary
// placement step. The primary artifact is left where the compiler wrote it.
type PlacementError struct {
	Unit        shader.Unit
	Destination string
	Err         error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("failed to place %s at %s: %v", e.Unit.OutputPath, e.Destination, e.Err)
}

func (e *PlacementError) Unwrap() error { return e.Err }
