// Package platform maps the host operating system to the names of the
// external tools the build invokes.
package platform

import (
	"runtime"
	"strings"
)

// DefaultCompiler is the base name of the GLSL to SPIR-V compiler.
const DefaultCompiler = "glslc"

// IsWindows reports whether goos belongs to the Windows family.
func IsWindows(goos string) bool {
	return goos == "windows"
}

// ExecutableName returns the invocable name of base on goos. Windows hosts
// get a ".exe" suffix unless base already carries one; every other platform
// uses base unchanged. The name is resolved against PATH only when the
// process is started.
func ExecutableName(goos, base string) string {
	if !IsWindows(goos) {
		return base
	}
	if strings.HasSuffix(strings.ToLower(base), ".exe") {
		return base
	}
	return base + ".exe"
}

// HostExecutableName is ExecutableName for the running platform.
func HostExecutableName(base string) string {
	return ExecutableName(runtime.GOOS, base)
}
