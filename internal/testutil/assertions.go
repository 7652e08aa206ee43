package testutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertCompiled checks that the log holds exactly one success record for
// the named shader. It hides the record wording from individual tests.
func AssertCompiled(t *testing.T, logs *SafeBuffer, shaderName string) {
	t.Helper()

	expected := fmt.Sprintf("Compiled %s to ", shaderName)
	require.Len(t, logs.LinesContaining(expected), 1,
		"expected one success record for %q in logs:\n%s", shaderName, logs.String())
}

// AssertCompileFailed checks that the log holds exactly one failure record
// for the named shader and that it carries the compiler's diagnostic.
func AssertCompileFailed(t *testing.T, logs *SafeBuffer, shaderName, diagnostic string) {
	t.Helper()

	lines := logs.LinesContaining(fmt.Sprintf("Failed to compile %s.", shaderName))
	require.Len(t, lines, 1,
		"expected one failure record for %q in logs:\n%s", shaderName, logs.String())
	require.Contains(t, lines[0], diagnostic)
}
