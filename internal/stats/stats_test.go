package stats

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestCountLines(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]int{
		"":               0,
		"one":            1,
		"one\n":          1,
		"one\ntwo":       2,
		"one\ntwo\n":     2,
		"\n\n\n":         3,
		"a\r\nb\r\nc\n":  3,
		"\x00\xff\n\xfe": 2,
	}
	i := 0
	for body, want := range cases {
		path := filepath.Join(dir, "f"+string(rune('a'+i)))
		i++
		write(t, path, body)
		got, err := CountLines(path)
		require.NoError(t, err)
		assert.Equal(t, want, got, "body %q", body)
	}
}

func TestCount(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	shaders := filepath.Join(root, "shaders")
	write(t, filepath.Join(src, "main.cpp"), "int main() {\n  return 0;\n}\n")
	write(t, filepath.Join(src, "core", "engine.h"), "#pragma once\n")
	write(t, filepath.Join(shaders, "tri.vert"), "#version 450\nvoid main() {}\n")

	report, err := Count(context.Background(), src, shaders, filepath.Join(root, "missing"))
	require.NoError(t, err)
	require.Len(t, report.Dirs, 3)

	assert.Equal(t, 4, report.Dirs[0].Lines)
	assert.Equal(t, 2, report.Dirs[0].Files)
	assert.Equal(t, 2, report.Dirs[1].Lines)
	assert.False(t, report.Dirs[2].Exists)
	assert.Equal(t, 0, report.Dirs[2].Lines)
	assert.Equal(t, 6, report.Total())
}
