package shader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#version 450\n"), 0o600))
}

func TestDiscover_SkipsUnrecognizedSuffixes(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	for _, name := range []string{"a.vert", "b.frag", "c.comp", "d.glsl", "e.vert.bak", "f.spv", "vert", "g.geom", "README.md"} {
		touch(t, filepath.Join(src, name))
	}

	units, err := Discover(context.Background(), DiscoverOptions{SourceDir: src, OutputDir: out})
	require.NoError(t, err)

	var names []string
	for _, u := range units {
		names = append(names, u.Name)
	}
	assert.Equal(t, []string{"a.vert", "b.frag", "c.comp"}, names)
}

func TestDiscover_OutputNamePreservesSuffix(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	touch(t, filepath.Join(src, "lit.frag"))
	touch(t, filepath.Join(src, "sky.vert"))
	touch(t, filepath.Join(src, "cull.comp"))

	units, err := Discover(context.Background(), DiscoverOptions{SourceDir: src, OutputDir: out})
	require.NoError(t, err)
	require.Len(t, units, 3)

	for _, u := range units {
		assert.Equal(t, u.Name+".spv", filepath.Base(u.OutputPath))
		assert.Equal(t, out, filepath.Dir(u.OutputPath))
	}
	assert.Equal(t, Compute, units[0].Stage)
	assert.Equal(t, Fragment, units[1].Stage)
	assert.Equal(t, Vertex, units[2].Stage)
}

func TestDiscover_IncludesSymlinkedSources(t *testing.T) {
	shared := t.TempDir()
	touch(t, filepath.Join(shared, "common.vert"))
	src := t.TempDir()
	touch(t, filepath.Join(src, "local.frag"))
	if err := os.Symlink(filepath.Join(shared, "common.vert"), filepath.Join(src, "common.vert")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	units, err := Discover(context.Background(), DiscoverOptions{SourceDir: src, OutputDir: t.TempDir()})
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "common.vert", units[0].Name)
	assert.Equal(t, Vertex, units[0].Stage)
	assert.Equal(t, "local.frag", units[1].Name)
}

func TestDiscover_EmptyDirectory(t *testing.T) {
	units, err := Discover(context.Background(), DiscoverOptions{SourceDir: t.TempDir(), OutputDir: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestDiscover_RecursiveAndFlat(t *testing.T) {
	src := t.TempDir()
	touch(t, filepath.Join(src, "top.vert"))
	touch(t, filepath.Join(src, "post", "bloom.frag"))

	flat, err := Discover(context.Background(), DiscoverOptions{SourceDir: src, OutputDir: src})
	require.NoError(t, err)
	require.Len(t, flat, 1)

	deep, err := Discover(context.Background(), DiscoverOptions{SourceDir: src, OutputDir: src, Recursive: true})
	require.NoError(t, err)
	require.Len(t, deep, 2)
	assert.Equal(t, filepath.Join(src, "bloom.frag.spv"), deep[0].OutputPath)
}

func TestDiscover_StageFilter(t *testing.T) {
	src := t.TempDir()
	touch(t, filepath.Join(src, "a.vert"))
	touch(t, filepath.Join(src, "b.comp"))

	units, err := Discover(context.Background(), DiscoverOptions{SourceDir: src, OutputDir: src, Stages: []Stage{Compute}})
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "b.comp", units[0].Name)
}

func TestDiscover_DuplicateOutput(t *testing.T) {
	src := t.TempDir()
	touch(t, filepath.Join(src, "a", "same.frag"))
	touch(t, filepath.Join(src, "b", "same.frag"))

	_, err := Discover(context.Background(), DiscoverOptions{SourceDir: src, OutputDir: t.TempDir(), Recursive: true})
	var dup *DuplicateOutputError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, filepath.Join(src, "a", "same.frag"), dup.First)
}

func TestParseStage(t *testing.T) {
	for in, want := range map[string]Stage{"vertex": Vertex, "frag": Fragment, ".comp": Compute, " Vert ": Vertex} {
		got, err := ParseStage(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseStage("geometry")
	require.Error(t, err)
}
