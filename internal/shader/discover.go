package shader

import (
	"context"
	"fmt"

	"github.com/vk/shaderbuild/internal/ctxlog"
	"github.com/vk/shaderbuild/internal/fsutil"
)

// DiscoverOptions selects what Discover scans and where artifacts go.
type DiscoverOptions struct {
	SourceDir string
	OutputDir string
	Recursive bool
	Stages    []Stage // empty means AllStages
}

// DuplicateOutputError reports two sources that would write the same
// artifact. This happens in recursive mode when two subdirectories hold a
// file with the same name.
type DuplicateOutputError struct {
	OutputPath string
	First      string
	Second     string
}

func (e *DuplicateOutputError) Error() string {
	return fmt.Sprintf("sources %s and %s both compile to %s", e.First, e.Second, e.OutputPath)
}

// Discover lists the units under opts.SourceDir in path order. Files with an
// unrecognized suffix and directories are skipped; an empty directory yields
// no units and no error.
func Discover(ctx context.Context, opts DiscoverOptions) ([]Unit, error) {
	logger := ctxlog.FromContext(ctx)
	stages := opts.Stages
	if len(stages) == 0 {
		stages = AllStages()
	}

	suffixes := make([]string, 0, len(stages))
	for _, st := range stages {
		suffixes = append(suffixes, st.Suffix())
	}

	logger.Debug("Scanning for shader sources.", "source_dir", opts.SourceDir, "recursive", opts.Recursive, "suffixes", suffixes)
	paths, err := fsutil.FindFilesBySuffix(opts.SourceDir, opts.Recursive, suffixes...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", opts.SourceDir, err)
	}

	units := make([]Unit, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		st, ok := StageOf(p, stages)
		if !ok {
			continue
		}
		u := NewUnit(p, opts.OutputDir, st)
		if prev, dup := seen[u.OutputPath]; dup {
			return nil, &DuplicateOutputError{OutputPath: u.OutputPath, First: prev, Second: p}
		}
		seen[u.OutputPath] = p
		units = append(units, u)
	}

	logger.Debug("Shader discovery finished.", "units", len(units))
	return units, nil
}
