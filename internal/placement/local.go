package placement

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vk/shaderbuild/internal/fsutil"
)

// LocalCopy copies artifacts into a directory on the local file system.
type LocalCopy struct {
	Dir string
}

// NewLocalCopy returns a placer copying into dir.
func NewLocalCopy(dir string) *LocalCopy {
	return &LocalCopy{Dir: dir}
}

func (l *LocalCopy) String() string { return l.Dir }

// Prepare creates the destination directory.
func (l *LocalCopy) Prepare(ctx context.Context) error {
	return fsutil.EnsureDir(l.Dir)
}

// Place copies path to Dir/name, replacing any previous copy.
func (l *LocalCopy) Place(ctx context.Context, path, name string) (string, error) {
	dest := filepath.Join(l.Dir, name)

	src, err := os.Open(path)
	if err != nil {
		return dest, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer src.Close()

	srcInfo, err := src.Stat()
	if err != nil {
		return dest, fmt.Errorf("failed to stat artifact: %w", err)
	}
	// Truncating dest would empty the artifact we are about to read.
	if destInfo, err := os.Stat(dest); err == nil && os.SameFile(srcInfo, destInfo) {
		return dest, fmt.Errorf("destination %s is the artifact itself", dest)
	}

	dst, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return dest, fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return dest, fmt.Errorf("failed to copy to %s: %w", dest, err)
	}
	if err := dst.Close(); err != nil {
		return dest, fmt.Errorf("failed to close %s: %w", dest, err)
	}
	return dest, nil
}
