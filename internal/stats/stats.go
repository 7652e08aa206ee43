// Package stats counts lines of code across source trees for reporting.
package stats

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"

	"github.com/vk/shaderbuild/internal/ctxlog"
	"github.com/vk/shaderbuild/internal/fsutil"
)

// DirReport is the line count of one directory tree.
type DirReport struct {
	Dir     string
	Exists  bool
	Files   int
	Lines   int
	Skipped []string // files that could not be read
}

// Report collects the per-directory counts of one invocation.
type Report struct {
	Dirs []DirReport
}

// Total sums the lines of every directory.
func (r Report) Total() int {
	total := 0
	for _, d := range r.Dirs {
		total += d.Lines
	}
	return total
}

// CountLines returns the number of lines in the file at path. A final line
// without a trailing newline still counts.
func CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	buf := make([]byte, 32*1024)
	lines := 0
	last := byte('\n')
	for {
		n, err := f.Read(buf)
		if n > 0 {
			lines += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if last != '\n' {
		lines++
	}
	return lines, nil
}

// CountDir counts lines in every file under dir. A missing directory is
// reported with Exists false; an unreadable file is logged, skipped and
// counted as zero.
func CountDir(ctx context.Context, dir string) (DirReport, error) {
	logger := ctxlog.FromContext(ctx)
	rep := DirReport{Dir: dir}

	ok, err := fsutil.IsDir(dir)
	if err != nil {
		return rep, err
	}
	if !ok {
		logger.Warn("Directory does not exist.", "dir", dir)
		return rep, nil
	}
	rep.Exists = true

	err = fsutil.WalkFiles(dir, func(path string) error {
		n, err := CountLines(path)
		if err != nil {
			logger.Warn("Error reading file.", "path", path, "error", err)
			rep.Skipped = append(rep.Skipped, path)
			return nil
		}
		rep.Files++
		rep.Lines += n
		return nil
	})
	return rep, err
}

// Count builds a report over dirs in the given order.
func Count(ctx context.Context, dirs ...string) (Report, error) {
	var report Report
	for _, d := range dirs {
		rep, err := CountDir(ctx, d)
		if err != nil {
			return report, err
		}
		report.Dirs = append(report.Dirs, rep)
	}
	return report, nil
}
