package shader

import "path/filepath"

// Unit is one discovered shader source and the artifact path derived for it.
type Unit struct {
	SourcePath string
	Name       string // base filename, suffix included
	Stage      Stage
	OutputPath string
}

// NewUnit derives the unit for sourcePath. The artifact keeps the whole
// source filename and appends ".spv", so "lit.frag" becomes "lit.frag.spv"
// and the stage stays visible to downstream tools.
func NewUnit(sourcePath, outputDir string, stage Stage) Unit {
	name := filepath.Base(sourcePath)
	return Unit{
		SourcePath: sourcePath,
		Name:       name,
		Stage:      stage,
		OutputPath: filepath.Join(outputDir, OutputName(name)),
	}
}

// OutputName returns the artifact filename for a source filename.
func OutputName(filename string) string {
	return filename + SPIRVSuffix
}
