// Package shader models GLSL shader sources as units of work: which pipeline
// stage a file belongs to, where its SPIR-V artifact goes, and how a source
// tree is scanned for them.
package shader

import (
	"fmt"
	"strings"
)

// Stage is the pipeline role of a shader source, taken from its suffix.
type Stage string

const (
	Vertex   Stage = "vertex"
	Fragment Stage = "fragment"
	Compute  Stage = "compute"
)

// SPIRVSuffix is appended to the full source filename to name the artifact.
const SPIRVSuffix = ".spv"

var stageSuffixes = map[Stage]string{
	Vertex:   ".vert",
	Fragment: ".frag",
	Compute:  ".comp",
}

// AllStages lists every recognized stage in a fixed order.
func AllStages() []Stage {
	return []Stage{Vertex, Fragment, Compute}
}

// Suffix returns the filename suffix that marks s, including the dot.
func (s Stage) Suffix() string {
	return stageSuffixes[s]
}

// ParseStage accepts a stage name ("vertex") or its suffix with or without
// the dot ("vert", ".vert").
func ParseStage(v string) (Stage, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for st, suffix := range stageSuffixes {
		if v == string(st) || v == suffix || "."+v == suffix {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown shader stage %q", v)
}

// StageOf returns the stage of filename among stages, or false when the
// name carries none of their suffixes.
func StageOf(filename string, stages []Stage) (Stage, bool) {
	for _, st := range stages {
		if strings.HasSuffix(filename, st.Suffix()) {
			return st, true
		}
	}
	return "", false
}
