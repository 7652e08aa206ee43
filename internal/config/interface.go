package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Loader is the interface for a format-specific manifest loader.
type Loader interface {
	// Load reads the manifest at path and translates it into the
	// format-agnostic Manifest.
	Load(path string) (*Manifest, error)
}

// ManifestNames are the file names probed in the project root when no
// manifest is named explicitly, in order.
var ManifestNames = []string{"shaders.hcl", "shaders.yaml", "shaders.yml"}

// LoaderFor picks the loader matching the extension of path.
func LoaderFor(path string, getenv func(string) string) (Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return NewHCLLoader(getenv), nil
	case ".yaml", ".yml":
		return NewYAMLLoader(getenv), nil
	default:
		return nil, fmt.Errorf("unsupported manifest format %q: expected .hcl, .yaml or .yml", filepath.Ext(path))
	}
}
