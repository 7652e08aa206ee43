package config

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/vk/shaderbuild/internal/ctxlog"
	"github.com/vk/shaderbuild/internal/fsutil"
	"github.com/vk/shaderbuild/internal/notify"
	"github.com/vk/shaderbuild/internal/placement"
	"github.com/vk/shaderbuild/internal/platform"
	"github.com/vk/shaderbuild/internal/shader"
)

const (
	// ProjectDirEnv names the project root.
	ProjectDirEnv = "PROJECTDIR"
	// LegacyProjectDirEnv is consulted when ProjectDirEnv is unset.
	LegacyProjectDirEnv = "PYTHONPATH"
	// CompilerEnv overrides the compiler base name.
	CompilerEnv = "SHADERBUILD_COMPILER"

	// ShadersSubdir is the source directory under the project root.
	ShadersSubdir = "shaders"
)

// Inputs are the raw settings taken from the command line. Zero values and
// nil pointers mean "not given".
type Inputs struct {
	ProjectDir   string
	ManifestPath string
	SourceDir    string
	OutputDir    string
	CopyTo       string
	Compiler     string
	CompilerArgs []string
	Stages       []string
	Recursive    *bool
	FailOnError  *bool
	NotifyURL    string

	// Getenv and GOOS default to os.Getenv and runtime.GOOS.
	Getenv func(string) string
	GOOS   string
}

// Resolve turns inputs into a BuildConfig. It validates the source
// directory and creates the output directory (and a local copy
// destination) if needed. Every failure is a *ConfigurationError.
func Resolve(ctx context.Context, in Inputs) (*BuildConfig, error) {
	logger := ctxlog.FromContext(ctx)
	getenv := in.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	goos := in.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	root := ProjectRoot(in.ProjectDir, getenv)
	logger.Debug("Project root determined.", "project_dir", root)

	manifest, err := loadManifest(in.ManifestPath, root, getenv)
	if err != nil {
		return nil, err
	}
	if manifest == nil {
		manifest = &Manifest{}
	} else {
		logger.Debug("Manifest loaded.", "path", manifest.Path)
	}

	cfg := &BuildConfig{ProjectDir: root, ManifestPath: manifest.Path}

	switch {
	case in.SourceDir != "":
		cfg.SourceDir = filepath.Clean(in.SourceDir)
	case manifest.SourceDir != nil:
		cfg.SourceDir = manifest.resolve(*manifest.SourceDir)
	case root != "":
		cfg.SourceDir = filepath.Join(root, ShadersSubdir)
	default:
		return nil, configErr(ProjectDirEnv, "project root is not set: export %s or pass a source directory", ProjectDirEnv)
	}

	ok, err := fsutil.IsDir(cfg.SourceDir)
	if err != nil {
		return nil, &ConfigurationError{Field: "source_dir", Err: err}
	}
	if !ok {
		return nil, configErr("source_dir", "shader directory %s does not exist", cfg.SourceDir)
	}

	switch {
	case in.OutputDir != "":
		cfg.OutputDir = filepath.Clean(in.OutputDir)
	case manifest.OutputDir != nil:
		cfg.OutputDir = manifest.resolve(*manifest.OutputDir)
	default:
		cfg.OutputDir = cfg.SourceDir
	}

	base := platform.DefaultCompiler
	switch {
	case in.Compiler != "":
		base = in.Compiler
	case manifest.Compiler != nil && *manifest.Compiler != "":
		base = *manifest.Compiler
	case getenv(CompilerEnv) != "":
		base = getenv(CompilerEnv)
	}
	cfg.Compiler = platform.ExecutableName(goos, base)

	cfg.CompilerArgs = manifest.CompilerArgs
	if in.CompilerArgs != nil {
		cfg.CompilerArgs = in.CompilerArgs
	}
	cfg.Recursive = firstBool(in.Recursive, manifest.Recursive)
	cfg.FailOnError = firstBool(in.FailOnError, manifest.FailOnError)

	names := manifest.Stages
	if len(in.Stages) > 0 {
		names = in.Stages
	}
	if len(names) == 0 {
		cfg.Stages = shader.AllStages()
	}
	for _, n := range names {
		st, err := shader.ParseStage(n)
		if err != nil {
			return nil, &ConfigurationError{Field: "stages", Err: err}
		}
		cfg.Stages = append(cfg.Stages, st)
	}

	cfg.Placement, err = resolvePlacement(in, manifest)
	if err != nil {
		return nil, err
	}
	if cfg.Placement.Kind == placement.Copy && samePath(cfg.Placement.Destination, cfg.OutputDir) {
		return nil, configErr("placement", "copy destination %s is the output directory", cfg.Placement.Destination)
	}

	if n := manifest.Notify; n != nil {
		cfg.Notify = notify.Config{
			URL:                n.URL,
			Namespace:          n.Namespace,
			Event:              n.Event,
			InsecureSkipVerify: n.InsecureSkipVerify,
			ConnectTimeout:     n.ConnectTimeout,
		}
	}
	if in.NotifyURL != "" {
		cfg.Notify.URL = in.NotifyURL
	}

	// Directories are created only once every setting has been validated.
	if err := fsutil.EnsureDir(cfg.OutputDir); err != nil {
		return nil, configErr("output_dir", "cannot create %s: %w", cfg.OutputDir, err)
	}
	if cfg.Placement.Kind == placement.Copy {
		if err := fsutil.EnsureDir(cfg.Placement.Destination); err != nil {
			return nil, configErr("placement", "cannot create %s: %w", cfg.Placement.Destination, err)
		}
	}

	logger.Debug("Build configuration resolved.",
		"source_dir", cfg.SourceDir,
		"output_dir", cfg.OutputDir,
		"compiler", cfg.Compiler,
		"recursive", cfg.Recursive,
		"placement", string(cfg.Placement.Kind),
	)
	return cfg, nil
}

// samePath reports whether a and b name the same location once made
// absolute and cleaned.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// ProjectRoot returns the explicit root, else PROJECTDIR, else the first
// entry of PYTHONPATH.
func ProjectRoot(explicit string, getenv func(string) string) string {
	if explicit != "" {
		return filepath.Clean(explicit)
	}
	if v := getenv(ProjectDirEnv); v != "" {
		return filepath.Clean(v)
	}
	for _, p := range filepath.SplitList(getenv(LegacyProjectDirEnv)) {
		if p != "" {
			return filepath.Clean(p)
		}
	}
	return ""
}

func loadManifest(path, root string, getenv func(string) string) (*Manifest, error) {
	if path == "" {
		if root == "" {
			return nil, nil
		}
		for _, name := range ManifestNames {
			candidate := filepath.Join(root, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				path = candidate
				break
			}
		}
		if path == "" {
			return nil, nil
		}
	}

	loader, err := LoaderFor(path, getenv)
	if err != nil {
		return nil, &ConfigurationError{Field: "manifest", Err: err}
	}
	m, err := loader.Load(path)
	if err != nil {
		return nil, &ConfigurationError{Field: "manifest", Err: err}
	}
	return m, nil
}

func resolvePlacement(in Inputs, m *Manifest) (placement.Config, error) {
	if in.CopyTo != "" {
		return placement.Config{Kind: placement.Copy, Destination: filepath.Clean(in.CopyTo)}, nil
	}
	p := m.Placement
	if p == nil {
		return placement.Config{Kind: placement.Direct}, nil
	}

	kind, err := placement.ParseKind(p.Kind)
	if err != nil {
		return placement.Config{}, &ConfigurationError{Field: "placement", Err: err}
	}
	cfg := placement.Config{Kind: kind}
	switch kind {
	case placement.Copy:
		if p.Destination == "" {
			return placement.Config{}, configErr("placement", "copy placement requires a destination")
		}
		cfg.Destination = m.resolve(p.Destination)
	case placement.ObjectStore:
		cfg.Store = placement.StoreConfig{
			Endpoint:     p.Endpoint,
			Bucket:       p.Bucket,
			Prefix:       p.Prefix,
			AccessKey:    p.AccessKey,
			SecretKey:    p.SecretKey,
			Region:       p.Region,
			UseSSL:       p.UseSSL,
			CreateBucket: p.CreateBucket,
		}
		if err := cfg.Store.Validate(); err != nil {
			return placement.Config{}, &ConfigurationError{Field: "placement", Err: err}
		}
	}
	return cfg, nil
}

// resolve interprets a manifest path relative to the manifest's directory.
func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) || m.Dir == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(m.Dir, p)
}

func firstBool(vals ...*bool) bool {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return false
}
