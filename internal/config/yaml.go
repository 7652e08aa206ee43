package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type yamlManifest struct {
	SourceDir    *string        `yaml:"source_dir"`
	OutputDir    *string        `yaml:"output_dir"`
	Compiler     *string        `yaml:"compiler"`
	CompilerArgs []string       `yaml:"compiler_args"`
	Recursive    *bool          `yaml:"recursive"`
	FailOnError  *bool          `yaml:"fail_on_error"`
	Stages       []string       `yaml:"stages"`
	Placement    *yamlPlacement `yaml:"placement"`
	Notify       *yamlNotify    `yaml:"notify"`
}

type yamlPlacement struct {
	Kind         string `yaml:"kind"`
	Destination  string `yaml:"destination"`
	Endpoint     string `yaml:"endpoint"`
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	Region       string `yaml:"region"`
	UseSSL       bool   `yaml:"use_ssl"`
	CreateBucket bool   `yaml:"create_bucket"`
}

type yamlNotify struct {
	URL                string `yaml:"url"`
	Namespace          string `yaml:"namespace"`
	Event              string `yaml:"event"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	ConnectTimeout     string `yaml:"connect_timeout"`
}

// YAMLLoader reads shaders.yaml manifests. String values may reference
// environment variables as $NAME or ${NAME}.
type YAMLLoader struct {
	getenv func(string) string
}

// NewYAMLLoader returns a loader expanding variables through getenv.
func NewYAMLLoader(getenv func(string) string) *YAMLLoader {
	return &YAMLLoader{getenv: getenv}
}

// Load implements Loader.
func (l *YAMLLoader) Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var raw yamlManifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", path, err)
	}

	m := &Manifest{
		Path:         path,
		Dir:          filepath.Dir(path),
		SourceDir:    l.expandPtr(raw.SourceDir),
		OutputDir:    l.expandPtr(raw.OutputDir),
		Compiler:     l.expandPtr(raw.Compiler),
		CompilerArgs: raw.CompilerArgs,
		Recursive:    raw.Recursive,
		FailOnError:  raw.FailOnError,
		Stages:       raw.Stages,
	}
	if p := raw.Placement; p != nil {
		m.Placement = &PlacementSpec{
			Kind:         p.Kind,
			Destination:  l.expand(p.Destination),
			Endpoint:     l.expand(p.Endpoint),
			Bucket:       l.expand(p.Bucket),
			Prefix:       l.expand(p.Prefix),
			AccessKey:    l.expand(p.AccessKey),
			SecretKey:    l.expand(p.SecretKey),
			Region:       l.expand(p.Region),
			UseSSL:       p.UseSSL,
			CreateBucket: p.CreateBucket,
		}
	}
	if n := raw.Notify; n != nil {
		spec := &NotifySpec{
			URL:                l.expand(n.URL),
			Namespace:          n.Namespace,
			Event:              n.Event,
			InsecureSkipVerify: n.InsecureSkipVerify,
		}
		if n.ConnectTimeout != "" {
			d, err := time.ParseDuration(n.ConnectTimeout)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid notify.connect_timeout: %w", path, err)
			}
			spec.ConnectTimeout = d
		}
		m.Notify = spec
	}
	return m, nil
}

func (l *YAMLLoader) expand(s string) string {
	return os.Expand(s, l.getenv)
}

func (l *YAMLLoader) expandPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := l.expand(*s)
	return &v
}
