package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// hclManifest mirrors the top-level structure of shaders.hcl.
type hclManifest struct {
	SourceDir    *string       `hcl:"source_dir,optional"`
	OutputDir    *string       `hcl:"output_dir,optional"`
	Compiler     *string       `hcl:"compiler,optional"`
	CompilerArgs []string      `hcl:"compiler_args,optional"`
	Recursive    *bool         `hcl:"recursive,optional"`
	FailOnError  *bool         `hcl:"fail_on_error,optional"`
	Stages       []string      `hcl:"stages,optional"`
	Placement    *hclPlacement `hcl:"placement,block"`
	Notify       *hclNotify    `hcl:"notify,block"`
}

// hclPlacement is a `placement "<kind>" { ... }` block.
type hclPlacement struct {
	Kind         string `hcl:"kind,label"`
	Destination  string `hcl:"destination,optional"`
	Endpoint     string `hcl:"endpoint,optional"`
	Bucket       string `hcl:"bucket,optional"`
	Prefix       string `hcl:"prefix,optional"`
	AccessKey    string `hcl:"access_key,optional"`
	SecretKey    string `hcl:"secret_key,optional"`
	Region       string `hcl:"region,optional"`
	UseSSL       bool   `hcl:"use_ssl,optional"`
	CreateBucket bool   `hcl:"create_bucket,optional"`
}

type hclNotify struct {
	URL                string `hcl:"url"`
	Namespace          string `hcl:"namespace,optional"`
	Event              string `hcl:"event,optional"`
	InsecureSkipVerify bool   `hcl:"insecure_skip_verify,optional"`
	ConnectTimeout     string `hcl:"connect_timeout,optional"`
}

// HCLLoader reads shaders.hcl manifests.
type HCLLoader struct {
	getenv func(string) string
}

// NewHCLLoader returns a loader whose env() function reads through getenv.
func NewHCLLoader(getenv func(string) string) *HCLLoader {
	return &HCLLoader{getenv: getenv}
}

// Load implements Loader.
func (l *HCLLoader) Load(path string) (*Manifest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	dir := filepath.Dir(path)
	var raw hclManifest
	diags = gohcl.DecodeBody(file.Body, l.evalContext(dir), &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	return l.translate(path, &raw)
}

// evalContext exposes env(name[, default]), a few string helpers and the
// manifest_dir variable to manifest expressions.
func (l *HCLLoader) evalContext(dir string) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"manifest_dir": cty.StringVal(dir),
		},
		Functions: map[string]function.Function{
			"env":       envFunc(l.getenv),
			"lower":     stdlib.LowerFunc,
			"upper":     stdlib.UpperFunc,
			"trimspace": stdlib.TrimSpaceFunc,
			"join":      stdlib.JoinFunc,
		},
	}
}

func (l *HCLLoader) translate(path string, raw *hclManifest) (*Manifest, error) {
	m := &Manifest{
		Path:         path,
		Dir:          filepath.Dir(path),
		SourceDir:    raw.SourceDir,
		OutputDir:    raw.OutputDir,
		Compiler:     raw.Compiler,
		CompilerArgs: raw.CompilerArgs,
		Recursive:    raw.Recursive,
		FailOnError:  raw.FailOnError,
		Stages:       raw.Stages,
	}
	if p := raw.Placement; p != nil {
		m.Placement = &PlacementSpec{
			Kind:         p.Kind,
			Destination:  p.Destination,
			Endpoint:     p.Endpoint,
			Bucket:       p.Bucket,
			Prefix:       p.Prefix,
			AccessKey:    p.AccessKey,
			SecretKey:    p.SecretKey,
			Region:       p.Region,
			UseSSL:       p.UseSSL,
			CreateBucket: p.CreateBucket,
		}
	}
	if n := raw.Notify; n != nil {
		spec := &NotifySpec{
			URL:                n.URL,
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

func envFunc(getenv func(string) string) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "name", Type: cty.String},
		},
		VarParam: &function.Parameter{Name: "default", Type: cty.String},
		Type:     function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			v := getenv(args[0].AsString())
			if v == "" && len(args) > 1 {
				v = args[1].AsString()
			}
			return cty.StringVal(v), nil
		},
	})
}
