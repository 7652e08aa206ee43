package config

import (
	"time"

	"github.com/vk/shaderbuild/internal/notify"
	"github.com/vk/shaderbuild/internal/placement"
	"github.com/vk/shaderbuild/internal/shader"
)

// BuildConfig is the resolved configuration of one run. It is built once at
// startup and passed by value; nothing reads build settings from globals.
type BuildConfig struct {
	ProjectDir   string // empty when the source dir was given explicitly
	ManifestPath string // empty when no manifest was used

	SourceDir    string
	OutputDir    string
	Compiler     string // platform-specific executable name, resolved on PATH at run time
	CompilerArgs []string
	Recursive    bool
	Stages       []shader.Stage
	FailOnError  bool

	Placement placement.Config
	Notify    notify.Config
}

// Manifest is the format-agnostic content of a manifest file. Pointer and
// nil-slice fields mean "not set" so that lower-precedence sources can fill
// them in.
type Manifest struct {
	Path string
	Dir  string // relative paths resolve against this directory

	SourceDir    *string
	OutputDir    *string
	Compiler     *string
	CompilerArgs []string
	Recursive    *bool
	FailOnError  *bool
	Stages       []string

	Placement *PlacementSpec
	Notify    *NotifySpec
}

// PlacementSpec is the manifest's placement block.
type PlacementSpec struct {
	Kind         string
	Destination  string
	Endpoint     string
	Bucket       string
	Prefix       string
	AccessKey    string
	SecretKey    string
	Region       string
	UseSSL       bool
	CreateBucket bool
}

// NotifySpec is the manifest's notify block.
type NotifySpec struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}
