// Package config resolves everything a build needs into one immutable
// BuildConfig: the shader source directory, the artifact directory, the
// compiler to invoke and how artifacts are placed afterwards.
//
// Settings come from command-line inputs first, then an optional manifest
// file (HCL or YAML), then the environment (PROJECTDIR), then defaults.
// Resolution either succeeds completely or returns a *ConfigurationError,
// in which case nothing must be compiled.
package config
