// Package cli parses the command line into an app.Config. It picks the
// build or stats command, validates flag values and reports usage problems
// as ExitErrors carrying the process exit code.
package cli
