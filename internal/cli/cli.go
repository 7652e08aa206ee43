package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/shaderbuild/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	command := app.BuildCommand
	if len(args) > 0 {
		switch args[0] {
		case string(app.BuildCommand):
			args = args[1:]
		case string(app.StatsCommand):
			command = app.StatsCommand
			args = args[1:]
		}
	}

	flagSet := flag.NewFlagSet("shaderbuild", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() { printUsage(output, command, flagSet) }

	var cfg app.Config
	cfg.Command = command

	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flagSet.BoolVar(&cfg.Pause, "pause", false, "Wait for Enter before exiting (interactive terminals only).")
	flagSet.StringVar(&cfg.Build.ProjectDir, "project-dir", "", "Project root. Defaults to $PROJECTDIR.")

	var (
		sourceFlag, sFlag, outFlag, oFlag string
		recursiveFlag, rFlag, failFlag     bool
		compilerArgs, stages               stringList
	)
	if command == app.BuildCommand {
		flagSet.StringVar(&sourceFlag, "source", "", "Directory holding the shader sources. Defaults to <project>/shaders.")
		flagSet.StringVar(&sFlag, "s", "", "Shader source directory (shorthand).")
		flagSet.StringVar(&outFlag, "out", "", "Directory receiving the .spv files. Defaults to the source directory.")
		flagSet.StringVar(&oFlag, "o", "", "Output directory (shorthand).")
		flagSet.StringVar(&cfg.Build.CopyTo, "copy-to", "", "Also copy every compiled artifact into this directory.")
		flagSet.StringVar(&cfg.Build.Compiler, "compiler", "", "Compiler executable. Defaults to $SHADERBUILD_COMPILER or glslc.")
		flagSet.Var(&compilerArgs, "compiler-arg", "Extra argument passed to the compiler before the input file. Repeatable.")
		flagSet.Var(&stages, "stage", "Only build this stage: vert, frag or comp. Repeatable.")
		flagSet.BoolVar(&recursiveFlag, "recursive", false, "Also scan subdirectories of the source directory.")
		flagSet.BoolVar(&rFlag, "r", false, "Recursive scan (shorthand).")
		flagSet.BoolVar(&failFlag, "fail-on-error", false, "Exit with status 1 when any shader fails.")
		flagSet.StringVar(&cfg.Build.ManifestPath, "manifest", "", "Manifest file (.hcl or .yaml). Defaults to <project>/shaders.hcl if present.")
		flagSet.StringVar(&cfg.Build.NotifyURL, "notify-url", "", "socket.io endpoint to notify after each shader.")
	}

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	set := map[string]bool{}
	flagSet.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if command == app.StatsCommand {
		cfg.StatsDirs = flagSet.Args()
	} else {
		cfg.Build.SourceDir = firstNonEmpty(sourceFlag, sFlag)
		cfg.Build.OutputDir = firstNonEmpty(outFlag, oFlag)
		switch {
		case flagSet.NArg() > 1:
			return nil, false, &ExitError{Code: 2, Message: "too many arguments: expected at most one OUTPUT_DIR"}
		case flagSet.NArg() == 1:
			if cfg.Build.OutputDir != "" {
				return nil, false, &ExitError{Code: 2, Message: "output directory given both as --out and as an argument"}
			}
			cfg.Build.OutputDir = flagSet.Arg(0)
		}
		if set["recursive"] || set["r"] {
			v := recursiveFlag || rFlag
			cfg.Build.Recursive = &v
		}
		if set["fail-on-error"] {
			cfg.Build.FailOnError = &failFlag
		}
		if len(compilerArgs) > 0 {
			cfg.Build.CompilerArgs = compilerArgs
		}
		cfg.Build.Stages = stages
	}
	slog.Debug("Paths determined.", "source", cfg.Build.SourceDir, "output", cfg.Build.OutputDir)

	cfg.LogFormat = strings.ToLower(*logFormatFlag)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	cfg.LogLevel = strings.ToLower(*logLevelFlag)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "command", config.Command)
	return config, false, nil
}

func printUsage(output io.Writer, command app.Command, flagSet *flag.FlagSet) {
	if command == app.StatsCommand {
		fmt.Fprint(output, `
shaderbuild stats - Count lines of code in source trees.

Usage:
  shaderbuild stats [options] [DIR...]

Arguments:
  DIR
    Directories to count. Defaults to <project>/src and <project>/shaders.

Options:
`)
	} else {
		fmt.Fprint(output, `
shaderbuild - Compile GLSL shaders (.vert, .frag, .comp) to SPIR-V with glslc.

Usage:
  shaderbuild [build] [options] [OUTPUT_DIR]
  shaderbuild stats [options] [DIR...]

Arguments:
  OUTPUT_DIR
    Directory receiving <name>.spv for every shader. Defaults to the source directory.

Environment:
  PROJECTDIR            Project root; shaders are read from $PROJECTDIR/shaders.
  SHADERBUILD_COMPILER  Compiler executable name or path.

Options:
`)
	}
	flagSet.PrintDefaults()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
