package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/shaderbuild/internal/app"
	"github.com/vk/shaderbuild/internal/cli"
	"github.com/vk/shaderbuild/internal/config"
)

// main is the entrypoint for the shaderbuild application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. Configuration problems exit with status 2; everything else that
// escapes the app, such as a fail-on-error build, exits with 1.
func run(outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	err = app.NewApp(outW, appConfig).Run(context.Background())
	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		return &cli.ExitError{Code: 2, Message: cfgErr.Error()}
	}
	return err
}
