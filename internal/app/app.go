package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/shaderbuild/internal/ctxlog"
	"golang.org/x/term"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	inR    io.Reader
	logger *slog.Logger
	config *Config

	// isTerminal reports whether inR is interactive; it gates the pause prompt.
	isTerminal func() bool
}

// NewApp is the constructor for the main application. It returns an App
// with its own isolated logger writing to outW.
func NewApp(outW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.", "level", cfg.LogLevel, "format", cfg.LogFormat)

	return &App{
		outW:   outW,
		inR:    os.Stdin,
		logger: logger,
		config: cfg,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

// Logger returns the application's logger. This is primarily for testing.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Run executes the configured command. The pause prompt, when requested,
// is shown whether or not the command failed.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", a.config.Command)

	var err error
	switch a.config.Command {
	case StatsCommand:
		err = a.runStats(ctx)
	default:
		err = a.runBuild(ctx)
	}

	if a.config.Pause {
		a.pause()
	}
	a.logger.Debug("App.Run method finished.")
	return err
}

func (a *App) pause() {
	if !a.isTerminal() {
		a.logger.Debug("Standard input is not a terminal, not pausing.")
		return
	}
	fmt.Fprint(a.outW, "Press Enter to exit...")
	_, _ = bufio.NewReader(a.inR).ReadString('\n')
}
