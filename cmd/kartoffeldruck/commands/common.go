// Package commands holds the kartoffeldruck subcommands.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
)

// Global is state shared with every subcommand.
type Global struct {
	Ctx    context.Context
	Logger *slog.Logger
	Stdout io.Writer
}

func (g *Global) context() context.Context {
	if g.Ctx == nil {
		return context.Background()
	}
	return g.Ctx
}

func (g *Global) stdout() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Global) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config   string           `short:"c" help:"Descriptor path, relative to the site directory (default: kartoffeldruck.yaml)"`
	Verbose  bool             `short:"v" help:"Enable verbose logging"`
	LogLevel string           `name:"log-level" env:"KARTOFFELDRUCK_LOG_LEVEL" help:"Log level (debug, info, warn, error)" default:"info"`
	Version  kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build      BuildCmd   `cmd:"" default:"withargs" help:"Generate the site described by kartoffeldruck.yaml"`
	Init       InitCmd    `cmd:"" help:"Scaffold a new site"`
	VersionCmd VersionCmd `cmd:"" name:"version" help:"Print version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := parseLogLevel(c.Verbose, c.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel maps the --log-level value; --verbose always means debug.
func parseLogLevel(verbose bool, level string) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
