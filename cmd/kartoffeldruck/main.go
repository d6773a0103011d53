package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/kartoffeldruck/cmd/kartoffeldruck/commands"
	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
	"git.home.luguber.info/inful/kartoffeldruck/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("kartoffeldruck"),
		kong.Description("A static site generator built around templates, pages and generate jobs."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	global := &commands.Global{Ctx: ctx, Logger: slog.Default(), Stdout: os.Stdout}

	err := parser.Run(global, &cli)
	stop()
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
