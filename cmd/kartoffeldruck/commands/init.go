package commands

import (
	"fmt"

	"git.home.luguber.info/inful/kartoffeldruck/internal/runner"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Dir   string `arg:"" optional:"" help:"Directory to scaffold" default:"."`
	Force bool   `help:"Overwrite an existing kartoffeldruck.yaml"`
}

func (i *InitCmd) Run(g *Global) error {
	out := g.stdout()
	_, _ = fmt.Fprintf(out, "Initializing kartoffeldruck site in %s\n", i.Dir)

	written, err := runner.Scaffold(i.Dir, i.Force)
	if err != nil {
		_, _ = fmt.Fprintln(out, "Initialization failed")
		return err
	}
	for _, p := range written {
		_, _ = fmt.Fprintf(out, "  created %s\n", p)
	}
	_, _ = fmt.Fprintln(out, "initialized successfully")
	return nil
}
