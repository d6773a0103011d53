package commands

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
	"git.home.luguber.info/inful/kartoffeldruck/internal/metrics"
	"git.home.luguber.info/inful/kartoffeldruck/internal/output"
	"git.home.luguber.info/inful/kartoffeldruck/internal/runner"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Dir         string `arg:"" optional:"" help:"Site directory" default:"."`
	DryRun      bool   `name:"dry-run" help:"Render every page without writing the destination directory"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics in text format to this file after the run"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	rec := metrics.NewPrometheusRecorder(nil)
	opts := runner.Options{
		Cwd:        b.Dir,
		Descriptor: root.Config,
		Logger:     g.logger(),
		Recorder:   rec,
	}

	var dry *output.Memory
	if b.DryRun {
		dry = output.NewMemory()
		opts.Sink = dry
	}

	report, err := runner.Run(g.context(), opts)
	if b.MetricsFile != "" {
		if werr := rec.WriteTextfile(b.MetricsFile); werr != nil && err == nil {
			err = errors.WrapError(werr, errors.CategoryFileSystem, "failed to write metrics").
				WithContext("path", b.MetricsFile).
				Build()
		}
	}
	if err != nil {
		return err
	}

	out := g.stdout()
	if dry != nil {
		for _, p := range dry.Paths() {
			_, _ = fmt.Fprintf(out, "would write %s\n", p)
		}
	}
	_, _ = fmt.Fprintf(out, "Generated %d pages in %s\n", len(report.Results), report.Duration.Round(time.Millisecond))
	return nil
}
