// Package runner executes a site descriptor: it loads the environment and
// kartoffeldruck.yaml, configures a druck.Druck, copies static assets and
// runs the generate jobs in order.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/kartoffeldruck/internal/config"
	"git.home.luguber.info/inful/kartoffeldruck/internal/druck"
	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
	"git.home.luguber.info/inful/kartoffeldruck/internal/logfields"
	"git.home.luguber.info/inful/kartoffeldruck/internal/metrics"
	"git.home.luguber.info/inful/kartoffeldruck/internal/output"
	"git.home.luguber.info/inful/kartoffeldruck/internal/paginate"
	"git.home.luguber.info/inful/kartoffeldruck/internal/render"
)

// Options controls a run.
type Options struct {
	// Cwd is the site directory. Defaults to the working directory.
	Cwd string
	// Descriptor is the descriptor path. Defaults to Cwd/kartoffeldruck.yaml.
	Descriptor string

	Logger   *slog.Logger
	Recorder metrics.Recorder
	// Sink replaces the destination directory. Assets are only copied when
	// writing to the destination directory.
	Sink output.Sink
}

// Report summarizes a finished run.
type Report struct {
	RunID    string
	Druck    *druck.Druck
	Results  []*druck.Result
	Jobs     int
	Assets   int
	Duration time.Duration
}

// Run executes the descriptor found via opts. Jobs run sequentially; the
// first failing job stops the run.
func Run(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	cwd, err := resolveCwd(opts.Cwd)
	if err != nil {
		return nil, err
	}
	descriptor := opts.Descriptor
	if descriptor == "" {
		descriptor = filepath.Join(cwd, config.DefaultFile)
	} else if !filepath.IsAbs(descriptor) {
		descriptor = filepath.Join(cwd, descriptor)
	}

	report := &Report{RunID: uuid.NewString()}
	logger = logger.With(logfields.RunID(report.RunID))
	logger.Info("Initializing kartoffeldruck", logfields.Path(cwd))

	err = run(ctx, cwd, descriptor, opts.Sink, logger, recorder, report)
	report.Duration = time.Since(start)
	recorder.ObserveRunDuration(report.Duration)
	recorder.IncRunOutcome(metrics.ResultOf(err))
	if err != nil {
		return report, err
	}

	logger.Info("Done",
		logfields.Count(len(report.Results)),
		logfields.DurationMS(float64(report.Duration.Microseconds())/1000))
	return report, nil
}

func run(ctx context.Context, cwd, descriptor string, sink output.Sink, logger *slog.Logger, recorder metrics.Recorder, report *Report) error {
	loaded, err := config.LoadEnv(cwd)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to load environment").
			WithContext("path", cwd).
			Build()
	}
	for _, f := range loaded {
		logger.Debug("Loaded environment", logfields.Path(f))
	}

	desc, err := config.Load(descriptor)
	if err != nil {
		return aggregate(err, fmt.Sprintf("failed to load <%s>", descriptor))
	}

	d, err := newDruck(cwd, desc, sink, logger, recorder)
	if err != nil {
		return aggregate(err, fmt.Sprintf("failed to load <%s>", descriptor))
	}
	report.Druck = d

	if sink == nil {
		cfg := d.Config()
		n, err := output.CopyTree(cfg.Assets, filepath.Join(cfg.Dest, render.AssetsDir))
		if err != nil {
			return aggregate(err, fmt.Sprintf("failed to execute <%s>", descriptor))
		}
		report.Assets = n
		recorder.AddAssetsCopied(n)
		if n > 0 {
			logger.Info("Copied assets", logfields.Count(n), logfields.Path(cfg.Assets))
		}
	}

	cs := newCollections(desc.Collections, d.Files())
	for _, job := range desc.Generate {
		results, err := execute(ctx, d, cs, job, report.RunID, logger, recorder)
		report.Jobs++
		report.Results = append(report.Results, results...)
		if err != nil {
			if classified, ok := errors.AsClassified(err); ok {
				err = classified.WithContext("job", job.Label())
			}
			return aggregate(err, fmt.Sprintf("failed to execute <%s>", descriptor))
		}
	}
	return nil
}

func resolveCwd(cwd string) (string, error) {
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to determine working directory").Build()
		}
		return wd, nil
	}
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "invalid site directory").
			WithContext("path", cwd).
			Build()
	}
	return abs, nil
}

func newDruck(cwd string, desc *config.Descriptor, sink output.Sink, logger *slog.Logger, recorder metrics.Recorder) (*druck.Druck, error) {
	selection, err := desc.ContentProcessors.Selection()
	if err != nil {
		return nil, err
	}

	opts := []druck.Option{
		druck.WithLogger(logger),
		druck.WithRecorder(recorder),
		druck.WithConcurrency(desc.Concurrency),
	}
	if sink != nil {
		opts = append(opts, druck.WithSink(sink))
	}

	return druck.New(druck.Config{
		Cwd:               cwd,
		Source:            desc.Source,
		Dest:              desc.Dest,
		Templates:         desc.Templates,
		Assets:            desc.Assets,
		Locals:            desc.Locals,
		ContentProcessors: selection,
	}, opts...)
}

// aggregate wraps err keeping its category, so exit codes stay meaningful.
func aggregate(err error, msg string) error {
	return errors.WrapError(err, errors.GetCategory(err), msg).Build()
}

func execute(ctx context.Context, d *druck.Druck, cs *collections, job config.Job, runID string, logger *slog.Logger, recorder metrics.Recorder) ([]*druck.Result, error) {
	start := time.Now()
	logger = logger.With(logfields.Job(job.Label()))

	results, err := executeJob(ctx, d, cs, job, map[string]any{
		logfields.KeyJob:   job.Label(),
		logfields.KeyRunID: runID,
	})

	elapsed := time.Since(start)
	recorder.ObserveJobDuration(job.Label(), elapsed)
	recorder.IncJobResult(job.Label(), metrics.ResultOf(err))
	if err != nil {
		logger.Error("Job failed", logfields.Error(err))
		return results, err
	}

	logger.Info(fmt.Sprintf("done in %dms", elapsed.Milliseconds()), logfields.Count(len(results)))
	return results, nil
}

func executeJob(ctx context.Context, d *druck.Druck, cs *collections, job config.Job, extra map[string]any) ([]*druck.Result, error) {
	locals, err := jobLocals(ctx, d, cs, job)
	if err != nil {
		return nil, err
	}

	var source any = job.Source
	if job.Collection != "" {
		c, err := cs.get(ctx, job.Collection)
		if err != nil {
			return nil, err
		}
		source = c.Pages
	}

	req := druck.Request{
		Source:   source,
		Dest:     job.Dest,
		Locals:   locals,
		Paginate: job.Paginate,
		Extra:    extra,
	}
	if job.Each == "" {
		return d.Generate(ctx, req)
	}

	c, err := cs.get(ctx, job.Each)
	if err != nil {
		return nil, err
	}
	var all []*druck.Result
	for _, g := range c.Groups {
		groupReq := req
		groupReq.Locals = maps.Clone(locals)
		maps.Copy(groupReq.Locals, g.Locals())

		results, err := d.Generate(ctx, groupReq)
		all = append(all, results...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

func jobLocals(ctx context.Context, d *druck.Druck, cs *collections, job config.Job) (map[string]any, error) {
	locals := make(map[string]any, len(job.Locals)+len(job.Bind)+len(job.Pages)+1)
	maps.Copy(locals, job.Locals)

	if job.Items != "" {
		c, err := cs.get(ctx, job.Items)
		if err != nil {
			return nil, err
		}
		locals[paginate.ItemsKey] = c.Pages
	}

	for name, collection := range job.Bind {
		c, err := cs.get(ctx, collection)
		if err != nil {
			return nil, err
		}
		locals[name] = c.Value()
	}

	for name, id := range job.Pages {
		p, err := d.Files().Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, errors.NotFoundError("file not found: " + id).
				WithContext("local", name).
				Build()
		}
		locals[name] = p
	}
	return locals, nil
}
