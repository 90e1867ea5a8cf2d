package app

import (
	"context"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/specialistvlad/workgrid/internal/ctxlog"
	"github.com/specialistvlad/workgrid/internal/pipeline"
	"github.com/specialistvlad/workgrid/internal/registry"
	"github.com/specialistvlad/workgrid/internal/report"
	"github.com/specialistvlad/workgrid/internal/shellexec"
	"github.com/specialistvlad/workgrid/internal/workspace"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/specialistvlad/workgrid/internal/app"

// Run discovers the workspace and streams its packages through the
// requested stages.
func (a *App) Run(ctx context.Context, req Request) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "stages", req.Stages)

	if len(req.Stages) == 0 {
		return errors.New("no stages requested")
	}

	opts, err := a.options(req)
	if err != nil {
		return err
	}
	a.logger.Debug("Options merged.", "cwd", opts.Cwd, "package", opts.Package, "onlyNamedPackage", opts.OnlyNamedPackage)

	shutdown, err := initTracing(ctx, a.config.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("Failed to flush traces.", "error", err)
		}
	}()

	if a.config.Workspace.Lock {
		unlock, err := lockWorkspace(ctx, opts.Cwd)
		if err != nil {
			return err
		}
		defer unlock()
	}

	ws, err := workspace.Load(ctx, opts.Cwd, a.config.Workspace.DiscoverOptions, a.config.Workspace.Policy)
	if err != nil {
		return errors.Wrap(err, "failed to load workspace")
	}
	a.logger.Debug("Workspace loaded.", "packages", ws.Len())

	exec := a.exec
	if runner, ok := exec.(*shellexec.Runner); ok && req.DryRun {
		exec = &shellexec.Runner{Env: runner.Env, Stdout: runner.Stdout, DryRun: true}
	}
	stages, err := a.registry.BuildAll(req.Stages, registry.Env{
		Options:   opts,
		Exec:      exec,
		Out:       a.outW,
		Args:      req.Args,
		Workspace: ws,
	}, a.config.Stages)
	if err != nil {
		return err
	}

	summary := report.NewSummary()
	observers := report.Multi{summary}
	if a.config.Report.URL != "" {
		sock, err := report.Dial(ctx, a.config.Report.URL, report.Options{})
		if err != nil {
			return errors.Wrap(err, "failed to connect event reporter")
		}
		defer sock.Close()
		observers = append(observers, sock)
	}
	ctx = pipeline.WithObserver(ctx, observers)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "workgrid.run")
	span.SetAttributes(attribute.StringSlice("workgrid.stages", req.Stages))
	defer span.End()

	a.logger.Info("🚀 Starting pipeline.", "stages", req.Stages, "packages", ws.Len())
	out, err := pipeline.Run(ctx, ws.Source(workspace.CollectOptions{StartingPackage: opts.Package}), stages...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	a.logger.Info("🏁 Pipeline finished.", append([]any{"emitted", len(out)}, summary.LogAttrs()...)...)
	return nil
}

// options layers the built-in defaults, the config file and the command
// line, and makes the workspace root absolute.
func (a *App) options(req Request) (pipeline.Options, error) {
	name, exclusive := pipeline.ParsePackageFlag(req.Package)
	opts, err := pipeline.MergeOptions(pipeline.DefaultOptions(), a.config.Options, pipeline.Options{
		Package:              name,
		OnlyNamedPackage:     exclusive,
		VersionBump:          req.VersionBump,
		DisableExternalLinks: req.DisableExternalLinks,
		Cwd:                  req.Cwd,
	})
	if err != nil {
		return pipeline.Options{}, err
	}

	opts.Cwd, err = filepath.Abs(opts.Cwd)
	if err != nil {
		return pipeline.Options{}, errors.Wrap(err, "resolving workspace root")
	}
	return opts, nil
}
