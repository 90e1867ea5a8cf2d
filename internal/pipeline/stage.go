package pipeline

import (
	"context"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/specialistvlad/workgrid/internal/ctxlog"
	"github.com/specialistvlad/workgrid/internal/manifest"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/specialistvlad/workgrid/internal/pipeline"

// Stage consumes items from in and forwards the ones it keeps to out. Run
// returns when in is closed or on the first fatal error. It never closes
// out; the caller owns it.
type Stage interface {
	Name() string
	Run(ctx context.Context, in <-chan *Item, out chan<- *Item) error
}

// PackageFunc processes one package. Returning true keeps the item in the
// stream, false drops it. Recoverable failures are reported by returning an
// error built with Recoverable.
type PackageFunc[B any] func(ctx context.Context, binding B, pkg *Package) (bool, error)

type stage[B any] struct {
	name     string
	opts     Options
	binding  B
	fn       PackageFunc[B]
	packages PackageMap
}

// NewStage wraps fn as a Stage. binding is built once by the caller for this
// stage invocation and handed to fn for every package.
func NewStage[B any](name string, opts Options, binding B, fn PackageFunc[B]) Stage {
	return &stage[B]{
		name:     name,
		opts:     opts,
		binding:  binding,
		fn:       fn,
		packages: make(PackageMap),
	}
}

func (s *stage[B]) Name() string {
	return s.name
}

func (s *stage[B]) Run(ctx context.Context, in <-chan *Item, out chan<- *Item) error {
	ctx = ctxlog.With(ctx, "stage", s.name)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Stage started.")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item, ok := <-in:
			if !ok {
				logger.Debug("Stage finished.", "packages", len(s.packages))
				return nil
			}
			keep, err := s.process(ctx, item)
			if err != nil {
				return err
			}
			if !keep {
				continue
			}
			select {
			case out <- item:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// process handles one item and reports whether it stays in the stream.
func (s *stage[B]) process(ctx context.Context, item *Item) (bool, error) {
	if item.Reader != nil {
		return false, errors.Wrapf(ErrStreamsUnsupported, "stage %s", s.name)
	}
	if filepath.Base(item.Path) != manifest.FileName {
		return false, errors.Wrapf(ErrUnexpectedInput, "stage %s: got %q", s.name, item.Path)
	}

	desc, err := manifest.Parse(item.Contents)
	if err != nil {
		return false, errors.Wrapf(ErrUnexpectedInput, "stage %s: %s: %v", s.name, item.Path, err)
	}

	dir := item.Dir()
	s.packages[desc.Name] = MappedPackage{Descriptor: desc, Dir: dir}

	logger := ctxlog.FromContext(ctx).With("package", desc.Name)
	if s.opts.Package != "" && s.opts.OnlyNamedPackage && desc.Name != s.opts.Package {
		logger.Debug("Not the named package, passing through.", "namedPackage", s.opts.Package)
		notify(ctx, Event{Stage: s.name, Package: desc.Name, Kind: EventSkipped})
		return true, nil
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, s.name, trace.WithAttributes(
		attribute.String("workgrid.package", desc.Name),
		attribute.String("workgrid.dir", dir),
	))
	defer span.End()

	notify(ctx, Event{Stage: s.name, Package: desc.Name, Kind: EventStarted})
	keep, err := s.fn(ctx, s.binding, &Package{
		Descriptor: desc,
		Dir:        dir,
		Item:       item,
		Packages:   s.packages,
	})
	if err == nil {
		notify(ctx, Event{Stage: s.name, Package: desc.Name, Kind: EventFinished})
		return keep, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	notify(ctx, Event{Stage: s.name, Package: desc.Name, Kind: EventFailed, Err: err})

	var pluginErr *PluginError
	if !errors.As(err, &pluginErr) {
		logger.Error("❌ Stage failed.", "error", err)
		return false, errors.Wrapf(err, "%s failed for workspace package %q", s.name, desc.Name)
	}

	pluginErr.Stage = s.name
	pluginErr.Package = desc.Name
	attrs := []any{"error", pluginErr.Err, "continue", pluginErr.Continue}
	if details := errors.FlattenDetails(pluginErr.Err); details != "" {
		attrs = append(attrs, "output", details)
	}
	logger.Error("❌ Workspace package failed.", attrs...)

	if !pluginErr.Continue {
		return false, pluginErr
	}
	return !s.opts.DropFailed, nil
}
