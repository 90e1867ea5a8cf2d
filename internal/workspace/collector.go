package workspace

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/specialistvlad/workgrid/internal/ctxlog"
	"github.com/specialistvlad/workgrid/internal/depgraph"
	"github.com/specialistvlad/workgrid/internal/pipeline"
)

// Transform adjusts the item emitted for a record. Returning nil drops the
// record from the stream.
type Transform func(rec *Record, item *pipeline.Item) *pipeline.Item

// CollectOptions selects what Collect emits.
type CollectOptions struct {
	// StartingPackage restricts the stream to this package's dependency
	// closure followed by the package itself.
	StartingPackage string
	Transform       Transform
}

// Order returns the member packages in processing order. Names with no
// record (external dependencies, the workspace root) are skipped.
func (r *Registry) Order(ctx context.Context, startingPackage string) ([]*Record, error) {
	var names []string
	if startingPackage != "" {
		if _, ok := r.Lookup(startingPackage); !ok {
			return nil, errors.Wrapf(ErrPackageNotFound, "%q", startingPackage)
		}
		deps, err := r.graph.DependenciesOf(startingPackage)
		if err != nil {
			return nil, r.orderingError(ctx, err)
		}
		names = append(deps, startingPackage)
	} else {
		order, err := r.graph.OverallOrder()
		if err != nil {
			return nil, r.orderingError(ctx, err)
		}
		names = order
	}

	return r.members(ctx, names), nil
}

// Dependants returns the member packages that transitively depend on name,
// in processing order.
func (r *Registry) Dependants(ctx context.Context, name string) ([]*Record, error) {
	if _, ok := r.Lookup(name); !ok {
		return nil, errors.Wrapf(ErrPackageNotFound, "%q", name)
	}
	names, err := r.graph.DependantsOf(name)
	if err != nil {
		return nil, r.orderingError(ctx, err)
	}
	return r.members(ctx, names), nil
}

// members maps names to their records. Names with no record are skipped.
func (r *Registry) members(ctx context.Context, names []string) []*Record {
	logger := ctxlog.FromContext(ctx)

	records := make([]*Record, 0, len(names))
	for _, name := range names {
		rec, ok := r.Lookup(name)
		if !ok {
			logger.Debug("Skipping dependency that is not a workspace package.", "package", name)
			continue
		}
		records = append(records, rec)
	}
	return records
}

func (r *Registry) orderingError(ctx context.Context, err error) error {
	if path, ok := depgraph.AsCycle(err); ok {
		ctxlog.FromContext(ctx).Error("Circular dependency found.", "cycle", path)
	}
	return errors.Wrap(err, "ordering workspace packages")
}

// Collect pushes the ordered member packages into out. It does not close
// out.
func (r *Registry) Collect(ctx context.Context, out chan<- *pipeline.Item, opts CollectOptions) error {
	records, err := r.Order(ctx, opts.StartingPackage)
	if err != nil {
		return err
	}

	for _, rec := range records {
		item := rec.Item
		if opts.Transform != nil {
			item = opts.Transform(rec, item)
			if item == nil {
				continue
			}
		}
		select {
		case out <- item:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Source adapts Collect to a pipeline source.
func (r *Registry) Source(opts CollectOptions) pipeline.Source {
	return func(ctx context.Context, out chan<- *pipeline.Item) error {
		return r.Collect(ctx, out, opts)
	}
}
