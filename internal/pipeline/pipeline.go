package pipeline

import (
	"context"

	"github.com/specialistvlad/workgrid/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// Source pushes items into out in processing order. It must not close out.
type Source func(ctx context.Context, out chan<- *Item) error

// FromItems returns a Source that emits items as given.
func FromItems(items ...*Item) Source {
	return func(ctx context.Context, out chan<- *Item) error {
		for _, item := range items {
			select {
			case out <- item:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}
}

// Run streams the items produced by src through stages, in order, and
// returns the items that came out of the last stage. The first fatal error
// from the source or any stage cancels the rest of the chain and is
// returned; work already done by earlier packages is kept.
func Run(ctx context.Context, src Source, stages ...Stage) ([]*Item, error) {
	logger := ctxlog.FromContext(ctx)
	g, ctx := errgroup.WithContext(ctx)

	head := make(chan *Item)
	g.Go(func() error {
		defer close(head)
		return src(ctx, head)
	})

	var in <-chan *Item = head
	for _, st := range stages {
		out := make(chan *Item)
		upstream := in
		g.Go(func() error {
			defer close(out)
			return st.Run(ctx, upstream, out)
		})
		in = out
	}

	var results []*Item
	g.Go(func() error {
		for item := range in {
			results = append(results, item)
		}
		return nil
	})

	err := g.Wait()
	logger.Debug("Pipeline finished.", "stages", len(stages), "emitted", len(results), "failed", err != nil)
	return results, err
}
