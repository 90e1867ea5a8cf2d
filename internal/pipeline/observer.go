package pipeline

import "context"

// EventKind distinguishes the progress events a stage emits.
type EventKind string

const (
	EventStarted  EventKind = "started"
	EventFinished EventKind = "finished"
	EventSkipped  EventKind = "skipped"
	EventFailed   EventKind = "failed"
)

// Event describes progress of one package through one stage.
type Event struct {
	Stage   string
	Package string
	Kind    EventKind
	Err     error
}

// Observer receives progress events. Implementations must not block for
// long: they are called from the stage goroutine.
type Observer interface {
	Observe(ctx context.Context, e Event)
}

type observerKey struct{}

// WithObserver returns a context whose stages report to o.
func WithObserver(ctx context.Context, o Observer) context.Context {
	return context.WithValue(ctx, observerKey{}, o)
}

func notify(ctx context.Context, e Event) {
	if o, ok := ctx.Value(observerKey{}).(Observer); ok && o != nil {
		o.Observe(ctx, e)
	}
}
