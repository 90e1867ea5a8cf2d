package report

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/specialistvlad/workgrid/internal/ctxlog"
	"github.com/specialistvlad/workgrid/internal/pipeline"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// EventName is the socket.io event every pipeline event is emitted as.
const EventName = "workgrid:event"

const connectTimeout = 15 * time.Second

// Payload is the body of an emitted event.
type Payload struct {
	Stage   string `json:"stage"`
	Package string `json:"package"`
	Kind    string `json:"kind"`
	Error   string `json:"error,omitempty"`
	Time    string `json:"time"`
}

// NewPayload converts a pipeline event.
func NewPayload(e pipeline.Event, at time.Time) Payload {
	p := Payload{
		Stage:   e.Stage,
		Package: e.Package,
		Kind:    string(e.Kind),
		Time:    at.UTC().Format(time.RFC3339Nano),
	}
	if e.Err != nil {
		p.Error = e.Err.Error()
	}
	return p
}

// Socket emits pipeline events over a socket.io connection.
type Socket struct {
	emit  func(event string, args ...any)
	close func()
	now   func() time.Time
}

// Options configures Dial.
type Options struct {
	Namespace          string
	InsecureSkipVerify bool
}

// Dial connects to the socket.io server at rawURL and waits for the
// connection to be established.
func Dial(ctx context.Context, rawURL string, opts Options) (*Socket, error) {
	logger := ctxlog.FromContext(ctx).With("url", rawURL)
	logger.Debug("Connecting event reporter.")

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse report URL")
	}

	ioOpts := socket.DefaultOptions()
	ioOpts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification.")
		ioOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	ioOpts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, ioOpts)
	io := manager.Socket(opts.Namespace, ioOpts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Event reporter connected.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = errors.Newf("%v", errs[0])
		}
		connectChan <- err
	})
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, errors.Wrap(err, "socket.io connection failed")
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, errors.New("context cancelled while waiting for socket.io connection")
	case <-time.After(connectTimeout):
		io.Disconnect()
		return nil, errors.Newf("timed out after %s waiting for socket.io connection", connectTimeout)
	}

	return &Socket{
		emit:  func(event string, args ...any) { io.Emit(event, args...) },
		close: func() { io.Disconnect() },
		now:   time.Now,
	}, nil
}

// Observe implements pipeline.Observer.
func (s *Socket) Observe(ctx context.Context, e pipeline.Event) {
	p := NewPayload(e, s.now())
	ctxlog.FromContext(ctx).Debug("Emitting pipeline event.", "event", EventName, "kind", p.Kind)
	s.emit(EventName, p)
}

// Close disconnects from the server.
func (s *Socket) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}
