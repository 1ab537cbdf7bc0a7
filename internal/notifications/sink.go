package notifications

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/promoschemes/pkg/enums"
	"github.com/angelmondragon/promoschemes/pkg/logger"
)

// Notice is a user-visible message emitted when a scheme is applied.
type Notice struct {
	InvoiceID  *uuid.UUID       `json:"invoice_id,omitempty"`
	SchemeName string           `json:"scheme_name"`
	Kind       enums.NoticeKind `json:"kind"`
	Message    string           `json:"message"`
}

// Sink receives notices. Delivery is fire-and-forget: implementations handle
// their own failures.
type Sink interface {
	Notify(ctx context.Context, notice Notice)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, notice Notice)

func (f SinkFunc) Notify(ctx context.Context, notice Notice) {
	f(ctx, notice)
}

// Recorder collects notices in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(_ context.Context, notice Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
}

// Notices returns a copy of everything recorded so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Fanout delivers each notice to every non-nil sink in order.
type Fanout []Sink

func (f Fanout) Notify(ctx context.Context, notice Notice) {
	for _, sink := range f {
		if sink == nil {
			continue
		}
		sink.Notify(ctx, notice)
	}
}

// LogSink writes notices to the platform logger.
type LogSink struct {
	Logger *logger.Logger
}

func (l LogSink) Notify(ctx context.Context, notice Notice) {
	if l.Logger == nil {
		return
	}
	ctx = l.Logger.WithFields(ctx, map[string]any{
		"scheme_name": notice.SchemeName,
		"notice_kind": notice.Kind.String(),
	})
	l.Logger.Info(ctx, notice.Message)
}

type sinkKey struct{}

// WithSink attaches a request-scoped sink to ctx. Sinks already attached keep
// receiving notices.
func WithSink(ctx context.Context, sink Sink) context.Context {
	if sink == nil {
		return ctx
	}
	if existing := SinkFromContext(ctx); existing != nil {
		sink = Fanout{existing, sink}
	}
	return context.WithValue(ctx, sinkKey{}, sink)
}

// SinkFromContext returns the request-scoped sink, or nil.
func SinkFromContext(ctx context.Context) Sink {
	if ctx == nil {
		return nil
	}
	sink, _ := ctx.Value(sinkKey{}).(Sink)
	return sink
}
