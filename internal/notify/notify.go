package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

type Notification struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Notifier receives fire-and-forget user-facing messages.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

func Success(ctx context.Context, n Notifier, message string) {
	n.Notify(ctx, Notification{Message: message, Severity: SeveritySuccess})
}

func Error(ctx context.Context, n Notifier, message string) {
	n.Notify(ctx, Notification{Message: message, Severity: SeverityError})
}

type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) {
	l.log.Debug("notification", zap.String("severity", string(n.Severity)), zap.String("message", n.Message))
}

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}

// Collector buffers notifications raised while serving one request.
type Collector struct {
	mu    sync.Mutex
	items []Notification
}

func (c *Collector) Notify(_ context.Context, n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
}

// Drain returns the buffered notifications and empties the buffer.
func (c *Collector) Drain() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.items
	c.items = nil
	return out
}

type collectorKey struct{}

func WithCollector(ctx context.Context) (context.Context, *Collector) {
	c := &Collector{}
	return context.WithValue(ctx, collectorKey{}, c), c
}

func CollectorFrom(ctx context.Context) *Collector {
	c, _ := ctx.Value(collectorKey{}).(*Collector)
	return c
}

// ContextNotifier forwards to the Collector carried by ctx, if any.
type ContextNotifier struct{}

func (ContextNotifier) Notify(ctx context.Context, n Notification) {
	if c := CollectorFrom(ctx); c != nil {
		c.Notify(ctx, n)
	}
}
