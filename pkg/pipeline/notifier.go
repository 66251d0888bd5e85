package pipeline

import (
	"go.uber.org/zap"

	"github.com/resolvd/resolvd/pkg/logger"
)

// Notifier receives pipeline lifecycle notifications, e.g. for a UI shell.
// Callbacks run on the pipeline's event loop and must return quickly.
type Notifier interface {
	ResolverAdded(Resolver)
	ResolverRemoved(Resolver)

	// Resolving fires when a request is dispatched to a resolver.
	Resolving(Request)

	// Idle fires when the pending queue and every budget slot are empty.
	Idle()
}

type NoopNotifier struct{}

var _ Notifier = (*NoopNotifier)(nil)

func (NoopNotifier) ResolverAdded(Resolver)   {}
func (NoopNotifier) ResolverRemoved(Resolver) {}
func (NoopNotifier) Resolving(Request)        {}
func (NoopNotifier) Idle()                    {}

// LoggingNotifier logs every notification. It is the default wiring for the
// server binary, where no UI shell is attached.
type LoggingNotifier struct {
	logger logger.Logger
}

var _ Notifier = (*LoggingNotifier)(nil)

func NewLoggingNotifier(l logger.Logger) *LoggingNotifier {
	return &LoggingNotifier{logger: l}
}

func (n *LoggingNotifier) ResolverAdded(r Resolver) {
	n.logger.Info("resolver added",
		zap.String("resolver", r.Name()),
		zap.Int("weight", r.Weight()),
	)
}

func (n *LoggingNotifier) ResolverRemoved(r Resolver) {
	n.logger.Info("resolver removed", zap.String("resolver", r.Name()))
}

func (n *LoggingNotifier) Resolving(req Request) {
	n.logger.Debug("resolving", zap.String("request_id", req.ID()))
}

func (n *LoggingNotifier) Idle() {
	n.logger.Debug("pipeline idle")
}
