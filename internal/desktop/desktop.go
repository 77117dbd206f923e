// Package desktop shows desktop notifications and decides, once per run,
// whether the user's session can display them.
package desktop

import (
	"context"

	"github.com/gen2brain/beeep"

	"github.com/nateberkopec/notibar/internal/log"
)

// Notifier sends desktop notifications through beeep.
type Notifier struct {
	icon string
}

// New creates a Notifier. icon may be empty.
func New(icon string) *Notifier {
	return &Notifier{icon: icon}
}

// Notify shows a notification with the given title and body.
func (n *Notifier) Notify(title, body string) error {
	return beeep.Notify(title, body, n.icon)
}

// Requester answers the one-time permission question at startup.
type Requester struct {
	enabled bool
	probe   func(ctx context.Context) error
	logger  log.Logger
}

// NewRequester creates a Requester. A disabled requester always denies
// without touching the session.
func NewRequester(enabled bool, logger log.Logger) *Requester {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Requester{enabled: enabled, probe: probeDaemon, logger: logger}
}

// Request reports whether desktop notifications may be shown. Callers cache
// the answer for the lifetime of the process.
func (r *Requester) Request(ctx context.Context) bool {
	if !r.enabled {
		r.logger.Info(ctx, "desktop notifications disabled by config")
		return false
	}
	if err := r.probe(ctx); err != nil {
		r.logger.Warnf(ctx, "desktop notifications unavailable: %v", err)
		return false
	}
	return true
}
