// Package alert decides when new notifications deserve attention and fires
// the sound and desktop notification for them.
package alert

import (
	"context"
	"fmt"

	"github.com/nateberkopec/notibar/internal/log"
	"github.com/nateberkopec/notibar/internal/render"
)

const defaultTitle = "New Notification"

// Alert is one alert attempt.
type Alert struct {
	Unread  int
	Title   string
	Body    string
	Desktop bool
}

// New builds the alert for unread notifications. The first rendered unread
// row supplies the desktop text when there is one.
func New(unread int, rows []render.Row, desktop bool) Alert {
	a := Alert{
		Unread:  unread,
		Title:   defaultTitle,
		Body:    fmt.Sprintf("You have %d unread notifications", unread),
		Desktop: desktop,
	}
	if row, ok := render.FirstUnread(rows); ok {
		a.Title = row.Title
		a.Body = row.Message
	}
	return a
}

// SoundPlayer plays the alert sound, falling back internally as needed.
type SoundPlayer interface {
	Play(ctx context.Context) error
}

// DesktopNotifier shows a desktop notification.
type DesktopNotifier interface {
	Notify(title, body string) error
}

// Alerter fires alerts. Failures are logged and swallowed.
type Alerter struct {
	sound   SoundPlayer
	desktop DesktopNotifier
	logger  log.Logger
}

// NewAlerter wires the alert collaborators. Either may be nil.
func NewAlerter(sound SoundPlayer, desktop DesktopNotifier, logger log.Logger) *Alerter {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Alerter{sound: sound, desktop: desktop, logger: logger}
}

// Fire plays the sound and, when a.Desktop is set, shows the desktop
// notification. Neither failure stops the other.
func (al *Alerter) Fire(ctx context.Context, a Alert) {
	if al.sound != nil {
		if err := al.sound.Play(ctx); err != nil {
			al.logger.Warnf(ctx, "alert sound failed: %v", err)
		}
	}

	if !a.Desktop || al.desktop == nil {
		return
	}
	if err := al.notify(a); err != nil {
		al.logger.Warnf(ctx, "desktop notification failed: %v", err)
	}
}

func (al *Alerter) notify(a Alert) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panicked: %v", r)
		}
	}()
	return al.desktop.Notify(a.Title, a.Body)
}
