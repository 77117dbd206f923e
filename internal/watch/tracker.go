package watch

import (
	"slices"
	"time"

	"github.com/nateberkopec/notibar/internal/alert"
	"github.com/nateberkopec/notibar/internal/inbox"
	"github.com/nateberkopec/notibar/internal/links"
	"github.com/nateberkopec/notibar/internal/render"
)

// Tracker keeps the session state the UI renders: the rows and badge from
// the most recent successful poll, the unread baseline used to detect new
// notifications, and the cached desktop permission.
type Tracker struct {
	links links.Builder

	lastUnread int
	permission bool

	rows      []render.Row
	badge     alert.Badge
	checkedAt time.Time
	cycles    int
}

// Cycle is the outcome of applying one poll result.
type Cycle struct {
	Rows  []render.Row
	Badge alert.Badge
	// Alert is set when the unread count rose since the previous poll.
	Alert *alert.Alert
}

// NewTracker creates a tracker with a zero baseline.
func NewTracker(lb links.Builder) *Tracker {
	return &Tracker{links: lb}
}

// Apply renders the result, updates the badge, decides whether to alert,
// and finally records the new unread count as the baseline. The baseline is
// recorded whether or not the alert later succeeds.
func (t *Tracker) Apply(result inbox.PollResult, now time.Time) Cycle {
	rows := render.Rows(result.Notifications, t.links)
	badge, fire := alert.Evaluate(t.badge, result.Unread, t.lastUnread)

	var a *alert.Alert
	if fire {
		built := alert.New(result.Unread, rows, t.permission)
		a = &built
	}

	t.rows = rows
	t.badge = badge
	t.checkedAt = now
	t.cycles++
	t.lastUnread = result.Unread

	return Cycle{Rows: slices.Clone(rows), Badge: badge, Alert: a}
}

// SetPermission caches the startup permission answer.
func (t *Tracker) SetPermission(granted bool) {
	t.permission = granted
}

// Permission reports the cached desktop permission.
func (t *Tracker) Permission() bool {
	return t.permission
}

// LastUnread exposes the current baseline.
func (t *Tracker) LastUnread() int {
	return t.lastUnread
}

// Rows returns the rows in display order. Nil until the first successful poll.
func (t *Tracker) Rows() []render.Row {
	return slices.Clone(t.rows)
}

// LenRows exposes the current row count.
func (t *Tracker) LenRows() int {
	return len(t.rows)
}

// Badge returns the current badge.
func (t *Tracker) Badge() alert.Badge {
	return t.badge
}

// CheckedAt is when the last successful poll was applied.
func (t *Tracker) CheckedAt() time.Time {
	return t.checkedAt
}

// Loaded reports whether any poll has succeeded yet.
func (t *Tracker) Loaded() bool {
	return t.cycles > 0
}
