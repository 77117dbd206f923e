// Package render maps a poll result to a description of dropdown rows. It
// has no side effects, so the same input always yields the same rows.
package render

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/nateberkopec/notibar/internal/inbox"
	"github.com/nateberkopec/notibar/internal/links"
)

// PlaceholderText fills the list when the server returns no notifications.
const PlaceholderText = "No notifications"

// ActionKind identifies a row action.
type ActionKind int

const (
	ActionView ActionKind = iota
	ActionMarkRead
)

// Action is a plain navigation link attached to a row.
type Action struct {
	Kind  ActionKind
	Label string
	Href  string
}

// Row describes one line item of the dropdown list.
type Row struct {
	Placeholder    bool
	NotificationID string
	Title          string
	Message        string
	CreatedAt      string
	Unread         bool
	Actions        []Action
}

// Action returns the row's action of the given kind, if any.
func (r Row) Action(kind ActionKind) (Action, bool) {
	for _, a := range r.Actions {
		if a.Kind == kind {
			return a, true
		}
	}
	return Action{}, false
}

// Rows fully rebuilds the list from the server's sequence, preserving its
// order.
func Rows(items []inbox.Notification, lb links.Builder) []Row {
	if len(items) == 0 {
		return []Row{{Placeholder: true, Message: PlaceholderText}}
	}

	rows := make([]Row, 0, len(items))
	for _, n := range items {
		row := Row{
			NotificationID: n.ID,
			Title:          n.Title,
			Message:        n.Message,
			CreatedAt:      n.CreatedAt,
			Unread:         n.Unread(),
		}
		if n.HasRequest() {
			row.Actions = append(row.Actions, Action{Kind: ActionView, Label: "View", Href: lb.View(n.RequestID)})
		}
		if n.Unread() {
			row.Actions = append(row.Actions, Action{Kind: ActionMarkRead, Label: "Mark as read", Href: lb.MarkRead(n.ID)})
		}
		rows = append(rows, row)
	}
	return rows
}

// FirstUnread returns the first rendered unread row.
func FirstUnread(rows []Row) (Row, bool) {
	for _, r := range rows {
		if r.Unread && !r.Placeholder {
			return r, true
		}
	}
	return Row{}, false
}

// ClampLines wraps text to width and keeps at most maxLines lines, ending the
// last kept line with an ellipsis when something was cut.
func ClampLines(text string, width, maxLines int) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" || maxLines <= 0 {
		return nil
	}
	if width <= 1 {
		return []string{ansi.Truncate(text, max(width, 0), "")}
	}

	lines := strings.Split(ansi.Wrap(text, width, " -"), "\n")
	if len(lines) <= maxLines {
		return lines
	}
	kept := lines[:maxLines]
	last := strings.TrimRight(kept[maxLines-1], " ")
	if ansi.StringWidth(last) >= width {
		last = ansi.Truncate(last, width-1, "")
	}
	kept[maxLines-1] = last + "…"
	return kept
}
