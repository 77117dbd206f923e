package alert

import "strconv"

// Badge is the unread counter drawn on the bell button.
type Badge struct {
	Count     int
	Attention bool
}

// Present reports whether the badge is drawn at all.
func (b Badge) Present() bool {
	return b.Count > 0
}

// Label is the badge text.
func (b Badge) Label() string {
	if !b.Present() {
		return ""
	}
	return strconv.Itoa(b.Count)
}

// Evaluate applies a new unread count to the badge and reports whether an
// alert should fire. Only a strict increase over previous fires; the first
// poll compares against 0.
func Evaluate(current Badge, unread, previous int) (Badge, bool) {
	next := current
	if unread > 0 {
		next.Count = unread
	} else {
		next = Badge{}
	}

	if unread > previous {
		next.Attention = true
		return next, true
	}
	return next, false
}
