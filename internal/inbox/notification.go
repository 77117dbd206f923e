package inbox

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// ReadFlag is the server's read marker. Servers send 0/1, sometimes as
// strings or booleans; anything that does not parse is ReadUnknown.
type ReadFlag int

const (
	ReadUnknown ReadFlag = -1
	ReadNo      ReadFlag = 0
	ReadYes     ReadFlag = 1
)

// Notification is one server-owned entry. The watcher never mutates it.
type Notification struct {
	ID        string
	Title     string
	Message   string
	CreatedAt string
	IsRead    ReadFlag
	RequestID string
}

// Unread reports whether the read flag parses as the integer 0.
func (n Notification) Unread() bool {
	return n.IsRead == ReadNo
}

// HasRequest reports whether a request id accompanies the notification.
// The decoder drops falsy ids (null, "", false, numeric 0) but keeps the
// string "0".
func (n Notification) HasRequest() bool {
	return n.RequestID != ""
}

// PollResult is the decoded body of one check. It replaces, never merges
// with, the previous result.
type PollResult struct {
	Unread        int
	Notifications []Notification
}

type checkPayload struct {
	Unread        json.RawMessage       `json:"unread"`
	Notifications []notificationPayload `json:"notifications"`
}

type notificationPayload struct {
	ID        json.RawMessage `json:"id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	CreatedAt json.RawMessage `json:"created_at"`
	IsRead    json.RawMessage `json:"is_read"`
	RequestID json.RawMessage `json:"request_id"`
}

func (p checkPayload) result() PollResult {
	unread := parseCount(p.Unread)
	items := make([]Notification, 0, len(p.Notifications))
	for _, n := range p.Notifications {
		items = append(items, Notification{
			ID:        rawScalar(n.ID),
			Title:     n.Title,
			Message:   n.Message,
			CreatedAt: rawScalar(n.CreatedAt),
			IsRead:    parseReadFlag(n.IsRead),
			RequestID: requestID(n.RequestID),
		})
	}
	return PollResult{Unread: unread, Notifications: items}
}

// rawScalar renders a JSON string or number as text; null, booleans and
// composite values become "".
func rawScalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(raw)
	default:
		return ""
	}
}

// requestID keeps an id only when it is truthy: a JSON number other than
// zero, or a non-empty string.
func requestID(raw json.RawMessage) string {
	id := rawScalar(raw)
	if id == "" {
		return ""
	}
	if raw = bytes.TrimSpace(raw); raw[0] != '"' {
		if f, err := strconv.ParseFloat(id, 64); err == nil && f == 0 {
			return ""
		}
	}
	return id
}

// parseCount reads the unread count from a number or a numeric string.
// Missing, null or unparsable values count as 0, as do negatives.
func parseCount(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	var n int64
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		v, ok := leadingDigits(s)
		if !ok {
			return 0
		}
		n = v
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return 0
		}
		n = int64(math.Trunc(f))
	}
	if n < 0 {
		return 0
	}
	return int(n)
}

func parseReadFlag(raw json.RawMessage) ReadFlag {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null":
		return ReadUnknown
	case "true":
		return ReadYes
	case "false":
		return ReadNo
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ReadUnknown
		}
		return leadingInt(s)
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return ReadUnknown
	}
	return clampFlag(int64(math.Trunc(f)))
}

// leadingInt parses the optional sign and digits at the start of s, so
// "0", " 1" and "0 (unread)" all yield a flag.
func leadingInt(s string) ReadFlag {
	n, ok := leadingDigits(s)
	if !ok {
		return ReadUnknown
	}
	return clampFlag(n)
}

// leadingDigits parses the integer prefix of s. Out-of-range values
// saturate.
func leadingDigits(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, _ := strconv.ParseInt(s[:end], 10, 64)
	return n, true
}

func clampFlag(n int64) ReadFlag {
	if n == 0 {
		return ReadNo
	}
	return ReadYes
}
