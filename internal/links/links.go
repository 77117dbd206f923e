package links

import (
	"fmt"
	"net/url"
	"strings"
)

const idPlaceholder = "{id}"

// Builder turns notification and request ids into navigation URLs on the
// notification server. The watcher only opens these in a browser; it never
// requests them itself.
type Builder struct {
	base         *url.URL
	viewPath     string
	markReadPath string
}

// NewBuilder validates the base URL and path templates. Both templates must
// contain the {id} placeholder.
func NewBuilder(base, viewPath, markReadPath string) (Builder, error) {
	u, err := ParseBase(base)
	if err != nil {
		return Builder{}, err
	}
	for _, tmpl := range []string{viewPath, markReadPath} {
		if !strings.Contains(tmpl, idPlaceholder) {
			return Builder{}, fmt.Errorf("path template %q missing %s", tmpl, idPlaceholder)
		}
	}
	return Builder{base: u, viewPath: viewPath, markReadPath: markReadPath}, nil
}

// ParseBase converts a user provided server URL into an absolute base.
func ParseBase(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty server URL")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server URL must be http or https")
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server URL must include a host")
	}

	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// View links to the request a notification is about.
func (b Builder) View(requestID string) string {
	return b.expand(b.viewPath, requestID)
}

// MarkRead links to the server action that marks a notification read.
func (b Builder) MarkRead(notificationID string) string {
	return b.expand(b.markReadPath, notificationID)
}

// Resolve joins a path (or absolute URL) onto the base. Leading slashes
// stay relative to the base path, so a server mounted under /app keeps it.
func (b Builder) Resolve(p string) string {
	if b.base == nil {
		return p
	}
	ref, err := url.Parse(p)
	if err != nil {
		return p
	}
	if ref.IsAbs() {
		return ref.String()
	}
	ref.Path = strings.TrimPrefix(ref.Path, "/")
	ref.RawPath = strings.TrimPrefix(ref.RawPath, "/")
	return b.base.ResolveReference(ref).String()
}

func (b Builder) expand(tmpl, id string) string {
	if tmpl == "" {
		return ""
	}
	return b.Resolve(strings.ReplaceAll(tmpl, idPlaceholder, url.PathEscape(id)))
}
