//go:build linux

package desktop

import (
	"context"

	"github.com/godbus/dbus/v5"
)

const (
	dbusNotifyDest      = "org.freedesktop.Notifications"
	dbusNotifyPath      = "/org/freedesktop/Notifications"
	dbusNotifyInterface = "org.freedesktop.Notifications"
)

// probeDaemon asks the session's notification daemon for its capabilities.
// No session bus, or no daemon on it, means notifications cannot be shown.
func probeDaemon(ctx context.Context) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return err
	}

	obj := conn.Object(dbusNotifyDest, dbusNotifyPath)
	call := obj.CallWithContext(ctx, dbusNotifyInterface+".GetCapabilities", 0)
	if call.Err != nil {
		return call.Err
	}

	var caps []string
	return call.Store(&caps)
}
