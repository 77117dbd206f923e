//go:build !linux

package desktop

import "context"

// probeDaemon always succeeds; beeep handles platform delivery itself.
func probeDaemon(context.Context) error {
	return nil
}
