//go:build windows

package notify

import "os"

// DefaultSignalMap is empty on Windows; notifications are posted over HTTP only.
func DefaultSignalMap() map[os.Signal]Notification {
	return nil
}
