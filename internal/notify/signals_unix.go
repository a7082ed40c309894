//go:build !windows

package notify

import (
	"os"
	"syscall"
)

// DefaultSignalMap maps SIGUSR1/SIGUSR2 to the start and end of an audio
// interruption and SIGHUP to a media services reset.
func DefaultSignalMap() map[os.Signal]Notification {
	return map[os.Signal]Notification{
		syscall.SIGUSR1: Interruption(InterruptionBegan),
		syscall.SIGUSR2: Interruption(InterruptionEnded),
		syscall.SIGHUP:  {Name: MediaServicesReset},
	}
}
