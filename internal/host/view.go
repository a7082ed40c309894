// Package host is the host side of the broadcast controller: the view that
// displays the camera preview and keeps the device awake, the websocket event
// stream, and the HTTP surface that drives the controller.
package host

import (
	"sync"

	"broadcast-orchestrator/internal/broadcast"
)

// View displays the preview surface and holds the idle timer override. It
// implements broadcast.SurfaceHost and broadcast.SleepInhibitor.
type View struct {
	mu                sync.RWMutex
	surface           broadcast.Surface
	idleTimerDisabled bool
}

// NewView returns an empty view with the idle timer enabled.
func NewView() *View {
	return &View{}
}

// AttachSurface implements broadcast.SurfaceHost.
func (v *View) AttachSurface(s broadcast.Surface) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.surface = s
}

// RemoveSurfaces implements broadcast.SurfaceHost.
func (v *View) RemoveSurfaces() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.surface = nil
}

// SetIdleTimerDisabled implements broadcast.SleepInhibitor.
func (v *View) SetIdleTimerDisabled(disabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.idleTimerDisabled = disabled
}

// Surface returns the displayed surface, or nil.
func (v *View) Surface() broadcast.Surface {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.surface
}

// IdleTimerDisabled reports whether the device is kept awake.
func (v *View) IdleTimerDisabled() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.idleTimerDisabled
}
