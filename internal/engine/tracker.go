package engine

import "broadcast-orchestrator/internal/broadcast"

// Tracker is an engine factory that remembers the engine it created last, so
// faults can be injected into the live session. Like the engines themselves it
// is only used from the controller's execution context.
type Tracker struct {
	opts    Options
	current *Simulated
}

// NewTracker returns a Tracker producing engines with opts.
func NewTracker(opts Options) *Tracker {
	return &Tracker{opts: opts}
}

// Factory returns the broadcast.EngineFactory to hand to the controller.
func (t *Tracker) Factory() broadcast.EngineFactory {
	return func() broadcast.Engine {
		t.current = New(t.opts)
		return t.current
	}
}

// Current returns the most recently created engine, or nil.
func (t *Tracker) Current() *Simulated {
	return t.current
}

// Disconnect drops the live broadcast. It reports false when nothing is
// broadcasting.
func (t *Tracker) Disconnect(reason string) bool {
	if t.current == nil || !t.current.Broadcasting() {
		return false
	}
	t.current.Disconnect(reason)
	return true
}
