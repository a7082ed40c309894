package broadcast

import (
	"testing"

	"broadcast-orchestrator/internal/notify"
)

type fakeSurface struct{ id string }

func (s fakeSurface) SurfaceID() string { return s.id }

// fakeEngine records every call and holds the preview callback until the test
// resolves it.
type fakeEngine struct {
	initiated bool
	ready     bool

	initErr  error
	videoErr error
	audioErr error
	swapErr  error
	startErr error

	video           *VideoConfig
	audio           *AudioConfig
	camera          CameraPosition
	logLevel        LogLevel
	sessionLogLevel LogLevel

	starts   []StartParams
	stops    int
	swaps    int
	deinits  int
	handlers EngineHandlers

	previewRequests int
	previewMode     AspectMode
	previewMirrored bool
	previewDone     func(Surface, error)
}

func (e *fakeEngine) Initiate() error {
	if e.initErr != nil {
		return e.initErr
	}
	e.initiated = true
	return nil
}

func (e *fakeEngine) Deinitiate() {
	e.deinits++
	e.initiated = false
}

func (e *fakeEngine) IsInitiated() bool { return e.initiated }
func (e *fakeEngine) IsReady() bool     { return e.ready }

func (e *fakeEngine) SetCameraPosition(pos CameraPosition) { e.camera = pos }
func (e *fakeEngine) SetLogLevel(level LogLevel)           { e.logLevel = level }
func (e *fakeEngine) SetSessionLogLevel(level LogLevel)    { e.sessionLogLevel = level }

func (e *fakeEngine) SetVideoConfig(cfg VideoConfig) error {
	if e.videoErr != nil {
		return e.videoErr
	}
	e.video = &cfg
	return nil
}

func (e *fakeEngine) SetAudioConfig(cfg AudioConfig) error {
	if e.audioErr != nil {
		return e.audioErr
	}
	e.audio = &cfg
	return nil
}

func (e *fakeEngine) SwapCamera() error {
	if e.swapErr != nil {
		return e.swapErr
	}
	e.swaps++
	return nil
}

func (e *fakeEngine) Start(params StartParams) error {
	if e.startErr != nil {
		return e.startErr
	}
	e.starts = append(e.starts, params)
	return nil
}

func (e *fakeEngine) Stop() { e.stops++ }

func (e *fakeEngine) CameraPreviewAsync(mode AspectMode, mirrored bool, done func(Surface, error)) {
	e.previewRequests++
	e.previewMode = mode
	e.previewMirrored = mirrored
	e.previewDone = done
}

func (e *fakeEngine) SetHandlers(h EngineHandlers) { e.handlers = h }

// resolvePreview delivers the pending preview callback.
func (e *fakeEngine) resolvePreview(s Surface, err error) {
	e.previewDone(s, err)
}

type fakeHost struct {
	surfaces []Surface
	removed  int
}

func (h *fakeHost) AttachSurface(s Surface) { h.surfaces = append(h.surfaces, s) }
func (h *fakeHost) RemoveSurfaces() {
	h.removed++
	h.surfaces = nil
}

type fakeSleep struct {
	disabled bool
	calls    []bool
}

func (s *fakeSleep) SetIdleTimerDisabled(disabled bool) {
	s.disabled = disabled
	s.calls = append(s.calls, disabled)
}

// recorder captures every emitted event.
type recorder struct {
	events []Event
}

func (r *recorder) register(sink *EventSink) {
	for _, kind := range EventKinds {
		sink.On(kind, func(e Event) { r.events = append(r.events, e) })
	}
}

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) last(kind EventKind) (Event, bool) {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return Event{}, false
}

type harness struct {
	ctrl    *Controller
	host    *fakeHost
	sleep   *fakeSleep
	center  *notify.Center
	events  *recorder
	engines []*fakeEngine

	// configure, if set, prepares each engine before it is handed out.
	configure func(*fakeEngine)
}

func newHarness(t *testing.T, strict bool) *harness {
	t.Helper()
	h := &harness{
		host:   &fakeHost{},
		sleep:  &fakeSleep{},
		center: notify.NewCenter(),
		events: &recorder{},
	}
	h.ctrl = NewController(Options{
		NewEngine: func() Engine {
			e := &fakeEngine{ready: true}
			if h.configure != nil {
				h.configure(e)
			}
			h.engines = append(h.engines, e)
			return e
		},
		Surfaces:      h.host,
		Sleep:         h.sleep,
		Notifications: h.center,
		Strict:        strict,
	})
	h.events.register(h.ctrl.Events())
	return h
}

// engine returns the most recently created engine.
func (h *harness) engine() *fakeEngine {
	return h.engines[len(h.engines)-1]
}

// attachReady attaches and resolves the preview successfully.
func (h *harness) attachReady(t *testing.T) *fakeEngine {
	t.Helper()
	if err := h.ctrl.OnAttach(); err != nil {
		t.Fatalf("OnAttach: %v", err)
	}
	e := h.engine()
	e.resolvePreview(fakeSurface{id: "preview-1"}, nil)
	if h.ctrl.State() != StateReady {
		t.Fatalf("expected ready after preview, got %s", h.ctrl.State())
	}
	return e
}

func (h *harness) subscriptionCount() int {
	return h.center.ObserverCount(notify.AudioInterruption) +
		h.center.ObserverCount(notify.MediaServicesLost) +
		h.center.ObserverCount(notify.MediaServicesReset)
}

func validVideo() VideoConfig {
	return DefaultVideoConfig()
}

func validAudio() AudioConfig {
	return DefaultAudioConfig()
}
