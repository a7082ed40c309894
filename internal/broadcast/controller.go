package broadcast

import (
	"errors"
	"log/slog"

	"broadcast-orchestrator/internal/platform/metrics"

	"github.com/google/uuid"
)

// Options configures a Controller.
type Options struct {
	// NewEngine creates the engine for each attachment cycle. Required.
	NewEngine EngineFactory
	// Surfaces receives the preview surface.
	Surfaces SurfaceHost
	// Sleep keeps the host awake while attached.
	Sleep SleepInhibitor
	// Notifications delivers audio session notifications.
	Notifications NotificationSource
	Logger        *slog.Logger
	// Metrics may be nil to disable metric recording (e.g. in tests).
	Metrics *metrics.Metrics
	// Strict panics on caller contract violations such as a Start without
	// credentials. Use it in development builds.
	Strict bool
}

// session is the engine handle owned for one attachment cycle.
type session struct {
	id     string
	engine Engine
}

// Controller sequences the engine lifecycle against host attach and detach
// and dispatches broadcast commands.
//
// A Controller is not safe for concurrent use: every method, and every engine
// and notification callback, must run on the same execution context.
type Controller struct {
	newEngine EngineFactory
	surfaces  SurfaceHost
	sleep     SleepInhibitor
	log       *slog.Logger
	metrics   *metrics.Metrics
	strict    bool

	sink    *EventSink
	gate    *ConfigGate
	bridge  *NotificationBridge
	preview *PreviewAcquisition

	state   State
	session *session
}

// NewController returns a detached Controller.
func NewController(opts Options) *Controller {
	c := &Controller{
		newEngine: opts.NewEngine,
		surfaces:  opts.Surfaces,
		sleep:     opts.Sleep,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		strict:    opts.Strict,
		sink:      NewEventSink(),
		state:     StateDetached,
	}
	if c.surfaces == nil {
		c.surfaces = nopSurfaceHost{}
	}
	if c.sleep == nil {
		c.sleep = nopSleepInhibitor{}
	}
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	c.gate = newConfigGate(c.reportError)
	c.bridge = newNotificationBridge(opts.Notifications, c.emitNotification)
	c.preview = &PreviewAcquisition{discarded: func() {
		c.log.Debug("discarded stale camera preview result")
	}}
	return c
}

// Events returns the sink hosts register handlers on.
func (c *Controller) Events() *EventSink { return c.sink }

// Config returns the configuration gate.
func (c *Controller) Config() *ConfigGate { return c.gate }

// State returns the current lifecycle state.
func (c *Controller) State() State { return c.state }

// Snapshot describes the controller for hosts.
type Snapshot struct {
	State          State         `json:"state"`
	CycleID        string        `json:"cycle_id,omitempty"`
	Initiated      bool          `json:"initiated"`
	Ready          bool          `json:"ready"`
	PreviewPending bool          `json:"preview_pending"`
	Subscribed     bool          `json:"subscribed"`
	Config         Configuration `json:"config"`
}

// Snapshot returns the current state, session and configuration.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		State:          c.state,
		PreviewPending: c.preview.Pending(),
		Subscribed:     c.bridge.Active(),
		Config:         c.gate.Snapshot(),
	}
	if c.session != nil {
		s.CycleID = c.session.id
		s.Initiated = c.session.engine.IsInitiated()
		s.Ready = c.session.engine.IsReady()
	}
	return s
}

// OnAttach starts an attachment cycle: it keeps the host awake, subscribes to
// audio session notifications, creates and initiates the engine, applies the
// staged configuration and requests the camera preview.
//
// It returns ErrAlreadyAttached while a Session exists. An initiation failure
// is reported, rolled back, and returned; the host may attach again.
func (c *Controller) OnAttach() error {
	if c.state.Attached() || c.session != nil {
		initiated := c.session != nil && c.session.engine.IsInitiated()
		c.log.Debug("attach ignored, session exists",
			slog.String("state", c.state.String()),
			slog.Bool("initiated", initiated))
		return ErrAlreadyAttached
	}

	c.sleep.SetIdleTimerDisabled(true)
	c.bridge.Subscribe()

	sess := &session{id: uuid.NewString(), engine: c.newEngine()}
	sess.engine.SetHandlers(c.engineHandlers(sess))

	if err := sess.engine.Initiate(); err != nil {
		sess.engine.SetHandlers(EngineHandlers{})
		c.bridge.Unsubscribe()
		c.sleep.SetIdleTimerDisabled(false)
		ierr := &InitiationError{Err: err}
		c.reportError(ierr)
		return ierr
	}

	c.session = sess
	c.setState(StateInitiating)
	if c.metrics != nil {
		c.metrics.IncAttach()
	}

	c.gate.bind(sess.engine)

	cfg := c.gate.Snapshot()
	if err := c.preview.Request(sess.engine, cfg.AspectMode, cfg.PreviewMirrored, func(r PreviewResult) {
		c.previewResolved(sess, r)
	}); err != nil {
		c.reportError(&PreviewAcquisitionError{Err: err})
	}
	return nil
}

// OnDetach ends the attachment cycle in reverse order. Calling it while
// detached is a no-op.
func (c *Controller) OnDetach() {
	if !c.state.Attached() && c.session == nil {
		return
	}

	c.sleep.SetIdleTimerDisabled(false)
	c.bridge.Unsubscribe()
	c.surfaces.RemoveSurfaces()
	c.preview.Invalidate()
	c.gate.unbind()

	if sess := c.session; sess != nil {
		c.session = nil
		sess.engine.SetHandlers(EngineHandlers{})
		sess.engine.Deinitiate()
		c.log.Info("broadcast session destroyed", slog.String("cycle_id", sess.id))
	}

	c.setState(StateDetached)
	if c.metrics != nil {
		c.metrics.IncDetach()
	}
}

// Start begins broadcasting to endpointURL with the given stream key. Missing
// credentials fail in every state; otherwise it is allowed in StateReady and
// StateBroadcasting.
func (c *Controller) Start(endpointURL, credential string) error {
	params, err := NewStartParams(endpointURL, credential)
	if err != nil {
		c.reportError(err)
		if c.strict {
			panic(err)
		}
		return err
	}

	if c.state != StateReady && c.state != StateBroadcasting {
		err := &InvalidStateError{Op: "start", State: c.state}
		c.reportError(err)
		return err
	}

	if err := c.session.engine.Start(params); err != nil {
		serr := &StartError{Err: err}
		c.reportError(serr)
		return serr
	}

	c.setState(StateBroadcasting)
	return nil
}

// StartConfigured is Start with the endpoint and stream key held by the
// configuration gate.
func (c *Controller) StartConfigured() error {
	cfg := c.gate.cfg
	return c.Start(cfg.EndpointURL, cfg.StreamKey)
}

// Stop ends the broadcast. From StateBroadcasting or StateStopped it returns
// to StateReady; in other attached states only the engine is told.
func (c *Controller) Stop() error {
	if c.session == nil {
		return ErrNotAttached
	}
	c.session.engine.Stop()
	if c.state == StateBroadcasting || c.state == StateStopped {
		c.setState(StateReady)
	}
	return nil
}

// SwapCamera switches between front and back cameras.
func (c *Controller) SwapCamera() error {
	if c.session == nil {
		return ErrNotAttached
	}
	if err := c.session.engine.SwapCamera(); err != nil {
		serr := &CameraSwapError{Err: err}
		c.reportError(serr)
		return serr
	}
	return nil
}

func (c *Controller) previewResolved(sess *session, r PreviewResult) {
	if c.session != sess {
		c.log.Debug("discarded camera preview for destroyed session", slog.String("cycle_id", sess.id))
		return
	}
	if r.Err != nil {
		c.reportError(&PreviewAcquisitionError{Err: r.Err})
		return
	}

	c.surfaces.AttachSurface(r.Surface)
	c.setState(StateReady)

	ready := sess.engine.IsReady()
	c.emit(Event{Kind: EventIsBroadcastReady, IsReady: &ready})
}

// engineHandlers forwards engine callbacks for sess to the sink. Callbacks
// arriving after sess is destroyed are dropped.
func (c *Controller) engineHandlers(sess *session) EngineHandlers {
	live := func() bool { return c.session == sess }
	return EngineHandlers{
		BroadcastError: func(e BroadcastError) {
			if !live() {
				return
			}
			c.log.Warn("engine broadcast error",
				slog.String("cycle_id", sess.id),
				slog.Int("code", e.Code),
				slog.String("detail", e.Detail),
				slog.Bool("fatal", e.IsFatal))
			c.emit(Event{Kind: EventBroadcastError, Message: e.Detail, Payload: e})
		},
		AudioStats: func(s AudioStats) {
			if live() {
				c.emit(Event{Kind: EventBroadcastAudioStats, Payload: s})
			}
		},
		StateChanged: func(st BroadcastState) {
			if !live() {
				return
			}
			if c.state == StateBroadcasting && (st == BroadcastStateDisconnected || st == BroadcastStateError) {
				c.setState(StateStopped)
			}
			c.emit(Event{Kind: EventBroadcastStateChanged, Payload: st})
		},
		QualityChanged: func(q Quality) {
			if live() {
				c.emit(Event{Kind: EventBroadcastQualityChanged, Payload: q})
			}
		},
		NetworkHealthChanged: func(h NetworkHealth) {
			if live() {
				c.emit(Event{Kind: EventNetworkHealthChanged, Payload: h})
			}
		},
	}
}

func (c *Controller) setState(s State) {
	if s == c.state {
		return
	}
	prev := c.state
	c.state = s

	attrs := []any{slog.String("from", prev.String()), slog.String("to", s.String())}
	if c.session != nil {
		attrs = append(attrs, slog.String("cycle_id", c.session.id))
	}
	c.log.Info("broadcast state changed", attrs...)
	if c.metrics != nil {
		c.metrics.SetState(prev.String(), s.String())
	}
}

func (c *Controller) emit(e Event) {
	if c.metrics != nil {
		c.metrics.IncEvent(string(e.Kind))
	}
	c.sink.Emit(e)
}

func (c *Controller) emitNotification(e Event) {
	c.log.Info("audio session notification", slog.String("event", string(e.Kind)))
	if c.metrics != nil {
		c.metrics.IncNotification(string(e.Kind))
	}
	c.emit(e)
}

// reportError logs err and emits it as an EventError.
func (c *Controller) reportError(err error) {
	class := errorClass(err)
	attrs := []any{slog.String("class", class), slog.String("error", err.Error())}
	if c.session != nil {
		attrs = append(attrs, slog.String("cycle_id", c.session.id))
	}

	var stateErr *InvalidStateError
	if errors.As(err, &stateErr) {
		c.log.Warn("broadcast command rejected", attrs...)
	} else {
		c.log.Error("broadcast error", attrs...)
	}

	if c.metrics != nil {
		c.metrics.IncSessionError(class)
	}
	c.emit(Event{Kind: EventError, Message: err.Error(), Err: err})
}

type nopSurfaceHost struct{}

func (nopSurfaceHost) AttachSurface(Surface) {}
func (nopSurfaceHost) RemoveSurfaces()       {}

type nopSleepInhibitor struct{}

func (nopSleepInhibitor) SetIdleTimerDisabled(bool) {}
