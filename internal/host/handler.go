package host

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"broadcast-orchestrator/internal/broadcast"
	"broadcast-orchestrator/internal/mainloop"
	"broadcast-orchestrator/internal/notify"

	"github.com/go-chi/chi/v5"
)

// Runner executes fn on the controller's execution context and waits for it.
type Runner interface {
	Do(ctx context.Context, fn func() error) error
}

// Notifier posts audio session notifications.
type Notifier interface {
	Post(n notify.Notification)
}

// Faults injects engine failures. It is called on the controller's execution
// context.
type Faults interface {
	Disconnect(reason string) bool
}

// Handler exposes the broadcast controller over HTTP using go-chi. Every
// controller call goes through the Runner.
type Handler struct {
	ctrl     *broadcast.Controller
	loop     Runner
	view     *View
	notifier Notifier
	faults   Faults
	log      *slog.Logger
}

// NewHandler returns a Handler driving ctrl on loop. View and notifier may be
// nil; the session surface and notification routes then report nothing.
func NewHandler(ctrl *broadcast.Controller, loop Runner, view *View, notifier Notifier, log *slog.Logger) *Handler {
	return &Handler{ctrl: ctrl, loop: loop, view: view, notifier: notifier, log: log}
}

// SetFaults enables POST /debug/disconnect.
func (h *Handler) SetFaults(f Faults) {
	h.faults = f
}

// Routes registers the handler's endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/attach", h.Attach)
	r.Post("/detach", h.Detach)
	r.Post("/start", h.Start)
	r.Post("/stop", h.Stop)
	r.Post("/swap-camera", h.SwapCamera)
	r.Get("/session", h.GetSession)

	r.Route("/config", func(r chi.Router) {
		r.Get("/", h.GetConfig)
		r.Put("/video", h.SetVideoConfig)
		r.Put("/audio", h.SetAudioConfig)
		r.Put("/camera-position", h.SetCameraPosition)
		r.Put("/log-level", h.SetLogLevel)
		r.Put("/session-log-level", h.SetSessionLogLevel)
		r.Put("/endpoint", h.SetEndpoint)
		r.Put("/preview", h.SetPreview)
	})

	if h.notifier != nil {
		r.Post("/notifications/{name}", h.PostNotification)
	}
	if h.faults != nil {
		r.Post("/debug/disconnect", h.Disconnect)
	}
}

// Attach handles POST /attach.
func (h *Handler) Attach(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "attach", h.ctrl.OnAttach)
}

// Detach handles POST /detach. Detaching a detached controller succeeds.
func (h *Handler) Detach(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "detach", func() error {
		h.ctrl.OnDetach()
		return nil
	})
}

type startRequest struct {
	EndpointURL string `json:"endpoint_url"`
	StreamKey   string `json:"stream_key"`
}

// Start handles POST /start.
// Body (optional): { "endpoint_url": "rtmps://...", "stream_key": "sk_..." }.
// Omitted fields fall back to the configured endpoint and stream key.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !h.decode(w, r, &req, true) {
		return
	}
	h.command(w, r, "start", func() error {
		cfg := h.ctrl.Config().Snapshot()
		if req.EndpointURL == "" {
			req.EndpointURL = cfg.EndpointURL
		}
		if req.StreamKey == "" {
			req.StreamKey = cfg.StreamKey
		}
		return h.ctrl.Start(req.EndpointURL, req.StreamKey)
	})
}

// Stop handles POST /stop.
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "stop", h.ctrl.Stop)
}

// SwapCamera handles POST /swap-camera.
func (h *Handler) SwapCamera(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "swap camera", h.ctrl.SwapCamera)
}

type sessionResponse struct {
	broadcast.Snapshot
	Surface           broadcast.Surface `json:"surface,omitempty"`
	IdleTimerDisabled bool              `json:"idle_timer_disabled"`
}

// GetSession handles GET /session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "get session", nil)
}

type configResponse struct {
	broadcast.Configuration
	StreamKeySet bool `json:"has_stream_key"`
}

// GetConfig handles GET /config. The stream key itself is never returned.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	var cfg broadcast.Configuration
	err := h.loop.Do(r.Context(), func() error {
		cfg = h.ctrl.Config().Snapshot()
		return nil
	})
	if err != nil {
		h.fail(w, "get config", err)
		return
	}
	writeJSON(w, http.StatusOK, configResponse{Configuration: cfg, StreamKeySet: cfg.HasStreamKey()})
}

// SetVideoConfig handles PUT /config/video. Body: a VideoConfig.
func (h *Handler) SetVideoConfig(w http.ResponseWriter, r *http.Request) {
	var v broadcast.VideoConfig
	if !h.decode(w, r, &v, false) {
		return
	}
	h.configure(w, r, "set video config", func(g *broadcast.ConfigGate) error {
		return g.SetVideoConfig(v)
	})
}

// SetAudioConfig handles PUT /config/audio. Body: an AudioConfig.
func (h *Handler) SetAudioConfig(w http.ResponseWriter, r *http.Request) {
	var a broadcast.AudioConfig
	if !h.decode(w, r, &a, false) {
		return
	}
	h.configure(w, r, "set audio config", func(g *broadcast.ConfigGate) error {
		return g.SetAudioConfig(a)
	})
}

// SetCameraPosition handles PUT /config/camera-position.
// Body: { "position": "front" }.
func (h *Handler) SetCameraPosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Position string `json:"position"`
	}
	if !h.decode(w, r, &req, false) {
		return
	}
	pos := broadcast.ParseCameraPosition(req.Position)
	h.configure(w, r, "set camera position", func(g *broadcast.ConfigGate) error {
		g.SetCameraPosition(pos)
		return nil
	})
}

type levelRequest struct {
	Level string `json:"level"`
}

// SetLogLevel handles PUT /config/log-level. Body: { "level": "debug" }.
func (h *Handler) SetLogLevel(w http.ResponseWriter, r *http.Request) {
	var req levelRequest
	if !h.decode(w, r, &req, false) {
		return
	}
	level := broadcast.ParseLogLevel(req.Level)
	h.configure(w, r, "set log level", func(g *broadcast.ConfigGate) error {
		g.SetLogLevel(level)
		return nil
	})
}

// SetSessionLogLevel handles PUT /config/session-log-level. Body: { "level": "info" }.
func (h *Handler) SetSessionLogLevel(w http.ResponseWriter, r *http.Request) {
	var req levelRequest
	if !h.decode(w, r, &req, false) {
		return
	}
	level := broadcast.ParseLogLevel(req.Level)
	h.configure(w, r, "set session log level", func(g *broadcast.ConfigGate) error {
		g.SetSessionLogLevel(level)
		return nil
	})
}

// SetEndpoint handles PUT /config/endpoint.
// Body: { "endpoint_url": "rtmps://...", "stream_key": "sk_..." }; omitted
// fields are left unchanged.
func (h *Handler) SetEndpoint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EndpointURL *string `json:"endpoint_url"`
		StreamKey   *string `json:"stream_key"`
	}
	if !h.decode(w, r, &req, false) {
		return
	}
	h.configure(w, r, "set endpoint", func(g *broadcast.ConfigGate) error {
		if req.EndpointURL != nil {
			g.SetEndpoint(*req.EndpointURL)
		}
		if req.StreamKey != nil {
			g.SetStreamKey(*req.StreamKey)
		}
		return nil
	})
}

// SetPreview handles PUT /config/preview.
// Body: { "mirrored": true, "aspect_mode": "fill" }; omitted fields are left
// unchanged. The values apply to the next preview request.
func (h *Handler) SetPreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mirrored   *bool   `json:"mirrored"`
		AspectMode *string `json:"aspect_mode"`
	}
	if !h.decode(w, r, &req, false) {
		return
	}
	h.configure(w, r, "set preview", func(g *broadcast.ConfigGate) error {
		if req.Mirrored != nil {
			g.SetPreviewMirrored(*req.Mirrored)
		}
		if req.AspectMode != nil {
			g.SetPreviewAspectMode(broadcast.ParseAspectMode(*req.AspectMode))
		}
		return nil
	})
}

// PostNotification handles POST /notifications/{name}. The interruption
// notification takes a body of { "type": "began" } or { "type": "ended" }.
func (h *Handler) PostNotification(w http.ResponseWriter, r *http.Request) {
	var n notify.Notification
	switch chi.URLParam(r, "name") {
	case "interruption":
		var req struct {
			Type string `json:"type"`
		}
		if !h.decode(w, r, &req, false) {
			return
		}
		t, ok := notify.ParseInterruptionType(req.Type)
		if !ok {
			h.log.Debug("unknown interruption type", slog.String("type", req.Type))
			writeError(w, http.StatusBadRequest, "type must be began or ended")
			return
		}
		n = notify.Interruption(t)
	case "media-services-lost":
		n = notify.Notification{Name: notify.MediaServicesLost}
	case "media-services-reset":
		n = notify.Notification{Name: notify.MediaServicesReset}
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	err := h.loop.Do(r.Context(), func() error {
		h.notifier.Post(n)
		return nil
	})
	if err != nil {
		h.fail(w, "post notification", err)
		return
	}
	h.log.Debug("notification posted", slog.String("name", string(n.Name)))
	w.WriteHeader(http.StatusAccepted)
}

// Disconnect handles POST /debug/disconnect. Body (optional): { "reason": "..." }.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if !h.decode(w, r, &req, true) {
		return
	}
	if req.Reason == "" {
		req.Reason = "connection reset by ingest"
	}
	h.command(w, r, "disconnect", func() error {
		if !h.faults.Disconnect(req.Reason) {
			return &broadcast.InvalidStateError{Op: "disconnect", State: h.ctrl.State()}
		}
		return nil
	})
}

// command runs fn on the loop and responds with the resulting session.
func (h *Handler) command(w http.ResponseWriter, r *http.Request, op string, fn func() error) {
	var resp sessionResponse
	err := h.loop.Do(r.Context(), func() error {
		if fn != nil {
			if err := fn(); err != nil {
				return err
			}
		}
		resp.Snapshot = h.ctrl.Snapshot()
		return nil
	})
	if err != nil {
		h.fail(w, op, err)
		return
	}
	if h.view != nil {
		resp.Surface = h.view.Surface()
		resp.IdleTimerDisabled = h.view.IdleTimerDisabled()
	}
	writeJSON(w, http.StatusOK, resp)
}

// configure runs fn against the configuration gate and responds with the
// staged configuration.
func (h *Handler) configure(w http.ResponseWriter, r *http.Request, op string, fn func(*broadcast.ConfigGate) error) {
	var cfg broadcast.Configuration
	err := h.loop.Do(r.Context(), func() error {
		if err := fn(h.ctrl.Config()); err != nil {
			return err
		}
		cfg = h.ctrl.Config().Snapshot()
		return nil
	})
	if err != nil {
		h.fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, configResponse{Configuration: cfg, StreamKeySet: cfg.HasStreamKey()})
}

// decode reads a JSON body into v. An empty body is accepted when optional.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	h.log.Debug("invalid request body", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	writeError(w, http.StatusBadRequest, "invalid JSON body")
	return false
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		h.log.Error(op+" failed", slog.String("error", err.Error()))
	} else {
		h.log.Debug(op+" rejected", slog.Int("status", status), slog.String("error", err.Error()))
	}
	writeError(w, status, err.Error())
}

// statusFor maps controller errors to HTTP status codes.
func statusFor(err error) int {
	var (
		stateErr   *broadcast.InvalidStateError
		cfgErr     *broadcast.ConfigurationError
		credErr    *broadcast.MissingCredentialsError
		initErr    *broadcast.InitiationError
		startErr   *broadcast.StartError
		swapErr    *broadcast.CameraSwapError
		previewErr *broadcast.PreviewAcquisitionError
	)
	switch {
	case errors.Is(err, broadcast.ErrAlreadyAttached),
		errors.Is(err, broadcast.ErrNotAttached),
		errors.Is(err, broadcast.ErrPreviewPending),
		errors.As(err, &stateErr):
		return http.StatusConflict
	case errors.As(err, &cfgErr), errors.As(err, &credErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &initErr), errors.As(err, &startErr),
		errors.As(err, &swapErr), errors.As(err, &previewErr):
		return http.StatusBadGateway
	case errors.Is(err, mainloop.ErrStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
