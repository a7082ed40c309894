// Package engine provides a simulated broadcast engine. It follows the engine
// callback contract (asynchronous preview, callbacks redelivered through the
// controller's execution context) without capturing or sending media, so the
// orchestration layer can run and be exercised end to end.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"time"

	"broadcast-orchestrator/internal/broadcast"

	"github.com/google/uuid"
)

// DefaultPreviewDelay is how long device attachment takes before the preview
// surface is delivered.
const DefaultPreviewDelay = 250 * time.Millisecond

// DefaultStatsInterval is the period of audio stats and network reports while
// broadcasting.
const DefaultStatsInterval = time.Second

// maxPixels is the largest frame the simulated capture device produces.
const maxPixels = 1920 * 1080

var (
	errNotInitiated     = errors.New("session not initiated")
	errAlreadyInitiated = errors.New("session already initiated")
	errDevicesPending   = errors.New("capture devices not attached")
	errNoCamera         = errors.New("no camera device attached")
)

// Options configures simulated engines.
type Options struct {
	// Post delivers a callback on the controller's execution context and
	// reports false if it can no longer run. Nil runs callbacks inline.
	Post          func(func()) bool
	PreviewDelay  time.Duration
	StatsInterval time.Duration
	Logger        *slog.Logger
}

// Surface is the simulated preview surface.
type Surface struct {
	ID         string               `json:"id"`
	AspectMode broadcast.AspectMode `json:"aspect_mode"`
	Mirrored   bool                 `json:"mirrored"`
	Camera     string               `json:"camera"`
}

// SurfaceID implements broadcast.Surface.
func (s *Surface) SurfaceID() string { return s.ID }

// Simulated implements broadcast.Engine. Apart from the timers it owns, it is
// only touched from the controller's execution context.
type Simulated struct {
	opts Options
	log  *slog.Logger

	initiated       bool
	devicesAttached bool
	broadcasting    bool
	// run counts Start calls; queued state reports from an earlier run are dropped.
	run uint64

	camera          broadcast.CameraPosition
	logLevel        broadcast.LogLevel
	sessionLogLevel broadcast.LogLevel
	video           broadcast.VideoConfig
	audio           broadcast.AudioConfig
	handlers        broadcast.EngineHandlers

	previewTimer *time.Timer
	stopStats    chan struct{}
}

// NewFactory returns a broadcast.EngineFactory producing Simulated engines.
func NewFactory(opts Options) broadcast.EngineFactory {
	return func() broadcast.Engine { return New(opts) }
}

// New returns a Simulated engine with default settings.
func New(opts Options) *Simulated {
	if opts.PreviewDelay < 0 {
		opts.PreviewDelay = DefaultPreviewDelay
	}
	if opts.StatsInterval <= 0 {
		opts.StatsInterval = DefaultStatsInterval
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Simulated{
		opts:     opts,
		log:      log.With(slog.String("component", "engine")),
		camera:   broadcast.CameraBack,
		logLevel: broadcast.LogError,
		video:    broadcast.DefaultVideoConfig(),
		audio:    broadcast.DefaultAudioConfig(),
	}
}

// Initiate implements broadcast.Engine.
func (s *Simulated) Initiate() error {
	if s.initiated {
		return errAlreadyInitiated
	}
	s.initiated = true
	s.logf(broadcast.LogInfo, "session initiated", slog.String("camera", string(s.camera)))
	return nil
}

// Deinitiate implements broadcast.Engine.
func (s *Simulated) Deinitiate() {
	if !s.initiated {
		return
	}
	if s.previewTimer != nil {
		s.previewTimer.Stop()
		s.previewTimer = nil
	}
	s.stopBroadcast(false)
	s.initiated = false
	s.devicesAttached = false
	s.logf(broadcast.LogInfo, "session deinitiated")
}

// IsInitiated implements broadcast.Engine.
func (s *Simulated) IsInitiated() bool { return s.initiated }

// IsReady implements broadcast.Engine.
func (s *Simulated) IsReady() bool {
	return s.initiated && s.devicesAttached && s.camera != broadcast.CameraNone
}

// SetCameraPosition implements broadcast.Engine.
func (s *Simulated) SetCameraPosition(pos broadcast.CameraPosition) {
	s.camera = pos
	s.logf(broadcast.LogDebug, "camera position set", slog.String("camera", string(pos)))
}

// SetLogLevel implements broadcast.Engine.
func (s *Simulated) SetLogLevel(level broadcast.LogLevel) { s.logLevel = level }

// SetSessionLogLevel implements broadcast.Engine.
func (s *Simulated) SetSessionLogLevel(level broadcast.LogLevel) { s.sessionLogLevel = level }

// SetVideoConfig implements broadcast.Engine. The frame size is bounded by the
// capture device and cannot change mid-broadcast.
func (s *Simulated) SetVideoConfig(cfg broadcast.VideoConfig) error {
	if cfg.Width*cfg.Height > maxPixels {
		return fmt.Errorf("%dx%d exceeds device capability", cfg.Width, cfg.Height)
	}
	if s.broadcasting && (cfg.Width != s.video.Width || cfg.Height != s.video.Height) {
		return errors.New("resolution cannot change while broadcasting")
	}
	s.video = cfg
	s.logf(broadcast.LogDebug, "video config applied",
		slog.Int("width", cfg.Width), slog.Int("height", cfg.Height), slog.Int("bitrate", cfg.Bitrate))
	return nil
}

// SetAudioConfig implements broadcast.Engine.
func (s *Simulated) SetAudioConfig(cfg broadcast.AudioConfig) error {
	if s.broadcasting && cfg.Channels != s.audio.Channels {
		return errors.New("channel count cannot change while broadcasting")
	}
	s.audio = cfg
	s.logf(broadcast.LogDebug, "audio config applied",
		slog.Int("bitrate", cfg.Bitrate), slog.Int("channels", cfg.Channels))
	return nil
}

// SwapCamera implements broadcast.Engine.
func (s *Simulated) SwapCamera() error {
	if !s.initiated {
		return errNotInitiated
	}
	switch s.camera {
	case broadcast.CameraFront:
		s.camera = broadcast.CameraBack
	case broadcast.CameraBack:
		s.camera = broadcast.CameraFront
	default:
		return errNoCamera
	}
	s.logf(broadcast.LogInfo, "camera swapped", slog.String("camera", string(s.camera)))
	return nil
}

// Start implements broadcast.Engine.
func (s *Simulated) Start(params broadcast.StartParams) error {
	if !s.initiated {
		return errNotInitiated
	}
	if !s.devicesAttached {
		return errDevicesPending
	}
	u, err := url.Parse(params.Endpoint())
	if err != nil {
		return fmt.Errorf("parse ingest endpoint: %w", err)
	}
	if u.Scheme != "rtmps" || u.Host == "" {
		return fmt.Errorf("ingest endpoint %q is not an rtmps URL", params.Endpoint())
	}
	if s.broadcasting {
		return nil
	}

	s.broadcasting = true
	s.run++
	run := s.run
	s.logf(broadcast.LogInfo, "broadcast starting", slog.String("host", u.Host))
	s.deliver(func() {
		if s.broadcasting && s.run == run {
			s.stateChanged(broadcast.BroadcastStateConnecting)
		}
	})
	s.deliver(func() {
		if s.broadcasting && s.run == run {
			s.stateChanged(broadcast.BroadcastStateConnected)
		}
	})
	s.startStats()
	return nil
}

// Stop implements broadcast.Engine.
func (s *Simulated) Stop() {
	s.stopBroadcast(true)
}

// CameraPreviewAsync implements broadcast.Engine. The preview is delivered once
// the capture devices are attached, after PreviewDelay.
func (s *Simulated) CameraPreviewAsync(mode broadcast.AspectMode, mirrored bool, done func(broadcast.Surface, error)) {
	s.previewTimer = time.AfterFunc(s.opts.PreviewDelay, func() {
		s.deliver(func() {
			if !s.initiated {
				done(nil, errNotInitiated)
				return
			}
			if s.camera == broadcast.CameraNone {
				done(nil, errNoCamera)
				return
			}
			s.devicesAttached = true
			done(&Surface{
				ID:         uuid.NewString(),
				AspectMode: mode,
				Mirrored:   mirrored,
				Camera:     string(s.camera),
			}, nil)
		})
	})
}

// SetHandlers implements broadcast.Engine.
func (s *Simulated) SetHandlers(h broadcast.EngineHandlers) {
	s.handlers = h
}

// Broadcasting reports whether Start succeeded and Stop has not been called.
func (s *Simulated) Broadcasting() bool { return s.broadcasting }

// Disconnect simulates the ingest dropping the connection.
func (s *Simulated) Disconnect(reason string) {
	if !s.broadcasting {
		return
	}
	s.broadcasting = false
	s.stopStatsLoop()
	if h := s.handlers.BroadcastError; h != nil {
		h(broadcast.BroadcastError{
			Code:    10405,
			Type:    "NetworkError",
			Source:  "transport",
			Detail:  reason,
			IsFatal: true,
		})
	}
	s.stateChanged(broadcast.BroadcastStateDisconnected)
}

func (s *Simulated) stopBroadcast(notify bool) {
	if !s.broadcasting {
		return
	}
	s.broadcasting = false
	s.stopStatsLoop()
	s.logf(broadcast.LogInfo, "broadcast stopped")
	if notify {
		run := s.run
		s.deliver(func() {
			if !s.broadcasting && s.run == run {
				s.stateChanged(broadcast.BroadcastStateDisconnected)
			}
		})
	}
}

func (s *Simulated) stateChanged(st broadcast.BroadcastState) {
	if h := s.handlers.StateChanged; h != nil {
		h(st)
	}
}

func (s *Simulated) startStats() {
	s.stopStatsLoop()
	stop := make(chan struct{})
	s.stopStats = stop

	go func() {
		ticker := time.NewTicker(s.opts.StatsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				stats := broadcast.AudioStats{Peak: -6 - rand.Float64()*6, RMS: -20 - rand.Float64()*10}
				health := broadcast.NetworkHealth{Value: 0.7 + rand.Float64()*0.3}
				quality := broadcast.Quality{Value: 0.6 + rand.Float64()*0.4}
				s.deliver(func() {
					if !s.broadcasting {
						return
					}
					if h := s.handlers.AudioStats; h != nil {
						h(stats)
					}
					if h := s.handlers.NetworkHealthChanged; h != nil {
						h(health)
					}
					if h := s.handlers.QualityChanged; h != nil {
						h(quality)
					}
				})
			}
		}
	}()
}

func (s *Simulated) stopStatsLoop() {
	if s.stopStats != nil {
		close(s.stopStats)
		s.stopStats = nil
	}
}

func (s *Simulated) deliver(fn func()) {
	if s.opts.Post == nil {
		fn()
		return
	}
	if !s.opts.Post(fn) {
		s.log.Debug("engine callback dropped, main loop stopped")
	}
}

// logf logs msg when level passes the engine log level.
func (s *Simulated) logf(level broadcast.LogLevel, msg string, attrs ...any) {
	if severity(level) < severity(s.logLevel) {
		return
	}
	switch level {
	case broadcast.LogDebug:
		s.log.Debug(msg, attrs...)
	case broadcast.LogInfo:
		s.log.Info(msg, attrs...)
	case broadcast.LogWarning:
		s.log.Warn(msg, attrs...)
	default:
		s.log.Error(msg, attrs...)
	}
}

func severity(level broadcast.LogLevel) int {
	switch level {
	case broadcast.LogDebug:
		return 0
	case broadcast.LogInfo:
		return 1
	case broadcast.LogWarning:
		return 2
	default:
		return 3
	}
}
