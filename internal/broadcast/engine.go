package broadcast

import "broadcast-orchestrator/internal/notify"

// Engine is the broadcast SDK session: capture, encoding and transport live
// behind it. Callbacks passed to an Engine must be delivered on the
// controller's execution context.
type Engine interface {
	// Initiate prepares capture devices and the encoder.
	Initiate() error
	// Deinitiate releases everything Initiate acquired.
	Deinitiate()
	IsInitiated() bool
	// IsReady reports whether the engine can start a broadcast right now.
	IsReady() bool

	SetCameraPosition(pos CameraPosition)
	SetLogLevel(level LogLevel)
	SetSessionLogLevel(level LogLevel)
	SetVideoConfig(cfg VideoConfig) error
	SetAudioConfig(cfg AudioConfig) error
	SwapCamera() error

	Start(params StartParams) error
	Stop()

	// CameraPreviewAsync calls done exactly once, after every capture device
	// is attached, with either a surface or an error.
	CameraPreviewAsync(mode AspectMode, mirrored bool, done func(Surface, error))

	// SetHandlers replaces every engine handler at once.
	SetHandlers(h EngineHandlers)
}

// EngineFactory creates a fresh Engine for each attachment cycle.
type EngineFactory func() Engine

// EngineHandlers are the engine's own event callbacks. Nil fields are not
// called.
type EngineHandlers struct {
	BroadcastError       func(BroadcastError)
	AudioStats           func(AudioStats)
	StateChanged         func(BroadcastState)
	QualityChanged       func(Quality)
	NetworkHealthChanged func(NetworkHealth)
}

// Surface is a displayable camera preview produced by the engine.
type Surface interface {
	SurfaceID() string
}

// SurfaceHost displays preview surfaces.
type SurfaceHost interface {
	AttachSurface(s Surface)
	// RemoveSurfaces discards every attached surface.
	RemoveSurfaces()
}

// SleepInhibitor toggles the host's idle timer. While disabled the device does
// not sleep, which would interrupt the broadcast.
type SleepInhibitor interface {
	SetIdleTimerDisabled(disabled bool)
}

// NotificationSource delivers OS-level notifications.
type NotificationSource interface {
	Subscribe(name notify.Name, fn func(notify.Notification)) notify.Subscription
}

// BroadcastState is the engine's transport state.
type BroadcastState string

const (
	BroadcastStateInvalid      BroadcastState = "INVALID"
	BroadcastStateDisconnected BroadcastState = "DISCONNECTED"
	BroadcastStateConnecting   BroadcastState = "CONNECTING"
	BroadcastStateConnected    BroadcastState = "CONNECTED"
	BroadcastStateError        BroadcastState = "ERROR"
)

// BroadcastError is an error raised by the engine outside of a direct call.
type BroadcastError struct {
	Code      int    `json:"code"`
	Type      string `json:"type"`
	Source    string `json:"source"`
	Detail    string `json:"detail"`
	IsFatal   bool   `json:"is_fatal"`
	SessionID string `json:"session_id,omitempty"`
}

// AudioStats are the microphone peak and RMS levels in dBFS.
type AudioStats struct {
	Peak float64 `json:"peak"`
	RMS  float64 `json:"rms"`
}

// Quality is the engine's adaptive bitrate quality estimate, 0..1.
type Quality struct {
	Value float64 `json:"value"`
}

// NetworkHealth is the engine's network health estimate, 0..1.
type NetworkHealth struct {
	Value float64 `json:"value"`
}
