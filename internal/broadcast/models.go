package broadcast

import "strings"

// State is the lifecycle state of the controller's Session.
type State int

const (
	// StateDetached means no host surface is attached and no Session exists.
	StateDetached State = iota
	// StateInitiating means the Session exists and the preview is pending.
	StateInitiating
	// StateReady means the preview is attached and a broadcast may start.
	StateReady
	// StateBroadcasting means the engine accepted Start.
	StateBroadcasting
	// StateStopped means the engine ended the broadcast on its own.
	StateStopped
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateDetached:
		return "detached"
	case StateInitiating:
		return "initiating"
	case StateReady:
		return "ready"
	case StateBroadcasting:
		return "broadcasting"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Attached reports whether a Session exists in this state.
func (s State) Attached() bool {
	return s != StateDetached
}

// VideoConfig holds the mutable video encoder settings.
type VideoConfig struct {
	Width            int  `json:"width" yaml:"width" validate:"min=160,max=1920"`
	Height           int  `json:"height" yaml:"height" validate:"min=160,max=1920"`
	Bitrate          int  `json:"bitrate" yaml:"bitrate" validate:"min=100000,max=8500000"`
	TargetFramerate  int  `json:"target_framerate" yaml:"target_framerate" validate:"min=10,max=60"`
	KeyframeInterval int  `json:"keyframe_interval" yaml:"keyframe_interval" validate:"min=1,max=5"`
	BFrames          bool `json:"b_frames" yaml:"b_frames"`
	AutoBitrate      bool `json:"auto_bitrate" yaml:"auto_bitrate"`
	MinBitrate       int  `json:"min_bitrate,omitempty" yaml:"min_bitrate" validate:"omitempty,min=100000,max=8500000"`
	MaxBitrate       int  `json:"max_bitrate,omitempty" yaml:"max_bitrate" validate:"omitempty,min=100000,max=8500000"`
}

// DefaultVideoConfig returns a 720p, 30fps configuration.
func DefaultVideoConfig() VideoConfig {
	return VideoConfig{
		Width:            720,
		Height:           1280,
		Bitrate:          2_100_000,
		TargetFramerate:  30,
		KeyframeInterval: 2,
		BFrames:          true,
		AutoBitrate:      true,
		MinBitrate:       300_000,
		MaxBitrate:       6_000_000,
	}
}

// AudioConfig holds the mutable audio encoder settings.
type AudioConfig struct {
	Bitrate    int `json:"bitrate" yaml:"bitrate" validate:"min=64000,max=160000"`
	Channels   int `json:"channels" yaml:"channels" validate:"min=1,max=2"`
	SampleRate int `json:"sample_rate" yaml:"sample_rate" validate:"oneof=8000 16000 22050 44100 48000"`
}

// DefaultAudioConfig returns a 96kbps stereo configuration.
func DefaultAudioConfig() AudioConfig {
	return AudioConfig{
		Bitrate:    96_000,
		Channels:   2,
		SampleRate: 48000,
	}
}

// CameraPosition selects the capture camera.
type CameraPosition string

const (
	CameraFront CameraPosition = "front"
	CameraBack  CameraPosition = "back"
	CameraNone  CameraPosition = "none"
)

// ParseCameraPosition returns the position named s. Unknown names select the
// back camera.
func ParseCameraPosition(s string) CameraPosition {
	switch CameraPosition(strings.ToLower(s)) {
	case CameraFront:
		return CameraFront
	case CameraNone:
		return CameraNone
	default:
		return CameraBack
	}
}

// LogLevel is the engine (or session) log verbosity.
type LogLevel string

const (
	LogDebug   LogLevel = "debug"
	LogInfo    LogLevel = "info"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// ParseLogLevel returns the level named s, defaulting to LogError.
func ParseLogLevel(s string) LogLevel {
	switch LogLevel(strings.ToLower(s)) {
	case LogDebug:
		return LogDebug
	case LogInfo:
		return LogInfo
	case LogWarning, "warn":
		return LogWarning
	default:
		return LogError
	}
}

// AspectMode controls how the preview surface is fitted to the host.
type AspectMode string

const (
	AspectNone AspectMode = "none"
	AspectFit  AspectMode = "fit"
	AspectFill AspectMode = "fill"
)

// ParseAspectMode returns the mode named s, defaulting to AspectNone.
func ParseAspectMode(s string) AspectMode {
	switch AspectMode(strings.ToLower(s)) {
	case AspectFit:
		return AspectFit
	case AspectFill:
		return AspectFill
	default:
		return AspectNone
	}
}

// StartParams are the validated arguments of Engine.Start. Build them with
// NewStartParams.
type StartParams struct {
	endpoint   string
	credential string
}

// NewStartParams returns StartParams for the given ingest endpoint and stream
// key, or a *MissingCredentialsError naming whichever is empty.
func NewStartParams(endpointURL, credential string) (StartParams, error) {
	endpointURL = strings.TrimSpace(endpointURL)
	credential = strings.TrimSpace(credential)
	if endpointURL == "" || credential == "" {
		return StartParams{}, &MissingCredentialsError{
			MissingEndpoint:   endpointURL == "",
			MissingCredential: credential == "",
		}
	}
	return StartParams{endpoint: endpointURL, credential: credential}, nil
}

// Endpoint returns the ingest URL.
func (p StartParams) Endpoint() string { return p.endpoint }

// Credential returns the stream key.
func (p StartParams) Credential() string { return p.credential }

// Configuration is a snapshot of every settable field.
type Configuration struct {
	Video           *VideoConfig   `json:"video,omitempty" yaml:"video"`
	Audio           *AudioConfig   `json:"audio,omitempty" yaml:"audio"`
	CameraPosition  CameraPosition `json:"camera_position,omitempty" yaml:"camera_position"`
	LogLevel        LogLevel       `json:"log_level,omitempty" yaml:"log_level"`
	SessionLogLevel LogLevel       `json:"session_log_level,omitempty" yaml:"session_log_level"`
	EndpointURL     string         `json:"endpoint_url,omitempty" yaml:"endpoint_url"`
	StreamKey       string         `json:"-" yaml:"stream_key"`
	PreviewMirrored bool           `json:"preview_mirrored" yaml:"preview_mirrored"`
	AspectMode      AspectMode     `json:"preview_aspect_mode" yaml:"preview_aspect_mode"`
}

// HasStreamKey reports whether a stream key is configured.
func (c Configuration) HasStreamKey() bool {
	return c.StreamKey != ""
}

func (c Configuration) clone() Configuration {
	out := c
	if c.Video != nil {
		v := *c.Video
		out.Video = &v
	}
	if c.Audio != nil {
		a := *c.Audio
		out.Audio = &a
	}
	return out
}
