package broadcast

import "errors"

// ConfigGate stages configuration until a Session exists and forwards it to the
// engine afterwards. Video and audio settings are validated on every change; a
// rejected change leaves the previous value in effect.
type ConfigGate struct {
	cfg    Configuration
	engine Engine
	report func(error)
}

func newConfigGate(report func(error)) *ConfigGate {
	return &ConfigGate{
		cfg:    Configuration{AspectMode: AspectNone},
		report: report,
	}
}

// Snapshot returns a copy of the staged or in-effect configuration.
func (g *ConfigGate) Snapshot() Configuration {
	return g.cfg.clone()
}

// Bound reports whether changes are forwarded to a live engine.
func (g *ConfigGate) Bound() bool {
	return g.engine != nil
}

// SetVideoConfig validates v and stages or applies it.
func (g *ConfigGate) SetVideoConfig(v VideoConfig) error {
	if err := v.Validate(); err != nil {
		return g.fail("video", err)
	}
	if g.engine != nil {
		if err := g.engine.SetVideoConfig(v); err != nil {
			return g.fail("video", err)
		}
	}
	g.cfg.Video = &v
	return nil
}

// SetAudioConfig validates a and stages or applies it.
func (g *ConfigGate) SetAudioConfig(a AudioConfig) error {
	if err := a.Validate(); err != nil {
		return g.fail("audio", err)
	}
	if g.engine != nil {
		if err := g.engine.SetAudioConfig(a); err != nil {
			return g.fail("audio", err)
		}
	}
	g.cfg.Audio = &a
	return nil
}

// SetCameraPosition stages or applies pos.
func (g *ConfigGate) SetCameraPosition(pos CameraPosition) {
	g.cfg.CameraPosition = pos
	if g.engine != nil {
		g.engine.SetCameraPosition(pos)
	}
}

// SetLogLevel stages or applies the engine log level.
func (g *ConfigGate) SetLogLevel(level LogLevel) {
	g.cfg.LogLevel = level
	if g.engine != nil {
		g.engine.SetLogLevel(level)
	}
}

// SetSessionLogLevel stages or applies the session log level.
func (g *ConfigGate) SetSessionLogLevel(level LogLevel) {
	g.cfg.SessionLogLevel = level
	if g.engine != nil {
		g.engine.SetSessionLogLevel(level)
	}
}

// SetEndpoint sets the ingest URL used by Controller.StartConfigured.
func (g *ConfigGate) SetEndpoint(endpointURL string) {
	g.cfg.EndpointURL = endpointURL
}

// SetStreamKey sets the stream key used by Controller.StartConfigured.
func (g *ConfigGate) SetStreamKey(key string) {
	g.cfg.StreamKey = key
}

// SetPreviewMirrored takes effect on the next preview request.
func (g *ConfigGate) SetPreviewMirrored(mirrored bool) {
	g.cfg.PreviewMirrored = mirrored
}

// SetPreviewAspectMode takes effect on the next preview request.
func (g *ConfigGate) SetPreviewAspectMode(mode AspectMode) {
	g.cfg.AspectMode = mode
}

// SetAll applies every non-zero field of cfg through the individual setters,
// so a zero field (including PreviewMirrored == false) keeps the staged value.
// Invalid video or audio settings are skipped and returned joined.
func (g *ConfigGate) SetAll(cfg Configuration) error {
	var errs []error
	if cfg.Video != nil {
		errs = append(errs, g.SetVideoConfig(*cfg.Video))
	}
	if cfg.Audio != nil {
		errs = append(errs, g.SetAudioConfig(*cfg.Audio))
	}
	if cfg.CameraPosition != "" {
		g.SetCameraPosition(cfg.CameraPosition)
	}
	if cfg.LogLevel != "" {
		g.SetLogLevel(cfg.LogLevel)
	}
	if cfg.SessionLogLevel != "" {
		g.SetSessionLogLevel(cfg.SessionLogLevel)
	}
	if cfg.EndpointURL != "" {
		g.SetEndpoint(cfg.EndpointURL)
	}
	if cfg.StreamKey != "" {
		g.SetStreamKey(cfg.StreamKey)
	}
	if cfg.AspectMode != "" {
		g.SetPreviewAspectMode(cfg.AspectMode)
	}
	if cfg.PreviewMirrored {
		g.SetPreviewMirrored(true)
	}
	return errors.Join(errs...)
}

// bind forwards the staged configuration to engine in one pass and routes
// later changes to it. Staged video and audio were validated when set, so only
// an engine rejection can fail here; the rejected field falls back to the
// engine default.
func (g *ConfigGate) bind(engine Engine) {
	g.engine = engine

	if g.cfg.CameraPosition != "" {
		engine.SetCameraPosition(g.cfg.CameraPosition)
	}
	if g.cfg.LogLevel != "" {
		engine.SetLogLevel(g.cfg.LogLevel)
	}
	if g.cfg.SessionLogLevel != "" {
		engine.SetSessionLogLevel(g.cfg.SessionLogLevel)
	}
	if g.cfg.Video != nil {
		if err := engine.SetVideoConfig(*g.cfg.Video); err != nil {
			g.cfg.Video = nil
			g.fail("video", err)
		}
	}
	if g.cfg.Audio != nil {
		if err := engine.SetAudioConfig(*g.cfg.Audio); err != nil {
			g.cfg.Audio = nil
			g.fail("audio", err)
		}
	}
}

// unbind stops forwarding; later changes are staged again.
func (g *ConfigGate) unbind() {
	g.engine = nil
}

func (g *ConfigGate) fail(field string, err error) error {
	cerr := &ConfigurationError{Field: field, Err: err}
	if g.report != nil {
		g.report(cerr)
	}
	return cerr
}
