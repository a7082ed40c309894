package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"broadcast-orchestrator/internal/broadcast"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func TestGetEnv(t *testing.T) {
	t.Setenv("BROADCAST_TEST_STR", "value")
	if got := GetEnv("BROADCAST_TEST_STR", "fallback"); got != "value" {
		t.Errorf("GetEnv = %q, want value", got)
	}
	if got := GetEnv("BROADCAST_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("GetEnv unset = %q, want fallback", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("BROADCAST_TEST_INT", "42")
	t.Setenv("BROADCAST_TEST_BAD_INT", "forty")
	if got := GetEnvInt("BROADCAST_TEST_INT", 1); got != 42 {
		t.Errorf("GetEnvInt = %d, want 42", got)
	}
	if got := GetEnvInt("BROADCAST_TEST_BAD_INT", 1); got != 1 {
		t.Errorf("GetEnvInt invalid = %d, want 1", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value    string
		fallback bool
		want     bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"false", true, false},
		{"", true, true},
		{"maybe", true, true},
	}
	for _, tt := range tests {
		t.Setenv("BROADCAST_TEST_BOOL", tt.value)
		if got := GetEnvBool("BROADCAST_TEST_BOOL", tt.fallback); got != tt.want {
			t.Errorf("GetEnvBool(%q, %v) = %v, want %v", tt.value, tt.fallback, got, tt.want)
		}
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("BROADCAST_TEST_DUR", "250ms")
	if got := GetEnvDuration("BROADCAST_TEST_DUR", time.Second); got != 250*time.Millisecond {
		t.Errorf("GetEnvDuration = %v, want 250ms", got)
	}
	t.Setenv("BROADCAST_TEST_DUR", "soon")
	if got := GetEnvDuration("BROADCAST_TEST_DUR", time.Second); got != time.Second {
		t.Errorf("GetEnvDuration invalid = %v, want 1s", got)
	}
}

func TestLoad_missing_file(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected error for missing .env")
	}
}

func TestLoad_sets_env(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BROADCAST_TEST_DOTENV=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BROADCAST_TEST_DOTENV", "")
	os.Unsetenv("BROADCAST_TEST_DOTENV")
	if err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := os.Getenv("BROADCAST_TEST_DOTENV"); got != "from-file" {
		t.Errorf("env = %q, want from-file", got)
	}
}

func TestLoadProfile(t *testing.T) {
	t.Setenv("BROADCAST_TEST_KEY", "sk_from_env")
	path := writeProfile(t, `
camera_position: FRONT
log_level: warn
session_log_level: debug
endpoint_url: rtmps://ingest.example.com:443/app/
stream_key: ${BROADCAST_TEST_KEY}
preview_mirrored: true
preview_aspect_mode: fill
video:
  bitrate: 3500000
`)

	cfg, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if cfg.CameraPosition != broadcast.CameraFront || cfg.LogLevel != broadcast.LogWarning ||
		cfg.SessionLogLevel != broadcast.LogDebug || cfg.AspectMode != broadcast.AspectFill || !cfg.PreviewMirrored {
		t.Errorf("unexpected profile %+v", cfg)
	}
	if cfg.StreamKey != "sk_from_env" {
		t.Errorf("stream key = %q, want expanded env value", cfg.StreamKey)
	}
	if cfg.Audio != nil {
		t.Error("audio block absent, expected nil")
	}
	if cfg.Video == nil {
		t.Fatal("expected video block")
	}
	want := broadcast.DefaultVideoConfig()
	want.Bitrate = 3_500_000
	if *cfg.Video != want {
		t.Errorf("video = %+v, want defaults with bitrate override %+v", *cfg.Video, want)
	}
}

func TestLoadProfile_errors(t *testing.T) {
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadProfile(writeProfile(t, "video: [1, 2")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := LoadProfile(writeProfile(t, "audio:\n  channels: two\n")); err == nil {
		t.Error("expected decode error for non-numeric channels")
	}
}

func TestLoadProfile_keeps_literal_dollar(t *testing.T) {
	t.Setenv("BROADCAST_TEST_HOST", "ingest.example.com")
	t.Setenv("abc", "expanded")
	path := writeProfile(t, `
endpoint_url: rtmps://${BROADCAST_TEST_HOST}:443/app/
stream_key: sk_$abc$1
`)

	cfg, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if cfg.EndpointURL != "rtmps://ingest.example.com:443/app/" {
		t.Errorf("endpoint = %q, want expanded host", cfg.EndpointURL)
	}
	if cfg.StreamKey != "sk_$abc$1" {
		t.Errorf("stream key = %q, want literal value", cfg.StreamKey)
	}
}
