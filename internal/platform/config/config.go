package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"broadcast-orchestrator/internal/broadcast"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files (e.g. ".env"); with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvBool returns the boolean value of the environment variable named by
// key, or fallback if the variable is unset, empty, or not a valid boolean.
func GetEnvBool(key string, fallback bool) bool {
	if s := os.Getenv(key); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return fallback
}

// GetEnvDuration returns the duration value (e.g. "250ms") of the environment
// variable named by key, or fallback if the variable is unset, empty, or not a
// valid duration.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return fallback
}

// LoadProfile reads a staged broadcast configuration from a YAML file.
// Environment references written as ${STREAM_KEY} are expanded before
// parsing; any other "$" is kept literally.
// A video or audio block only needs the fields it changes; the rest keep
// their defaults. Values are not validated here.
func LoadProfile(path string) (broadcast.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return broadcast.Configuration{}, err
	}
	data = expandEnvRefs(data)

	var cfg broadcast.Configuration
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return broadcast.Configuration{}, fmt.Errorf("parse profile %s: %w", path, err)
	}

	var blocks struct {
		Video yaml.Node `yaml:"video"`
		Audio yaml.Node `yaml:"audio"`
	}
	if err := yaml.Unmarshal(data, &blocks); err != nil {
		return broadcast.Configuration{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if cfg.CameraPosition != "" {
		cfg.CameraPosition = broadcast.ParseCameraPosition(string(cfg.CameraPosition))
	}
	if cfg.LogLevel != "" {
		cfg.LogLevel = broadcast.ParseLogLevel(string(cfg.LogLevel))
	}
	if cfg.SessionLogLevel != "" {
		cfg.SessionLogLevel = broadcast.ParseLogLevel(string(cfg.SessionLogLevel))
	}
	if cfg.AspectMode != "" {
		cfg.AspectMode = broadcast.ParseAspectMode(string(cfg.AspectMode))
	}

	cfg.Video, cfg.Audio = nil, nil
	if !blocks.Video.IsZero() {
		v := broadcast.DefaultVideoConfig()
		if err := blocks.Video.Decode(&v); err != nil {
			return broadcast.Configuration{}, fmt.Errorf("parse profile %s video: %w", path, err)
		}
		cfg.Video = &v
	}
	if !blocks.Audio.IsZero() {
		a := broadcast.DefaultAudioConfig()
		if err := blocks.Audio.Decode(&a); err != nil {
			return broadcast.Configuration{}, fmt.Errorf("parse profile %s audio: %w", path, err)
		}
		cfg.Audio = &a
	}
	return cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvRefs replaces ${NAME} with the value of NAME.
func expandEnvRefs(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		return []byte(os.Getenv(string(envRef.FindSubmatch(ref)[1])))
	})
}
