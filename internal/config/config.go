package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// External study service
	ServiceURL string

	// Zero means no client-side timeout; a call that never resolves keeps
	// its busy flag set.
	RequestTimeout time.Duration

	// Bytes of a failure response body read for the error message.
	MaxErrorBody int64

	// Logging
	LogLevel  string
	LogFormat string

	// Result rendering: "text" or "html".
	RenderFormat string
}

// Load reads configuration from the environment, after loading an optional
// .env file from the working directory.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		ServiceURL: strings.TrimRight(envOr("STUDY_SERVICE_URL", "http://127.0.0.1:8000"), "/"),

		RequestTimeout: envDuration("STUDY_REQUEST_TIMEOUT", 0),
		MaxErrorBody:   envInt64("STUDY_MAX_ERROR_BODY", 4096),

		LogLevel:  strings.ToLower(envOr("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(envOr("LOG_FORMAT", "text")),

		RenderFormat: strings.ToLower(envOr("STUDY_RENDER", "text")),
	}

	if cfg.RequestTimeout < 0 {
		cfg.RequestTimeout = 0
	}
	if cfg.MaxErrorBody <= 0 {
		cfg.MaxErrorBody = 4096
	}

	return cfg
}

func (c Config) Validate() error {
	u, err := url.Parse(c.ServiceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("STUDY_SERVICE_URL must be an absolute URL, got %q", c.ServiceURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("STUDY_SERVICE_URL scheme must be http or https, got %q", u.Scheme)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.RenderFormat {
	case "text", "html":
	default:
		return fmt.Errorf("STUDY_RENDER must be text or html, got %q", c.RenderFormat)
	}
	return nil
}

// Level maps LogLevel onto a slog level.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

// NewLogger builds the process logger. Output goes to stderr so rendered
// results on stdout stay clean.
func (c Config) NewLogger() *slog.Logger {
	lvl, _ := c.Level()
	opts := &slog.HandlerOptions{Level: lvl}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
