package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Config holds everything the console needs to reach its backends and serve
// its own API.
type Config struct {
	Env    string       `json:"env"`
	Http   HttpConfig   `json:"http"`
	Queue  QueueConfig  `json:"queue"`
	Socket SocketConfig `json:"socket"`
	Report ReportConfig `json:"report"`
	Roster RosterConfig `json:"roster"`
	APIKey string       `json:"api_key,omitempty"`

	// AckPolicy selects how acknowledgement failures are reported:
	// "silent" logs and moves on, "surfaced" propagates the error to the
	// caller.
	AckPolicy string `json:"ack_policy"`
}

type HttpConfig struct {
	Port            string        `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	RateLimit       int           `json:"rate_limit"`
}

type QueueConfig struct {
	URL          string        `json:"url"`
	PollInterval time.Duration `json:"poll_interval"`
}

type SocketConfig struct {
	URL       string `json:"url"`
	ClientID  string `json:"client_id"`
	Enabled   bool   `json:"enabled"`
	Reconnect bool   `json:"reconnect"`
}

type ReportConfig struct {
	URL string `json:"url"`
}

type RosterConfig struct {
	URL string `json:"url"`
}

func Load() (*Config, error) {

	stdLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		stdLogger.Warn(".env load warning", slog.Any("error", err))
	}

	cfg := &Config{
		Env: getEnv("ENV", "local"),
		Http: HttpConfig{
			Port:            getEnv("HTTP_PORT", ":8080"),
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
			RateLimit:       getEnvInt("HTTP_RATE_LIMIT", 100),
		},
		Queue: QueueConfig{
			URL:          getEnv("QUEUE_URL", "http://localhost:8000"),
			PollInterval: getEnvDuration("QUEUE_POLL_INTERVAL", 2*time.Second),
		},
		Socket: SocketConfig{
			URL:       getEnv("SOCKET_URL", "ws://localhost:8000/ws"),
			ClientID:  getEnv("SOCKET_CLIENT_ID", uuid.NewString()),
			Enabled:   getEnvBool("SOCKET_ENABLED", false),
			Reconnect: getEnvBool("SOCKET_RECONNECT", false),
		},
		Report: ReportConfig{
			URL: getEnv("REPORT_URL", "http://localhost:8001"),
		},
		Roster: RosterConfig{
			URL: getEnv("ROSTER_URL", "http://localhost:8001"),
		},
		APIKey:    getEnv("API_KEY", ""),
		AckPolicy: getEnv("ACK_POLICY", "silent"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stdLogger.Info("Config loaded successfully",
		slog.String("env", cfg.Env),
		slog.String("http_port", cfg.Http.Port),
		slog.String("queue_url", cfg.Queue.URL),
		slog.Bool("socket_enabled", cfg.Socket.Enabled),
		slog.String("ack_policy", cfg.AckPolicy))

	return cfg, nil
}

func (c *Config) Validate() error {

	if c.Http.Port == "" || c.Http.Port[0] != ':' {
		return errors.New("HTTP_PORT must start with ':' like ':8080'")
	}

	if c.Queue.URL == "" {
		return errors.New("QUEUE_URL required")
	}

	if c.Queue.PollInterval <= 0 {
		return errors.New("QUEUE_POLL_INTERVAL must be positive")
	}

	if c.AckPolicy != "silent" && c.AckPolicy != "surfaced" {
		return fmt.Errorf("ACK_POLICY must be \"silent\" or \"surfaced\", got %q", c.AckPolicy)
	}

	if c.Socket.Enabled {
		u, err := url.Parse(c.Socket.URL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			return errors.New("SOCKET_URL must be a ws:// or wss:// URL when SOCKET_ENABLED=true")
		}
	}

	return nil
}

// SocketEndpoint is the per-client socket URL the push backend expects.
func (c *Config) SocketEndpoint() string {
	return c.Socket.URL + "/" + c.Socket.ClientID
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
