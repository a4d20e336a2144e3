package server

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultPort            = ":8080"
	defaultMaxMessageSize  = 4096
	defaultSendBufferSize  = 256
	defaultShutdownTimeout = 30 * time.Second
)

// Config holds the server's runtime settings.
type Config struct {
	Port            string
	AllowedOrigins  []string
	MaxMessageSize  int64
	SendBufferSize  int
	ShutdownTimeout time.Duration
}

var (
	configMu     sync.RWMutex
	activeConfig Config
	activePolicy originPolicy
)

func init() {
	SetConfig(nil)
}

func defaultConfig() Config {
	return Config{
		Port:            defaultPort,
		AllowedOrigins:  []string{"http://localhost:8080"},
		MaxMessageSize:  defaultMaxMessageSize,
		SendBufferSize:  defaultSendBufferSize,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// sanitize fills zero or negative settings with defaults and normalizes the
// origin list.
func (cfg Config) sanitize() (Config, originPolicy) {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = defaultSendBufferSize
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	policy := newOriginPolicy(cfg.AllowedOrigins)
	cfg.AllowedOrigins = policy.list()
	return cfg, policy
}

// SetConfig makes cfg the process-wide active configuration. Passing nil
// resets to defaults. Clients created afterwards pick up the new settings.
func SetConfig(cfg *Config) {
	next := defaultConfig()
	if cfg != nil {
		next = *cfg
		next.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	}
	sanitized, policy := next.sanitize()

	configMu.Lock()
	defer configMu.Unlock()
	activeConfig = sanitized
	activePolicy = policy
}

func currentConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()

	cfg := activeConfig
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

func currentPolicy() originPolicy {
	configMu.RLock()
	defer configMu.RUnlock()
	return activePolicy
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv returns a Config read from the environment, falling back to
// defaults for unset or invalid values.
func NewConfigFromEnv() *Config {
	cfg := defaultConfig()

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}
	if v := os.Getenv("MAX_MESSAGE_SIZE"); v != "" {
		cfg.MaxMessageSize = int64(parsePositiveInt("MAX_MESSAGE_SIZE", v, int(cfg.MaxMessageSize)))
	}
	if v := os.Getenv("SEND_BUFFER_SIZE"); v != "" {
		cfg.SendBufferSize = parsePositiveInt("SEND_BUFFER_SIZE", v, cfg.SendBufferSize)
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		seconds := parsePositiveInt("SHUTDOWN_TIMEOUT", v, int(cfg.ShutdownTimeout/time.Second))
		cfg.ShutdownTimeout = time.Duration(seconds) * time.Second
	}

	return &cfg
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parsePositiveInt(key, value string, defaultValue int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		log.Printf("Warning: invalid value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
