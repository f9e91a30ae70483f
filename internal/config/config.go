package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mmuslimabdulj/meetup-signal/internal/domain"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port            string
	ListenAddr      string
	ShutdownTimeout time.Duration

	// Security
	AllowedOrigins []string

	// Rate Limiting
	RateLimitWS rate.Limit

	// Logging
	LogLevel  string
	LogFormat string

	// WebSocket
	MaxMessageSize int64

	// Rooms
	MaxRooms        int
	RoomTTL         time.Duration
	MaxParticipants int
	MaxHistorySize  int
	IdleRoomTTL     time.Duration
	CleanupInterval time.Duration

	// Cross-process bus
	BusURL     string
	BusChannel string
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Port:            "8080",
		ShutdownTimeout: 30 * time.Second,
		AllowedOrigins:  []string{"http://localhost:8080", "http://localhost:3000"},
		RateLimitWS:     domain.DefaultRateLimitWS,
		LogLevel:        "info", // Options: debug, info, warn, error, silent
		LogFormat:       "text",
		MaxMessageSize:  domain.MaxMessageSize,
		MaxRooms:        domain.MaxRooms,
		RoomTTL:         domain.RoomTTL,
		MaxParticipants: domain.MaxParticipants,
		MaxHistorySize:  domain.MaxHistorySize,
		IdleRoomTTL:     domain.IdleRoomTTL,
		CleanupInterval: domain.CleanupInterval,
		BusChannel:      "meetup-signal.events",
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	// Server
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	cfg.ListenAddr = os.Getenv("LISTEN_ADDR")
	if secs := positiveInt("SHUTDOWN_TIMEOUT_SECONDS"); secs > 0 {
		cfg.ShutdownTimeout = time.Duration(secs) * time.Second
	}

	// Security
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	// Rate Limiting
	if val := positiveInt("RATE_LIMIT_WS"); val > 0 {
		cfg.RateLimitWS = rate.Limit(val)
	}

	// Logging
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.LogFormat = strings.ToLower(format)
	}

	// WebSocket
	if val := positiveInt("MAX_MESSAGE_SIZE"); val > 0 {
		cfg.MaxMessageSize = int64(val)
	}

	// Rooms
	if val := positiveInt("MAX_ROOMS"); val > 0 {
		cfg.MaxRooms = val
	}
	if val := positiveInt("ROOM_TTL_MINUTES"); val > 0 {
		cfg.RoomTTL = time.Duration(val) * time.Minute
	}
	if val := positiveInt("MAX_PARTICIPANTS"); val > 0 {
		cfg.MaxParticipants = val
	}
	if val := positiveInt("MAX_HISTORY_SIZE"); val > 0 {
		cfg.MaxHistorySize = val
	}
	if val := positiveInt("IDLE_ROOM_MINUTES"); val > 0 {
		cfg.IdleRoomTTL = time.Duration(val) * time.Minute
	}
	if val := positiveInt("CLEANUP_INTERVAL_SECONDS"); val > 0 {
		cfg.CleanupInterval = time.Duration(val) * time.Second
	}

	// Cross-process bus
	cfg.BusURL = strings.TrimSpace(os.Getenv("BUS_URL"))
	if ch := os.Getenv("BUS_CHANNEL"); ch != "" {
		cfg.BusChannel = ch
	}

	return cfg
}

// Addr is the address the HTTP server listens on
func (c *Config) Addr() string {
	return net.JoinHostPort(c.ListenAddr, c.Port)
}

// IsOriginAllowed checks if the origin is in the allowed list.
// An empty origin (same-origin or non-browser client) is allowed.
func (c *Config) IsOriginAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}

// positiveInt reads an integer env var, returning 0 when unset or invalid
func positiveInt(key string) int {
	raw := os.Getenv(key)
	if raw == "" {
		return 0
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return 0
	}
	return val
}

// parseOrigins parses comma-separated origins
func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
