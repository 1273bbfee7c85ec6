package lib

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains runtime configuration loaded from environment variables.
type Config struct {
	DatabaseURL        string
	HTTPAddr           string
	LogLevel           string
	DBMaxConns         int
	PlatformAPIBase    string
	PlatformToken      string
	PlatformGuildID    string
	PlatformTimeout    time.Duration
	CoordinatorRoleIDs []string
	GroupRolePrefix    string
}

func LoadConfig() (Config, error) {
	cfg := Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		HTTPAddr:           getOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           getOrDefault("LOG_LEVEL", "INFO"),
		DBMaxConns:         getIntOrDefault("DB_MAX_CONNS", 20),
		PlatformAPIBase:    strings.TrimRight(strings.TrimSpace(os.Getenv("PLATFORM_API_BASE")), "/"),
		PlatformToken:      strings.TrimSpace(os.Getenv("PLATFORM_TOKEN")),
		PlatformGuildID:    strings.TrimSpace(os.Getenv("PLATFORM_GUILD_ID")),
		PlatformTimeout:    time.Duration(getIntOrDefault("PLATFORM_TIMEOUT_SECONDS", 10)) * time.Second,
		CoordinatorRoleIDs: splitList(os.Getenv("COORDINATOR_ROLE_IDS")),
		GroupRolePrefix:    getOrDefault("GROUP_ROLE_PREFIX", "Outreach Group"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.PlatformAPIBase == "" {
		return Config{}, fmt.Errorf("PLATFORM_API_BASE is required")
	}
	if cfg.PlatformToken == "" {
		return Config{}, fmt.Errorf("PLATFORM_TOKEN is required")
	}
	if cfg.PlatformGuildID == "" {
		return Config{}, fmt.Errorf("PLATFORM_GUILD_ID is required")
	}
	if cfg.PlatformTimeout <= 0 {
		return Config{}, fmt.Errorf("PLATFORM_TIMEOUT_SECONDS must be > 0")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be > 0")
	}

	return cfg, nil
}

func getOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getIntOrDefault(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
