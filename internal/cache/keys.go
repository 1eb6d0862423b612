package cache

import (
	"strings"
	"time"

	"hiloscan/internal/config"
)

// Namespace is the Redis key prefix for the scanner.
const Namespace = "hiloscan"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, 30*time.Second),
		Medium: durationOrDefault(cfg.Medium, 5*time.Minute),
		Long:   durationOrDefault(cfg.Long, time.Hour),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// MonitoredAssetsKey holds the cached watch list payload.
func MonitoredAssetsKey() string {
	return formatKey("assets", "monitored")
}

// AppConfigKey holds one cached app_config value.
func AppConfigKey(key string) string {
	return formatKey("app_config", key)
}

// ScanLockKey is a short-lived guard against overlapping automatic runs.
func ScanLockKey() string {
	return formatKey("lock", "scan")
}
