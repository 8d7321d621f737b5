package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Browser BrowserConfig
	Session SessionConfig
	Harvest HarvestConfig
	Enrich  EnrichConfig
	Output  OutputConfig
	Log     LogConfig
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless. Manual login
	// needs a visible window, so the CLI flips this off for that flow.
	Headless bool // default: true

	// Proxy is the proxy URL for all browser traffic.
	Proxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// Bin overrides the Chromium binary path.
	Bin string

	// BlockedResourceTypes lists resource types to block while scrolling.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// SessionConfig controls login state handling.
type SessionConfig struct {
	// StateFile is where cookies are persisted between runs.
	StateFile string // default: "quora_state.json"

	// RequireAuth refuses to harvest against an unauthenticated context.
	RequireAuth bool // default: true
}

// HarvestConfig controls the scroll-driven harvesting loop.
type HarvestConfig struct {
	// Origin is the site origin used to resolve relative links.
	Origin string // default: "https://www.quora.com"

	// ItemSelector matches one result row in the search list.
	ItemSelector string

	// SettleTimeout bounds the wait for new content after each scroll.
	SettleTimeout time.Duration // default: 4s

	// GrowInterval is the minimum spacing between growth actions.
	GrowInterval time.Duration // default: 2s

	// StagnationThreshold is the number of consecutive zero-delta rounds
	// after which the harvest gives up.
	StagnationThreshold int // default: 5

	// MaxRounds is the hard cap on scroll rounds.
	MaxRounds int // default: 50
}

// EnrichConfig controls optional per-record content extraction.
type EnrichConfig struct {
	// Enabled toggles visiting each harvested URL for its body text.
	Enabled bool // default: false

	// Timeout is the per-post fetch deadline.
	Timeout time.Duration // default: 20s

	// FetchInterval is the minimum spacing between post fetches.
	FetchInterval time.Duration // default: 2s

	// Format is the body output format: "markdown" or "text".
	Format string // default: "markdown"

	// CacheEntries is the maximum number of cached post bodies.
	CacheEntries int // default: 256
}

// OutputConfig controls where result files land.
type OutputConfig struct {
	Dir string // default: "result"
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:  envBoolOr("QHARVEST_HEADLESS", true),
			Proxy:     os.Getenv("QHARVEST_PROXY"),
			NoSandbox: envBoolOr("QHARVEST_NO_SANDBOX", false),
			Bin:       os.Getenv("QHARVEST_BROWSER_BIN"),
			BlockedResourceTypes: envSliceOr("QHARVEST_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Session: SessionConfig{
			StateFile:   envOr("QHARVEST_STATE_FILE", "quora_state.json"),
			RequireAuth: envBoolOr("QHARVEST_REQUIRE_AUTH", true),
		},
		Harvest: HarvestConfig{
			Origin:              envOr("QHARVEST_ORIGIN", "https://www.quora.com"),
			ItemSelector:        os.Getenv("QHARVEST_ITEM_SELECTOR"),
			SettleTimeout:       envDurationOr("QHARVEST_SETTLE_TIMEOUT", 4*time.Second),
			GrowInterval:        envDurationOr("QHARVEST_GROW_INTERVAL", 2*time.Second),
			StagnationThreshold: envIntOr("QHARVEST_STAGNATION_THRESHOLD", 5),
			MaxRounds:           envIntOr("QHARVEST_MAX_ROUNDS", 50),
		},
		Enrich: EnrichConfig{
			Enabled:       envBoolOr("QHARVEST_ENRICH", false),
			Timeout:       envDurationOr("QHARVEST_ENRICH_TIMEOUT", 20*time.Second),
			FetchInterval: envDurationOr("QHARVEST_ENRICH_INTERVAL", 2*time.Second),
			Format:        envOr("QHARVEST_ENRICH_FORMAT", "markdown"),
			CacheEntries:  envIntOr("QHARVEST_ENRICH_CACHE", 256),
		},
		Output: OutputConfig{
			Dir: envOr("QHARVEST_OUTPUT_DIR", "result"),
		},
		Log: LogConfig{
			Level:  envOr("QHARVEST_LOG_LEVEL", "info"),
			Format: envOr("QHARVEST_LOG_FORMAT", "text"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
