package mangle

import (
	"os"
	"strconv"
	"strings"
)

// Config controls deterministic corruption of generated chat commands
type Config struct {
	// Enabled turns mangling on
	Enabled bool

	// Pct is the percentage of messages to corrupt (0-100)
	Pct int

	// Seed makes corruption deterministic across runs
	Seed int64

	// Modes restricts which corruptions are applied; empty means all
	Modes []string
}

// LoadConfig loads mangle configuration from environment variables
func LoadConfig() *Config {
	cfg := &Config{
		Enabled: getEnvAsBool("MANGLE_ENABLED", false),
		Pct:     getEnvAsInt("MANGLE_PCT", 30),
		Seed:    int64(getEnvAsInt("MANGLE_SEED", 42)),
	}

	if modes := os.Getenv("MANGLE_MODES"); modes != "" {
		for _, m := range strings.Split(modes, ",") {
			if m = strings.TrimSpace(m); m != "" {
				cfg.Modes = append(cfg.Modes, m)
			}
		}
	}

	return cfg
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
