package config

import (
	"os"
	"strconv"
)

// Config holds runtime configuration, loaded from environment variables.
type Config struct {
	SamplesDir string
	OutputDir  string
	DBPath     string

	SampleRate int
	BPM        int
	Steps      int

	Owner    string
	LogLevel string
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		SamplesDir: envStr("BEAT_SAMPLES_DIR", "samples"),
		OutputDir:  envStr("BEAT_OUTPUT_DIR", "renders"),
		DBPath:     envStr("BEAT_DB_PATH", "renders/beatrender.db"),

		SampleRate: envInt("BEAT_SAMPLE_RATE", 44100),
		BPM:        envInt("BEAT_BPM", 120),
		Steps:      envInt("BEAT_STEPS", 16),

		Owner:    envStr("BEAT_OWNER", "local"),
		LogLevel: envStr("BEAT_LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
