package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tembea/server/domain/repositories"
)

// Config holds the per-deployment settings for the server. Values come
// from the environment; main loads a .env file first via godotenv.
type Config struct {
	// Port the HTTP server listens on.
	Port string

	// Bucket is the GCS bucket holding uploaded recordings.
	Bucket string

	// SpoolDir is where in-progress recordings are buffered locally.
	SpoolDir string

	// RetainRemoteArtifacts leaves uploads in place after transcription.
	RetainRemoteArtifacts bool

	// MaxSessionAge is how long a session may exist before the janitor
	// abandons it.
	MaxSessionAge time.Duration

	// Audio is the fixed recognition configuration.
	Audio repositories.AudioConfig
}

// Load reads the configuration from the environment, applying defaults
// for anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		Bucket:                os.Getenv("GCS_BUCKET"),
		SpoolDir:              getEnv("SPOOL_DIR", filepath.Join(os.TempDir(), "tembea")),
		RetainRemoteArtifacts: true,
		MaxSessionAge:         30 * time.Minute,
		Audio: repositories.AudioConfig{
			Encoding:              getEnv("AUDIO_ENCODING", "WEBM_OPUS"),
			SampleRateHertz:       48000,
			AudioChannelCount:     1,
			LanguageCode:          getEnv("AUDIO_LANGUAGE_CODE", "en-KE"),
			EnableWordTimeOffsets: true,
		},
	}

	if v := os.Getenv("RETAIN_REMOTE_ARTIFACTS"); v != "" {
		retain, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RETAIN_REMOTE_ARTIFACTS %q: %w", v, err)
		}
		cfg.RetainRemoteArtifacts = retain
	}

	if v := os.Getenv("MAX_SESSION_AGE"); v != "" {
		age, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_SESSION_AGE %q: %w", v, err)
		}
		cfg.MaxSessionAge = age
	}

	if v := os.Getenv("AUDIO_SAMPLE_RATE_HERTZ"); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("invalid AUDIO_SAMPLE_RATE_HERTZ %q", v)
		}
		cfg.Audio.SampleRateHertz = rate
	}

	if v := os.Getenv("AUDIO_CHANNEL_COUNT"); v != "" {
		channels, err := strconv.Atoi(v)
		if err != nil || channels <= 0 {
			return nil, fmt.Errorf("invalid AUDIO_CHANNEL_COUNT %q", v)
		}
		cfg.Audio.AudioChannelCount = channels
	}

	if v := os.Getenv("AUDIO_WORD_TIME_OFFSETS"); v != "" {
		offsets, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUDIO_WORD_TIME_OFFSETS %q: %w", v, err)
		}
		cfg.Audio.EnableWordTimeOffsets = offsets
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
