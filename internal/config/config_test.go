package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "GCS_BUCKET", "SPOOL_DIR", "RETAIN_REMOTE_ARTIFACTS",
		"MAX_SESSION_AGE", "AUDIO_ENCODING", "AUDIO_SAMPLE_RATE_HERTZ",
		"AUDIO_CHANNEL_COUNT", "AUDIO_LANGUAGE_CODE", "AUDIO_WORD_TIME_OFFSETS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %s, want 8080", cfg.Port)
	}
	if !cfg.RetainRemoteArtifacts {
		t.Error("Remote artifacts should be retained by default")
	}
	if cfg.MaxSessionAge != 30*time.Minute {
		t.Errorf("MaxSessionAge = %s, want 30m", cfg.MaxSessionAge)
	}
	if cfg.Audio.Encoding != "WEBM_OPUS" {
		t.Errorf("Encoding = %s, want WEBM_OPUS", cfg.Audio.Encoding)
	}
	if cfg.Audio.SampleRateHertz != 48000 {
		t.Errorf("SampleRateHertz = %d, want 48000", cfg.Audio.SampleRateHertz)
	}
	if cfg.Audio.AudioChannelCount != 1 {
		t.Errorf("AudioChannelCount = %d, want 1", cfg.Audio.AudioChannelCount)
	}
	if cfg.Audio.LanguageCode != "en-KE" {
		t.Errorf("LanguageCode = %s, want en-KE", cfg.Audio.LanguageCode)
	}
	if !cfg.Audio.EnableWordTimeOffsets {
		t.Error("EnableWordTimeOffsets should default to true")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GCS_BUCKET", "recordings-bucket")
	t.Setenv("RETAIN_REMOTE_ARTIFACTS", "false")
	t.Setenv("MAX_SESSION_AGE", "5m")
	t.Setenv("AUDIO_ENCODING", "LINEAR16")
	t.Setenv("AUDIO_SAMPLE_RATE_HERTZ", "16000")
	t.Setenv("AUDIO_CHANNEL_COUNT", "2")
	t.Setenv("AUDIO_LANGUAGE_CODE", "sw-KE")
	t.Setenv("AUDIO_WORD_TIME_OFFSETS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.Bucket != "recordings-bucket" {
		t.Errorf("Bucket = %s, want recordings-bucket", cfg.Bucket)
	}
	if cfg.RetainRemoteArtifacts {
		t.Error("RetainRemoteArtifacts should be overridden to false")
	}
	if cfg.MaxSessionAge != 5*time.Minute {
		t.Errorf("MaxSessionAge = %s, want 5m", cfg.MaxSessionAge)
	}
	if cfg.Audio.Encoding != "LINEAR16" {
		t.Errorf("Encoding = %s, want LINEAR16", cfg.Audio.Encoding)
	}
	if cfg.Audio.SampleRateHertz != 16000 {
		t.Errorf("SampleRateHertz = %d, want 16000", cfg.Audio.SampleRateHertz)
	}
	if cfg.Audio.AudioChannelCount != 2 {
		t.Errorf("AudioChannelCount = %d, want 2", cfg.Audio.AudioChannelCount)
	}
	if cfg.Audio.LanguageCode != "sw-KE" {
		t.Errorf("LanguageCode = %s, want sw-KE", cfg.Audio.LanguageCode)
	}
	if cfg.Audio.EnableWordTimeOffsets {
		t.Error("EnableWordTimeOffsets should be overridden to false")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"RETAIN_REMOTE_ARTIFACTS": "maybe",
		"MAX_SESSION_AGE":         "soon",
		"AUDIO_SAMPLE_RATE_HERTZ": "-1",
		"AUDIO_CHANNEL_COUNT":     "zero",
		"AUDIO_WORD_TIME_OFFSETS": "yep",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Errorf("Load should reject %s=%s", key, value)
			}
		})
	}
}
