package repositories

import "context"

// SpeechToText abstracts speech recognition services
type SpeechToText interface {
	// Transcribe runs batch recognition against an already-uploaded
	// artifact identified by its remote locator (e.g. a gs:// URI) and
	// returns the recognized text.
	Transcribe(ctx context.Context, locator string, config AudioConfig) (string, error)
}

// AudioConfig describes how the remote service decodes and segments the
// audio. Values are fixed per deployment, not per request.
type AudioConfig struct {
	Encoding              string `json:"encoding"`
	SampleRateHertz       int    `json:"sample_rate_hertz"`
	AudioChannelCount     int    `json:"audio_channel_count"`
	LanguageCode          string `json:"language_code"`
	EnableWordTimeOffsets bool   `json:"enable_word_time_offsets"`
}
