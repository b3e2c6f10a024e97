package stt

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/tembea/server/domain/repositories"
)

// MockSpeechToText is a placeholder implementation for speech recognition
type MockSpeechToText struct {
	logger *zap.Logger

	// Transcript is returned for every request.
	Transcript string
	// Err, if set, fails every request.
	Err error

	calls atomic.Int64
}

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{
		logger:     logger,
		Transcript: "this is a mock transcription",
	}
}

// Transcribe returns the configured transcript without calling any
// remote service.
func (m *MockSpeechToText) Transcribe(ctx context.Context, locator string, config repositories.AudioConfig) (string, error) {
	m.calls.Add(1)
	m.logger.Info("Mock transcription requested",
		zap.String("locator", locator),
		zap.String("encoding", config.Encoding),
		zap.Int("sampleRateHertz", config.SampleRateHertz),
		zap.String("language", config.LanguageCode))

	if m.Err != nil {
		return "", fmt.Errorf("mock transcription: %w", m.Err)
	}
	return m.Transcript, nil
}

// Calls returns how many transcription requests were issued.
func (m *MockSpeechToText) Calls() int {
	return int(m.calls.Load())
}
