package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/tembea/server/domain/repositories"
)

// GoogleSpeechToText implements SpeechToText for Google Cloud using batch
// recognition against an uploaded gs:// URI. The client is stateless per
// request and safe to share across concurrent sessions.
type GoogleSpeechToText struct {
	client *speech.Client
}

// NewGoogleSpeechToText creates the shared speech client using application
// default credentials.
func NewGoogleSpeechToText(ctx context.Context) (*GoogleSpeechToText, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &GoogleSpeechToText{client: client}, nil
}

// Close releases the underlying gRPC connection.
func (g *GoogleSpeechToText) Close() error {
	return g.client.Close()
}

// Transcribe issues a single recognition request for the artifact at
// locator and returns the recognized text, one result per line.
func (g *GoogleSpeechToText) Transcribe(ctx context.Context, locator string, config repositories.AudioConfig) (string, error) {
	encoding, err := getAudioEncoding(config.Encoding)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:              encoding,
			SampleRateHertz:       int32(config.SampleRateHertz),
			AudioChannelCount:     int32(config.AudioChannelCount),
			LanguageCode:          config.LanguageCode,
			EnableWordTimeOffsets: config.EnableWordTimeOffsets,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: locator},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognize %s: %w", locator, err)
	}

	return joinTranscript(resp.Results), nil
}

// joinTranscript concatenates the top alternative of every result, in
// service order, joined by newlines.
func joinTranscript(results []*speechpb.SpeechRecognitionResult) string {
	lines := make([]string, 0, len(results))
	for _, result := range results {
		if len(result.Alternatives) == 0 {
			continue
		}
		lines = append(lines, result.Alternatives[0].Transcript)
	}
	return strings.Join(lines, "\n")
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "AMR":
		return speechpb.RecognitionConfig_AMR, nil
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
