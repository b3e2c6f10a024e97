package websocket

// MessageType defines the type of WebSocket control message
type MessageType string

// Supported message types
const (
	// Inbound
	MessageTypeStopRecording MessageType = "stop_recording"

	// Outbound
	MessageTypeTranscription MessageType = "transcription"
	MessageTypeError         MessageType = "error"
)

// ControlMessage is an inbound text-frame message from the client. Audio
// chunks travel as binary frames and never appear here.
type ControlMessage struct {
	Type MessageType `json:"type"`
}

// TranscriptionMessage carries the final recognized transcript back to
// the client.
type TranscriptionMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Text      string      `json:"text"`
}

// ErrorMessage reports a processing failure with a human-readable reason.
type ErrorMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Message   string      `json:"message"`
}
