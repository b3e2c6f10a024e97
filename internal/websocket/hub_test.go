package websocket

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tembea/server/adapters/storage"
	"github.com/tembea/server/adapters/stt"
	"github.com/tembea/server/domain/repositories"
	"github.com/tembea/server/internal/recording"
)

type testServer struct {
	server  *httptest.Server
	store   *storage.MockBlobStorage
	speech  *stt.MockSpeechToText
	manager *recording.Manager
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()

	store := storage.NewMockBlobStorage(logger)
	speech := stt.NewMockSpeechToText(logger)
	manager := recording.NewManager(store, speech, recording.Options{
		SpoolDir: t.TempDir(),
		Audio: repositories.AudioConfig{
			Encoding:        "WEBM_OPUS",
			SampleRateHertz: 48000,
			LanguageCode:    "en-KE",
		},
		RetainRemoteArtifacts: true,
	}, logger)

	hub := NewHub(manager, logger)
	go hub.Run()

	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return HandleWebSocket(hub, c, logger)
	})

	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	return &testServer{server: server, store: store, speech: speech, manager: manager}
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForEmptyRegistry(t *testing.T, manager *recording.Manager) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for manager.Count() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Registry never drained, %d sessions left", manager.Count())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocketTranscriptionFlow(t *testing.T) {
	ts := setupTestServer(t)
	ts.speech.Transcript = "hello\nworld"

	conn := ts.dial(t)

	for _, chunk := range []string{"AA", "BB", "CC"} {
		if err := conn.WriteMessage(websocket.BinaryMessage, []byte(chunk)); err != nil {
			t.Fatalf("WriteMessage failed: %v", err)
		}
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"stop_recording"}`)); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}

	var msg TranscriptionMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("Invalid message JSON: %v", err)
	}
	if msg.Type != MessageTypeTranscription {
		t.Errorf("Type = %s, want %s", msg.Type, MessageTypeTranscription)
	}
	if msg.Text != "hello\nworld" {
		t.Errorf("Text = %q, want %q", msg.Text, "hello\nworld")
	}
	if msg.SessionID == "" {
		t.Error("SessionID should be set")
	}

	keys := ts.store.Keys()
	if len(keys) != 1 {
		t.Fatalf("Expected one uploaded object, got %d", len(keys))
	}
	uploaded, _ := ts.store.Object(keys[0])
	if !bytes.Equal(uploaded, []byte("AABBCC")) {
		t.Errorf("Uploaded bytes = %q, want AABBCC", uploaded)
	}
}

func TestWebSocketErrorFlow(t *testing.T) {
	ts := setupTestServer(t)
	ts.store.UploadErr = errors.New("storage unreachable")

	conn := ts.dial(t)

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte("AA")); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"stop_recording"}`)); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}

	var msg ErrorMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("Invalid message JSON: %v", err)
	}
	if msg.Type != MessageTypeError {
		t.Errorf("Type = %s, want %s", msg.Type, MessageTypeError)
	}
	if msg.Message == "" {
		t.Error("Error message should carry a human-readable reason")
	}
	if ts.speech.Calls() != 0 {
		t.Errorf("No transcription after upload failure, got %d calls", ts.speech.Calls())
	}
}

func TestWebSocketDisconnectBeforeStop(t *testing.T) {
	ts := setupTestServer(t)

	conn := ts.dial(t)
	if err := conn.WriteMessage(websocket.BinaryMessage, []byte("AA")); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}
	conn.Close()

	waitForEmptyRegistry(t, ts.manager)

	if ts.store.Uploads() != 0 {
		t.Errorf("Disconnect before stop must not upload, got %d", ts.store.Uploads())
	}
	if ts.speech.Calls() != 0 {
		t.Errorf("Disconnect before stop must not transcribe, got %d", ts.speech.Calls())
	}
}

func TestWebSocketConcurrentConnections(t *testing.T) {
	ts := setupTestServer(t)

	const conns = 4
	clients := make([]*websocket.Conn, conns)
	for i := range clients {
		clients[i] = ts.dial(t)
	}

	for i, conn := range clients {
		if err := conn.WriteMessage(websocket.BinaryMessage, []byte{byte('a' + i)}); err != nil {
			t.Fatalf("WriteMessage failed: %v", err)
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"stop_recording"}`)); err != nil {
			t.Fatalf("WriteMessage failed: %v", err)
		}
	}

	seen := make(map[string]bool)
	for _, conn := range clients {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage failed: %v", err)
		}
		var msg TranscriptionMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("Invalid message JSON: %v", err)
		}
		if seen[msg.SessionID] {
			t.Errorf("Session ID %s delivered twice", msg.SessionID)
		}
		seen[msg.SessionID] = true
	}

	keys := ts.store.Keys()
	if len(keys) != conns {
		t.Errorf("Expected %d distinct destination keys, got %d", conns, len(keys))
	}
}
