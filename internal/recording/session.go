package recording

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/tembea/server/domain/repositories"
)

// State is a session's position in its lifecycle. Transitions only move
// forward, except into StateFailed, which is reachable from any
// non-terminal state.
type State int32

const (
	StateRecording State = iota
	StateFinalizing
	StateUploading
	StateTranscribing
	StateComplete
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StateFinalizing:
		return "finalizing"
	case StateUploading:
		return "uploading"
	case StateTranscribing:
		return "transcribing"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions occur from s.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed || s == StateClosed
}

// Emitter delivers session outcomes back to the originating connection.
// Implementations must tolerate being called after the connection is gone.
type Emitter interface {
	EmitTranscript(sessionID, text string)
	EmitError(sessionID, message string)
}

// clientErrorMessage is the generic error reported to clients; the
// underlying cause stays in the logs.
const clientErrorMessage = "error processing audio"

type event interface{}

type chunkEvent struct{ data []byte }

type finalizeEvent struct{}

type disconnectEvent struct{}

type uploadDoneEvent struct {
	locator string
	err     error
}

type transcribeDoneEvent struct {
	text string
	err  error
}

// Session drives one recording through record, finalize, upload and
// transcribe. All state is owned by the session's run goroutine; external
// stimuli and internal completions arrive through the same event channel,
// so events are processed strictly in order.
type Session struct {
	ID        string
	CreatedAt time.Time

	buffer    *ChunkBuffer
	storage   repositories.BlobStorage
	stt       repositories.SpeechToText
	audio     repositories.AudioConfig
	remoteKey string

	// Set once upload succeeds, only by the run goroutine.
	remoteLocator string

	retainRemote bool

	emitter Emitter
	logger  *zap.Logger

	state        atomic.Int32
	disconnected atomic.Bool

	events chan event
	done   chan struct{}

	onTerminal func(*Session)
}

// State returns the session's current state. Readable from any goroutine;
// written only by the run goroutine.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Done is closed once the session has reached a terminal state and
// finished cleanup.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// RemoteKey returns the destination key this session uploads under.
func (s *Session) RemoteKey() string {
	return s.remoteKey
}

func (s *Session) setState(next State) {
	prev := s.State()
	s.state.Store(int32(next))
	s.logger.Debug("Session state changed",
		zap.String("sessionID", s.ID),
		zap.Stringer("from", prev),
		zap.Stringer("to", next))
}

// dispatch queues an event for the run goroutine. Events arriving after
// the session terminated are dropped; that is benign raciness between
// transport teardown and in-flight messages, not an error.
func (s *Session) dispatch(ev event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// run is the session's single writer. It exits once a terminal state has
// been reached and cleanup has run.
func (s *Session) run() {
	defer close(s.done)

	for ev := range s.events {
		if terminal := s.handle(ev); terminal {
			return
		}
	}
}

func (s *Session) handle(ev event) bool {
	switch ev := ev.(type) {
	case chunkEvent:
		return s.handleChunk(ev.data)
	case finalizeEvent:
		return s.handleFinalize()
	case disconnectEvent:
		return s.handleDisconnect()
	case uploadDoneEvent:
		return s.handleUploadDone(ev)
	case transcribeDoneEvent:
		return s.handleTranscribeDone(ev)
	default:
		s.logger.Warn("Unknown session event", zap.String("sessionID", s.ID))
		return false
	}
}

func (s *Session) handleChunk(data []byte) bool {
	if s.State() != StateRecording {
		// The buffer is closing or closed; late chunks are dropped.
		s.logger.Debug("Dropping chunk outside recording state",
			zap.String("sessionID", s.ID),
			zap.Stringer("state", s.State()),
			zap.Int("size", len(data)))
		return false
	}

	if err := s.buffer.Append(data); err != nil {
		return s.fail(err)
	}

	s.logger.Debug("Appended audio chunk",
		zap.String("sessionID", s.ID),
		zap.Int("size", len(data)),
		zap.Int64("totalBytes", s.buffer.Size()))
	return false
}

func (s *Session) handleFinalize() bool {
	if s.State() != StateRecording {
		// A second stop signal must not trigger a second upload.
		s.logger.Debug("Ignoring duplicate finalize",
			zap.String("sessionID", s.ID),
			zap.Stringer("state", s.State()))
		return false
	}

	s.setState(StateFinalizing)

	path, err := s.buffer.Close()
	if err != nil {
		return s.fail(err)
	}

	s.setState(StateUploading)
	go func() {
		locator, err := s.storage.Upload(context.Background(), path, s.remoteKey)
		s.events <- uploadDoneEvent{locator: locator, err: err}
	}()
	return false
}

func (s *Session) handleUploadDone(ev uploadDoneEvent) bool {
	if s.State() != StateUploading {
		s.logger.Warn("Upload completion in unexpected state",
			zap.String("sessionID", s.ID),
			zap.Stringer("state", s.State()))
		return false
	}

	if ev.err != nil {
		return s.fail(newFailure(FailureUpload, ev.err))
	}

	s.remoteLocator = ev.locator
	s.setState(StateTranscribing)
	go func() {
		text, err := s.stt.Transcribe(context.Background(), s.remoteLocator, s.audio)
		s.events <- transcribeDoneEvent{text: text, err: err}
	}()
	return false
}

func (s *Session) handleTranscribeDone(ev transcribeDoneEvent) bool {
	if s.State() != StateTranscribing {
		s.logger.Warn("Transcription completion in unexpected state",
			zap.String("sessionID", s.ID),
			zap.Stringer("state", s.State()))
		return false
	}

	if ev.err != nil {
		return s.fail(newFailure(FailureTranscribe, ev.err))
	}

	s.setState(StateComplete)
	if s.disconnected.Load() {
		s.logger.Info("Transcription finished after disconnect, dropping result",
			zap.String("sessionID", s.ID))
	} else {
		s.emitter.EmitTranscript(s.ID, ev.text)
		s.logger.Info("Transcription delivered",
			zap.String("sessionID", s.ID),
			zap.Int("length", len(ev.text)))
	}

	s.cleanup()
	return true
}

func (s *Session) handleDisconnect() bool {
	switch s.State() {
	case StateRecording:
		// No finalize ever arrived; discard the partial recording.
		s.setState(StateClosed)
		s.logger.Info("Session closed on disconnect",
			zap.String("sessionID", s.ID),
			zap.Int64("discardedBytes", s.buffer.Size()))
		s.cleanup()
		return true
	default:
		// The pipeline is already running; let it finish so cleanup
		// happens exactly once. The result will not be emitted.
		s.logger.Debug("Disconnect during pipeline, continuing for cleanup",
			zap.String("sessionID", s.ID),
			zap.Stringer("state", s.State()))
		return false
	}
}

// fail moves the session to the failed state, reports the error once if
// the connection is still there, and cleans up.
func (s *Session) fail(err error) bool {
	var failure *Failure
	if !errors.As(err, &failure) {
		failure = newFailure(FailureWrite, err)
	}

	s.setState(StateFailed)
	s.logger.Error("Session failed",
		zap.String("sessionID", s.ID),
		zap.String("kind", string(failure.Kind)),
		zap.Error(failure.Err))

	if !s.disconnected.Load() {
		s.emitter.EmitError(s.ID, clientErrorMessage)
	}

	s.cleanup()
	return true
}

// cleanup releases the session's resources. Runs exactly once, on the run
// goroutine, as part of entering a terminal state. Local temp data is
// always deleted; the remote artifact follows the retention policy.
func (s *Session) cleanup() {
	if err := s.buffer.Discard(); err != nil {
		s.logger.Warn("Failed to remove spool file",
			zap.String("sessionID", s.ID),
			zap.Error(err))
	}

	if s.remoteLocator != "" && !s.retainRemote {
		if err := s.storage.Delete(context.Background(), s.remoteKey); err != nil {
			s.logger.Warn("Failed to delete remote artifact",
				zap.String("sessionID", s.ID),
				zap.String("key", s.remoteKey),
				zap.Error(err))
		}
	}

	if s.onTerminal != nil {
		s.onTerminal(s)
	}
}
