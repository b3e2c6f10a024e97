package recording

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ChunkBuffer is a session-scoped append-only spool file for incoming
// audio. Each session owns exactly one buffer; it is written only by that
// session's goroutine and never again after Close.
type ChunkBuffer struct {
	path   string
	file   *os.File
	size   int64
	closed bool
}

// NewChunkBuffer creates the spool file for a session. The file name is
// derived from the session ID so concurrent sessions never collide.
func NewChunkBuffer(dir, sessionID string) (*ChunkBuffer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, newFailure(FailureWrite, fmt.Errorf("create spool dir: %w", err))
	}

	path := filepath.Join(dir, sessionID+".webm")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return nil, newFailure(FailureWrite, fmt.Errorf("create spool file: %w", err))
	}

	return &ChunkBuffer{path: path, file: file}, nil
}

// Append writes the next chunk to the buffer in arrival order. Ordering
// is guaranteed by the session's event serialization, not here.
func (b *ChunkBuffer) Append(data []byte) error {
	if b.closed {
		return newFailure(FailureWrite, errors.New("buffer already closed"))
	}

	n, err := b.file.Write(data)
	b.size += int64(n)
	if err != nil {
		return newFailure(FailureWrite, fmt.Errorf("append chunk: %w", err))
	}

	return nil
}

// Close flushes and finalizes the buffer, returning the local path for
// upload. An empty buffer (zero chunks) closes without error.
func (b *ChunkBuffer) Close() (string, error) {
	if b.closed {
		return b.path, nil
	}
	b.closed = true

	if err := b.file.Sync(); err != nil {
		b.file.Close()
		return "", newFailure(FailureWrite, fmt.Errorf("flush spool file: %w", err))
	}
	if err := b.file.Close(); err != nil {
		return "", newFailure(FailureWrite, fmt.Errorf("close spool file: %w", err))
	}

	return b.path, nil
}

// Discard closes the file if still open and removes it from disk. This is
// the single cleanup point for the local buffer.
func (b *ChunkBuffer) Discard() error {
	if !b.closed {
		b.closed = true
		b.file.Close()
	}

	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove spool file: %w", err)
	}
	return nil
}

// Path returns the location of the spool file.
func (b *ChunkBuffer) Path() string {
	return b.path
}

// Size returns the number of bytes appended so far.
func (b *ChunkBuffer) Size() int64 {
	return b.size
}
