package recording

import "fmt"

// FailureKind identifies which stage of the pipeline a session failed in.
type FailureKind string

const (
	FailureWrite      FailureKind = "write"
	FailureUpload     FailureKind = "upload"
	FailureTranscribe FailureKind = "transcribe"
)

// Failure is a terminal session error. It moves the session to the failed
// state and is reported once to the originating connection, if any.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failure: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func newFailure(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}
