package chat

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable machine-readable failure category surfaced
// across the engine boundary.
type ErrorKind string

const (
	// KindInput: missing or malformed user message. Not retried.
	KindInput ErrorKind = "input"

	// KindRetrieval: embedding or similarity search failed. Not
	// retried; an explicit failure beats a stale partial answer.
	KindRetrieval ErrorKind = "retrieval"

	// KindGenerationTool: the model call failed with grounding tools
	// enabled. Recovered locally by one retry without tools.
	KindGenerationTool ErrorKind = "generation_tool"

	// KindGenerationFatal: any other model failure, including the
	// failure of the tool-disabled retry.
	KindGenerationFatal ErrorKind = "generation_fatal"

	// KindStreamWrite: the downstream consumer disconnected. Upstream
	// calls are aborted; there is no transport left to notify.
	KindStreamWrite ErrorKind = "stream_write"
)

// Error is a structured engine failure: a stable kind plus a
// human-readable detail. Internal stack traces never cross this
// boundary.
type Error struct {
	Kind   ErrorKind
	Detail string
	err    error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.err }

// newError wraps err with a kind and detail string.
func newError(kind ErrorKind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, err: err}
}

// KindOf extracts the ErrorKind from err, or KindGenerationFatal when
// err carries no engine classification.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindGenerationFatal
}
