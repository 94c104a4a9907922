// Package extract turns a document into a canonical fact set by way
// of a remote AI extraction capability.
package extract

import (
	"context"
	"fmt"

	"github.com/dgallion1/finfacts/internal/document"
)

// RunStatus is the remote extraction run state.
type RunStatus string

const (
	StatusQueued     RunStatus = "queued"
	StatusInProgress RunStatus = "in_progress"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// Terminal reports whether the run has finished, successfully or not.
func (s RunStatus) Terminal() bool {
	return s != StatusQueued && s != StatusInProgress
}

// Session holds the remote-side handles allocated for one document.
// All of them must be released via Cleanup exactly once.
type Session struct {
	FileID      string
	AssistantID string
	ThreadID    string
	RunID       string
}

// Capability is the remote extraction service the orchestrator depends
// on. Implementations wrap a concrete vendor; the orchestrator never
// does.
type Capability interface {
	// Submit uploads the document, binds it to an extraction session
	// and starts a run. On error no remote resources remain allocated.
	Submit(ctx context.Context, doc *document.Document) (*Session, error)

	// Poll reports the current run status.
	Poll(ctx context.Context, sess *Session) (RunStatus, error)

	// FetchResult returns the first assistant-authored message of the
	// finished run, or an error if there is none.
	FetchResult(ctx context.Context, sess *Session) (string, error)

	// Cleanup releases every remote resource held by the session.
	Cleanup(ctx context.Context, sess *Session) error
}

// RetryableError indicates a transient remote failure worth retrying.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
