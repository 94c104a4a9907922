package pipeline

import (
	"sync"
	"time"
)

// Status is the state of a pipeline run submitted via the API.
type Status string

const (
	StatusQueued Status = "queued"

	// In-flight phases, in pipeline order.
	StatusReading    Status = "reading"
	StatusExtracting Status = "extracting"
	StatusPersisting Status = "persisting"
	StatusExporting  Status = "exporting"
	StatusAnalyzing  Status = "analyzing"

	StatusCompleted Status = "completed"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Run tracks one submitted pipeline run.
type Run struct {
	mu sync.Mutex

	ID        string
	Status    Status
	Error     string
	Result    *Result
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewRun() *Run {
	now := time.Now()
	return &Run{
		ID:        NewRunID(),
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetPhase records the current pipeline phase.
func (r *Run) SetPhase(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = s
	r.UpdatedAt = time.Now()
}

// Finish records the run outcome. A run that persisted some but not
// all documents is partial; one that errored outright is failed.
func (r *Run) Finish(result *Result, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UpdatedAt = time.Now()
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
		return
	}
	r.Result = result
	if result.Persisted < result.Batch.Len() {
		r.Status = StatusPartial
	} else {
		r.Status = StatusCompleted
	}
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID        string           `json:"run_id"`
	Status    Status           `json:"status"`
	Error     string           `json:"error,omitempty"`
	Documents []DocumentStatus `json:"documents,omitempty"`
	Persisted int              `json:"persisted"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := RunSnapshot{
		ID:        r.ID,
		Status:    r.Status,
		Error:     r.Error,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Result != nil {
		snap.Documents = r.Result.Documents
		snap.Persisted = r.Result.Persisted
	}
	return snap
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// Cleanup removes expired runs.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		run.mu.Lock()
		expired := now.Sub(run.UpdatedAt) > s.ttl
		run.mu.Unlock()
		if expired {
			delete(s.runs, id)
		}
	}
}
