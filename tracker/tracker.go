// Package tracker holds the in-memory progress state of asynchronous
// extraction jobs. It is passive: the orchestrator writes, pollers read.
// Job state lives for the process lifetime only.
package tracker

import (
	"sync"
	"time"

	"car-tracker/models"
)

// State is the coarse progress phase of a job. Transitions only move forward;
// complete and error are terminal.
type State string

const (
	StateInitializing      State = "initializing"
	StateCheckingDuplicate State = "checking_duplicate"
	StateScraperInit       State = "scraper_init"
	StateLoggingIn         State = "logging_in"
	StateFetching          State = "fetching"
	StateSaving            State = "saving"
	StateComplete          State = "complete"
	StateError             State = "error"
)

// Terminal reports whether no further transitions are allowed from s.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateError
}

// Snapshot is the immutable view of a job handed to pollers.
type Snapshot struct {
	JobID     string      `json:"job_id"`
	State     State       `json:"state"`
	Message   string      `json:"message"`
	Car       *models.Car `json:"car,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Tracker maps job ids to their latest snapshot. Safe for one writer per job
// and any number of concurrent readers.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]Snapshot
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{jobs: make(map[string]Snapshot)}
}

// Create registers a job in its initial state. Ids are generated at
// submission, so collisions are not expected; an existing entry is left alone.
func (t *Tracker) Create(jobID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.jobs[jobID]; exists {
		return
	}
	t.jobs[jobID] = Snapshot{
		JobID:     jobID,
		State:     StateInitializing,
		Message:   "job accepted",
		UpdatedAt: time.Now(),
	}
}

// Advance moves a job to a new state with a message and the fields gathered
// so far. Calls after a terminal state, or for unknown ids, are no-ops.
func (t *Tracker) Advance(jobID string, state State, message string, car *models.Car) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, exists := t.jobs[jobID]
	if !exists || current.State.Terminal() {
		return
	}

	snap := Snapshot{
		JobID:     jobID,
		State:     state,
		Message:   message,
		Car:       car.Clone(),
		UpdatedAt: time.Now(),
	}
	if snap.Car == nil {
		// Keep earlier partial fields when an update carries none.
		snap.Car = current.Car
	}
	t.jobs[jobID] = snap
}

// Get returns a copy of the job's latest snapshot, or false for unknown ids.
func (t *Tracker) Get(jobID string) (Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap, exists := t.jobs[jobID]
	if !exists {
		return Snapshot{}, false
	}
	snap.Car = snap.Car.Clone()
	return snap, true
}
