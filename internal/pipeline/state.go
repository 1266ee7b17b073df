package pipeline

import (
	"sync"
	"time"
)

// StateStore tracks the poller's operational bookkeeping: last poll attempt,
// last success, consecutive failure count, and the most recent error message.
// Nothing here survives a restart; alert delivery state is per-session and is
// rebuilt from the backend queue on every start.
type StateStore struct {
	mu          sync.RWMutex
	lastPoll    time.Time
	lastSuccess time.Time
	failures    int
	lastError   string
	disabled    bool
}

// NewStateStore creates an empty state store.
func NewStateStore() *StateStore {
	return &StateStore{}
}

// SaveLastPoll stores the timestamp of the last poll attempt.
func (s *StateStore) SaveLastPoll(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastPoll = t
}

// GetLastPoll retrieves the timestamp of the last poll attempt.
// Returns zero time before the first poll.
func (s *StateStore) GetLastPoll() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastPoll
}

// SaveLastSuccess stores the timestamp of the last successful poll.
func (s *StateStore) SaveLastSuccess(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSuccess = t
}

// GetLastSuccess retrieves the timestamp of the last successful poll.
// Returns zero time before the first success.
func (s *StateStore) GetLastSuccess() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastSuccess
}

// IncrementFailures increments the consecutive failures counter and returns
// the new count.
func (s *StateStore) IncrementFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures++
	return s.failures
}

// ResetFailures resets the consecutive failures counter to zero.
func (s *StateStore) ResetFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures = 0
}

// GetFailures retrieves the current consecutive failures count.
func (s *StateStore) GetFailures() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.failures
}

// SaveLastError stores the error message from the most recent failure.
// An empty string clears it.
func (s *StateStore) SaveLastError(errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = errMsg
}

// GetLastError retrieves the error message from the most recent failure.
func (s *StateStore) GetLastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastError
}

// SetDisabled marks the poller as disabled after too many consecutive
// failures.
func (s *StateStore) SetDisabled(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disabled = disabled
}

// IsDisabled reports whether the poller disabled itself.
func (s *StateStore) IsDisabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.disabled
}

// Status is a point-in-time snapshot of the poller state for the status
// endpoint.
type Status struct {
	LastPollTime        time.Time `json:"lastPollTime"`
	LastSuccessTime     time.Time `json:"lastSuccessTime"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	LastError           string    `json:"lastError,omitempty"`
	Disabled            bool      `json:"disabled"`
}

// Snapshot returns a consistent copy of the current state.
func (s *StateStore) Snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		LastPollTime:        s.lastPoll,
		LastSuccessTime:     s.lastSuccess,
		ConsecutiveFailures: s.failures,
		LastError:           s.lastError,
		Disabled:            s.disabled,
	}
}
