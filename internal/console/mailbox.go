package console

import (
	"sync"

	"github.com/kuntur-security/kuntur-console/internal/alert"
)

// Mailbox is the single mutex-guarded slot holding the current unacknowledged
// alert and its delivery handle. At most one alert is tracked at a time: a
// newly delivered alert replaces the previous one (last-write-wins, no
// client-side queueing).
//
// All writers (the poller, the socket source, the acknowledgement path) go
// through the mailbox, which serializes them and resolves the two races the
// naive implementation has: a poll result landing while an acknowledgement
// for the current handle is in flight is rejected, and nothing mutates the
// slot after Close.
type Mailbox struct {
	mu          sync.Mutex
	current     *alert.Alert
	handle      alert.DeliveryHandle
	ackInFlight bool
	closed      bool
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Deliver stores an alert and its delivery handle, replacing whatever was
// held before. A nil alert clears the slot (the backend reported nothing
// pending). Deliver reports whether the write was accepted; it is rejected
// while an acknowledgement is in flight or after Close.
func (m *Mailbox) Deliver(a *alert.Alert, handle alert.DeliveryHandle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.ackInFlight {
		return false
	}

	if a == nil {
		m.current = nil
		m.handle = 0
		return true
	}

	m.current = a
	m.handle = handle
	return true
}

// Current returns the held alert and handle. The alert pointer is shared but
// the record is immutable by contract; callers must not modify it.
func (m *Mailbox) Current() (*alert.Alert, alert.DeliveryHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.current, m.handle
}

// BeginAck claims the held delivery handle for acknowledgement and blocks
// competing writes until FinishAck. It reports false when there is nothing to
// acknowledge: no alert held, no handle attached (socket-pushed alerts carry
// none), or an acknowledgement already in flight.
func (m *Mailbox) BeginAck() (alert.DeliveryHandle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.ackInFlight || m.current == nil || m.handle == 0 {
		return 0, false
	}

	m.ackInFlight = true
	return m.handle, true
}

// FinishAck releases the claim taken by BeginAck. On success the slot is
// cleared (the alert is consumed); on failure the alert stays so the operator
// can retry.
func (m *Mailbox) FinishAck(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ackInFlight = false
	if success {
		m.current = nil
		m.handle = 0
	}
}

// DropUnhandled clears an alert held without a delivery handle, reporting
// whether anything was cleared. Socket-pushed alerts end up in this state;
// there is nothing to acknowledge against the queue for them.
func (m *Mailbox) DropUnhandled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.ackInFlight || m.current == nil || m.handle != 0 {
		return false
	}

	m.current = nil
	return true
}

// Close permanently seals the mailbox. Late poll results resolving after
// teardown are discarded instead of mutating state.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.current = nil
	m.handle = 0
}
