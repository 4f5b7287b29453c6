package engine

import "sync"

// Mailbox is a single-slot holder for the results of an in-flight
// asynchronous dispatch. Async calls are not awaited within the cycle
// that started them; their completion crosses cycle (and turn)
// boundaries, and the mailbox is where the next cycle picks them up.
//
// The slot is await-then-replace: depositing while a previous dispatch
// is still pending first awaits it and hands its results back, so
// results are never dropped. Producers must always send exactly one
// value, even on failure, which keeps Drain total; the mailbox never
// rejects into a later turn.
//
// Each agent instance owns its own mailbox; slots are not shareable
// across concurrent agents.
type Mailbox struct {
	mu   sync.Mutex
	slot chan []CallResult
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Deposit installs a pending dispatch. If a previous dispatch is still
// in the slot its results are awaited and returned to the caller.
func (m *Mailbox) Deposit(pending chan []CallResult) []CallResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	var carried []CallResult
	if m.slot != nil {
		carried = <-m.slot
	}
	m.slot = pending
	return carried
}

// Drain awaits and clears the pending dispatch, if any. An empty slot
// yields nil.
func (m *Mailbox) Drain() []CallResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slot == nil {
		return nil
	}
	results := <-m.slot
	m.slot = nil
	return results
}
