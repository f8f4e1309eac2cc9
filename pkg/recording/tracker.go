package recording

import (
	"sync"
)

// Override is the optimistic position held between a successful start/stop
// request and the authoritative state catching up with it.
type Override int

const (
	// OverrideUnset defers entirely to authoritative state
	OverrideUnset Override = iota
	OverrideRecording
	OverrideStopped
)

// Tracker reconciles the locally assumed recording state with the state
// the platform reports. At most one override is held at a time, and it
// clears only once the authoritative state matches it. A failed request
// must not touch the tracker, so the display falls back to whatever the
// authoritative source already says.
type Tracker struct {
	mu       sync.Mutex
	override Override
	busy     bool
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// TryBegin marks a start/stop request in flight. It returns false when one
// is already pending, giving the at-most-one-in-flight guard.
func (t *Tracker) TryBegin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.busy {
		return false
	}
	t.busy = true
	return true
}

// End releases the in-flight guard.
func (t *Tracker) End() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.busy = false
}

// RequestSucceeded records the expected outcome of a successful start or
// stop response.
func (t *Tracker) RequestSucceeded(recording bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if recording {
		t.override = OverrideRecording
	} else {
		t.override = OverrideStopped
	}
}

// Observe feeds an authoritative state update into the tracker. The
// override clears once the authoritative state agrees with it.
func (t *Tracker) Observe(recording bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if (t.override == OverrideRecording && recording) ||
		(t.override == OverrideStopped && !recording) {
		t.override = OverrideUnset
	}
}

// Display returns the state to present: the override while one is held,
// otherwise the authoritative state.
func (t *Tracker) Display(authoritative bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.override {
	case OverrideRecording:
		return true
	case OverrideStopped:
		return false
	default:
		return authoritative
	}
}

// CurrentOverride exposes the held override, mainly for tests.
func (t *Tracker) CurrentOverride() Override {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.override
}
