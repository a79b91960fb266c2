package safefs

import (
	"sync"
	"sync/atomic"
)

// ChangeToken represents a single-use change notification token.
// Consumers either poll HasChanged or register a callback; once a token
// has fired it stays fired, and a fresh token must be obtained to keep
// watching.
type ChangeToken interface {
	// HasChanged returns true once a change has occurred.
	HasChanged() bool

	// RegisterChangeCallback registers a callback invoked when the change
	// occurs. Returns a function to unregister the callback. Callbacks
	// registered after the token has fired are invoked immediately.
	RegisterChangeCallback(callback func()) (unregister func())
}

// CallbackChangeToken is the ChangeToken produced by Watch. Signal marks
// it fired and invokes every registered callback exactly once.
type CallbackChangeToken struct {
	mu        sync.Mutex
	changed   atomic.Bool
	callbacks []func()
}

// NewCallbackChangeToken creates an unfired token.
func NewCallbackChangeToken() *CallbackChangeToken {
	return &CallbackChangeToken{}
}

func (t *CallbackChangeToken) HasChanged() bool {
	return t.changed.Load()
}

func (t *CallbackChangeToken) RegisterChangeCallback(callback func()) (unregister func()) {
	if t.changed.Load() {
		callback()
		return func() {}
	}

	t.mu.Lock()
	t.callbacks = append(t.callbacks, callback)
	index := len(t.callbacks) - 1
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if index < len(t.callbacks) {
			// Nil out instead of removing to keep indices stable.
			t.callbacks[index] = nil
		}
	}
}

// Signal marks the token as changed and invokes all callbacks.
// Subsequent calls are no-ops.
func (t *CallbackChangeToken) Signal() {
	if t.changed.Swap(true) {
		return
	}

	t.mu.Lock()
	callbacks := make([]func(), len(t.callbacks))
	copy(callbacks, t.callbacks)
	t.mu.Unlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb()
		}
	}
}

// NeverChangeToken is a ChangeToken that never fires. Useful for static
// content.
type NeverChangeToken struct{}

func (NeverChangeToken) HasChanged() bool { return false }

func (NeverChangeToken) RegisterChangeCallback(func()) func() { return func() {} }
