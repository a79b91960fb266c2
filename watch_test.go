package safefs

import (
	"context"
	"testing"
	"time"
)

func waitChanged(t *testing.T, token ChangeToken, timeout time.Duration) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if token.HasChanged() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return token.HasChanged()
}

func TestWatchFiresOnWrite(t *testing.T) {
	fs := newTestFS(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token, err := fs.Watch(ctx, "*.json")
	if err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	if token.HasChanged() {
		t.Fatal("token fired before any change")
	}

	if err := fs.WriteString(ctx, "state.json", "{}"); err != nil {
		t.Fatalf("WriteString() error: %v", err)
	}
	if !waitChanged(t, token, 3*time.Second) {
		t.Fatal("token never fired after matching write")
	}
}

func TestWatchIgnoresNonMatching(t *testing.T) {
	fs := newTestFS(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token, err := fs.Watch(ctx, "*.json")
	if err != nil {
		t.Fatalf("Watch() error: %v", err)
	}

	if err := fs.WriteString(ctx, "notes.txt", "plain"); err != nil {
		t.Fatalf("WriteString() error: %v", err)
	}
	if waitChanged(t, token, 300*time.Millisecond) {
		t.Fatal("token fired on a non-matching write")
	}
}

func TestWatchInvalidPattern(t *testing.T) {
	fs := newTestFS(t)
	ctx := context.Background()

	_, err := fs.Watch(ctx, "[unclosed")
	if err == nil {
		t.Fatal("Watch() accepted an invalid glob")
	}
	if !HasOp(err, OpWatch) {
		t.Errorf("error op = %q, want %q", ErrOp(err), OpWatch)
	}
}

func TestCallbackChangeToken(t *testing.T) {
	token := NewCallbackChangeToken()

	fired := make(chan struct{}, 2)
	unregister := token.RegisterChangeCallback(func() { fired <- struct{}{} })
	defer unregister()

	token.Signal()
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("callback not invoked on Signal")
	}

	// Single-use: a second Signal must not re-invoke callbacks.
	token.Signal()
	select {
	case <-fired:
		t.Fatal("callback invoked twice")
	case <-time.After(50 * time.Millisecond):
	}

	// Late registration on a fired token runs immediately.
	late := make(chan struct{}, 1)
	token.RegisterChangeCallback(func() { late <- struct{}{} })
	select {
	case <-late:
	case <-time.After(time.Second):
		t.Fatal("late callback not invoked on fired token")
	}
}

func TestCallbackChangeTokenUnregister(t *testing.T) {
	token := NewCallbackChangeToken()

	called := false
	unregister := token.RegisterChangeCallback(func() { called = true })
	unregister()

	token.Signal()
	if called {
		t.Error("unregistered callback was invoked")
	}
}

func TestNeverChangeToken(t *testing.T) {
	token := NeverChangeToken{}
	if token.HasChanged() {
		t.Error("NeverChangeToken reported a change")
	}
	token.RegisterChangeCallback(func() {
		t.Error("NeverChangeToken invoked a callback")
	})()
}
