package safefs

import (
	"context"
	"path/filepath"
	"sync"
)

// CanonicalPath resolves path to the absolute, cleaned form used as the
// lock-table key. Two spellings of the same filesystem entry ("./a/../a/x"
// and "a/x") canonicalize to the same key. Symlinks are not resolved: the
// target may not exist yet, and filepath.EvalSymlinks fails on missing
// entries.
func CanonicalPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Clean(path)
}

// pathLock is one lock-table entry. held marks the current owner; waiters
// holds one channel per parked Acquire call, oldest first. An entry exists
// in the table exactly while held || len(waiters) > 0, so the table stays
// bounded by in-flight operations rather than by paths ever touched.
type pathLock struct {
	held    bool
	waiters []chan struct{}
}

// Registry serializes access per canonical path within a single process.
// It maintains an in-memory map of canonical path to lock state and hands
// a released lock to the oldest waiter, giving FIFO ordering for callers
// contending on the same path. Paths that canonicalize differently never
// contend.
//
// Construct one Registry per process and share it between every FS that
// must coordinate. The registry does no I/O and its operations cannot
// fail; the one operational hazard is a caller that acquires and never
// releases, which blocks that path until the process exits (there is no
// lease or timeout).
type Registry struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{locks: make(map[string]*pathLock)}
}

// Acquire takes the exclusive lock for path, blocking until it is free,
// and returns the canonical form that was locked. The check-and-insert is
// atomic under the registry mutex, so two concurrent callers can never
// both observe "free".
//
// Context support is an extension over the original blocking design: if
// ctx is done before the lock is granted, Acquire withdraws its waiter
// and returns ctx.Err(). A nil-deadline background context restores the
// original wait-forever behavior.
func (r *Registry) Acquire(ctx context.Context, path string) (string, error) {
	key := CanonicalPath(path)

	r.mu.Lock()
	pl, ok := r.locks[key]
	if !ok {
		r.locks[key] = &pathLock{held: true}
		r.mu.Unlock()
		return key, nil
	}

	// Park until the releaser hands the lock over.
	wait := make(chan struct{})
	pl.waiters = append(pl.waiters, wait)
	r.mu.Unlock()

	select {
	case <-wait:
		// Ownership was transferred inside Release; held is already true.
		return key, nil
	case <-ctx.Done():
		r.mu.Lock()
		if pl, ok := r.locks[key]; ok {
			for i, w := range pl.waiters {
				if w == wait {
					pl.waiters = append(pl.waiters[:i], pl.waiters[i+1:]...)
					break
				}
			}
			if !pl.held && len(pl.waiters) == 0 {
				delete(r.locks, key)
			}
		}
		r.mu.Unlock()
		// The handoff may have raced the cancellation; if it won, the
		// lock is ours and must be returned.
		select {
		case <-wait:
			r.Release(key)
		default:
		}
		return "", ctx.Err()
	}
}

// Release frees the lock for path. If callers are waiting, ownership is
// handed directly to the oldest one; otherwise the table entry is removed.
//
// Releasing a path that is not held is deliberately a no-op rather than an
// error. Call sites that derive paths (cleanup after operations that never
// locked) rely on this tolerance, at the cost of masking mismatched
// acquire/release pairs.
func (r *Registry) Release(path string) {
	key := CanonicalPath(path)

	r.mu.Lock()
	defer r.mu.Unlock()

	pl, ok := r.locks[key]
	if !ok {
		return
	}
	if len(pl.waiters) > 0 {
		next := pl.waiters[0]
		pl.waiters = pl.waiters[1:]
		pl.held = true
		close(next)
		return
	}
	delete(r.locks, key)
}

// TryAcquire takes the lock for path only if it is immediately free.
// Returns the canonical path and true on success.
func (r *Registry) TryAcquire(path string) (string, bool) {
	key := CanonicalPath(path)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.locks[key]; ok {
		return key, false
	}
	r.locks[key] = &pathLock{held: true}
	return key, true
}

// Held reports whether the canonical form of path is currently locked.
func (r *Registry) Held(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	pl, ok := r.locks[CanonicalPath(path)]
	return ok && pl.held
}

// Len returns the number of live lock-table entries (holders plus paths
// with parked waiters). Diagnostic; the value is stale the moment it is
// returned.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.locks)
}
