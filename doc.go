// Package safefs provides a serialized file-access layer for Go: ordinary
// file primitives (read, write, append, copy, delete, stat, JSON
// round-trip, directory creation) wrapped so that at most one operation is
// in flight per filesystem path at a time within a single process.
//
// # Architecture
//
// Two components make up the package. [Registry] is the lock table: a
// process-wide map from canonical path to lock state, with a FIFO waiter
// queue per contended path. [FS] wraps each filesystem primitive so that
// it acquires the lock for its canonical target path, performs the call,
// and releases the lock on every exit path, translating failures into
// [OperationError] values tagged with the operation and path.
//
// Paths are canonicalized with [CanonicalPath] (absolute + cleaned), so
// "./a/../a/x" and "a/x" contend on the same lock.
//
// # Basic Usage
//
//	reg := safefs.NewRegistry()
//	fs, err := safefs.New(safefs.DefaultConfig(), reg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//
//	// Write a file
//	err = fs.WriteString(ctx, "hello.txt", "Hello, World!")
//
//	// Append to it
//	err = fs.AppendString(ctx, "hello.txt", " Goodbye!")
//
//	// Read it back
//	text, err := fs.ReadString(ctx, "hello.txt")
//
//	// JSON round-trip
//	err = fs.WriteJSON(ctx, "state.json", map[string]int{"n": 1})
//	var state map[string]int
//	err = fs.ReadJSON(ctx, "state.json", &state)
//
// # Locking Rules
//
// Operations on different canonical paths run fully concurrently.
// Operations on the same canonical path are serialized in acquisition
// order. Two-path operations (Copy, Move) take both locks in lexical
// order of the canonical paths, so concurrent Copy(a, b) and Copy(b, a)
// cannot deadlock. Two operations deliberately bypass the lock table:
// Exists (a non-exclusive probe) and EnsureDir (idempotent, safe to race).
//
// Releasing a lock that is not held is a no-op, not an error. There is no
// lease or timeout: a caller that acquires and never releases blocks that
// path until the process exits.
//
// # Errors
//
// Every failure is an *[OperationError] carrying the operation tag, the
// path(s), and the underlying cause. Inspect with [ErrOp], [HasOp], or
// errors.As; well-known conditions map onto sentinels such as
// [ErrNotExist] checked via [IsNotExist].
package safefs
