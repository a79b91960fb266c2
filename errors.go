package safefs

import (
	"errors"
	"fmt"
)

// Op identifies the wrapped filesystem operation that produced an error.
type Op string

const (
	OpRead      Op = "read"
	OpWrite     Op = "write"
	OpAppend    Op = "append"
	OpParse     Op = "parse"
	OpSerialize Op = "serialize"
	OpStat      Op = "stat"
	OpCopy      Op = "copy"
	OpMove      Op = "move"
	OpDelete    Op = "delete"
	OpDir       Op = "mkdir"
	OpChecksum  Op = "checksum"
	OpWatch     Op = "watch"
)

// Common filesystem errors
var (
	ErrNotExist     = errors.New("file does not exist")
	ErrIsDir        = errors.New("is a directory")
	ErrNotDir       = errors.New("not a directory")
	ErrNotSupported = errors.New("operation not supported")
	ErrTooLarge     = errors.New("payload exceeds max file size")
)

// OperationError records a failed operation together with the path(s) it
// targeted and the underlying cause. Two-path operations (copy, move) set
// Dst; all others leave it empty.
type OperationError struct {
	Op   Op
	Path string
	Dst  string
	Err  error
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e.Dst != "" {
		return fmt.Sprintf("%s %s -> %s: %v", e.Op, e.Path, e.Dst, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	return e.Err
}

// opError wraps err unless it already is an *OperationError, so that
// composed operations (read+parse, rename falling back to copy+delete)
// keep the tag of the step that actually failed.
func opError(op Op, path, dst string, err error) error {
	var oe *OperationError
	if errors.As(err, &oe) {
		return err
	}
	return &OperationError{Op: op, Path: path, Dst: dst, Err: err}
}

// ErrOp extracts the operation tag from err, or "" if err does not wrap
// an *OperationError.
func ErrOp(err error) Op {
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe.Op
	}
	return ""
}

// HasOp reports whether err wraps an *OperationError with the given tag.
func HasOp(err error, op Op) bool {
	return ErrOp(err) == op
}

// IsNotExist reports whether an error indicates that a file or directory
// does not exist
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// IsTooLarge reports whether an error indicates that a payload was
// rejected by the configured size limit
func IsTooLarge(err error) bool {
	return errors.Is(err, ErrTooLarge)
}
