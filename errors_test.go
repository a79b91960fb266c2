package safefs

import (
	"errors"
	"fmt"
	"testing"
)

func TestOperationErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *OperationError
		want string
	}{
		{
			name: "single path",
			err:  &OperationError{Op: OpRead, Path: "a.txt", Err: errors.New("boom")},
			want: "read a.txt: boom",
		},
		{
			name: "two paths",
			err:  &OperationError{Op: OpCopy, Path: "a.txt", Dst: "b.txt", Err: errors.New("boom")},
			want: "copy a.txt -> b.txt: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOperationErrorUnwrap(t *testing.T) {
	cause := errors.New("disk on fire")
	err := opError(OpWrite, "a.txt", "", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() cannot reach the wrapped cause")
	}
	var oe *OperationError
	if !errors.As(err, &oe) {
		t.Fatal("errors.As() cannot extract *OperationError")
	}
	if oe.Op != OpWrite {
		t.Errorf("Op = %q, want %q", oe.Op, OpWrite)
	}
}

func TestOpErrorDoesNotDoubleWrap(t *testing.T) {
	inner := opError(OpRead, "a.txt", "", errors.New("missing"))
	outer := opError(OpParse, "a.txt", "", inner)

	if outer != inner {
		t.Error("wrapping an OperationError must keep the inner tag")
	}
	if got := ErrOp(outer); got != OpRead {
		t.Errorf("ErrOp() = %q, want %q", got, OpRead)
	}
}

func TestErrOpAndHasOp(t *testing.T) {
	err := fmt.Errorf("context: %w", opError(OpDelete, "a.txt", "", errors.New("nope")))

	if got := ErrOp(err); got != OpDelete {
		t.Errorf("ErrOp() = %q, want %q through wrapping", got, OpDelete)
	}
	if !HasOp(err, OpDelete) {
		t.Error("HasOp(err, OpDelete) = false")
	}
	if HasOp(err, OpRead) {
		t.Error("HasOp(err, OpRead) = true")
	}
	if got := ErrOp(errors.New("plain")); got != "" {
		t.Errorf("ErrOp(plain error) = %q, want empty", got)
	}
}

func TestSentinelHelpers(t *testing.T) {
	err := opError(OpStat, "a.txt", "", fmt.Errorf("%w: stat failed", ErrNotExist))
	if !IsNotExist(err) {
		t.Error("IsNotExist() = false for wrapped ErrNotExist")
	}
	if IsNotExist(errors.New("other")) {
		t.Error("IsNotExist() = true for unrelated error")
	}

	large := opError(OpWrite, "a.txt", "", fmt.Errorf("%w: 11 > 10 bytes", ErrTooLarge))
	if !IsTooLarge(large) {
		t.Error("IsTooLarge() = false for wrapped ErrTooLarge")
	}
}
