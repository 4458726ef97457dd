package spine

import (
	"errors"
	"fmt"
	"syscall"
)

// Error represents a structured Nexus Spine error with context and errno
// mapping, mirroring the C-ABI's distinguished integer codes.
type Error struct {
	Op         string   // operation that failed (e.g. "ALLOCATE", "WRITE_BUFFER")
	AgentID    int32    // agent index, -1 if not applicable
	BufferKind int32    // buffer kind index, -1 if not applicable
	Code       ErrCode  // high-level error category
	Errno      syscall.Errno // kernel errno, 0 if not applicable
	Msg        string
	Inner      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.AgentID >= 0 {
		parts = append(parts, fmt.Sprintf("agent=%d", e.AgentID))
	}
	if e.BufferKind >= 0 {
		parts = append(parts, fmt.Sprintf("kind=%d", e.BufferKind))
	}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", e.Errno))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("spine: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("spine: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error { return e.Inner }

// Is provides errors.Is support, comparing by error category.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// ErrCode represents high-level error categories.
type ErrCode string

const (
	ErrCodeAllocationFailed  ErrCode = "shared region allocation failed"
	ErrCodeInvalidHandle     ErrCode = "invalid or uninitialized region handle"
	ErrCodeBoundsViolation   ErrCode = "agent or buffer-kind index out of bounds"
	ErrCodeRingFull          ErrCode = "interrupt ring full"
	ErrCodeRingEmpty         ErrCode = "interrupt ring empty"
	ErrCodePermissionDenied  ErrCode = "permission denied"
	ErrCodeInsufficientMemory ErrCode = "insufficient memory"
	ErrCodeIOError           ErrCode = "I/O error"
)

// ABI integer codes returned across the agent-client boundary.
const (
	ABIOk                = 0
	ABIInvalidHandle     = -1
	ABIBoundsViolation   = -2
	ABIRingFull          = -3
)

// NewError creates a new structured error.
func NewError(op string, code ErrCode, msg string) *Error {
	return &Error{Op: op, AgentID: -1, BufferKind: -1, Code: code, Msg: msg}
}

// NewErrorWithErrno creates a new structured error carrying a syscall errno.
func NewErrorWithErrno(op string, code ErrCode, errno syscall.Errno) *Error {
	return &Error{Op: op, AgentID: -1, BufferKind: -1, Code: code, Errno: errno, Msg: errno.Error()}
}

// NewBoundsError creates a bounds-violation error naming the offending
// agent index and/or buffer kind.
func NewBoundsError(op string, agentID, bufferKind int32) *Error {
	return &Error{Op: op, AgentID: agentID, BufferKind: bufferKind, Code: ErrCodeBoundsViolation, Msg: string(ErrCodeBoundsViolation)}
}

// WrapError wraps an existing error with spine context.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if se, ok := inner.(*Error); ok {
		return &Error{Op: op, AgentID: se.AgentID, BufferKind: se.BufferKind, Code: se.Code, Errno: se.Errno, Msg: se.Msg, Inner: se.Inner}
	}

	code := ErrCodeIOError
	if errno, ok := inner.(syscall.Errno); ok {
		code = mapErrnoToCode(errno)
		return &Error{Op: op, AgentID: -1, BufferKind: -1, Code: code, Errno: errno, Msg: errno.Error(), Inner: inner}
	}
	return &Error{Op: op, AgentID: -1, BufferKind: -1, Code: code, Msg: inner.Error(), Inner: inner}
}

func mapErrnoToCode(errno syscall.Errno) ErrCode {
	switch errno {
	case syscall.EPERM, syscall.EACCES:
		return ErrCodePermissionDenied
	case syscall.ENOMEM, syscall.ENOSPC:
		return ErrCodeInsufficientMemory
	case syscall.EINVAL, syscall.E2BIG:
		return ErrCodeInvalidHandle
	default:
		return ErrCodeIOError
	}
}

// IsCode checks if an error matches a specific error code.
func IsCode(err error, code ErrCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
