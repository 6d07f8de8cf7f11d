package gfx

import (
	"errors"
	"fmt"
)

var (
	ErrContextReady      = errors.New("gfx: context already initialized")
	ErrContextNotReady   = errors.New("gfx: context not ready")
	ErrUnknownObject     = errors.New("gfx: unknown object")
	ErrUnknownHandle     = errors.New("gfx: unknown handle")
	ErrStaleHandle       = errors.New("gfx: stale handle")
	ErrReleasedHandle    = errors.New("gfx: use of released handle")
	ErrWrongKind         = errors.New("gfx: handle of wrong kind")
	ErrEmptyGeometry     = errors.New("gfx: empty geometry")
	ErrTickInFlight      = errors.New("gfx: tick already in flight")
	ErrInvalidTransition = errors.New("gfx: invalid loop transition")
)

// ContextCreationError is returned by Context.Initialize when the surface
// cannot provide a 2.0-capable rendering context. Nothing can render after it.
type ContextCreationError struct {
	Reason string
	Err    error
}

func (e *ContextCreationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gfx: context creation failed: %s: %v", e.Reason, e.Err)
	}
	return "gfx: context creation failed: " + e.Reason
}

func (e *ContextCreationError) Unwrap() error { return e.Err }

// CompileError reports a shader stage that failed to compile.
type CompileError struct {
	Stage   ShaderStage
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("gfx: %s shader compile error: %s", e.Stage, e.Message)
}

// LinkError reports a program whose compiled stages failed to link.
type LinkError struct {
	Message string
}

func (e *LinkError) Error() string {
	return "gfx: program link error: " + e.Message
}

// AllocationError reports a buffer or texture the platform refused to
// allocate. Limit is zero when the refusal came from the device itself.
type AllocationError struct {
	Kind  Kind
	Size  int
	Limit int
	Err   error
}

func (e *AllocationError) Error() string {
	switch {
	case e.Limit > 0:
		return fmt.Sprintf("gfx: %s allocation of %d exceeds limit %d", e.Kind, e.Size, e.Limit)
	case e.Err != nil:
		return fmt.Sprintf("gfx: %s allocation of %d bytes failed: %v", e.Kind, e.Size, e.Err)
	default:
		return fmt.Sprintf("gfx: %s allocation of %d bytes failed", e.Kind, e.Size)
	}
}

func (e *AllocationError) Unwrap() error { return e.Err }
