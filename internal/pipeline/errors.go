package pipeline

import "fmt"

// ValidationError reports bad tuning parameters. It is returned before
// any process spawns, so a failed validation never leaves a partially
// started session behind.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// SpawnFailure reports a managed process that could not be launched,
// usually a missing binary. A spawn failure during start aborts the
// attempt and rolls back any sibling that already started.
type SpawnFailure struct {
	Role Role
	Err  error
}

func (e *SpawnFailure) Error() string {
	return fmt.Sprintf("%s failed to start: %v", e.Role, e.Err)
}

func (e *SpawnFailure) Unwrap() error { return e.Err }

// RuntimeProcessError reports an I/O or OS-level error on a process
// that launched successfully. It is a warning unless the receiver is
// the one affected.
type RuntimeProcessError struct {
	Role Role
	Err  error
}

func (e *RuntimeProcessError) Error() string {
	return fmt.Sprintf("%s runtime error: %v", e.Role, e.Err)
}

func (e *RuntimeProcessError) Unwrap() error { return e.Err }

// UnexpectedExit reports the receiver dying on its own while the
// session believed it was running. It triggers an automatic full stop.
type UnexpectedExit struct {
	Role Role
	Code int
}

func (e *UnexpectedExit) Error() string {
	return fmt.Sprintf("%s exited unexpectedly with code %d", e.Role, e.Code)
}
