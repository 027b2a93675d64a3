package executor

import "fmt"

// PanicError is a panic recovered from a plugin while running a case.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.Value, e.Stack)
}

// JoinError reports a failure of the terminal join case. It does not
// change the case counts of a run.
type JoinError struct {
	Err error
}

func (e *JoinError) Error() string { return fmt.Sprintf("joining results: %v", e.Err) }

func (e *JoinError) Unwrap() error { return e.Err }
