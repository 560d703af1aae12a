package pipeline

import "fmt"

// StageError is a failure of one pipeline stage. The run stopped in State.
type StageError struct {
	State State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.State.stage(), e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
