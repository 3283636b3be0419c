package store

import (
	"errors"
	"fmt"
)

// ExecutionError reports that the store rejected or failed a query.
// The synthesizer treats it as a skip: the candidate is discarded and the
// search continues.
type ExecutionError struct {
	Query string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execute %q: %v", e.Query, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsExecutionError checks if an error is an ExecutionError.
func IsExecutionError(err error) bool {
	var target *ExecutionError
	return errors.As(err, &target)
}
