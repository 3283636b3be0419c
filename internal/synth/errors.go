package synth

import (
	"errors"
	"fmt"
	"time"
)

// InvalidArgumentError reports malformed call-site input.
//
// It is returned before any search begins; a search that starts never
// fails with it.
type InvalidArgumentError struct {
	// Field names the offending argument or option.
	Field string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Field, e.Message)
}

// IsInvalidArgument returns true if the error is an InvalidArgumentError.
// Uses errors.As to handle wrapped errors.
func IsInvalidArgument(err error) bool {
	var ia *InvalidArgumentError
	return errors.As(err, &ia)
}

func invalidArgument(field, format string, args ...any) *InvalidArgumentError {
	return &InvalidArgumentError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// BudgetExceededError is returned by Budget.Check once the candidate or
// wall-clock budget is spent.
//
// The Synthesizer does not surface it to callers: the search stops,
// returns what it found, and sets Result.Exhausted.
type BudgetExceededError struct {
	Reason     string        // "max_candidates" or "timeout"
	Candidates int           // Candidates evaluated before the budget ran out
	Limit      int           // Candidate limit (0 when Reason is "timeout")
	Elapsed    time.Duration // Wall-clock time since the budget started
}

// Error implements the error interface.
func (e *BudgetExceededError) Error() string {
	if e.Reason == ReasonTimeout {
		return fmt.Sprintf("search timed out after %s (%d candidates evaluated)", e.Elapsed, e.Candidates)
	}
	return fmt.Sprintf("search exceeded candidate budget: %d candidates >= %d limit", e.Candidates, e.Limit)
}

// IsBudgetExceeded returns true if the error is a BudgetExceededError.
// Uses errors.As to handle wrapped errors.
func IsBudgetExceeded(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}
