package synth

import "time"

// Budget exhaustion reasons.
const (
	ReasonMaxCandidates = "max_candidates"
	ReasonTimeout       = "timeout"
)

// Budget bounds one search by candidate count and wall-clock time.
//
// The enumeration grows at least combinatorially with depth, so the depth
// bound alone is a blunt instrument. A Budget lets callers stop a search
// early and keep whatever solutions it found so far.
//
// A zero limit disables that dimension. A Budget is owned by one search
// and is not safe for concurrent use.
type Budget struct {
	maxCandidates int
	timeout       time.Duration
	now           func() time.Time
	start         time.Time
	used          int
}

// NewBudget starts a budget. now supplies wall-clock time; nil means
// time.Now.
func NewBudget(maxCandidates int, timeout time.Duration, now func() time.Time) *Budget {
	if now == nil {
		now = time.Now
	}
	return &Budget{
		maxCandidates: maxCandidates,
		timeout:       timeout,
		now:           now,
		start:         now(),
	}
}

// Check reserves one candidate evaluation.
//
// Returns BudgetExceededError (and reserves nothing) if the candidate
// limit is reached or the timeout has elapsed. Call it before evaluating
// each candidate.
func (b *Budget) Check() error {
	if err := b.Expired(); err != nil {
		return err
	}
	b.used++
	return nil
}

// Expired reports the same conditions as Check without reserving a
// candidate. Call it before starting work that evaluates nothing, such as
// enumerating the next depth.
func (b *Budget) Expired() error {
	if b.maxCandidates > 0 && b.used >= b.maxCandidates {
		return &BudgetExceededError{
			Reason:     ReasonMaxCandidates,
			Candidates: b.used,
			Limit:      b.maxCandidates,
			Elapsed:    b.Elapsed(),
		}
	}
	if b.timeout > 0 {
		if elapsed := b.Elapsed(); elapsed >= b.timeout {
			return &BudgetExceededError{
				Reason:     ReasonTimeout,
				Candidates: b.used,
				Elapsed:    elapsed,
			}
		}
	}
	return nil
}

// Used returns the number of candidates reserved so far.
func (b *Budget) Used() int {
	return b.used
}

// Elapsed returns the wall-clock time since the budget started.
func (b *Budget) Elapsed() time.Duration {
	return b.now().Sub(b.start)
}
