package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/vecsynth/internal/example"
	"github.com/roach88/vecsynth/internal/synth"
)

// Assertion types, used to categorize AssertionError.
const (
	AssertDepth      = "depth"
	AssertFirst      = "first"
	AssertContains   = "contains"
	AssertNoSolution = "no_solution"
)

// AssertionError is returned when an expectation fails.
type AssertionError struct {
	Type     string // assertion type for categorization
	Expected string // human-readable expected outcome
	Actual   string // human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// checkExpectations evaluates every set field of exp against run.
// A nil exp asserts nothing.
func checkExpectations(exp *example.Expectation, run *synth.Result) []error {
	if exp == nil {
		return nil
	}

	var errs []error
	if exp.NoSolution {
		if err := assertNoSolution(run); err != nil {
			errs = append(errs, err)
		}
		return errs
	}

	if len(run.Solutions) == 0 && (exp.Depth > 0 || exp.First != "" || len(exp.Contains) > 0) {
		return []error{&AssertionError{
			Type:     AssertFirst,
			Expected: "at least one solution",
			Actual:   describeEmpty(run),
		}}
	}

	if exp.Depth > 0 {
		if got := run.Solutions[0].Depth; got != exp.Depth {
			errs = append(errs, &AssertionError{
				Type:     AssertDepth,
				Expected: fmt.Sprintf("solutions at depth %d", exp.Depth),
				Actual:   fmt.Sprintf("solutions at depth %d", got),
			})
		}
	}

	if exp.First != "" {
		if got := run.Solutions[0].SQL; got != exp.First {
			errs = append(errs, &AssertionError{
				Type:     AssertFirst,
				Expected: exp.First,
				Actual:   got,
			})
		}
	}

	sqls := make([]string, len(run.Solutions))
	for i, s := range run.Solutions {
		sqls[i] = s.SQL
	}
	for _, want := range exp.Contains {
		if !slices.Contains(sqls, want) {
			errs = append(errs, &AssertionError{
				Type:     AssertContains,
				Expected: want,
				Actual:   fmt.Sprintf("not among %d solutions", len(sqls)),
			})
		}
	}
	return errs
}

// assertNoSolution passes only for a search that ran to completion without
// accepting anything. An exhausted budget proves nothing.
func assertNoSolution(run *synth.Result) error {
	if len(run.Solutions) > 0 {
		return &AssertionError{
			Type:     AssertNoSolution,
			Expected: "no solution",
			Actual:   fmt.Sprintf("%d solutions, first: %s", len(run.Solutions), run.Solutions[0].SQL),
		}
	}
	if run.Exhausted {
		return &AssertionError{
			Type:     AssertNoSolution,
			Expected: "search to complete without a solution",
			Actual:   describeEmpty(run),
		}
	}
	return nil
}

func describeEmpty(run *synth.Result) string {
	if run.Exhausted {
		return fmt.Sprintf("budget exhausted after %d candidates", run.Candidates)
	}
	return fmt.Sprintf("no solution in %d candidates up to depth %d", run.Candidates, run.Depth)
}
