package harness

import "github.com/roach88/vecsynth/internal/synth"

// Result contains the outcome of running one example.
type Result struct {
	// Example is the example name.
	Example string `json:"example"`

	// Pass indicates every expectation held.
	// True if Errors is empty.
	Pass bool `json:"pass"`

	// Synthesis is the raw search result.
	Synthesis *synth.Result `json:"-"`

	// Errors contains failed expectation messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing Result for the named example.
func NewResult(example string, run *synth.Result) *Result {
	return &Result{
		Example:   example,
		Pass:      true,
		Synthesis: run,
		Errors:    []string{},
	}
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// First returns the first accepted solution, or nil when there is none.
func (r *Result) First() *synth.Solution {
	if r.Synthesis == nil || len(r.Synthesis.Solutions) == 0 {
		return nil
	}
	return &r.Synthesis.Solutions[0]
}

// SQL returns the translated text of every solution in emission order.
func (r *Result) SQL() []string {
	if r.Synthesis == nil {
		return nil
	}
	out := make([]string, len(r.Synthesis.Solutions))
	for i, s := range r.Synthesis.Solutions {
		out[i] = s.SQL
	}
	return out
}
