package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/vecsynth/internal/example"
	"github.com/roach88/vecsynth/internal/ir"
)

// Report is the deterministic summary of one run that golden files store.
type Report struct {
	Example    string
	RunID      string
	Pass       bool
	Depth      int
	Candidates int
	Skipped    int
	Exhausted  bool
	Errors     []string
	First      *ReportSolution
}

// ReportSolution identifies the first accepted candidate.
type ReportSolution struct {
	ID        string
	Query     string
	SQL       string
	Depth     int
	Candidate int
}

// NewReport summarizes a Result.
func NewReport(r *Result) *Report {
	rep := &Report{
		Example: r.Example,
		Pass:    r.Pass,
		Errors:  r.Errors,
	}
	if run := r.Synthesis; run != nil {
		rep.RunID = run.RunID
		rep.Depth = run.Depth
		rep.Candidates = run.Candidates
		rep.Skipped = run.Skipped
		rep.Exhausted = run.Exhausted
	}
	if first := r.First(); first != nil {
		rep.First = &ReportSolution{
			ID:        first.ID,
			Query:     first.Query.String(),
			SQL:       first.SQL,
			Depth:     first.Depth,
			Candidate: first.Candidate,
		}
	}
	return rep
}

// toCanonicalMap converts a Report to a map[string]any for canonical JSON
// serialization, since ir.MarshalCanonical only handles IR types and
// primitives.
func (rep *Report) toCanonicalMap() map[string]any {
	errs := make([]any, len(rep.Errors))
	for i, e := range rep.Errors {
		errs[i] = e
	}

	m := map[string]any{
		"example":    rep.Example,
		"run_id":     rep.RunID,
		"pass":       rep.Pass,
		"depth":      rep.Depth,
		"candidates": rep.Candidates,
		"skipped":    rep.Skipped,
		"exhausted":  rep.Exhausted,
		"errors":     errs,
	}
	if rep.First != nil {
		m["first"] = map[string]any{
			"id":        rep.First.ID,
			"query":     rep.First.Query,
			"sql":       rep.First.SQL,
			"depth":     rep.First.Depth,
			"candidate": rep.First.Candidate,
		}
	}
	return m
}

// MarshalCanonical renders the report as canonical JSON.
func (rep *Report) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(rep.toCanonicalMap())
}

// RunWithGolden runs an example and compares its report against
// testdata/golden/{ex.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, ex *example.Example) error {
	t.Helper()

	result, err := Run(context.Background(), ex)
	if err != nil {
		return err
	}
	return AssertGolden(t, ex.Name, result)
}

// AssertGolden compares an existing result's report against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := NewReport(result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
