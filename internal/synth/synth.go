package synth

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/vecsynth/internal/ir"
	"github.com/roach88/vecsynth/internal/queryast"
	"github.com/roach88/vecsynth/internal/querysql"
)

// Translator renders a candidate as query text.
// Implemented by *querysql.Translator.
type Translator interface {
	Translate(q queryast.Query) (string, error)
}

// Executor runs query text against a store already holding the example
// input tables. Implemented by *store.Store.
type Executor interface {
	Execute(ctx context.Context, query string) (*ir.Table, error)
}

// Oracle judges whether an executed result matches the target table.
// Implemented by oracle.Oracle.
type Oracle interface {
	Equivalent(a, b *ir.Table) bool
}

// DefaultMaxDepth bounds the search when no MaxDepth is configured.
// The enumeration grows at least combinatorially with depth, so a hard
// bound is mandatory.
const DefaultMaxDepth = 5

// Options configures a search.
type Options struct {
	// MaxDepth is the deepest level searched. Must be >= 1.
	MaxDepth int

	// Limits is the Limit literal set. nil means DefaultLimits.
	Limits []int

	// MaxCandidates stops the search after this many evaluated
	// candidates. 0 means unlimited.
	MaxCandidates int

	// Timeout stops the search after this much wall-clock time.
	// 0 means none.
	Timeout time.Duration

	// Cumulative and DistanceSortKeys are passed to the Enumerator.
	Cumulative       bool
	DistanceSortKeys bool
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		MaxDepth:         DefaultMaxDepth,
		Limits:           DefaultLimits,
		DistanceSortKeys: true,
	}
}

// Validate checks option ranges.
// Returns InvalidArgumentError naming the first bad field.
func (o Options) Validate() error {
	if o.MaxDepth < 1 {
		return invalidArgument("max_depth", "must be >= 1, got %d", o.MaxDepth)
	}
	for _, k := range o.Limits {
		if k < 0 {
			return invalidArgument("limits", "negative limit %d", k)
		}
	}
	if o.MaxCandidates < 0 {
		return invalidArgument("max_candidates", "must be >= 0, got %d", o.MaxCandidates)
	}
	if o.Timeout < 0 {
		return invalidArgument("timeout", "must be >= 0, got %s", o.Timeout)
	}
	return nil
}

func (o Options) enumeratorOptions() EnumeratorOptions {
	return EnumeratorOptions{
		Limits:           o.Limits,
		Cumulative:       o.Cumulative,
		DistanceSortKeys: o.DistanceSortKeys,
	}
}

// Solution is one accepted candidate.
type Solution struct {
	// ID is the content-addressed ID of the translated text.
	ID string

	// Query is the full candidate, a Project over the enumerated body.
	Query queryast.Query

	// SQL is the translated text that produced the matching result.
	SQL string

	// Depth is the enumeration depth the body was found at.
	Depth int

	// Candidate is the 1-based evaluation order of this candidate.
	Candidate int
}

// Result describes one completed search.
type Result struct {
	RunID     string
	Solutions []Solution

	// TargetDigest is ir.TableDigest of the target table.
	TargetDigest string

	// Candidates counts evaluated candidates; Skipped counts those whose
	// translation or execution failed.
	Candidates int
	Skipped    int

	// Depth is the deepest level searched.
	Depth int

	// Exhausted is set when the budget stopped the search early.
	Exhausted bool

	Elapsed time.Duration
}

// Queries returns the accepted candidates in emission order.
func (r *Result) Queries() []queryast.Query {
	out := make([]queryast.Query, len(r.Solutions))
	for i, s := range r.Solutions {
		out[i] = s.Query
	}
	return out
}

// Synthesizer runs the iterative-deepening search.
//
// A Synthesizer holds no per-call state: every Run builds its own
// Enumerator and Budget, so nothing persists between calls.
type Synthesizer struct {
	translator Translator
	executor   Executor
	oracle     Oracle
	opts       Options
	logger     *slog.Logger
	runIDs     RunIDGenerator
	now        func() time.Time
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithOptions sets the search options. Default: DefaultOptions().
func WithOptions(opts Options) Option {
	return func(s *Synthesizer) {
		s.opts = opts
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) {
		s.logger = logger
	}
}

// WithRunIDGenerator sets the run ID source. Default: UUIDv7Generator.
func WithRunIDGenerator(gen RunIDGenerator) Option {
	return func(s *Synthesizer) {
		s.runIDs = gen
	}
}

// WithClock sets the wall-clock source used by the timeout budget.
// Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) {
		s.now = now
	}
}

// New creates a Synthesizer over the given collaborators.
func New(translator Translator, executor Executor, oracle Oracle, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		translator: translator,
		executor:   executor,
		oracle:     oracle,
		opts:       DefaultOptions(),
		logger:     slog.Default(),
		runIDs:     UUIDv7Generator{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize returns every candidate accepted at the shallowest depth
// that produced one, in enumeration order.
//
// An unattainable target yields an empty slice and a nil error. See Run
// for the error contract.
func (s *Synthesizer) Synthesize(ctx context.Context, inputs []*ir.Table, target *ir.Table, queryVectors []ir.Vector) ([]queryast.Query, error) {
	res, err := s.Run(ctx, inputs, target, queryVectors)
	if err != nil {
		return nil, err
	}
	return res.Queries(), nil
}

// Run searches depth 1..MaxDepth and returns the solutions together with
// search statistics.
//
// For each depth, every Query body is wrapped as a projection of all
// primary-table columns, translated, executed, and compared with target.
// Translation and execution failures skip the candidate. The search stops
// after the first depth that accepted a candidate.
//
// Errors:
//   - InvalidArgumentError for empty inputs, a nil table, a target that
//     cannot be digested, or bad options, before any search begins
//   - ctx.Err() if the context is cancelled mid-search
//
// The budget is consulted before each candidate and before each depth is
// enumerated. An exhausted budget is not an error: Result.Exhausted is set
// and the solutions found so far are returned.
func (s *Synthesizer) Run(ctx context.Context, inputs []*ir.Table, target *ir.Table, queryVectors []ir.Vector) (*Result, error) {
	if err := s.validate(inputs, target); err != nil {
		return nil, err
	}

	digest, err := ir.TableDigest(target)
	if err != nil {
		return nil, invalidArgument("target", "%v", err)
	}

	primary := inputs[0]
	enum, err := NewEnumerator(primary, queryVectors, s.opts.enumeratorOptions())
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: s.runIDs.Generate(), TargetDigest: digest}
	log := s.logger.With("run_id", res.RunID)
	budget := NewBudget(s.opts.MaxCandidates, s.opts.Timeout, s.now)
	columns := primary.ColumnNames()

	log.Info("synthesis starting",
		"primary", primary.Name(),
		"target", digest,
		"inputs", len(inputs),
		"query_vectors", len(queryVectors),
		"leaves", enum.Leaves().Len(),
		"max_depth", s.opts.MaxDepth)

	for depth := 1; depth <= s.opts.MaxDepth; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := budget.Expired(); err != nil {
			return s.exhausted(log, res, budget, depth, err), nil
		}

		bodies, err := enum.Enumerate(CapQuery, depth)
		if err != nil {
			return nil, err
		}
		res.Depth = depth
		log.Info("searching depth", "depth", depth, "candidates", len(bodies))

		for _, body := range bodies {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := budget.Check(); err != nil {
				return s.exhausted(log, res, budget, depth, err), nil
			}

			candidate := &queryast.Project{
				Source: body.(queryast.Query),
				Items:  queryast.Columns(columns...),
			}
			text, ok := s.evaluate(ctx, log, candidate, target)
			switch {
			case text == "":
				res.Skipped++
			case ok:
				sol := s.solution(candidate, text, depth, budget.Used())
				log.Info("solution accepted", "depth", depth, "candidate", sol.Candidate, "sql", sol.SQL)
				res.Solutions = append(res.Solutions, sol)
			}
		}

		if len(res.Solutions) > 0 {
			break
		}
	}

	return s.finish(log, res, budget), nil
}

// exhausted stops the search at depth because the budget ran out.
func (s *Synthesizer) exhausted(log *slog.Logger, res *Result, budget *Budget, depth int, err error) *Result {
	log.Warn("search budget exhausted", "depth", depth, "error", err)
	res.Exhausted = true
	return s.finish(log, res, budget)
}

// evaluate translates, executes, and checks one candidate. It returns the
// translated text ("" when the candidate was skipped) and whether the
// result matched.
func (s *Synthesizer) evaluate(ctx context.Context, log *slog.Logger, candidate queryast.Query, target *ir.Table) (string, bool) {
	text, err := s.translator.Translate(candidate)
	if err != nil {
		log.Debug("candidate skipped: translation failed", "candidate", candidate.String(), "error", err)
		return "", false
	}

	result, err := s.executor.Execute(ctx, text)
	if err != nil {
		log.Debug("candidate skipped: execution failed", "sql", text, "error", err)
		return "", false
	}

	if !s.oracle.Equivalent(result, target) {
		log.Debug("candidate rejected", "sql", text, "rows", result.RowCount())
		return text, false
	}
	return text, true
}

func (s *Synthesizer) solution(candidate queryast.Query, text string, depth, seq int) Solution {
	dialect := ""
	if d, ok := s.translator.(interface{ Dialect() querysql.Dialect }); ok {
		dialect = string(d.Dialect())
	}
	return Solution{
		ID:        ir.MustQueryID(dialect, text),
		Query:     candidate,
		SQL:       text,
		Depth:     depth,
		Candidate: seq,
	}
}

func (s *Synthesizer) finish(log *slog.Logger, res *Result, budget *Budget) *Result {
	res.Candidates = budget.Used()
	res.Elapsed = budget.Elapsed()
	log.Info("synthesis finished",
		"solutions", len(res.Solutions),
		"candidates", res.Candidates,
		"skipped", res.Skipped,
		"depth", res.Depth,
		"exhausted", res.Exhausted)
	return res
}

func (s *Synthesizer) validate(inputs []*ir.Table, target *ir.Table) error {
	if len(inputs) == 0 {
		return invalidArgument("inputs", "at least one input table is required")
	}
	for i, t := range inputs {
		if t == nil {
			return invalidArgument("inputs", "input table %d is nil", i)
		}
	}
	if target == nil {
		return invalidArgument("target", "target table is nil")
	}
	return s.opts.Validate()
}
