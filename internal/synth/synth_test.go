package synth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vecsynth/internal/ir"
	"github.com/roach88/vecsynth/internal/oracle"
	"github.com/roach88/vecsynth/internal/queryast"
	"github.com/roach88/vecsynth/internal/querysql"
	"github.com/roach88/vecsynth/internal/store"
	"github.com/roach88/vecsynth/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newItemsSynthesizer loads the items table into an in-memory SQLite store.
func newItemsSynthesizer(t *testing.T, opts Options, extra ...Option) *Synthesizer {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Load(context.Background(), itemsTable()))

	all := append([]Option{
		WithOptions(opts),
		WithLogger(discardLogger()),
		WithRunIDGenerator(testutil.NewFixedRunIDGenerator("run-1")),
	}, extra...)
	return New(querysql.NewTranslator(querysql.SQLite), s, oracle.Oracle{}, all...)
}

// nearestTarget is the single item closest to the query vector.
func nearestTarget() *ir.Table {
	return ir.MustNewTable("target",
		[]ir.Column{
			{Name: "id", Type: ir.TypeInteger},
			{Name: "name", Type: ir.TypeText},
			{Name: "embedding", Type: ir.TypeVector},
		},
		[]ir.Row{{ir.Int(1), ir.Text("blue-sofa"), vec(0.1, 0.2, 0.9)}})
}

func TestSynthesize_EndToEnd(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDepth = 2
	syn := newItemsSynthesizer(t, opts)

	res, err := syn.Run(context.Background(), []*ir.Table{itemsTable()}, nearestTarget(), []ir.Vector{queryVector()})
	require.NoError(t, err)

	require.NotEmpty(t, res.Solutions)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, 2, res.Depth, "no depth-1 candidate returns a single row")
	assert.False(t, res.Exhausted)
	assert.Equal(t, 30+210, res.Candidates)

	first := res.Solutions[0]
	assert.Equal(t, "SELECT id, name, embedding FROM items ORDER BY id ASC LIMIT 1", first.SQL)
	assert.Equal(t, 2, first.Depth)
	assert.Equal(t, 31, first.Candidate)
	assert.Equal(t, ir.MustQueryID("sqlite", first.SQL), first.ID)

	var sqls []string
	for _, sol := range res.Solutions {
		sqls = append(sqls, sol.SQL)
		_, ok := sol.Query.(*queryast.Project)
		assert.True(t, ok, "every solution is a full projection")
	}
	assert.Contains(t, sqls,
		"SELECT id, name, embedding FROM items ORDER BY vec_l2(embedding, '[0.1,0.2,0.9]') ASC LIMIT 1",
		"nearest-neighbour by L2 distance must be among the solutions")
}

func TestSynthesize_ReturnsQueries(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDepth = 2
	syn := newItemsSynthesizer(t, opts)

	queries, err := syn.Synthesize(context.Background(), []*ir.Table{itemsTable()}, nearestTarget(), []ir.Vector{queryVector()})
	require.NoError(t, err)
	require.NotEmpty(t, queries)
	assert.Equal(t, "Project(Limit(OrderBy(items, [id ASC]), 1), [id, name, embedding])", queries[0].String())
}

func TestSynthesize_Deterministic(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDepth = 2

	run := func() []string {
		syn := newItemsSynthesizer(t, opts)
		res, err := syn.Run(context.Background(), []*ir.Table{itemsTable()}, nearestTarget(), []ir.Vector{queryVector()})
		require.NoError(t, err)
		var out []string
		for _, sol := range res.Solutions {
			out = append(out, sol.SQL)
		}
		return out
	}

	assert.Equal(t, run(), run())
}

func TestSynthesize_WholeTableAtDepthOne(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDepth = 2
	syn := newItemsSynthesizer(t, opts)

	target := ir.MustNewTable("target", itemsTable().Columns(), itemsTable().Rows())
	res, err := syn.Run(context.Background(), []*ir.Table{itemsTable()}, target, []ir.Vector{queryVector()})
	require.NoError(t, err)

	// Every depth-1 OrderBy returns all rows; row order is ignored.
	assert.Equal(t, 1, res.Depth)
	assert.Len(t, res.Solutions, 30)
}

func TestSynthesize_Unattainable(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDepth = 3
	syn := newItemsSynthesizer(t, opts)

	target := ir.MustNewTable("target",
		[]ir.Column{
			{Name: "id", Type: ir.TypeInteger},
			{Name: "name", Type: ir.TypeText},
			{Name: "embedding", Type: ir.TypeVector},
		},
		[]ir.Row{{ir.Int(99), ir.Text("missing"), vec(0, 0, 1)}})

	queries, err := syn.Synthesize(context.Background(), []*ir.Table{itemsTable()}, target, []ir.Vector{queryVector()})
	require.NoError(t, err)
	assert.Empty(t, queries)
}

func TestSynthesize_InvalidArguments(t *testing.T) {
	ctx := context.Background()
	items := []*ir.Table{itemsTable()}

	tests := []struct {
		name   string
		opts   Options
		inputs []*ir.Table
		target *ir.Table
		field  string
	}{
		{"no inputs", DefaultOptions(), nil, nearestTarget(), "inputs"},
		{"nil input", DefaultOptions(), []*ir.Table{nil}, nearestTarget(), "inputs"},
		{"nil target", DefaultOptions(), items, nil, "target"},
		{"zero depth", Options{MaxDepth: 0}, items, nearestTarget(), "max_depth"},
		{"negative limit", Options{MaxDepth: 1, Limits: []int{-1}}, items, nearestTarget(), "limits"},
		{"negative budget", Options{MaxDepth: 1, MaxCandidates: -1}, items, nearestTarget(), "max_candidates"},
		{"negative timeout", Options{MaxDepth: 1, Timeout: -time.Second}, items, nearestTarget(), "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{}
			syn := New(&fakeTranslator{}, exec, oracle.Oracle{}, WithOptions(tt.opts), WithLogger(discardLogger()))

			_, err := syn.Run(ctx, tt.inputs, tt.target, nil)
			var ia *InvalidArgumentError
			require.ErrorAs(t, err, &ia)
			assert.Equal(t, tt.field, ia.Field)
			assert.Zero(t, exec.calls, "no search may start on invalid input")
		})
	}
}

func TestSynthesize_CandidateBudget(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDepth = 2
	opts.MaxCandidates = 5
	syn := newItemsSynthesizer(t, opts)

	res, err := syn.Run(context.Background(), []*ir.Table{itemsTable()}, nearestTarget(), []ir.Vector{queryVector()})
	require.NoError(t, err)
	assert.True(t, res.Exhausted)
	assert.Equal(t, 5, res.Candidates)
	assert.Empty(t, res.Solutions)
}

func TestSynthesize_BudgetKeepsSolutionsFound(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDepth = 2
	opts.MaxCandidates = 35
	syn := newItemsSynthesizer(t, opts)

	res, err := syn.Run(context.Background(), []*ir.Table{itemsTable()}, nearestTarget(), []ir.Vector{queryVector()})
	require.NoError(t, err)
	assert.True(t, res.Exhausted)
	require.Len(t, res.Solutions, 1, "candidate 31 matches before the budget runs out")
	assert.Equal(t, "SELECT id, name, embedding FROM items ORDER BY id ASC LIMIT 1", res.Solutions[0].SQL)
}

func TestSynthesize_Timeout(t *testing.T) {
	opts := DefaultOptions()
	opts.Timeout = time.Second
	clock := testutil.NewStepClock(time.Second)
	exec := &fakeExecutor{}
	syn := New(&fakeTranslator{}, exec, oracle.Oracle{},
		WithOptions(opts), WithLogger(discardLogger()), WithClock(clock.Now))

	res, err := syn.Run(context.Background(), []*ir.Table{itemsTable()}, nearestTarget(), nil)
	require.NoError(t, err)
	assert.True(t, res.Exhausted)
	assert.Zero(t, res.Candidates)
	assert.Zero(t, exec.calls)
}

func TestSynthesize_TimeoutBeforeNextDepth(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDepth = 3
	opts.DistanceSortKeys = false
	// Start reads t=0, the depth-1 check t=1s, six candidates t=2s..7s.
	// The depth-2 check reads t=8s and must stop before enumerating.
	opts.Timeout = 8 * time.Second
	clock := testutil.NewStepClock(time.Second)
	exec := &fakeExecutor{}
	syn := New(&fakeTranslator{}, exec, oracle.Oracle{},
		WithOptions(opts), WithLogger(discardLogger()), WithClock(clock.Now))

	res, err := syn.Run(context.Background(), []*ir.Table{itemsTable()}, nearestTarget(), nil)
	require.NoError(t, err)
	assert.True(t, res.Exhausted)
	assert.Equal(t, 1, res.Depth, "depth 2 must not be enumerated once the timeout has passed")
	assert.Equal(t, 6, res.Candidates)
	assert.Equal(t, 6, exec.calls)
}

func TestSynthesize_LogsFinishWhenExhausted(t *testing.T) {
	tests := []struct {
		name string
		opts func(*Options)
	}{
		{"candidate limit", func(o *Options) { o.MaxCandidates = 2 }},
		{"candidate limit at depth boundary", func(o *Options) { o.MaxCandidates = 6 }},
		{"timeout", func(o *Options) { o.Timeout = time.Nanosecond }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			opts := DefaultOptions()
			opts.MaxDepth = 2
			opts.DistanceSortKeys = false
			tt.opts(&opts)
			syn := New(&fakeTranslator{}, &fakeExecutor{}, oracle.Oracle{},
				WithOptions(opts),
				WithLogger(logger),
				WithClock(testutil.NewStepClock(time.Second).Now))

			res, err := syn.Run(context.Background(), []*ir.Table{itemsTable()}, nearestTarget(), nil)
			require.NoError(t, err)
			require.True(t, res.Exhausted)

			out := buf.String()
			assert.Contains(t, out, "msg=\"search budget exhausted\"")
			assert.Contains(t, out, "msg=\"synthesis finished\"")
			assert.Contains(t, out, "exhausted=true")
			assert.Contains(t, out, fmt.Sprintf("candidates=%d", res.Candidates))
		})
	}
}

// synthesizeOver loads table into a fresh SQLite store and searches for target.
func synthesizeOver(t *testing.T, table, target *ir.Table, opts Options) *Result {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Load(context.Background(), table))

	syn := New(querysql.NewTranslator(querysql.SQLite), st, oracle.Oracle{},
		WithOptions(opts), WithLogger(discardLogger()))
	res, err := syn.Run(context.Background(), []*ir.Table{table}, target, nil)
	require.NoError(t, err)
	return res
}

func TestSynthesize_UnknownTypedColumn(t *testing.T) {
	u := ir.MustNewTable("u",
		[]ir.Column{{Name: "id", Type: ir.TypeInteger}, {Name: "x", Type: ir.TypeUnknown}},
		[]ir.Row{{ir.Int(1), ir.Int(5)}, {ir.Int(2), ir.Text("a")}})

	opts := DefaultOptions()
	opts.MaxDepth = 1
	res := synthesizeOver(t, u, u, opts)

	require.NotEmpty(t, res.Solutions, "an identity target over an unknown column must be reachable")
	for _, sol := range res.Solutions {
		assert.True(t, strings.HasPrefix(sol.SQL, "SELECT id, x FROM u"), sol.SQL)
	}
}

func TestSynthesize_KeywordNames(t *testing.T) {
	table := ir.MustNewTable("order",
		[]ir.Column{{Name: "limit", Type: ir.TypeInteger}, {Name: "Name", Type: ir.TypeText}},
		[]ir.Row{{ir.Int(2), ir.Text("b")}, {ir.Int(1), ir.Text("a")}})
	target := ir.MustNewTable("target", table.Columns(), []ir.Row{{ir.Int(1), ir.Text("a")}})

	opts := DefaultOptions()
	opts.MaxDepth = 2
	res := synthesizeOver(t, table, target, opts)

	require.NotEmpty(t, res.Solutions)
	assert.Equal(t, 2, res.Depth)
	assert.Zero(t, res.Skipped, "every candidate over quoted names must execute")
	assert.Equal(t, `SELECT "limit", "Name" FROM "order" ORDER BY "limit" ASC LIMIT 1`, res.Solutions[0].SQL)
}

func TestSynthesize_ReportsTargetDigest(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDepth = 1
	syn := New(&fakeTranslator{}, &fakeExecutor{}, oracle.Oracle{}, WithOptions(opts), WithLogger(discardLogger()))

	target := nearestTarget()
	want, err := ir.TableDigest(target)
	require.NoError(t, err)

	res, err := syn.Run(context.Background(), []*ir.Table{itemsTable()}, target, nil)
	require.NoError(t, err)
	assert.Equal(t, want, res.TargetDigest)

	other, err := syn.Run(context.Background(), []*ir.Table{itemsTable()}, itemsTable(), nil)
	require.NoError(t, err)
	assert.NotEqual(t, res.TargetDigest, other.TargetDigest)
}

func TestSynthesize_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	syn := New(&fakeTranslator{}, &fakeExecutor{}, oracle.Oracle{}, WithLogger(discardLogger()))
	_, err := syn.Run(ctx, []*ir.Table{itemsTable()}, nearestTarget(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSynthesize_CancelMidSearch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exec := &fakeExecutor{onCall: func(n int) {
		if n == 3 {
			cancel()
		}
	}}
	syn := New(&fakeTranslator{}, exec, oracle.Oracle{}, WithLogger(discardLogger()))
	_, err := syn.Run(ctx, []*ir.Table{itemsTable()}, nearestTarget(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, exec.calls)
}

func TestSynthesize_SkipsTranslationAndExecutionFailures(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDepth = 1
	opts.DistanceSortKeys = false

	tr := &fakeTranslator{fail: func(q queryast.Query) bool {
		return strings.Contains(q.String(), "name")
	}}
	exec := &fakeExecutor{fail: func(sql string) bool {
		return strings.Contains(sql, "embedding DESC")
	}}
	syn := New(tr, exec, oracle.Oracle{}, WithOptions(opts), WithLogger(discardLogger()))

	res, err := syn.Run(context.Background(), []*ir.Table{itemsTable()}, nearestTarget(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Solutions)
	assert.Equal(t, 6, res.Candidates)
	// Every projection names the "name" column, so all six fail translation.
	assert.Equal(t, 6, res.Skipped)
	assert.Zero(t, exec.calls)
}

func TestSynthesize_StopsAtFirstSuccessfulDepth(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDepth = 5
	opts.DistanceSortKeys = false

	// Accept everything: all depth-1 candidates match, nothing deeper runs.
	exec := &fakeExecutor{}
	syn := New(&fakeTranslator{}, exec, acceptAll{}, WithOptions(opts), WithLogger(discardLogger()))

	res, err := syn.Run(context.Background(), []*ir.Table{itemsTable()}, nearestTarget(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Depth)
	assert.Len(t, res.Solutions, 6)
	assert.Equal(t, 6, exec.calls)
	for i, sol := range res.Solutions {
		assert.Equal(t, i+1, sol.Candidate)
		assert.Equal(t, ir.MustQueryID("", sol.SQL), sol.ID, "fake translator has no dialect")
	}
}

func TestSynthesize_LogsRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	opts := DefaultOptions()
	opts.MaxDepth = 1
	syn := New(&fakeTranslator{}, &fakeExecutor{}, acceptAll{},
		WithOptions(opts),
		WithLogger(logger),
		WithRunIDGenerator(testutil.NewFixedRunIDGenerator("run-42")))

	_, err := syn.Run(context.Background(), []*ir.Table{itemsTable()}, nearestTarget(), nil)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "run_id=run-42")
	assert.Contains(t, out, "msg=\"synthesis starting\"")
	assert.Contains(t, out, "msg=\"solution accepted\"")
	assert.Contains(t, out, "msg=\"synthesis finished\"")
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 5, opts.MaxDepth)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, opts.Limits)
	assert.True(t, opts.DistanceSortKeys)
	assert.False(t, opts.Cumulative)
	assert.Zero(t, opts.MaxCandidates)
	assert.Zero(t, opts.Timeout)
	assert.NoError(t, opts.Validate())
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a := gen.Generate()
	b := gen.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

// fakeTranslator renders a query by its String form, optionally failing.
type fakeTranslator struct {
	fail func(queryast.Query) bool
}

func (f *fakeTranslator) Translate(q queryast.Query) (string, error) {
	if f.fail != nil && f.fail(q) {
		return "", &querysql.UnsupportedKindError{Kind: "fake"}
	}
	return q.String(), nil
}

// fakeExecutor returns an empty single-column table, optionally failing.
type fakeExecutor struct {
	calls  int
	fail   func(string) bool
	onCall func(n int)
}

func (f *fakeExecutor) Execute(_ context.Context, query string) (*ir.Table, error) {
	f.calls++
	if f.onCall != nil {
		f.onCall(f.calls)
	}
	if f.fail != nil && f.fail(query) {
		return nil, &store.ExecutionError{Query: query, Err: errors.New("fake failure")}
	}
	return ir.MustNewTable("", []ir.Column{{Name: "x", Type: ir.TypeInteger}}, nil), nil
}

type acceptAll struct{}

func (acceptAll) Equivalent(_, _ *ir.Table) bool { return true }
