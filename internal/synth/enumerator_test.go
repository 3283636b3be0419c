package synth

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vecsynth/internal/ir"
	"github.com/roach88/vecsynth/internal/queryast"
)

func vec(data ...float32) ir.Vector {
	return ir.NewVector(data)
}

// itemsTable is the end-to-end example: four items with 3-d embeddings.
func itemsTable() *ir.Table {
	return ir.MustNewTable("items",
		[]ir.Column{
			{Name: "id", Type: ir.TypeInteger},
			{Name: "name", Type: ir.TypeText},
			{Name: "embedding", Type: ir.TypeVector},
		},
		[]ir.Row{
			{ir.Int(1), ir.Text("blue-sofa"), vec(0.1, 0.2, 0.9)},
			{ir.Int(2), ir.Text("red-chair"), vec(0.8, 0.1, 0.1)},
			{ir.Int(3), ir.Text("green-table"), vec(0.2, 0.9, 0.2)},
			{ir.Int(4), ir.Text("red-sofa"), vec(0.9, 0.2, 0.1)},
		})
}

func queryVector() ir.Vector {
	return vec(0.1, 0.2, 0.9)
}

func newItemsEnumerator(t *testing.T, opts EnumeratorOptions) *Enumerator {
	t.Helper()
	e, err := NewEnumerator(itemsTable(), []ir.Vector{queryVector()}, opts)
	require.NoError(t, err)
	return e
}

func nodeStrings(nodes []queryast.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.String()
	}
	return out
}

func TestExtractLeaves_Count(t *testing.T) {
	leaves := ExtractLeaves(itemsTable(), []ir.Vector{queryVector()})

	// 3 columns + 4 rows x 2 non-vector cells + 1 query vector
	assert.Equal(t, 12, leaves.Len())
	assert.Len(t, leaves.Columns, 3)
	assert.Len(t, leaves.Constants, 9)
	assert.Len(t, leaves.All(), 12)
}

func TestExtractLeaves_Order(t *testing.T) {
	leaves := ExtractLeaves(itemsTable(), []ir.Vector{queryVector()})

	var cols []string
	for _, c := range leaves.Columns {
		cols = append(cols, c.String())
	}
	assert.Equal(t, []string{"id", "name", "embedding"}, cols)

	// Row-major, then query vectors last
	assert.Equal(t, ir.Int(1), leaves.Constants[0].(*queryast.Constant).Value)
	assert.Equal(t, ir.Text("blue-sofa"), leaves.Constants[1].(*queryast.Constant).Value)
	assert.Equal(t, ir.Int(2), leaves.Constants[2].(*queryast.Constant).Value)
	last := leaves.Constants[len(leaves.Constants)-1].(*queryast.Constant)
	assert.Equal(t, queryVector().Data(), last.Value.(ir.Vector).Data())
}

func TestExtractLeaves_KeepsDuplicatesAndNulls(t *testing.T) {
	table := ir.MustNewTable("tags",
		[]ir.Column{{Name: "tag", Type: ir.TypeText}},
		[]ir.Row{{ir.Text("x")}, {ir.Text("x")}, {ir.Null{}}})

	leaves := ExtractLeaves(table, nil)
	require.Len(t, leaves.Constants, 3)
	assert.Equal(t, ir.Text("x"), leaves.Constants[0].(*queryast.Constant).Value)
	assert.Equal(t, ir.Text("x"), leaves.Constants[1].(*queryast.Constant).Value)
	assert.Equal(t, ir.Null{}, leaves.Constants[2].(*queryast.Constant).Value)
}

func TestExtractLeaves_SkipsNullVectorCells(t *testing.T) {
	table := ir.MustNewTable("docs",
		[]ir.Column{{Name: "id", Type: ir.TypeInteger}, {Name: "embedding", Type: ir.TypeVector}},
		[]ir.Row{{ir.Int(1), ir.Null{}}, {ir.Int(2), vec(1, 0)}})

	leaves := ExtractLeaves(table, nil)
	assert.Len(t, leaves.Constants, 2, "only the id cells become constants")
}

func TestEnumerate_DepthZero(t *testing.T) {
	e := newItemsEnumerator(t, EnumeratorOptions{})

	orderable, err := e.Enumerate(CapOrderable, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"items"}, nodeStrings(orderable))

	exprs, err := e.Enumerate(CapExpression, 0)
	require.NoError(t, err)
	assert.Len(t, exprs, 12)

	for _, c := range []Capability{CapQuery, CapLimitable, CapFilter} {
		nodes, err := e.Enumerate(c, 0)
		require.NoError(t, err)
		assert.Empty(t, nodes, "%s at depth 0", c)
	}
}

func TestIsVector(t *testing.T) {
	e := newItemsEnumerator(t, EnumeratorOptions{})

	tests := []struct {
		name     string
		expr     queryast.Expr
		expected bool
	}{
		{"vector column", &queryast.ColumnRef{Name: "embedding"}, true},
		{"integer column", &queryast.ColumnRef{Name: "id"}, false},
		{"text column", &queryast.ColumnRef{Name: "name"}, false},
		{"unknown column", &queryast.ColumnRef{Name: "missing"}, false},
		{"vector constant", &queryast.Constant{Value: queryVector()}, true},
		{"scalar constant", &queryast.Constant{Value: ir.Int(1)}, false},
		{"null constant", &queryast.Constant{Value: ir.Null{}}, false},
		{"distance is scalar", &queryast.Distance{
			Left:  &queryast.ColumnRef{Name: "embedding"},
			Op:    queryast.L2,
			Right: &queryast.Constant{Value: queryVector()},
		}, false},
		{"cast is scalar", &queryast.Cast{Expr: &queryast.ColumnRef{Name: "embedding"}, Type: ir.TypeText}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, e.IsVector(tt.expr))
		})
	}
}

func TestEnumerate_Memoized(t *testing.T) {
	e := newItemsEnumerator(t, EnumeratorOptions{DistanceSortKeys: true})

	first, err := e.Enumerate(CapQuery, 2)
	require.NoError(t, err)
	memoSize := len(e.memo)

	second, err := e.Enumerate(CapQuery, 2)
	require.NoError(t, err)

	assert.Equal(t, nodeStrings(first), nodeStrings(second))
	require.NotEmpty(t, first)
	assert.Same(t, first[0], second[0], "second call must come from the memo")
	assert.Equal(t, memoSize, len(e.memo), "memo must not grow on a repeated call")
}

func TestEnumerate_ReturnsCopy(t *testing.T) {
	e := newItemsEnumerator(t, EnumeratorOptions{})

	first, err := e.Enumerate(CapExpression, 0)
	require.NoError(t, err)
	first[0] = nil

	second, err := e.Enumerate(CapExpression, 0)
	require.NoError(t, err)
	assert.NotNil(t, second[0])
}

func TestEnumerate_Widening(t *testing.T) {
	for _, cumulative := range []bool{false, true} {
		e := newItemsEnumerator(t, EnumeratorOptions{Cumulative: cumulative, DistanceSortKeys: true})

		// Depth 0 is the base case: only Orderable and Expression are
		// populated there, so widening starts at depth 1.
		for depth := 1; depth <= 2; depth++ {
			orderable, err := e.Enumerate(CapOrderable, depth)
			require.NoError(t, err)
			limitable, err := e.Enumerate(CapLimitable, depth)
			require.NoError(t, err)
			query, err := e.Enumerate(CapQuery, depth)
			require.NoError(t, err)

			inLimitable := make(map[queryast.Node]bool, len(limitable))
			for _, n := range limitable {
				inLimitable[n] = true
			}
			for _, n := range orderable {
				assert.True(t, inLimitable[n], "cumulative=%v depth %d: %s missing from limitable", cumulative, depth, n)
			}

			inQuery := make(map[queryast.Node]bool, len(query))
			for _, n := range query {
				inQuery[n] = true
			}
			for _, n := range limitable {
				assert.True(t, inQuery[n], "cumulative=%v depth %d: %s missing from query", cumulative, depth, n)
			}
		}
	}
}

func TestEnumerate_Counts(t *testing.T) {
	// Leaves: 10 scalars (id, name, 8 cells) and 2 vectors (embedding, query vector).
	tests := []struct {
		name     string
		opts     EnumeratorOptions
		cap      Capability
		depth    int
		expected int
	}{
		{"expression depth 1", EnumeratorOptions{}, CapExpression, 1, 4 * 6},
		{"filter depth 1", EnumeratorOptions{}, CapFilter, 1, (10*10 + 2*2) * 6},
		{"orderable depth 1", EnumeratorOptions{}, CapOrderable, 1, 0},
		{"limitable depth 1 columns only", EnumeratorOptions{}, CapLimitable, 1, 3 * 2},
		{"limitable depth 1 with distance keys", EnumeratorOptions{DistanceSortKeys: true}, CapLimitable, 1, (3 + 12) * 2},
		{"query depth 1", EnumeratorOptions{DistanceSortKeys: true}, CapQuery, 1, 30},
		{"query depth 2", EnumeratorOptions{DistanceSortKeys: true}, CapQuery, 2, 30 * 7},
		{"query depth 2 custom limits", EnumeratorOptions{Limits: []int{1, 2}}, CapQuery, 2, 6 * 2},
		{"query depth 3 exact depth", EnumeratorOptions{}, CapQuery, 3, 0},
		{"orderable depth 2 cumulative", EnumeratorOptions{Cumulative: true}, CapOrderable, 2, 624},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newItemsEnumerator(t, tt.opts)
			nodes, err := e.Enumerate(tt.cap, tt.depth)
			require.NoError(t, err)
			assert.Len(t, nodes, tt.expected)
		})
	}
}

func TestEnumerate_TraversalOrder(t *testing.T) {
	e := newItemsEnumerator(t, EnumeratorOptions{DistanceSortKeys: true})

	q1, err := e.Enumerate(CapQuery, 1)
	require.NoError(t, err)
	require.Len(t, q1, 30)
	assert.Equal(t, "OrderBy(items, [id ASC])", q1[0].String())
	assert.Equal(t, "OrderBy(items, [id DESC])", q1[1].String())
	assert.Equal(t, "OrderBy(items, [(embedding <-> '[0.1,0.2,0.9]') ASC])", q1[6].String())

	q2, err := e.Enumerate(CapQuery, 2)
	require.NoError(t, err)
	assert.Equal(t, "Limit(OrderBy(items, [id ASC]), 1)", q2[0].String())
	assert.Equal(t, "Limit(OrderBy(items, [id ASC]), 7)", q2[6].String())
	assert.Equal(t, "Limit(OrderBy(items, [id DESC]), 1)", q2[7].String())

	f1, err := e.Enumerate(CapFilter, 1)
	require.NoError(t, err)
	assert.Equal(t, "(id = id)", f1[0].String())
	assert.Equal(t, "(id > id)", f1[1].String())
}

func TestEnumerate_NeverMixesVectorAndScalar(t *testing.T) {
	e := newItemsEnumerator(t, EnumeratorOptions{})

	filters, err := e.Enumerate(CapFilter, 1)
	require.NoError(t, err)
	for _, n := range filters {
		p := n.(*queryast.Predicate)
		assert.Equal(t, e.IsVector(p.Left), e.IsVector(p.Right), "%s", p)
	}

	exprs, err := e.Enumerate(CapExpression, 1)
	require.NoError(t, err)
	for _, n := range exprs {
		d := n.(*queryast.Distance)
		assert.True(t, e.IsVector(d.Left) && e.IsVector(d.Right), "%s", d)
	}
}

func TestEnumerate_QueryDepth1Golden(t *testing.T) {
	e := newItemsEnumerator(t, EnumeratorOptions{DistanceSortKeys: true})

	nodes, err := e.Enumerate(CapQuery, 1)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "enumerate_query_depth1", []byte(strings.Join(nodeStrings(nodes), "\n")+"\n"))
}

func TestEnumerate_InvalidArguments(t *testing.T) {
	e := newItemsEnumerator(t, EnumeratorOptions{})

	_, err := e.Enumerate(CapQuery, -1)
	assert.True(t, IsInvalidArgument(err))

	_, err = e.Enumerate(Capability(99), 1)
	assert.True(t, IsInvalidArgument(err))

	_, err = NewEnumerator(nil, nil, EnumeratorOptions{})
	assert.True(t, IsInvalidArgument(err))

	_, err = NewEnumerator(itemsTable(), nil, EnumeratorOptions{Limits: []int{1, -2}})
	var ia *InvalidArgumentError
	require.ErrorAs(t, err, &ia)
	assert.Equal(t, "limits", ia.Field)
}

func TestParseCapability(t *testing.T) {
	for _, c := range Capabilities {
		parsed, err := ParseCapability(strings.ToUpper(c.String()))
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	_, err := ParseCapability("join")
	assert.Error(t, err)
}
