package synth

import (
	"slices"

	"github.com/roach88/vecsynth/internal/ir"
	"github.com/roach88/vecsynth/internal/queryast"
)

// DefaultLimits is the literal set Limit counts are drawn from.
var DefaultLimits = []int{1, 2, 3, 4, 5, 6, 7}

// EnumeratorOptions tunes the grammar.
type EnumeratorOptions struct {
	// Limits is the set of Limit counts, in enumeration order.
	// nil means DefaultLimits.
	Limits []int

	// Cumulative draws child lists from every depth below d instead of
	// exactly d-1. Off by default: with exact depths, Select is never
	// reachable because Filter(0) is empty.
	Cumulative bool

	// DistanceSortKeys adds column-vs-query-vector Distance keys to the
	// OrderBy key set, after the plain columns.
	DistanceSortKeys bool
}

// production builds every node of one capability at depth > 0.
type production func(depth int) ([]queryast.Node, error)

type memoKey struct {
	depth int
	cap   Capability
}

// Enumerator produces candidate trees by capability and depth.
//
// Results are memoized on (depth, capability) and are never deduplicated:
// structurally identical trees may appear more than once. Subtrees are
// shared by pointer between the trees built on top of them; nodes are
// never mutated after construction.
//
// Traversal order is fixed: outer loop over the first child list, then
// the second, then operators, orders, or limits in declaration order.
//
// An Enumerator is scoped to one synthesis call and is not safe for
// concurrent use.
type Enumerator struct {
	primary     *ir.Table
	leaves      Leaves
	opts        EnumeratorOptions
	productions map[Capability]production
	memo        map[memoKey][]queryast.Node

	sortKeys []queryast.Expr // nil until first OrderBy production
}

// NewEnumerator builds an Enumerator over the primary table's leaves.
//
// Returns InvalidArgumentError if primary is nil or a limit is negative.
func NewEnumerator(primary *ir.Table, queryVectors []ir.Vector, opts EnumeratorOptions) (*Enumerator, error) {
	if primary == nil {
		return nil, invalidArgument("primary", "primary table is nil")
	}
	if opts.Limits == nil {
		opts.Limits = DefaultLimits
	}
	for _, k := range opts.Limits {
		if k < 0 {
			return nil, invalidArgument("limits", "negative limit %d", k)
		}
	}
	opts.Limits = slices.Clone(opts.Limits)

	e := &Enumerator{
		primary: primary,
		leaves:  ExtractLeaves(primary, queryVectors),
		opts:    opts,
		memo:    make(map[memoKey][]queryast.Node),
	}
	e.productions = map[Capability]production{
		CapQuery:      e.query,
		CapOrderable:  e.orderable,
		CapLimitable:  e.limitable,
		CapExpression: e.expression,
		CapFilter:     e.filter,
	}
	return e, nil
}

// Leaves returns the depth-0 vocabulary.
func (e *Enumerator) Leaves() Leaves {
	return e.leaves
}

// Enumerate returns every node of capability c at the given depth.
//
// Depth 0 holds only the base table (Orderable) and the leaves
// (Expression); every other capability is empty there. Repeated calls
// return equal, order-preserving results; the returned slice is a copy.
//
// Returns InvalidArgumentError for a negative depth or unknown capability.
func (e *Enumerator) Enumerate(c Capability, depth int) ([]queryast.Node, error) {
	nodes, err := e.enumerate(c, depth)
	if err != nil {
		return nil, err
	}
	return slices.Clone(nodes), nil
}

func (e *Enumerator) enumerate(c Capability, depth int) ([]queryast.Node, error) {
	if depth < 0 {
		return nil, invalidArgument("depth", "negative depth %d", depth)
	}
	key := memoKey{depth: depth, cap: c}
	if nodes, ok := e.memo[key]; ok {
		return nodes, nil
	}

	prod, ok := e.productions[c]
	if !ok {
		return nil, invalidArgument("capability", "unknown capability %s", c)
	}

	var (
		nodes []queryast.Node
		err   error
	)
	if depth == 0 {
		nodes = e.base(c)
	} else {
		nodes, err = prod(depth)
		if err != nil {
			return nil, err
		}
	}

	e.memo[key] = nodes
	return nodes, nil
}

func (e *Enumerator) base(c Capability) []queryast.Node {
	switch c {
	case CapOrderable:
		return []queryast.Node{&queryast.TableRef{Name: e.primary.Name()}}
	case CapExpression:
		all := e.leaves.All()
		nodes := make([]queryast.Node, len(all))
		for i, leaf := range all {
			nodes[i] = leaf
		}
		return nodes
	default:
		return nil
	}
}

// children returns the child candidates for a depth-d production:
// exactly depth d-1, or depths 0..d-1 when Cumulative is set.
func (e *Enumerator) children(c Capability, depth int) ([]queryast.Node, error) {
	if !e.opts.Cumulative {
		return e.enumerate(c, depth-1)
	}
	var out []queryast.Node
	for d := 0; d < depth; d++ {
		nodes, err := e.enumerate(c, d)
		if err != nil {
			return nil, err
		}
		out = append(out, nodes...)
	}
	return out, nil
}

// orderable: Select(src, f) for src in Orderable(d-1), f in Filter(d-1).
func (e *Enumerator) orderable(depth int) ([]queryast.Node, error) {
	sources, err := e.children(CapOrderable, depth)
	if err != nil {
		return nil, err
	}
	filters, err := e.children(CapFilter, depth)
	if err != nil {
		return nil, err
	}

	out := make([]queryast.Node, 0, len(sources)*len(filters))
	for _, src := range sources {
		for _, f := range filters {
			out = append(out, &queryast.Select{
				Source: src.(queryast.Query),
				Filter: f.(queryast.Filter),
			})
		}
	}
	return out, nil
}

// limitable: Orderable(d) widened at no depth cost, then
// OrderBy(src, [key order]) for src in Orderable(d-1).
func (e *Enumerator) limitable(depth int) ([]queryast.Node, error) {
	widened, err := e.enumerate(CapOrderable, depth)
	if err != nil {
		return nil, err
	}
	sources, err := e.children(CapOrderable, depth)
	if err != nil {
		return nil, err
	}
	keys, err := e.orderKeys()
	if err != nil {
		return nil, err
	}

	out := make([]queryast.Node, 0, len(widened)+len(sources)*len(keys)*len(queryast.SortOrders))
	out = append(out, widened...)
	for _, src := range sources {
		for _, key := range keys {
			for _, order := range queryast.SortOrders {
				out = append(out, &queryast.OrderBy{
					Source: src.(queryast.Query),
					Keys:   []queryast.SortKey{{Expr: key, Order: order}},
				})
			}
		}
	}
	return out, nil
}

// query: Limitable(d) widened, then Limit(src, k) for src in
// Limitable(d-1).
func (e *Enumerator) query(depth int) ([]queryast.Node, error) {
	widened, err := e.enumerate(CapLimitable, depth)
	if err != nil {
		return nil, err
	}
	sources, err := e.children(CapLimitable, depth)
	if err != nil {
		return nil, err
	}

	out := make([]queryast.Node, 0, len(widened)+len(sources)*len(e.opts.Limits))
	out = append(out, widened...)
	for _, src := range sources {
		for _, k := range e.opts.Limits {
			out = append(out, &queryast.Limit{Source: src.(queryast.Query), Count: k})
		}
	}
	return out, nil
}

// expression: Distance(l, op, r) for vector-valued l, r in Expression(d-1).
func (e *Enumerator) expression(depth int) ([]queryast.Node, error) {
	operands, err := e.children(CapExpression, depth)
	if err != nil {
		return nil, err
	}

	var out []queryast.Node
	for _, l := range operands {
		left := l.(queryast.Expr)
		if !e.IsVector(left) {
			continue
		}
		for _, r := range operands {
			right := r.(queryast.Expr)
			if !e.IsVector(right) {
				continue
			}
			for _, op := range queryast.DistanceOps {
				out = append(out, &queryast.Distance{Left: left, Op: op, Right: right})
			}
		}
	}
	return out, nil
}

// filter: Predicate(l, op, r) for l, r in Expression(d-1) that are both
// vectors or both scalars.
func (e *Enumerator) filter(depth int) ([]queryast.Node, error) {
	operands, err := e.children(CapExpression, depth)
	if err != nil {
		return nil, err
	}

	var out []queryast.Node
	for _, l := range operands {
		left := l.(queryast.Expr)
		for _, r := range operands {
			right := r.(queryast.Expr)
			if e.IsVector(left) != e.IsVector(right) {
				continue
			}
			for _, op := range queryast.CompareOps {
				out = append(out, &queryast.Predicate{Left: left, Op: op, Right: right})
			}
		}
	}
	return out, nil
}

// orderKeys returns the OrderBy key set: the columns, then (when enabled)
// every column-vs-query-vector Distance of Expression(1) in its order.
// Distance keys are a fixed set and do not consume depth.
func (e *Enumerator) orderKeys() ([]queryast.Expr, error) {
	if e.sortKeys != nil {
		return e.sortKeys, nil
	}

	keys := slices.Clone(e.leaves.Columns)
	if e.opts.DistanceSortKeys {
		distances, err := e.enumerate(CapExpression, 1)
		if err != nil {
			return nil, err
		}
		for _, n := range distances {
			d, ok := n.(*queryast.Distance)
			if ok && columnAgainstConstant(d) {
				keys = append(keys, d)
			}
		}
	}
	if keys == nil {
		keys = []queryast.Expr{}
	}
	e.sortKeys = keys
	return keys, nil
}

func columnAgainstConstant(d *queryast.Distance) bool {
	_, lc := d.Left.(*queryast.ColumnRef)
	_, rc := d.Right.(*queryast.ColumnRef)
	_, lk := d.Left.(*queryast.Constant)
	_, rk := d.Right.(*queryast.Constant)
	return (lc && rk) || (lk && rc)
}

// IsVector reports whether expr is vector valued.
//
// A ColumnRef is a vector when the primary table declares it vector-typed;
// a Constant when it holds a Vector. Every composite expression, Distance
// included, is a scalar.
func (e *Enumerator) IsVector(expr queryast.Expr) bool {
	switch x := expr.(type) {
	case *queryast.ColumnRef:
		col, ok := e.primary.Column(x.Name)
		return ok && col.Type == ir.TypeVector
	case *queryast.Constant:
		_, ok := x.Value.(ir.Vector)
		return ok
	default:
		return false
	}
}
