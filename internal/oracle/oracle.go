// Package oracle decides whether an executed result table is equivalent to
// the target example table.
//
// Equivalence is order-insensitive over rows and columns: two tables are
// equivalent when they have the same shape, the same set of (name, type)
// columns, and a one-to-one pairing of rows under which every shared
// column's cells are equal. Vector and float cells compare with a small
// absolute tolerance.
package oracle

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/vecsynth/internal/ir"
)

// Tolerances for approximate cell equality.
const (
	// VectorTolerance bounds the per-component absolute difference of
	// two equal vectors.
	VectorTolerance = 1e-5

	// FloatTolerance bounds the absolute difference of two equal numbers
	// when either is a Float.
	FloatTolerance = 1e-9
)

// Matching selects how rows are paired.
type Matching int

const (
	// Greedy pairs each row of the first table with the first unused
	// equivalent row of the second. It can report false on equivalent
	// tables when tolerance makes row equivalence non-transitive.
	Greedy Matching = iota

	// Exact finds a maximum bipartite matching (augmenting paths), so it
	// never misses a pairing that exists.
	Exact
)

func (m Matching) String() string {
	switch m {
	case Greedy:
		return "greedy"
	case Exact:
		return "exact"
	default:
		return fmt.Sprintf("Matching(%d)", int(m))
	}
}

// ParseMatching maps a configuration string to a Matching.
func ParseMatching(s string) (Matching, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "greedy":
		return Greedy, nil
	case "exact":
		return Exact, nil
	default:
		return Greedy, fmt.Errorf("unknown matching %q (valid: greedy, exact)", s)
	}
}

// Oracle compares tables. The zero value uses greedy matching.
type Oracle struct {
	Matching Matching
}

// Equivalent reports whether a and b hold the same rows up to row order,
// column order, and tolerance.
//
// Rules, checked in order:
//  1. equal row counts and equal column counts
//  2. equal sets of (column name, column type) pairs
//  3. a one-to-one row pairing where paired rows agree on every column
//
// nil tables are equivalent only to each other.
func (o Oracle) Equivalent(a, b *ir.Table) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.RowCount() != b.RowCount() || a.ColumnCount() != b.ColumnCount() {
		return false
	}

	// Column positions in b for each column of a, matched by name and type.
	perm, ok := alignColumns(a, b)
	if !ok {
		return false
	}

	if o.Matching == Exact {
		return exactMatch(a, b, perm)
	}
	return greedyMatch(a, b, perm)
}

// alignColumns maps each column index of a to the index of the column in
// b with the same name and type. Duplicate names are paired in order.
func alignColumns(a, b *ir.Table) ([]int, bool) {
	ac, bc := a.Columns(), b.Columns()
	used := make([]bool, len(bc))
	perm := make([]int, len(ac))
	for i, c := range ac {
		perm[i] = -1
		for j, d := range bc {
			if !used[j] && c.Name == d.Name && c.Type == d.Type {
				used[j] = true
				perm[i] = j
				break
			}
		}
		if perm[i] < 0 {
			return nil, false
		}
	}
	return perm, true
}

// rowsEquivalent compares row i of a with row j of b column by column.
func rowsEquivalent(a, b *ir.Table, perm []int, i, j int) bool {
	for k, bk := range perm {
		if !CellsEqual(a.Cell(i, k), b.Cell(j, bk)) {
			return false
		}
	}
	return true
}

func greedyMatch(a, b *ir.Table, perm []int) bool {
	used := make([]bool, b.RowCount())
	for i := 0; i < a.RowCount(); i++ {
		found := false
		for j := 0; j < b.RowCount(); j++ {
			if !used[j] && rowsEquivalent(a, b, perm, i, j) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// exactMatch runs Kuhn's augmenting-path algorithm over the row
// compatibility graph and reports whether every row of a is matched.
func exactMatch(a, b *ir.Table, perm []int) bool {
	n := a.RowCount()
	adj := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < b.RowCount(); j++ {
			if rowsEquivalent(a, b, perm, i, j) {
				adj[i] = append(adj[i], j)
			}
		}
		if len(adj[i]) == 0 {
			return false
		}
	}

	matchB := make([]int, b.RowCount())
	for j := range matchB {
		matchB[j] = -1
	}

	var augment func(i int, seen []bool) bool
	augment = func(i int, seen []bool) bool {
		for _, j := range adj[i] {
			if seen[j] {
				continue
			}
			seen[j] = true
			if matchB[j] < 0 || augment(matchB[j], seen) {
				matchB[j] = i
				return true
			}
		}
		return false
	}

	for i := 0; i < n; i++ {
		if !augment(i, make([]bool, b.RowCount())) {
			return false
		}
	}
	return true
}

// CellsEqual compares two cells.
//
//   - Vector vs Vector: same dimension and every component within
//     VectorTolerance.
//   - number vs number: within FloatTolerance if either is a Float,
//     otherwise exact integer equality.
//   - Null equals only Null.
//   - anything else: equal when both have the same type and value.
func CellsEqual(x, y ir.Value) bool {
	if ir.IsNull(x) || ir.IsNull(y) {
		return ir.IsNull(x) && ir.IsNull(y)
	}

	if vx, ok := x.(ir.Vector); ok {
		vy, ok := y.(ir.Vector)
		return ok && vectorsEqual(vx, vy)
	}

	if ir.IsNumber(x) && ir.IsNumber(y) {
		xi, xInt := x.(ir.Int)
		yi, yInt := y.(ir.Int)
		if xInt && yInt {
			return xi == yi
		}
		return math.Abs(asFloat(x)-asFloat(y)) <= FloatTolerance
	}

	return x == y
}

func vectorsEqual(a, b ir.Vector) bool {
	if a.Dim() != b.Dim() {
		return false
	}
	for i := 0; i < a.Dim(); i++ {
		if math.Abs(float64(a.At(i))-float64(b.At(i))) > VectorTolerance {
			return false
		}
	}
	return true
}

func asFloat(v ir.Value) float64 {
	switch n := v.(type) {
	case ir.Int:
		return float64(n)
	case ir.Float:
		return float64(n)
	default:
		return math.NaN()
	}
}
