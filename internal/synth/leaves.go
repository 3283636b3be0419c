package synth

import (
	"github.com/roach88/vecsynth/internal/ir"
	"github.com/roach88/vecsynth/internal/queryast"
)

// Leaves is the depth-0 expression vocabulary of one synthesis call.
type Leaves struct {
	// Columns holds one ColumnRef per primary-table column, in schema order.
	Columns []queryast.Expr

	// Constants holds one Constant per non-vector cell of the primary
	// table (row-major, duplicates and nulls kept) followed by one
	// Constant per query vector.
	Constants []queryast.Expr
}

// ExtractLeaves derives the leaf vocabulary from the primary table and the
// query vectors. Cells under vector-typed columns never become constants;
// the only vector constants are the query vectors.
func ExtractLeaves(primary *ir.Table, queryVectors []ir.Vector) Leaves {
	var leaves Leaves
	if primary == nil {
		for _, v := range queryVectors {
			leaves.Constants = append(leaves.Constants, &queryast.Constant{Value: v})
		}
		return leaves
	}

	columns := primary.Columns()
	for _, c := range columns {
		leaves.Columns = append(leaves.Columns, &queryast.ColumnRef{Name: c.Name})
	}

	for i := 0; i < primary.RowCount(); i++ {
		for j, c := range columns {
			if c.Type == ir.TypeVector {
				continue
			}
			cell := primary.Cell(i, j)
			if _, ok := cell.(ir.Vector); ok {
				continue
			}
			leaves.Constants = append(leaves.Constants, &queryast.Constant{Value: cell})
		}
	}

	for _, v := range queryVectors {
		leaves.Constants = append(leaves.Constants, &queryast.Constant{Value: v})
	}
	return leaves
}

// All returns columns followed by constants.
func (l Leaves) All() []queryast.Expr {
	all := make([]queryast.Expr, 0, l.Len())
	all = append(all, l.Columns...)
	return append(all, l.Constants...)
}

// Len returns the number of leaves.
func (l Leaves) Len() int {
	return len(l.Columns) + len(l.Constants)
}
