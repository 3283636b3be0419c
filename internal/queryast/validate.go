package queryast

import (
	"fmt"
	"strings"
)

// ValidationError lists every structural problem found in a tree.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid query: %s", strings.Join(e.Problems, "; "))
}

// Validate checks a query tree for structural well-formedness.
//
// Rules:
//  1. No nil children (queries, expressions, filters, sort keys)
//  2. Limit counts are non-negative
//  3. OrderBy has at least one key; Project has at least one item
//  4. Names (tables, columns, CTEs) are non-empty
//  5. Operators and sort orders are declared values
//
// Validate does not check names against any schema; unknown columns are
// the executor's concern. It is a pure function with no side effects.
// Returns nil when the tree is well-formed, otherwise a *ValidationError.
func Validate(query Query) error {
	v := &validator{}
	v.validateQuery("query", query)
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(path string, q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("%s: nil query", path)
	case *TableRef:
		if query.Name == "" {
			v.addProblem("%s: empty table name", path)
		}
	case *Select:
		v.validateQuery(path+".source", query.Source)
		v.validateFilter(path+".filter", query.Filter)
	case *OrderBy:
		v.validateQuery(path+".source", query.Source)
		if len(query.Keys) == 0 {
			v.addProblem("%s: order by without keys", path)
		}
		for i, k := range query.Keys {
			v.validateExpr(fmt.Sprintf("%s.keys[%d]", path, i), k.Expr)
			if !k.Order.Valid() {
				v.addProblem("%s.keys[%d]: invalid sort order %d", path, i, int(k.Order))
			}
		}
	case *Limit:
		v.validateQuery(path+".source", query.Source)
		if query.Count < 0 {
			v.addProblem("%s: negative limit %d", path, query.Count)
		}
	case *Project:
		v.validateQuery(path+".source", query.Source)
		if len(query.Items) == 0 {
			v.addProblem("%s: empty projection", path)
		}
		for i, it := range query.Items {
			v.validateExpr(fmt.Sprintf("%s.items[%d]", path, i), it.Expr)
		}
	case *Join:
		v.validateQuery(path+".left", query.Left)
		v.validateQuery(path+".right", query.Right)
		v.validateFilter(path+".on", query.On)
	case *Union:
		v.validateQuery(path+".left", query.Left)
		v.validateQuery(path+".right", query.Right)
	case *With:
		if query.Name == "" {
			v.addProblem("%s: empty CTE name", path)
		}
		v.validateQuery(path+".definition", query.Definition)
		v.validateQuery(path+".body", query.Body)
	default:
		v.addProblem("%s: unknown query type %T", path, q)
	}
}

func (v *validator) validateExpr(path string, e Expr) {
	switch expr := e.(type) {
	case nil:
		v.addProblem("%s: nil expression", path)
	case *ColumnRef:
		if expr.Name == "" {
			v.addProblem("%s: empty column name", path)
		}
	case *Constant:
		// nil Value is rendered as NULL; every ir.Value is acceptable
	case *Distance:
		v.validateExpr(path+".left", expr.Left)
		v.validateExpr(path+".right", expr.Right)
		if !expr.Op.Valid() {
			v.addProblem("%s: invalid distance operator %d", path, int(expr.Op))
		}
	case *Cast:
		v.validateExpr(path+".expr", expr.Expr)
	case *Aggregate:
		if !expr.Func.Valid() {
			v.addProblem("%s: invalid aggregate %d", path, int(expr.Func))
		}
		if expr.Arg == nil && expr.Func != Count {
			v.addProblem("%s: %s requires an argument", path, expr.Func)
		}
		if expr.Arg != nil {
			v.validateExpr(path+".arg", expr.Arg)
		}
	default:
		v.addProblem("%s: unknown expression type %T", path, e)
	}
}

func (v *validator) validateFilter(path string, f Filter) {
	switch filter := f.(type) {
	case nil:
		v.addProblem("%s: nil filter", path)
	case *Predicate:
		v.validateExpr(path+".left", filter.Left)
		v.validateExpr(path+".right", filter.Right)
		if !filter.Op.Valid() {
			v.addProblem("%s: invalid comparison operator %d", path, int(filter.Op))
		}
	case *And:
		v.validateFilter(path+".left", filter.Left)
		v.validateFilter(path+".right", filter.Right)
	case *Or:
		v.validateFilter(path+".left", filter.Left)
		v.validateFilter(path+".right", filter.Right)
	case *Not:
		v.validateFilter(path+".filter", filter.Filter)
	case *IsNull:
		v.validateExpr(path+".expr", filter.Expr)
	default:
		v.addProblem("%s: unknown filter type %T", path, f)
	}
}
