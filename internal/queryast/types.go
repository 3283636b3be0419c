package queryast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/vecsynth/internal/ir"
)

// Node is any AST node. It is satisfied by every Query, Expr, and Filter.
type Node interface {
	fmt.Stringer
	astNode() // Marker method - seals interface to this package
}

// Query represents a relation-producing node.
//
// This is a sealed interface - only types in this package implement it.
// Query types:
//   - TableRef: a base table
//   - Select: rows of a source satisfying a filter
//   - OrderBy: a source sorted by one or more keys
//   - Limit: the first N rows of a source
//   - Project: selected expressions of a source
//   - Join: inner join of two sources
//   - Union: set union of two sources
//   - With: a named common table expression
type Query interface {
	Node
	queryNode() // Marker method - seals interface to this package
}

// Expr represents a scalar or vector valued expression.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	Node
	exprNode() // Marker method - seals interface to this package
}

// Filter represents a boolean condition over the rows of a source.
//
// This is a sealed interface - only types in this package implement it.
type Filter interface {
	Node
	filterNode() // Marker method - seals interface to this package
}

// TableRef names a base table in the backing store.
//
// Semantics:
//
//	SELECT * FROM <name>
type TableRef struct {
	Name string
}

func (*TableRef) astNode()   {}
func (*TableRef) queryNode() {}

func (t *TableRef) String() string {
	return t.Name
}

// Select keeps the rows of Source for which Filter holds.
//
// Semantics:
//
//	SELECT * FROM <source> WHERE <filter>
type Select struct {
	Source Query
	Filter Filter
}

func (*Select) astNode()   {}
func (*Select) queryNode() {}

func (s *Select) String() string {
	return fmt.Sprintf("Select(%s, %s)", s.Source, s.Filter)
}

// SortKey is one ORDER BY key.
type SortKey struct {
	Expr  Expr
	Order SortOrder
}

func (k SortKey) String() string {
	return fmt.Sprintf("%s %s", k.Expr, k.Order)
}

// OrderBy sorts Source by Keys, the first key most significant.
//
// The enumerator only produces single-key OrderBy nodes; the multi-key
// form is the canonical shape so translated or hand-built queries can
// carry compound orderings.
//
// Semantics:
//
//	SELECT * FROM <source> ORDER BY <key1>, <key2>, ...
type OrderBy struct {
	Source Query
	Keys   []SortKey
}

func (*OrderBy) astNode()   {}
func (*OrderBy) queryNode() {}

func (o *OrderBy) String() string {
	keys := make([]string, len(o.Keys))
	for i, k := range o.Keys {
		keys[i] = k.String()
	}
	return fmt.Sprintf("OrderBy(%s, [%s])", o.Source, strings.Join(keys, ", "))
}

// Limit keeps the first Count rows of Source.
//
// Semantics:
//
//	SELECT * FROM <source> LIMIT <count>
type Limit struct {
	Source Query
	Count  int
}

func (*Limit) astNode()   {}
func (*Limit) queryNode() {}

func (l *Limit) String() string {
	return fmt.Sprintf("Limit(%s, %d)", l.Source, l.Count)
}

// AliasedExpr is a projection item. An empty Alias means the expression
// keeps its natural column name.
type AliasedExpr struct {
	Expr  Expr
	Alias string
}

func (a AliasedExpr) String() string {
	if a.Alias == "" {
		return fmt.Sprint(a.Expr)
	}
	return fmt.Sprintf("%s AS %s", a.Expr, a.Alias)
}

// Project evaluates Items over each row of Source.
//
// Semantics:
//
//	SELECT <item1>, <item2>, ... FROM <source>
//
// The synthesizer wraps every candidate body in a Project over all
// columns of the primary input table so result schemas are comparable.
type Project struct {
	Source Query
	Items  []AliasedExpr
}

func (*Project) astNode()   {}
func (*Project) queryNode() {}

func (p *Project) String() string {
	items := make([]string, len(p.Items))
	for i, it := range p.Items {
		items[i] = it.String()
	}
	return fmt.Sprintf("Project(%s, [%s])", p.Source, strings.Join(items, ", "))
}

// Join is an inner join of Left and Right on a required condition.
type Join struct {
	Left  Query
	Right Query
	On    Filter
}

func (*Join) astNode()   {}
func (*Join) queryNode() {}

func (j *Join) String() string {
	return fmt.Sprintf("Join(%s, %s, %s)", j.Left, j.Right, j.On)
}

// Union is the set union of two sources with identical schemas.
type Union struct {
	Left  Query
	Right Query
}

func (*Union) astNode()   {}
func (*Union) queryNode() {}

func (u *Union) String() string {
	return fmt.Sprintf("Union(%s, %s)", u.Left, u.Right)
}

// With binds Definition to Name for the scope of Body.
//
// Semantics:
//
//	WITH <name> AS (<definition>) <body>
type With struct {
	Name       string
	Definition Query
	Body       Query
}

func (*With) astNode()   {}
func (*With) queryNode() {}

func (w *With) String() string {
	return fmt.Sprintf("With(%s = %s, %s)", w.Name, w.Definition, w.Body)
}

// ColumnRef references a column of the enclosing source by name.
type ColumnRef struct {
	Name string
}

func (*ColumnRef) astNode()  {}
func (*ColumnRef) exprNode() {}

func (c *ColumnRef) String() string {
	return c.Name
}

// Constant is a literal cell value. Vector constants are query vectors.
type Constant struct {
	Value ir.Value
}

func (*Constant) astNode()  {}
func (*Constant) exprNode() {}

func (c *Constant) String() string {
	switch v := c.Value.(type) {
	case ir.Text:
		return strconv.Quote(string(v))
	case ir.Vector:
		return "'" + v.String() + "'"
	default:
		return ir.FormatValue(v)
	}
}

// Distance computes a vector distance between two vector expressions.
//
// Semantics:
//
//	<left> <op> <right>
//
// Both operands must be vector valued; the enumerator guarantees this.
type Distance struct {
	Left  Expr
	Op    DistanceOp
	Right Expr
}

func (*Distance) astNode()  {}
func (*Distance) exprNode() {}

func (d *Distance) String() string {
	return fmt.Sprintf("(%s %s %s)", d.Left, d.Op.Symbol(), d.Right)
}

// Cast converts Expr to a declared column type.
type Cast struct {
	Expr Expr
	Type ir.Type
}

func (*Cast) astNode()  {}
func (*Cast) exprNode() {}

func (c *Cast) String() string {
	return fmt.Sprintf("CAST(%s AS %s)", c.Expr, c.Type)
}

// Aggregate applies an aggregate function to Arg. A nil Arg under COUNT
// means COUNT(*).
type Aggregate struct {
	Func AggregateFunc
	Arg  Expr
}

func (*Aggregate) astNode()  {}
func (*Aggregate) exprNode() {}

func (a *Aggregate) String() string {
	if a.Arg == nil {
		return fmt.Sprintf("%s(*)", a.Func)
	}
	return fmt.Sprintf("%s(%s)", a.Func, a.Arg)
}

// Predicate compares two expressions.
type Predicate struct {
	Left  Expr
	Op    CompareOp
	Right Expr
}

func (*Predicate) astNode()    {}
func (*Predicate) filterNode() {}

func (p *Predicate) String() string {
	return fmt.Sprintf("(%s %s %s)", p.Left, p.Op.Symbol(), p.Right)
}

// And holds when both operands hold.
type And struct {
	Left  Filter
	Right Filter
}

func (*And) astNode()    {}
func (*And) filterNode() {}

func (a *And) String() string {
	return fmt.Sprintf("(%s AND %s)", a.Left, a.Right)
}

// Or holds when either operand holds.
type Or struct {
	Left  Filter
	Right Filter
}

func (*Or) astNode()    {}
func (*Or) filterNode() {}

func (o *Or) String() string {
	return fmt.Sprintf("(%s OR %s)", o.Left, o.Right)
}

// Not negates its operand.
type Not struct {
	Filter Filter
}

func (*Not) astNode()    {}
func (*Not) filterNode() {}

func (n *Not) String() string {
	return fmt.Sprintf("NOT %s", n.Filter)
}

// IsNull tests Expr for NULL; Negated selects IS NOT NULL.
type IsNull struct {
	Expr    Expr
	Negated bool
}

func (*IsNull) astNode()    {}
func (*IsNull) filterNode() {}

func (n *IsNull) String() string {
	if n.Negated {
		return fmt.Sprintf("%s IS NOT NULL", n.Expr)
	}
	return fmt.Sprintf("%s IS NULL", n.Expr)
}

// Columns builds one ColumnRef projection item per name, in order.
func Columns(names ...string) []AliasedExpr {
	items := make([]AliasedExpr, len(names))
	for i, n := range names {
		items[i] = AliasedExpr{Expr: &ColumnRef{Name: n}}
	}
	return items
}
