package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/vecsynth/internal/ir"
	"github.com/roach88/vecsynth/internal/queryast"
)

// Translator renders AST queries as SQL text for one dialect.
//
// Constants are inlined as literals rather than bound as parameters: the
// executor takes plain text, and the rendered query doubles as the
// human-readable form of a synthesized program.
//
// A Translator holds no mutable state and is safe for concurrent use.
type Translator struct {
	dialect Dialect
}

// NewTranslator creates a Translator for the given dialect.
func NewTranslator(dialect Dialect) *Translator {
	return &Translator{dialect: dialect}
}

// Dialect returns the dialect this translator emits.
func (t *Translator) Dialect() Dialect {
	return t.dialect
}

// Translate converts a query tree to SQL.
//
// The tree is checked with queryast.Validate first; a malformed tree
// returns its *queryast.ValidationError. Well-formed With and Aggregate
// nodes return *UnsupportedKindError.
func (t *Translator) Translate(q queryast.Query) (string, error) {
	if q == nil {
		return "", fmt.Errorf("cannot translate nil query")
	}
	if err := queryast.Validate(q); err != nil {
		return "", err
	}
	c := &compiler{dialect: t.dialect}
	stmt, err := c.compileQuery(q)
	if err != nil {
		return "", err
	}
	return stmt.render(), nil
}

// selectStmt is a single SELECT under construction.
//
// Operators compose by filling clauses of the statement produced for their
// source. When the clause an operator needs is already "closed" by a later
// stage (WHERE after LIMIT, ORDER BY after LIMIT, anything after a
// projection) the source is wrapped as a derived table first, so SQL's
// fixed clause evaluation order never reorders the tree's operators.
type selectStmt struct {
	raw     string // complete compound statement (UNION); set alone
	items   string // "" renders as *
	from    string
	where   []string
	orderBy []string
	limit   *int
}

func (s *selectStmt) render() string {
	if s.raw != "" {
		return s.raw
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	if s.items == "" {
		b.WriteString("*")
	} else {
		b.WriteString(s.items)
	}
	b.WriteString(" FROM ")
	b.WriteString(s.from)
	if len(s.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(s.where, " AND "))
	}
	if len(s.orderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(s.orderBy, ", "))
	}
	if s.limit != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(*s.limit))
	}
	return b.String()
}

// compiler carries per-translation state (derived table numbering).
type compiler struct {
	dialect Dialect
	subs    int
}

// wrap turns a statement into a derived table of a fresh statement.
func (c *compiler) wrap(s *selectStmt) *selectStmt {
	c.subs++
	return &selectStmt{from: fmt.Sprintf("(%s) AS s%d", s.render(), c.subs)}
}

func (c *compiler) compileQuery(q queryast.Query) (*selectStmt, error) {
	switch query := q.(type) {
	case nil:
		return nil, fmt.Errorf("nil query")
	case *queryast.TableRef:
		return &selectStmt{from: QuoteIdent(query.Name)}, nil
	case *queryast.Select:
		return c.compileSelect(query)
	case *queryast.OrderBy:
		return c.compileOrderBy(query)
	case *queryast.Limit:
		return c.compileLimit(query)
	case *queryast.Project:
		return c.compileProject(query)
	case *queryast.Join:
		return c.compileJoin(query)
	case *queryast.Union:
		return c.compileUnion(query)
	case *queryast.With:
		return nil, &UnsupportedKindError{Kind: "With"}
	default:
		return nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *compiler) compileSelect(q *queryast.Select) (*selectStmt, error) {
	stmt, err := c.compileQuery(q.Source)
	if err != nil {
		return nil, err
	}
	cond, err := c.compileFilter(q.Filter)
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}
	if stmt.raw != "" || stmt.items != "" || len(stmt.orderBy) > 0 || stmt.limit != nil {
		stmt = c.wrap(stmt)
	}
	stmt.where = append(stmt.where, cond)
	return stmt, nil
}

// compileOrderBy prepends the new keys to any existing ordering, which is
// what a stable re-sort of an already sorted source yields.
func (c *compiler) compileOrderBy(q *queryast.OrderBy) (*selectStmt, error) {
	if len(q.Keys) == 0 {
		return nil, fmt.Errorf("order by without keys")
	}
	stmt, err := c.compileQuery(q.Source)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(q.Keys)+len(stmt.orderBy))
	for i, k := range q.Keys {
		expr, err := c.compileExpr(k.Expr)
		if err != nil {
			return nil, fmt.Errorf("compile sort key %d: %w", i, err)
		}
		keys = append(keys, expr+" "+k.Order.String())
	}
	if stmt.raw != "" || stmt.items != "" || stmt.limit != nil {
		stmt = c.wrap(stmt)
	}
	stmt.orderBy = append(keys, stmt.orderBy...)
	return stmt, nil
}

func (c *compiler) compileLimit(q *queryast.Limit) (*selectStmt, error) {
	if q.Count < 0 {
		return nil, fmt.Errorf("negative limit %d", q.Count)
	}
	stmt, err := c.compileQuery(q.Source)
	if err != nil {
		return nil, err
	}
	if stmt.raw != "" || stmt.items != "" || stmt.limit != nil {
		stmt = c.wrap(stmt)
	}
	n := q.Count
	stmt.limit = &n
	return stmt, nil
}

func (c *compiler) compileProject(q *queryast.Project) (*selectStmt, error) {
	if len(q.Items) == 0 {
		return nil, fmt.Errorf("empty projection")
	}
	stmt, err := c.compileQuery(q.Source)
	if err != nil {
		return nil, err
	}
	items := make([]string, len(q.Items))
	for i, it := range q.Items {
		expr, err := c.compileExpr(it.Expr)
		if err != nil {
			return nil, fmt.Errorf("compile projection item %d: %w", i, err)
		}
		if it.Alias != "" {
			expr += " AS " + QuoteIdent(it.Alias)
		}
		items[i] = expr
	}
	if stmt.raw != "" || stmt.items != "" {
		stmt = c.wrap(stmt)
	}
	stmt.items = strings.Join(items, ", ")
	return stmt, nil
}

func (c *compiler) compileJoin(q *queryast.Join) (*selectStmt, error) {
	left, err := c.fromItem(q.Left)
	if err != nil {
		return nil, fmt.Errorf("compile join left: %w", err)
	}
	right, err := c.fromItem(q.Right)
	if err != nil {
		return nil, fmt.Errorf("compile join right: %w", err)
	}
	if q.On == nil {
		return nil, fmt.Errorf("join without condition")
	}
	on, err := c.compileFilter(q.On)
	if err != nil {
		return nil, fmt.Errorf("compile join ON: %w", err)
	}
	return &selectStmt{from: fmt.Sprintf("%s JOIN %s ON %s", left, right, on)}, nil
}

// fromItem renders a join operand: a bare table name, or a derived table.
func (c *compiler) fromItem(q queryast.Query) (string, error) {
	if ref, ok := q.(*queryast.TableRef); ok {
		return QuoteIdent(ref.Name), nil
	}
	stmt, err := c.compileQuery(q)
	if err != nil {
		return "", err
	}
	return c.wrap(stmt).from, nil
}

// compileUnion renders each side as a derived table so the result is
// valid in both dialects (SQLite rejects parenthesized compound operands).
func (c *compiler) compileUnion(q *queryast.Union) (*selectStmt, error) {
	left, err := c.compileQuery(q.Left)
	if err != nil {
		return nil, fmt.Errorf("compile union left: %w", err)
	}
	right, err := c.compileQuery(q.Right)
	if err != nil {
		return nil, fmt.Errorf("compile union right: %w", err)
	}
	l := c.wrap(left).render()
	r := c.wrap(right).render()
	return &selectStmt{raw: l + " UNION " + r}, nil
}

func (c *compiler) compileExpr(e queryast.Expr) (string, error) {
	switch expr := e.(type) {
	case nil:
		return "", fmt.Errorf("nil expression")
	case *queryast.ColumnRef:
		return QuoteIdent(expr.Name), nil
	case *queryast.Constant:
		return literal(expr.Value)
	case *queryast.Distance:
		left, err := c.compileExpr(expr.Left)
		if err != nil {
			return "", err
		}
		right, err := c.compileExpr(expr.Right)
		if err != nil {
			return "", err
		}
		return c.dialect.distance(expr.Op, left, right)
	case *queryast.Cast:
		inner, err := c.compileExpr(expr.Expr)
		if err != nil {
			return "", err
		}
		typ := c.dialect.ColumnType(expr.Type, 0)
		if typ == "" {
			return "", fmt.Errorf("cannot cast to %s", expr.Type)
		}
		return fmt.Sprintf("CAST(%s AS %s)", inner, typ), nil
	case *queryast.Aggregate:
		return "", &UnsupportedKindError{Kind: "Aggregate"}
	default:
		return "", fmt.Errorf("unsupported expression type: %T", e)
	}
}

func (c *compiler) compileFilter(f queryast.Filter) (string, error) {
	switch filter := f.(type) {
	case nil:
		return "", fmt.Errorf("nil filter")
	case *queryast.Predicate:
		left, err := c.compileExpr(filter.Left)
		if err != nil {
			return "", err
		}
		right, err := c.compileExpr(filter.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", left, filter.Op.Symbol(), right), nil
	case *queryast.And:
		return c.compileBinaryFilter("AND", filter.Left, filter.Right)
	case *queryast.Or:
		return c.compileBinaryFilter("OR", filter.Left, filter.Right)
	case *queryast.Not:
		inner, err := c.compileFilter(filter.Filter)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case *queryast.IsNull:
		inner, err := c.compileExpr(filter.Expr)
		if err != nil {
			return "", err
		}
		if filter.Negated {
			return inner + " IS NOT NULL", nil
		}
		return inner + " IS NULL", nil
	default:
		return "", fmt.Errorf("unsupported filter type: %T", f)
	}
}

func (c *compiler) compileBinaryFilter(op string, l, r queryast.Filter) (string, error) {
	left, err := c.compileFilter(l)
	if err != nil {
		return "", err
	}
	right, err := c.compileFilter(r)
	if err != nil {
		return "", err
	}
	return "(" + left + " " + op + " " + right + ")", nil
}

// literal renders a cell value as an SQL literal.
// Text is single-quoted with embedded quotes doubled; vectors use the
// quoted pgvector form, which both dialects accept (pgvector casts it, the
// SQLite distance functions parse it).
func literal(v ir.Value) (string, error) {
	switch val := v.(type) {
	case nil, ir.Null:
		return "NULL", nil
	case ir.Int:
		return strconv.FormatInt(int64(val), 10), nil
	case ir.Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64), nil
	case ir.Text:
		return "'" + strings.ReplaceAll(string(val), "'", "''") + "'", nil
	case ir.Bool:
		if val {
			return "TRUE", nil
		}
		return "FALSE", nil
	case ir.Vector:
		return "'" + val.String() + "'", nil
	default:
		return "", fmt.Errorf("unsupported literal type: %T", v)
	}
}
