package ir

import (
	"fmt"
	"strings"
)

// Type is the declared type of a table column.
type Type string

const (
	TypeInteger Type = "integer"
	TypeText    Type = "text"
	TypeVector  Type = "vector"
	TypeFloat   Type = "float"
	TypeBoolean Type = "boolean"
	TypeUnknown Type = "unknown"
)

// ValidTypes lists every declared column type.
var ValidTypes = []Type{TypeInteger, TypeText, TypeVector, TypeFloat, TypeBoolean, TypeUnknown}

// ParseType maps a SQL or example-file type name to a Type.
// Matching is case-insensitive; a parenthesized suffix such as
// "vector(3)" or "varchar(255)" is ignored. Unrecognized names map to
// TypeUnknown rather than failing, since drivers report exotic names.
func ParseType(name string) Type {
	n := strings.ToLower(strings.TrimSpace(name))
	if i := strings.IndexByte(n, '('); i >= 0 {
		n = strings.TrimSpace(n[:i])
	}

	switch n {
	case "integer", "int", "int2", "int4", "int8", "bigint", "smallint", "long", "serial", "bigserial":
		return TypeInteger
	case "text", "varchar", "char", "character", "character varying", "string", "clob", "name":
		return TypeText
	case "vector", "halfvec", "embedding":
		return TypeVector
	case "float", "float4", "float8", "real", "double", "double precision", "numeric", "decimal":
		return TypeFloat
	case "boolean", "bool":
		return TypeBoolean
	default:
		return TypeUnknown
	}
}

// Column is a named, typed table column.
type Column struct {
	Name string `json:"name" yaml:"name"`
	Type Type   `json:"type" yaml:"type"`
}

// Row is an ordered sequence of cells, one per column.
type Row []Value

// Table is an example or result relation.
//
// Tables are created once per example or once per executed query and are
// immutable thereafter. Use NewTable to construct one; the zero value is an
// empty, unnamed table with no columns.
type Table struct {
	name    string
	columns []Column
	rows    []Row
}

// NewTable validates and builds a table.
//
// Returns an error if any row's length differs from the column count, or
// if a non-null cell under a vector column is not a Vector. Columns and
// rows are copied so later mutation of the arguments has no effect.
func NewTable(name string, columns []Column, rows []Row) (*Table, error) {
	cols := make([]Column, len(columns))
	copy(cols, columns)

	copied := make([]Row, len(rows))
	for i, row := range rows {
		if len(row) != len(cols) {
			return nil, fmt.Errorf("table %q row %d: has %d cells, want %d", name, i, len(row), len(cols))
		}
		r := make(Row, len(row))
		for j, cell := range row {
			if cell == nil {
				cell = Null{}
			}
			if cols[j].Type == TypeVector && !IsNull(cell) {
				if _, ok := cell.(Vector); !ok {
					return nil, fmt.Errorf("table %q row %d column %q: vector column holds %T", name, i, cols[j].Name, cell)
				}
			}
			r[j] = cell
		}
		copied[i] = r
	}

	return &Table{name: name, columns: cols, rows: copied}, nil
}

// MustNewTable is like NewTable but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustNewTable(name string, columns []Column, rows []Row) *Table {
	t, err := NewTable(name, columns, rows)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Columns returns a copy of the schema in declaration order.
func (t *Table) Columns() []Column {
	cols := make([]Column, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// ColumnNames returns the column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Rows returns a copy of the rows. Cells are values, so the copy is deep.
func (t *Table) Rows() []Row {
	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		rows[i] = append(Row(nil), r...)
	}
	return rows
}

// Row returns a copy of the i-th row.
func (t *Table) Row(i int) Row {
	return append(Row(nil), t.rows[i]...)
}

// Cell returns the cell at row i, column j without copying the row.
func (t *Table) Cell(i, j int) Value {
	return t.rows[i][j]
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int {
	return len(t.columns)
}

// String renders the table as tab-separated text with a header line.
func (t *Table) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(t.ColumnNames(), "\t|\t"))
	b.WriteByte('\n')
	if len(t.rows) == 0 {
		b.WriteString("(No rows)\n")
		return b.String()
	}
	b.WriteString(strings.Repeat("-", len(t.columns)*10))
	b.WriteByte('\n')
	for _, row := range t.rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = FormatValue(cell)
		}
		b.WriteString(strings.Join(cells, "\t|\t"))
		b.WriteByte('\n')
	}
	return b.String()
}
