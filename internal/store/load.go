package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/vecsynth/internal/ir"
	"github.com/roach88/vecsynth/internal/querysql"
)

// Load creates each table in the store, replacing any existing table of
// the same name, and inserts its rows in order. All tables are loaded in
// one transaction.
//
// On PostgreSQL the pgvector extension is created first if missing.
func (s *Store) Load(ctx context.Context, tables ...*ir.Table) error {
	if s.dialect == querysql.Postgres {
		if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
			return fmt.Errorf("load: create extension: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("load: begin: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	for _, t := range tables {
		if t == nil {
			return fmt.Errorf("load: nil table")
		}
		if err := s.loadTable(ctx, tx, t); err != nil {
			return fmt.Errorf("load table %q: %w", t.Name(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("load: commit: %w", err)
	}

	for _, t := range tables {
		s.recordHints(t)
	}
	return nil
}

func (s *Store) loadTable(ctx context.Context, tx *sql.Tx, t *ir.Table) error {
	if t.Name() == "" {
		return fmt.Errorf("table has no name")
	}
	if t.ColumnCount() == 0 {
		return fmt.Errorf("table has no columns")
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+querysql.QuoteIdent(t.Name())); err != nil {
		return fmt.Errorf("drop: %w", err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(s.dialect, t)); err != nil {
		return fmt.Errorf("create: %w", err)
	}

	insert := insertSQL(s.dialect, t)
	for i, row := range t.Rows() {
		args := make([]any, len(row))
		for j, cell := range row {
			args[j] = driverValue(cell)
		}
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return nil
}

// createTableSQL renders the DDL for a table.
func createTableSQL(d querysql.Dialect, t *ir.Table) string {
	cols := t.Columns()
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = strings.TrimSpace(querysql.QuoteIdent(c.Name) + " " + d.ColumnType(c.Type, vectorDim(t, i)))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", querysql.QuoteIdent(t.Name()), strings.Join(defs, ", "))
}

// insertSQL renders a single-row INSERT with dialect placeholders.
func insertSQL(d querysql.Dialect, t *ir.Table) string {
	n := t.ColumnCount()
	marks := make([]string, n)
	for i := range marks {
		if d == querysql.Postgres {
			marks[i] = fmt.Sprintf("$%d", i+1)
		} else {
			marks[i] = "?"
		}
	}
	names := t.ColumnNames()
	for i, name := range names {
		names[i] = querysql.QuoteIdent(name)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		querysql.QuoteIdent(t.Name()), strings.Join(names, ", "), strings.Join(marks, ", "))
}

// vectorDim returns the dimension of the first non-null vector in column
// j, or 0 if the column holds none.
func vectorDim(t *ir.Table, j int) int {
	for i := 0; i < t.RowCount(); i++ {
		if v, ok := t.Cell(i, j).(ir.Vector); ok {
			return v.Dim()
		}
	}
	return 0
}

// driverValue converts a cell to a database/sql argument.
// Vectors travel as pgvector literals.
func driverValue(v ir.Value) any {
	switch val := v.(type) {
	case nil, ir.Null:
		return nil
	case ir.Int:
		return int64(val)
	case ir.Float:
		return float64(val)
	case ir.Text:
		return string(val)
	case ir.Bool:
		return bool(val)
	case ir.Vector:
		return val.String()
	default:
		return ir.FormatValue(v)
	}
}
