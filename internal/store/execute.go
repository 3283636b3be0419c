package store

import (
	"context"
	"fmt"

	"github.com/roach88/vecsynth/internal/ir"
)

// Execute runs a query and materializes its result as a table.
//
// Any failure (syntax, unknown column, driver error, or a cell that
// cannot be converted to its column's type) is returned as an
// *ExecutionError.
func (s *Store) Execute(ctx context.Context, query string) (*ir.Table, error) {
	table, err := s.execute(ctx, query)
	if err != nil {
		return nil, &ExecutionError{Query: query, Err: err}
	}
	return table, nil
}

func (s *Store) execute(ctx context.Context, query string) (*ir.Table, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}

	columns := make([]ir.Column, len(colTypes))
	for i, ct := range colTypes {
		columns[i] = ir.Column{Name: ct.Name(), Type: s.columnType(ct.Name(), ct.DatabaseTypeName())}
	}

	var result []ir.Row
	for rows.Next() {
		raw := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(result), err)
		}

		row := make(ir.Row, len(columns))
		for i, v := range raw {
			cell, err := ir.FromNative(v, columns[i].Type)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", len(result), columns[i].Name, err)
			}
			row[i] = cell
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return ir.NewTable("", columns, result)
}

// columnType resolves a result column's type from the driver's type name,
// falling back to the type Load recorded for that column name. A column
// Load declared unknown stays unknown whatever the driver reports.
func (s *Store) columnType(name, dbType string) ir.Type {
	hint, hinted := s.hint(name)
	if hinted && hint == ir.TypeUnknown {
		return ir.TypeUnknown
	}
	if t := ir.ParseType(dbType); t != ir.TypeUnknown {
		return t
	}
	if hinted {
		return hint
	}
	return ir.TypeUnknown
}
