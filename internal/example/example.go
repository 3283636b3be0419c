// Package example loads programming-by-example problems from YAML or CUE
// files and converts them into ir tables.
//
// An example file names one or more input tables, the target output table,
// optional query vectors, and optional expectations used by the harness:
//
//	name: nearest-item
//	inputs:
//	  - name: items
//	    columns:
//	      - {name: id, type: integer}
//	      - {name: embedding, type: vector}
//	    rows:
//	      - [1, [0.1, 0.2, 0.9]]
//	target:
//	  columns: [...]
//	  rows: [...]
//	query_vectors:
//	  - [0.1, 0.2, 0.9]
package example

import (
	"fmt"

	"github.com/roach88/vecsynth/internal/ir"
)

// Example is one synthesis problem.
type Example struct {
	// Name uniquely identifies this example.
	Name string `yaml:"name" json:"name"`

	// Description explains what query the example is meant to find.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Inputs are the example input tables. The first is the primary table
	// that feeds leaf extraction.
	Inputs []TableSpec `yaml:"inputs" json:"inputs"`

	// Target is the expected output table.
	Target TableSpec `yaml:"target" json:"target"`

	// QueryVectors are auxiliary vectors offered to the search as constants.
	QueryVectors [][]float64 `yaml:"query_vectors,omitempty" json:"query_vectors,omitempty"`

	// Expect holds optional assertions checked by the harness.
	Expect *Expectation `yaml:"expect,omitempty" json:"expect,omitempty"`

	// RunID is an optional fixed run ID for deterministic reports.
	// If empty, the harness uses "test-run-default".
	RunID string `yaml:"run_id,omitempty" json:"run_id,omitempty"`
}

// TableSpec is a table as written in an example file.
type TableSpec struct {
	// Name is required for inputs; the target defaults to "target".
	Name    string      `yaml:"name,omitempty" json:"name,omitempty"`
	Columns []ir.Column `yaml:"columns" json:"columns"`
	Rows    [][]any     `yaml:"rows" json:"rows"`
}

// Expectation describes the solutions an example should produce when run
// against the SQLite store.
type Expectation struct {
	// Depth is the depth the first solution must be found at.
	Depth int `yaml:"depth,omitempty" json:"depth,omitempty"`

	// First is the SQL text of the first solution.
	First string `yaml:"first,omitempty" json:"first,omitempty"`

	// Contains lists SQL texts that must all be among the solutions.
	Contains []string `yaml:"contains,omitempty" json:"contains,omitempty"`

	// NoSolution asserts that the search finds nothing.
	NoSolution bool `yaml:"no_solution,omitempty" json:"no_solution,omitempty"`
}

// DefaultTargetName names the target table when the file gives none.
const DefaultTargetName = "target"

// Validate checks required fields and that every table converts cleanly.
// It returns the first problem as a *LoadError.
func (e *Example) Validate() error {
	if e.Name == "" {
		return loadErrorf(ErrCodeMissingField, "name is required")
	}
	if len(e.Inputs) == 0 {
		return loadErrorf(ErrCodeMissingField, "inputs list is required and must be non-empty")
	}
	for i, in := range e.Inputs {
		if in.Name == "" {
			return loadErrorf(ErrCodeMissingField, "inputs[%d]: name is required", i)
		}
	}
	if len(e.Target.Columns) == 0 {
		return loadErrorf(ErrCodeMissingField, "target: columns are required")
	}
	for i, v := range e.QueryVectors {
		if len(v) == 0 {
			return loadErrorf(ErrCodeMissingField, "query_vectors[%d]: vector is empty", i)
		}
	}

	if _, err := e.InputTables(); err != nil {
		return err
	}
	if _, err := e.TargetTable(); err != nil {
		return err
	}
	return nil
}

// InputTables converts the inputs to ir tables, in file order.
func (e *Example) InputTables() ([]*ir.Table, error) {
	tables := make([]*ir.Table, len(e.Inputs))
	for i, spec := range e.Inputs {
		t, err := spec.Table(spec.Name)
		if err != nil {
			return nil, prefix(err, fmt.Sprintf("inputs[%d]", i))
		}
		tables[i] = t
	}
	return tables, nil
}

// TargetTable converts the target to an ir table.
func (e *Example) TargetTable() (*ir.Table, error) {
	name := e.Target.Name
	if name == "" {
		name = DefaultTargetName
	}
	t, err := e.Target.Table(name)
	if err != nil {
		return nil, prefix(err, "target")
	}
	return t, nil
}

// Vectors converts the query vectors to ir vectors.
func (e *Example) Vectors() []ir.Vector {
	out := make([]ir.Vector, len(e.QueryVectors))
	for i, v := range e.QueryVectors {
		data := make([]float32, len(v))
		for j, f := range v {
			data[j] = float32(f)
		}
		out[i] = ir.NewVector(data)
	}
	return out
}

// Table converts the spec to an ir table named name.
//
// Column types accept the usual SQL spellings ("int", "varchar", ...);
// a spelling ParseType does not recognize is an error rather than
// silently becoming "unknown".
func (s TableSpec) Table(name string) (*ir.Table, error) {
	columns := make([]ir.Column, len(s.Columns))
	for i, c := range s.Columns {
		if c.Name == "" {
			return nil, loadErrorf(ErrCodeMissingField, "columns[%d]: name is required", i)
		}
		typ := ir.ParseType(string(c.Type))
		if typ == ir.TypeUnknown && c.Type != "" && c.Type != ir.TypeUnknown {
			return nil, loadErrorf(ErrCodeInvalidType, "column %q: unknown type %q", c.Name, c.Type)
		}
		columns[i] = ir.Column{Name: c.Name, Type: typ}
	}

	rows := make([]ir.Row, len(s.Rows))
	for i, raw := range s.Rows {
		if len(raw) != len(columns) {
			return nil, loadErrorf(ErrCodeRaggedRow, "rows[%d]: has %d cells, want %d", i, len(raw), len(columns))
		}
		row := make(ir.Row, len(raw))
		for j, cell := range raw {
			v, err := ir.FromNative(cell, columns[j].Type)
			if err != nil {
				return nil, loadErrorf(ErrCodeInvalidCell, "rows[%d] column %q: %v", i, columns[j].Name, err)
			}
			row[j] = v
		}
		rows[i] = row
	}

	t, err := ir.NewTable(name, columns, rows)
	if err != nil {
		return nil, loadErrorf(ErrCodeInvalidCell, "%v", err)
	}
	return t, nil
}

// prefix adds a location to a LoadError message, keeping its code.
func prefix(err error, where string) error {
	if le, ok := err.(*LoadError); ok {
		return &LoadError{Code: le.Code, Message: where + ": " + le.Message, File: le.File, Pos: le.Pos}
	}
	return fmt.Errorf("%s: %w", where, err)
}
