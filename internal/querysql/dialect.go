package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/vecsynth/internal/ir"
	"github.com/roach88/vecsynth/internal/queryast"
)

// Dialect selects the SQL flavor the translator emits.
type Dialect string

const (
	// Postgres emits pgvector operators (embedding <-> '[...]').
	Postgres Dialect = "postgres"

	// SQLite emits calls to the distance functions the store registers on
	// every connection (vec_l2(embedding, '[...]')).
	SQLite Dialect = "sqlite"
)

// ValidDialects lists the supported dialects.
var ValidDialects = []Dialect{Postgres, SQLite}

// ParseDialect maps a configuration string to a Dialect.
// "postgresql" and "pgx" are accepted as aliases of postgres, "sqlite3"
// as an alias of sqlite.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unknown dialect %q (valid: postgres, sqlite)", name)
	}
}

// DistanceFunctions maps each distance operator to the SQLite function
// name that implements it. The store registers exactly these names.
var DistanceFunctions = map[queryast.DistanceOp]string{
	queryast.L2:                   "vec_l2",
	queryast.Cosine:               "vec_cosine",
	queryast.NegativeInnerProduct: "vec_negative_inner_product",
	queryast.L1:                   "vec_l1",
	queryast.Hamming:              "vec_hamming",
	queryast.Jaccard:              "vec_jaccard",
}

// distance renders a distance between two already-rendered operands.
func (d Dialect) distance(op queryast.DistanceOp, left, right string) (string, error) {
	switch d {
	case Postgres:
		return fmt.Sprintf("%s %s %s", left, op.Symbol(), right), nil
	case SQLite:
		fn, ok := DistanceFunctions[op]
		if !ok {
			return "", fmt.Errorf("no sqlite function for distance operator %s", op)
		}
		return fmt.Sprintf("%s(%s, %s)", fn, left, right), nil
	default:
		return "", fmt.Errorf("unknown dialect %q", string(d))
	}
}

// ColumnType returns the DDL type name for a declared column type.
// dim is the vector dimension; Postgres needs it for vector(n), SQLite
// ignores it. A dim of 0 renders an unconstrained vector.
//
// On SQLite an unknown type renders as "" so the column has no affinity
// and every cell keeps the storage class it was inserted with. Postgres
// has no untyped column and falls back to TEXT.
func (d Dialect) ColumnType(t ir.Type, dim int) string {
	if d == Postgres {
		switch t {
		case ir.TypeInteger:
			return "BIGINT"
		case ir.TypeFloat:
			return "DOUBLE PRECISION"
		case ir.TypeBoolean:
			return "BOOLEAN"
		case ir.TypeVector:
			if dim > 0 {
				return fmt.Sprintf("vector(%d)", dim)
			}
			return "vector"
		default:
			return "TEXT"
		}
	}

	switch t {
	case ir.TypeInteger:
		return "INTEGER"
	case ir.TypeFloat:
		return "REAL"
	case ir.TypeBoolean:
		return "BOOLEAN"
	case ir.TypeVector:
		return "VECTOR"
	case ir.TypeUnknown:
		return ""
	default:
		return "TEXT"
	}
}
