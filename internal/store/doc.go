// Package store owns the backing relational store that candidate queries
// run against.
//
// A Store is an explicitly opened handle (Open, OpenPostgres, or New) that
// the caller closes. It plays two roles:
//
//   - Population: Load creates each example table (dropping any existing
//     one of the same name) and inserts its rows.
//   - Execution: Execute runs translated SQL text and returns the result
//     as an *ir.Table, or an *ExecutionError.
//
// # Backends
//
// SQLite (github.com/mattn/go-sqlite3) is the default. Connections are
// opened through a driver registered once per process whose connect hook
// installs the vector distance functions the SQLite dialect emits
// (vec_l2, vec_cosine, vec_negative_inner_product, vec_l1, vec_hamming,
// vec_jaccard). Vectors are stored as TEXT in pgvector literal form under
// the declared type VECTOR.
//
// PostgreSQL with the pgvector extension is reached through
// github.com/jackc/pgx/v5/stdlib.
//
// # Result Typing
//
// Execute derives each result column's ir.Type from the driver's type
// name. When the driver reports a name ir.ParseType does not recognize
// (pgvector's vector has no pgx type, and SQLite reports nothing for
// computed columns) the type recorded by Load for a column of the same
// name is used, and failing that the cell's Go type decides.
//
// # Database Configuration
//
//   - Single connection (an in-memory SQLite database lives in exactly one)
//   - WAL mode, synchronous=NORMAL, busy_timeout=5000 for file databases
package store
