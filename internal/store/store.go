package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"

	"github.com/roach88/vecsynth/internal/ir"
	"github.com/roach88/vecsynth/internal/queryast"
	"github.com/roach88/vecsynth/internal/querysql"
)

// sqliteDriverName is the database/sql driver name under which the
// SQLite driver with vector functions is registered.
const sqliteDriverName = "sqlite3_vec"

var registerOnce sync.Once

// registerSQLiteDriver registers the SQLite driver exactly once per
// process. sql.Register panics on duplicate names.
func registerSQLiteDriver() {
	registerOnce.Do(func() {
		sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: registerDistanceFunctions,
		})
	})
}

// registerDistanceFunctions installs one deterministic SQL function per
// distance operator on a fresh connection.
func registerDistanceFunctions(conn *sqlite3.SQLiteConn) error {
	for _, op := range queryast.DistanceOps {
		name, ok := querysql.DistanceFunctions[op]
		if !ok {
			return fmt.Errorf("no function name for distance operator %s", op)
		}
		if err := conn.RegisterFunc(name, distanceFunc(op), true); err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
	}
	return nil
}

// distanceFunc adapts Distance to a SQLite scalar function. Operands
// arrive as TEXT (or BLOB) vector literals; NULL operands and undefined
// distances yield NULL.
func distanceFunc(op queryast.DistanceOp) func(a, b any) (any, error) {
	return func(a, b any) (any, error) {
		va, ok, err := sqlVector(a)
		if err != nil || !ok {
			return nil, err
		}
		vb, ok, err := sqlVector(b)
		if err != nil || !ok {
			return nil, err
		}
		d, defined, err := Distance(op, va, vb)
		if err != nil || !defined {
			return nil, err
		}
		return d, nil
	}
}

// sqlVector decodes a SQLite function argument. ok is false for NULL.
func sqlVector(v any) (ir.Vector, bool, error) {
	switch val := v.(type) {
	case nil:
		return ir.Vector{}, false, nil
	case []byte:
		if val == nil {
			return ir.Vector{}, false, nil
		}
		vec, err := ir.ParseVector(string(val))
		return vec, err == nil, err
	case string:
		vec, err := ir.ParseVector(val)
		return vec, err == nil, err
	default:
		return ir.Vector{}, false, fmt.Errorf("distance operand is %T, want a vector literal", v)
	}
}

// Store is the backing relational store for example tables.
type Store struct {
	db      *sql.DB
	dialect querysql.Dialect

	mu    sync.RWMutex
	hints map[string]ir.Type // column name -> type declared by Load
}

// New wraps an existing database handle. The caller keeps ownership of
// any driver registration; Close closes db.
func New(db *sql.DB, dialect querysql.Dialect) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		hints:   make(map[string]ir.Type),
	}
}

// Open creates or opens a SQLite database at the given path.
// ":memory:" opens a private in-memory database.
//
// The database is configured with:
//   - A single connection (required for in-memory databases)
//   - WAL mode for file databases
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
func Open(path string) (*Store, error) {
	registerSQLiteDriver()

	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database exists per connection, so there must be
	// exactly one and it must never be recycled.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return New(db, querysql.SQLite), nil
}

// OpenPostgres connects to a PostgreSQL server with the pgvector
// extension available. dsn is a libpq connection string or URL.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	db, err := sql.Open("pgx", stdlib.RegisterConnConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return New(db, querysql.Postgres), nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL dialect this store executes.
func (s *Store) Dialect() querysql.Dialect {
	return s.dialect
}

// applyPragmas sets SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// hint returns the type Load declared for a column name.
func (s *Store) hint(name string) (ir.Type, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.hints[name]
	return t, ok
}

func (s *Store) recordHints(t *ir.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range t.Columns() {
		s.hints[c.Name] = c.Type
	}
}
