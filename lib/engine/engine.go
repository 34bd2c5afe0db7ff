package engine

import (
	"context"
	"fmt"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/mattn/go-sqlite3"
)

const (
	// DefaultFilename is the database file used when no path is configured.
	DefaultFilename = "adrodb.sqlite"

	// InMemory selects a non-persistent in-memory database.
	InMemory = ":memory:"
)

// --------------------------------------------------------------------------
// Interface Definitions
// --------------------------------------------------------------------------

// Conn is the handle surface borrowers operate on. It is satisfied by
// *sqlx.DB, *sqlx.Tx and *sqlx.Conn. Borrowers never close a Conn; the
// owner of the underlying handle does.
type Conn interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

// Store owns a SQLite database handle for the lifetime of the process.
type Store struct {
	db   *sqlx.DB
	log  *zap.Logger
	path string
}

// NewStore opens the SQLite database at path and verifies the connection
// with a ping. An empty path resolves to DefaultFilename, InMemory opens a
// non-persistent database. The returned store must be closed by the caller.
func NewStore(path string, log *zap.Logger) (*Store, error) {
	path = resolvePath(path)

	db, err := sqlx.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", path, err)
	}

	if path == InMemory {
		// An in-memory database lives and dies with its connection, so the
		// pool must never grow beyond the one connection holding the data.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database %q: %w", path, err)
	}

	log.Info("Opened database", zap.String("path", path))

	return &Store{
		db:   db,
		log:  log,
		path: path,
	}, nil
}

// DB returns the handle borrowers bind against.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Path returns the resolved database path.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the database is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle. Bindings borrowed from this store
// must not be used afterwards.
func (s *Store) Close() error {
	s.log.Info("Closing database", zap.String("path", s.path))
	return s.db.Close()
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

func resolvePath(path string) string {
	if path == "" {
		return DefaultFilename
	}
	return path
}

func dsn(path string) string {
	if path == InMemory {
		return InMemory
	}
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", path)
}
