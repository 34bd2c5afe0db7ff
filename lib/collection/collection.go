package collection

import (
	"context"
	"fmt"
	"github.com/adrodb/adrodb/lib/engine"
	"regexp"
	"strings"
)

// Physical column names, fixed for every collection.
const (
	colKey   = "k"
	colValue = "v"
)

// Collection names are spliced verbatim into generated statements, so they
// are restricted to a plain identifier grammar at construction time.
const maxNameLength = 64

var nameRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// --------------------------------------------------------------------------
// Collection Descriptor
// --------------------------------------------------------------------------

// Collection names a logical key-value collection. It carries identity only:
// no connection, no state, never mutated. The physical table it describes has
// a text primary-key column and an untyped value column, created on demand
// via Materialize.
type Collection struct {
	name string
}

// New constructs a descriptor for the given collection name. No I/O is
// performed. The name must be a plain identifier (letter or underscore
// followed by letters, digits or underscores, at most 64 characters) and must
// not use the engine-reserved "sqlite_" prefix; anything else fails with
// CodeSchemaError.
func New(name string) (Collection, error) {
	if err := validateName(name); err != nil {
		return Collection{}, err
	}
	return Collection{name: name}, nil
}

// Name returns the collection name.
func (c Collection) Name() string {
	return c.name
}

// Materialize creates the collection's physical table if it does not already
// exist and returns a Binding over conn. It is idempotent: calling it
// repeatedly succeeds and never touches existing rows. The statement failing
// surfaces as CodeSchemaError with the engine error wrapped.
//
// The returned Binding borrows conn; the caller keeps ownership and must keep
// the connection open for as long as the Binding is used.
func (c Collection) Materialize(ctx context.Context, conn engine.Conn) (*Binding, error) {
	if c.name == "" {
		return nil, &Error{
			Code: CodeSchemaError,
			Op:   "materialize",
			Msg:  "collection was not constructed via New",
		}
	}

	stmt := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s TEXT PRIMARY KEY UNIQUE NOT NULL, %s)",
		c.name, colKey, colValue,
	)

	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		return nil, &Error{
			Code:       CodeSchemaError,
			Collection: c.name,
			Op:         "materialize",
			Msg:        "schema creation rejected",
			Err:        err,
		}
	}

	return c.BindExisting(conn), nil
}

// BindExisting returns a Binding over conn without issuing any schema
// statement. The caller asserts the physical table already exists; if it does
// not, every operation on the Binding fails at call time with
// CodeNotInitialized.
func (c Collection) BindExisting(conn engine.Conn) *Binding {
	return &Binding{collection: c, conn: conn}
}

// --------------------------------------------------------------------------
// Name Validation
// --------------------------------------------------------------------------

func validateName(name string) error {
	switch {
	case name == "":
		return schemaErr(name, "collection name must not be empty")
	case len(name) > maxNameLength:
		return schemaErr(name, fmt.Sprintf("collection name exceeds %d characters", maxNameLength))
	case !nameRegexp.MatchString(name):
		return schemaErr(name, "collection name must start with a letter or underscore and contain only letters, digits and underscores")
	case strings.HasPrefix(strings.ToLower(name), "sqlite_"):
		return schemaErr(name, `the "sqlite_" name prefix is reserved by the engine`)
	default:
		return nil
	}
}

func schemaErr(name, msg string) *Error {
	return &Error{
		Code:       CodeSchemaError,
		Collection: name,
		Op:         "new",
		Msg:        msg,
	}
}
