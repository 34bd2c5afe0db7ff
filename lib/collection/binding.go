package collection

import (
	"context"
	"errors"
	"fmt"
	sq "github.com/Masterminds/squirrel"
	"github.com/adrodb/adrodb/lib/engine"
	"github.com/jmoiron/sqlx"
)

// --------------------------------------------------------------------------
// Binding
// --------------------------------------------------------------------------

// Binding ties a collection to a live engine connection and exposes the
// typed operations. It is cheap and stateless beyond those two fields;
// construct as many as needed and discard them freely.
//
// The connection is borrowed, never owned: the caller opens it before
// constructing the Binding and closes it after all Bindings over it are
// done. Using a Binding past that point surfaces CodeEngineFailure.
//
// Thread-safety: a Binding is safe for concurrent use exactly when its
// connection is (*sqlx.DB is, *sqlx.Tx is not). The layer adds no locking,
// timeouts or retries of its own; every call is a single blocking round-trip
// and engine failures surface unmodified.
type Binding struct {
	collection Collection
	conn       engine.Conn
}

// Collection returns the descriptor this binding operates on.
func (b *Binding) Collection() Collection {
	return b.collection
}

// Set inserts the pair (key, value). Set is an insert, not an upsert: if the
// key already exists the call fails with CodeConstraintViolation and the
// stored value stays untouched. Callers wanting overwrite semantics compose
// Remove and Set explicitly.
func (b *Binding) Set(ctx context.Context, key string, value Scalar) error {
	if err := b.ready("set"); err != nil {
		return err
	}

	dv, err := value.driverValue()
	if err != nil {
		return b.classify("set", key, err)
	}

	query, args, err := sq.Insert(b.collection.name).
		Columns(colKey, colValue).
		Values(key, dv).
		ToSql()
	if err != nil {
		return b.classify("set", key, err)
	}

	if _, err := b.conn.ExecContext(ctx, query, args...); err != nil {
		return b.classify("set", key, err)
	}
	return nil
}

// Get looks up the row for key and returns the stored scalar with its
// at-rest kind (booleans are stored as integers by the engine). A missing
// key fails with CodeNotFound.
func (b *Binding) Get(ctx context.Context, key string) (Scalar, error) {
	if err := b.ready("get"); err != nil {
		return Scalar{}, err
	}

	query, args, err := sq.Select(colValue).
		From(b.collection.name).
		Where(sq.Eq{colKey: key}).
		ToSql()
	if err != nil {
		return Scalar{}, b.classify("get", key, err)
	}

	var raw any
	if err := sqlx.GetContext(ctx, b.conn, &raw, query, args...); err != nil {
		return Scalar{}, b.classify("get", key, err)
	}

	value, err := scanScalar(raw)
	if err != nil {
		return Scalar{}, b.classify("get", key, err)
	}
	return value, nil
}

// GetText reads the value for key coerced to text.
func (b *Binding) GetText(ctx context.Context, key string) (string, error) {
	value, err := b.getAs(ctx, key, ScalarText)
	if err != nil {
		return "", err
	}
	return value.text, nil
}

// GetInteger reads the value for key coerced to an integer.
func (b *Binding) GetInteger(ctx context.Context, key string) (int64, error) {
	value, err := b.getAs(ctx, key, ScalarInteger)
	if err != nil {
		return 0, err
	}
	return value.integer, nil
}

// GetFloat reads the value for key coerced to a float.
func (b *Binding) GetFloat(ctx context.Context, key string) (float64, error) {
	value, err := b.getAs(ctx, key, ScalarFloat)
	if err != nil {
		return 0, err
	}
	return value.float, nil
}

// GetBool reads the value for key coerced to a boolean.
func (b *Binding) GetBool(ctx context.Context, key string) (bool, error) {
	value, err := b.getAs(ctx, key, ScalarBool)
	if err != nil {
		return false, err
	}
	return value.boolean, nil
}

// Has reports whether a row exists for key. Absence is not an error.
func (b *Binding) Has(ctx context.Context, key string) (bool, error) {
	if err := b.ready("has"); err != nil {
		return false, err
	}

	query, args, err := sq.Select("1").
		From(b.collection.name).
		Where(sq.Eq{colKey: key}).
		ToSql()
	if err != nil {
		return false, b.classify("has", key, err)
	}

	var one int
	if err := sqlx.GetContext(ctx, b.conn, &one, query, args...); err != nil {
		if engine.IsNoRows(err) {
			return false, nil
		}
		return false, b.classify("has", key, err)
	}
	return true, nil
}

// Remove deletes the row for key and returns the number of rows affected.
// Removing an absent key is not an error: it returns 0. A present key
// returns 1.
func (b *Binding) Remove(ctx context.Context, key string) (int64, error) {
	if err := b.ready("remove"); err != nil {
		return 0, err
	}

	query, args, err := sq.Delete(b.collection.name).
		Where(sq.Eq{colKey: key}).
		ToSql()
	if err != nil {
		return 0, b.classify("remove", key, err)
	}

	res, err := b.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, b.classify("remove", key, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, b.classify("remove", key, err)
	}
	return affected, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// getAs is the shared typed-read path: raw lookup, then the single coercion
// point.
func (b *Binding) getAs(ctx context.Context, key string, to ScalarKind) (Scalar, error) {
	stored, err := b.Get(ctx, key)
	if err != nil {
		return Scalar{}, err
	}

	value, err := stored.Coerce(to)
	if err != nil {
		return Scalar{}, b.classify("get", key, err)
	}
	return value, nil
}

// ready is the runtime liveness check for the borrowed connection.
func (b *Binding) ready(op string) error {
	if b.conn == nil {
		return &Error{
			Code:       CodeEngineFailure,
			Collection: b.collection.name,
			Op:         op,
			Msg:        "binding has no connection",
		}
	}
	return nil
}

// classify maps an operation failure into the package's error taxonomy.
// Errors already carrying a Code only get their context fields filled in.
func (b *Binding) classify(op, key string, err error) error {
	var cerr *Error
	if errors.As(err, &cerr) {
		if cerr.Collection == "" {
			cerr.Collection = b.collection.name
		}
		if cerr.Op == "" {
			cerr.Op = op
		}
		return cerr
	}

	switch {
	case engine.IsNoSuchTable(err):
		return &Error{
			Code:       CodeNotInitialized,
			Collection: b.collection.name,
			Op:         op,
			Msg:        "collection is not materialized",
			Err:        err,
		}
	case engine.IsUniqueViolation(err):
		return &Error{
			Code:       CodeConstraintViolation,
			Collection: b.collection.name,
			Op:         op,
			Msg:        fmt.Sprintf("key %q already exists", key),
			Err:        err,
		}
	case engine.IsNoRows(err):
		return &Error{
			Code:       CodeNotFound,
			Collection: b.collection.name,
			Op:         op,
			Msg:        fmt.Sprintf("no row for key %q", key),
			Err:        err,
		}
	default:
		return &Error{
			Code:       CodeEngineFailure,
			Collection: b.collection.name,
			Op:         op,
			Err:        err,
		}
	}
}
