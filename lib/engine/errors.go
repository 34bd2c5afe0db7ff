package engine

import (
	"database/sql"
	"errors"
	"github.com/mattn/go-sqlite3"
	"strings"
)

// --------------------------------------------------------------------------
// Error Classification
// --------------------------------------------------------------------------

// IsUniqueViolation reports whether err is a primary-key or unique
// constraint violation.
func IsUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.Code == sqlite3.ErrConstraint &&
		(serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			serr.ExtendedCode == sqlite3.ErrConstraintUnique)
}

// IsNoSuchTable reports whether err is the engine rejecting a statement
// because the referenced table does not exist.
func IsNoSuchTable(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	// The driver reports this as a generic statement error, the message is
	// the only discriminator SQLite offers.
	return serr.Code == sqlite3.ErrError &&
		strings.Contains(serr.Error(), "no such table")
}

// IsNoRows reports whether err is a row lookup that matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
