// Package engine manages the SQLite database handle that collections borrow.
//
// The package owns connection acquisition and teardown: it opens the database
// file (or an in-memory database), applies the connection defaults (busy
// timeout, WAL journal, foreign keys), and closes the handle when the process
// is done. Everything above this layer borrows the handle and never closes it.
//
// Key components:
//
//   - Store: wraps a *sqlx.DB together with a *zap.Logger and the resolved
//     database path. Construct one per process with NewStore, hand out the
//     handle via DB(), and Close it after all borrowers are done.
//
//   - Conn: the minimal query/exec surface a borrower needs. It is satisfied
//     by *sqlx.DB, *sqlx.Tx and *sqlx.Conn, so code written against Conn works
//     unchanged inside a transaction.
//
//   - Error classification: IsUniqueViolation, IsNoSuchTable and IsNoRows keep
//     driver-specific error sniffing in this package so callers can translate
//     engine failures into their own error vocabulary without importing the
//     driver.
//
// For tests, NewTestStore returns an isolated in-memory store that is cleaned
// up automatically.
package engine
