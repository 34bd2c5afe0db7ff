package collection

import (
	"errors"
	"strings"
)

// --------------------------------------------------------------------------
// Error Codes
// --------------------------------------------------------------------------

// Code classifies every failure this package can surface. Callers branch on
// the code (via CodeOf) rather than on error strings.
type Code uint64

const (
	CodeUnknown             Code = iota // 0: Error not classified by this package.
	CodeSchemaError                     // 1: Schema creation statement rejected by the engine.
	CodeNotInitialized                  // 2: Collection has no physical table (reachable via BindExisting).
	CodeConstraintViolation             // 3: Set called with a key that already exists.
	CodeNotFound                        // 4: Get called with a key that has no row.
	CodeTypeMismatch                    // 5: Stored scalar cannot be coerced to the requested kind.
	CodeEngineFailure                   // 6: Opaque engine or connection error.
)

// String returns the stable wire form of the code.
func (c Code) String() string {
	switch c {
	case CodeSchemaError:
		return "schema_error"
	case CodeNotInitialized:
		return "not_initialized"
	case CodeConstraintViolation:
		return "constraint_violation"
	case CodeNotFound:
		return "not_found"
	case CodeTypeMismatch:
		return "type_mismatch"
	case CodeEngineFailure:
		return "engine_failure"
	default:
		return "unknown"
	}
}

// ParseCode maps a wire form back to its Code. Unrecognized strings map to
// CodeUnknown.
func ParseCode(s string) Code {
	switch s {
	case "schema_error":
		return CodeSchemaError
	case "not_initialized":
		return CodeNotInitialized
	case "constraint_violation":
		return CodeConstraintViolation
	case "not_found":
		return CodeNotFound
	case "type_mismatch":
		return CodeTypeMismatch
	case "engine_failure":
		return CodeEngineFailure
	default:
		return CodeUnknown
	}
}

// --------------------------------------------------------------------------
// Error Type
// --------------------------------------------------------------------------

// Error is the typed failure surfaced by every operation in this package.
// Code carries the classification, Collection and Op locate the failure,
// Err holds the wrapped engine error if one exists.
type Error struct {
	Code       Code   // The error classification
	Collection string // The collection the operation ran against
	Op         string // The failing operation (e.g. "set", "get")
	Msg        string // Human-readable detail
	Err        error  // Wrapped cause, nil if the failure originated here
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Collection != "" {
		b.WriteString("collection ")
		b.WriteString(e.Collection)
		b.WriteString(": ")
	}
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Code.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the wrapped cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error with the given code and message.
func NewError(code Code, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// CodeOf walks err's chain and returns the code of the first *Error found,
// or CodeUnknown if the chain contains none.
func CodeOf(err error) Code {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	return CodeUnknown
}
