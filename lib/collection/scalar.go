package collection

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// --------------------------------------------------------------------------
// Scalar Kinds
// --------------------------------------------------------------------------

// ScalarKind enumerates the closed set of value kinds a collection stores.
type ScalarKind uint8

const (
	ScalarText    ScalarKind = iota + 1 // 1: UTF-8 text
	ScalarInteger                       // 2: 64-bit signed integer
	ScalarFloat                         // 3: 64-bit float
	ScalarBool                          // 4: boolean (stored as integer 0/1)
)

// String returns the stable wire form of the kind.
func (k ScalarKind) String() string {
	switch k {
	case ScalarText:
		return "text"
	case ScalarInteger:
		return "integer"
	case ScalarFloat:
		return "float"
	case ScalarBool:
		return "boolean"
	default:
		return "invalid"
	}
}

// ParseScalarKind maps a kind name (plus common aliases) to its ScalarKind.
func ParseScalarKind(s string) (ScalarKind, error) {
	switch s {
	case "text", "string":
		return ScalarText, nil
	case "integer", "int":
		return ScalarInteger, nil
	case "float", "double", "real":
		return ScalarFloat, nil
	case "boolean", "bool":
		return ScalarBool, nil
	default:
		return 0, fmt.Errorf("unknown scalar kind %q (expected text, integer, float or boolean)", s)
	}
}

// --------------------------------------------------------------------------
// Scalar Value
// --------------------------------------------------------------------------

// Scalar is an immutable tagged value of one of the four storable kinds.
// The zero value has no kind and is rejected by every operation.
type Scalar struct {
	kind    ScalarKind
	text    string
	integer int64
	float   float64
	boolean bool
}

// Text wraps a string value.
func Text(v string) Scalar { return Scalar{kind: ScalarText, text: v} }

// Integer wraps an int64 value.
func Integer(v int64) Scalar { return Scalar{kind: ScalarInteger, integer: v} }

// Float wraps a float64 value.
func Float(v float64) Scalar { return Scalar{kind: ScalarFloat, float: v} }

// Bool wraps a boolean value.
func Bool(v bool) Scalar { return Scalar{kind: ScalarBool, boolean: v} }

// ScalarOf converts an arbitrary Go value into a Scalar. It accepts strings,
// byte slices, booleans, all integer and float widths, json.Number and Scalar
// itself; anything else fails with CodeTypeMismatch.
func ScalarOf(v any) (Scalar, error) {
	switch t := v.(type) {
	case Scalar:
		return t, nil
	case string:
		return Text(t), nil
	case []byte:
		return Text(string(t)), nil
	case bool:
		return Bool(t), nil
	case int:
		return Integer(int64(t)), nil
	case int8:
		return Integer(int64(t)), nil
	case int16:
		return Integer(int64(t)), nil
	case int32:
		return Integer(int64(t)), nil
	case int64:
		return Integer(t), nil
	case uint:
		return Integer(int64(t)), nil
	case uint8:
		return Integer(int64(t)), nil
	case uint16:
		return Integer(int64(t)), nil
	case uint32:
		return Integer(int64(t)), nil
	case uint64:
		if t > math.MaxInt64 {
			return Scalar{}, NewError(CodeTypeMismatch, fmt.Sprintf("uint64 value %d overflows integer storage", t))
		}
		return Integer(int64(t)), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Integer(i), nil
		}
		if f, err := t.Float64(); err == nil {
			return Float(f), nil
		}
		return Scalar{}, NewError(CodeTypeMismatch, fmt.Sprintf("malformed number %q", t.String()))
	case nil:
		return Scalar{}, NewError(CodeTypeMismatch, "nil is not a storable value")
	default:
		return Scalar{}, NewError(CodeTypeMismatch, fmt.Sprintf("unsupported value type %T", v))
	}
}

// Kind returns the kind tag of the scalar.
func (s Scalar) Kind() ScalarKind { return s.kind }

// String renders the payload as text. The zero Scalar renders empty.
func (s Scalar) String() string {
	switch s.kind {
	case ScalarText:
		return s.text
	case ScalarInteger:
		return strconv.FormatInt(s.integer, 10)
	case ScalarFloat:
		return strconv.FormatFloat(s.float, 'g', -1, 64)
	case ScalarBool:
		return strconv.FormatBool(s.boolean)
	default:
		return ""
	}
}

// --------------------------------------------------------------------------
// Coercion
// --------------------------------------------------------------------------

// Coerce converts the scalar to the requested kind. It is the single
// conversion point of the package; the typed getters, the REST layer and the
// CLI all route through it. Every (stored, requested) pair is either an
// identity, a defined conversion, or CodeTypeMismatch:
//
//	text    -> integer/float/boolean  parsed via strconv, mismatch otherwise
//	integer -> text/float             formatted/widened
//	integer -> boolean                0 and 1 only
//	float   -> text                   formatted with exact round-trip precision
//	float   -> integer/boolean        mismatch (no silent truncation)
//	boolean -> text/integer           "true"/"false", 0/1
//	boolean -> float                  mismatch
func (s Scalar) Coerce(to ScalarKind) (Scalar, error) {
	if s.kind == to && s.kind != 0 {
		return s, nil
	}

	switch s.kind {
	case ScalarText:
		switch to {
		case ScalarInteger:
			if i, err := strconv.ParseInt(s.text, 10, 64); err == nil {
				return Integer(i), nil
			}
		case ScalarFloat:
			if f, err := strconv.ParseFloat(s.text, 64); err == nil {
				return Float(f), nil
			}
		case ScalarBool:
			if b, err := strconv.ParseBool(s.text); err == nil {
				return Bool(b), nil
			}
		}
	case ScalarInteger:
		switch to {
		case ScalarText:
			return Text(strconv.FormatInt(s.integer, 10)), nil
		case ScalarFloat:
			return Float(float64(s.integer)), nil
		case ScalarBool:
			if s.integer == 0 {
				return Bool(false), nil
			}
			if s.integer == 1 {
				return Bool(true), nil
			}
		}
	case ScalarFloat:
		if to == ScalarText {
			return Text(strconv.FormatFloat(s.float, 'g', -1, 64)), nil
		}
	case ScalarBool:
		switch to {
		case ScalarText:
			return Text(strconv.FormatBool(s.boolean)), nil
		case ScalarInteger:
			if s.boolean {
				return Integer(1), nil
			}
			return Integer(0), nil
		}
	}

	return Scalar{}, s.mismatch(to)
}

func (s Scalar) mismatch(to ScalarKind) *Error {
	return NewError(CodeTypeMismatch,
		fmt.Sprintf("cannot coerce %s %q to %s", s.kind, s.String(), to))
}

// AsText coerces the scalar to text.
func (s Scalar) AsText() (string, error) {
	out, err := s.Coerce(ScalarText)
	if err != nil {
		return "", err
	}
	return out.text, nil
}

// AsInteger coerces the scalar to an integer.
func (s Scalar) AsInteger() (int64, error) {
	out, err := s.Coerce(ScalarInteger)
	if err != nil {
		return 0, err
	}
	return out.integer, nil
}

// AsFloat coerces the scalar to a float.
func (s Scalar) AsFloat() (float64, error) {
	out, err := s.Coerce(ScalarFloat)
	if err != nil {
		return 0, err
	}
	return out.float, nil
}

// AsBool coerces the scalar to a boolean.
func (s Scalar) AsBool() (bool, error) {
	out, err := s.Coerce(ScalarBool)
	if err != nil {
		return false, err
	}
	return out.boolean, nil
}

// --------------------------------------------------------------------------
// Engine Bridging
// --------------------------------------------------------------------------

// driverValue returns the native value bound into SQL parameters.
func (s Scalar) driverValue() (any, error) {
	switch s.kind {
	case ScalarText:
		return s.text, nil
	case ScalarInteger:
		return s.integer, nil
	case ScalarFloat:
		return s.float, nil
	case ScalarBool:
		return s.boolean, nil
	default:
		return nil, NewError(CodeTypeMismatch, "value has no scalar kind")
	}
}

// scanScalar maps a value scanned from the engine back into a Scalar. A NULL
// cell fits no kind (only reachable on tables written outside this package)
// and fails with CodeTypeMismatch.
func scanScalar(v any) (Scalar, error) {
	switch t := v.(type) {
	case string:
		return Text(t), nil
	case []byte:
		return Text(string(t)), nil
	case int64:
		return Integer(t), nil
	case float64:
		return Float(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Scalar{}, NewError(CodeTypeMismatch, "stored value is null")
	default:
		return Scalar{}, NewError(CodeEngineFailure, fmt.Sprintf("engine returned unsupported storage type %T", v))
	}
}
