// Package oakerr defines the error kinds the query execution core
// surfaces to statement callers (see the ERROR HANDLING DESIGN
// section of the specification). Errors are never swallowed: every
// failure path returns one of these.
package oakerr

import (
	"errors"
	"fmt"
)

// Category sentinels. Use errors.Is against these to classify an
// error without caring about its exact kind.
var (
	ErrSchema    = errors.New("schema error")
	ErrType      = errors.New("type error")
	ErrSyntax    = errors.New("syntax/value error")
	ErrIntegrity = errors.New("integrity violation")
	ErrStorage   = errors.New("storage error")
)

// Kind names the specific error described in §7.
type Kind string

const (
	NoSuchDb       Kind = "NoSuchDb"
	NoSuchTable    Kind = "NoSuchTable"
	NoSuchCol      Kind = "NoSuchCol"
	DupTable       Kind = "DupTable"
	AmbiguousCol   Kind = "AmbiguousCol"
	DupConstraint  Kind = "DupConstraint"

	RecordLitTyMismatch Kind = "RecordLitTyMismatch"
	RecordTyMismatch    Kind = "RecordTyMismatch"
	CmpOnNull           Kind = "CmpOnNull"
	InvalidAgg          Kind = "InvalidAgg"
	InvalidLikeTy       Kind = "InvalidLikeTy"
	MixedSelect         Kind = "MixedSelect"

	InvalidDate  Kind = "InvalidDate"
	InvalidLike  Kind = "InvalidLike"
	IntOverflow  Kind = "IntOverflow"
	StringTooLong Kind = "StringTooLong"
	SyntaxError  Kind = "SyntaxError"

	NotNullViolation         Kind = "NotNullViolation"
	DupPrimaryKey            Kind = "DupPrimaryKey"
	NoSuchForeignTarget      Kind = "NoSuchForeignTarget"
	CheckViolation           Kind = "CheckViolation"
	DeleteTableWithForeignLink Kind = "DeleteTableWithForeignLink"
	ModifyReferencedRow      Kind = "ModifyReferencedRow"
	DupTableName             Kind = "DupTableAlias" // not raised by the join executor, whose duplicate-table check (§4.4) reports DupTable

	IoError     Kind = "IoError"
	PageCorrupt Kind = "PageCorrupt"
)

// categoryOf maps a Kind to the sentinel it unwraps to. Unknown kinds
// (§9: "error enumeration is open") unwrap to nil and must be treated
// as fatal by callers that don't recognize them.
func categoryOf(k Kind) error {
	switch k {
	case NoSuchDb, NoSuchTable, NoSuchCol, DupTable, AmbiguousCol, DupConstraint:
		return ErrSchema
	case RecordLitTyMismatch, RecordTyMismatch, CmpOnNull, InvalidAgg, InvalidLikeTy, MixedSelect:
		return ErrType
	case InvalidDate, InvalidLike, IntOverflow, StringTooLong, SyntaxError:
		return ErrSyntax
	case NotNullViolation, DupPrimaryKey, NoSuchForeignTarget, CheckViolation,
		DeleteTableWithForeignLink, ModifyReferencedRow, DupTableName:
		return ErrIntegrity
	case IoError, PageCorrupt:
		return ErrStorage
	default:
		return nil
	}
}

// Error is the concrete error type returned by the core. Detail
// carries kind-specific context (a column name, a table name, an
// expected/actual type pair) formatted for the message; field-level
// access is available via the typed constructors below for callers
// that want to branch on more than the Kind.
type Error struct {
	K      Kind
	Detail string
	Err    error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.K)
	}
	return fmt.Sprintf("%s: %s", e.K, e.Detail)
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return categoryOf(e.K)
}

// New builds an *Error with the given kind and a formatted detail.
func New(k Kind, format string, args ...any) *Error {
	return &Error{K: k, Detail: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error that also unwraps to cause.
func Wrap(k Kind, cause error, format string, args ...any) *Error {
	return &Error{K: k, Detail: fmt.Sprintf(format, args...), Err: cause}
}

// Is reports whether err carries the given Kind.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.K == k
	}
	return false
}

// TypeMismatchError is returned by the Record Layout / Predicate
// Compiler when a literal or column type does not match what the
// schema declares.
type TypeMismatchError struct {
	Expect string
	Actual string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expect %s, actual %s", RecordLitTyMismatch, e.Expect, e.Actual)
}

func (e *TypeMismatchError) Unwrap() error { return ErrType }

// NewTypeMismatch builds the typed RecordLitTyMismatch error.
func NewTypeMismatch(expect, actual string) *TypeMismatchError {
	return &TypeMismatchError{Expect: expect, Actual: actual}
}
