// Package errs defines the error kinds shared by every optionlab package.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindDomain Kind = iota + 1
	KindDegenerateGrid
	KindOutOfDomain
	KindNumeric
	KindArithmetic
	KindIO
	KindStability
	KindInsufficientData
)

func (k Kind) String() string {
	switch k {
	case KindDomain:
		return "domain error"
	case KindDegenerateGrid:
		return "degenerate grid"
	case KindOutOfDomain:
		return "out of domain"
	case KindNumeric:
		return "numeric error"
	case KindArithmetic:
		return "arithmetic error"
	case KindIO:
		return "io error"
	case KindStability:
		return "stability error"
	case KindInsufficientData:
		return "insufficient data"
	}
	return "unknown error"
}

// Sentinels for errors.Is checks.
var (
	ErrDomain           = &Error{Kind: KindDomain}
	ErrDegenerateGrid   = &Error{Kind: KindDegenerateGrid}
	ErrOutOfDomain      = &Error{Kind: KindOutOfDomain}
	ErrNumeric          = &Error{Kind: KindNumeric}
	ErrArithmetic       = &Error{Kind: KindArithmetic}
	ErrIO               = &Error{Kind: KindIO}
	ErrStability        = &Error{Kind: KindStability}
	ErrInsufficientData = &Error{Kind: KindInsufficientData}
)

// Error carries the kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return e.Kind.String()
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrDomain) works
// regardless of Op or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

func newf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func Domain(op, format string, args ...any) error {
	return newf(KindDomain, op, format, args...)
}

func DegenerateGrid(op, format string, args ...any) error {
	return newf(KindDegenerateGrid, op, format, args...)
}

func OutOfDomain(op, format string, args ...any) error {
	return newf(KindOutOfDomain, op, format, args...)
}

func Numeric(op, format string, args ...any) error {
	return newf(KindNumeric, op, format, args...)
}

func Arithmetic(op, format string, args ...any) error {
	return newf(KindArithmetic, op, format, args...)
}

func Stability(op, format string, args ...any) error {
	return newf(KindStability, op, format, args...)
}

func InsufficientData(op, format string, args ...any) error {
	return newf(KindInsufficientData, op, format, args...)
}

// IO wraps a filesystem or codec failure.
func IO(op string, err error) error {
	return &Error{Kind: KindIO, Op: op, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
