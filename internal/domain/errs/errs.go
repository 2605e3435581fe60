package errs

import (
	"errors"
	"fmt"
)

// Kind separates caller mistakes from state conflicts and storage failures,
// so the boundary can report each one differently.
type Kind uint8

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindStorage
)

type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Kind() Kind { return e.kind }

// Validation reports caller-supplied input that violates a precondition.
// No state was mutated before the check.
func Validation(format string, args ...any) error {
	return &Error{kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}

// Conflict reports a state precondition violation (e.g. closing an
// already-closed shift).
func Conflict(format string, args ...any) error {
	return &Error{kind: KindConflict, msg: fmt.Sprintf(format, args...)}
}

// Storage wraps an error from the persistence layer.
func Storage(op string, err error) error {
	return &Error{kind: KindStorage, msg: op, err: err}
}

func is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.kind == k
}

func IsValidation(err error) bool { return is(err, KindValidation) }
func IsConflict(err error) bool   { return is(err, KindConflict) }
func IsStorage(err error) bool    { return is(err, KindStorage) }
