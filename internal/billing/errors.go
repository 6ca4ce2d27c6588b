package billing

import (
	"errors"
	"fmt"
)

// Kind classifies engine failures so HTTP handlers can map them to status
// codes without matching on message text.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindState      Kind = "state"
	KindGeneration Kind = "generation"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrEmptyBill            = &Error{Kind: KindValidation, Message: "bill must have at least one item"}
	ErrItemAlreadyCompleted = &Error{Kind: KindConflict, Message: "item is already completed"}
	ErrNoPendingItems       = &Error{Kind: KindState, Message: "no pending items found in this bill"}
)

func errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsError unwraps err into the engine's typed error, when it carries one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
