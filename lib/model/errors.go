package model

import "fmt"

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is the error type of the model layer. It wraps an ErrorCode and a message.
// errors.Is matches any two errors with the same code, so callers can compare
// against the package level sentinels.
type Error struct {
	Code ErrorCode // The error code
	Msg  string    // The error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("ModelError (code %s): %s", e.Code, e.Msg)
}

// Is reports whether target is a model error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// --------------------------------------------------------------------------
// Error Codes
// --------------------------------------------------------------------------

type ErrorCode uint8

const (
	CodeInvalidState     ErrorCode = iota + 1 // 1: Operation not allowed in the current attachment state.
	CodeInvalidParent                         // 2: Parent cannot hold the value.
	CodeOutOfRange                            // 3: Index or location out of bounds.
	CodeInvalidReference                      // 4: Malformed or unknown reference.
	CodeDocumentExists                        // 5: Substrate document already exists.
	CodeDocumentMissing                       // 6: Substrate document does not exist.
	CodeNotModel                              // 7: Wave does not contain a model.
)

func (c ErrorCode) String() string {
	switch c {
	case CodeInvalidState:
		return "InvalidState"
	case CodeInvalidParent:
		return "InvalidParent"
	case CodeOutOfRange:
		return "OutOfRange"
	case CodeInvalidReference:
		return "InvalidReference"
	case CodeDocumentExists:
		return "DocumentExists"
	case CodeDocumentMissing:
		return "DocumentMissing"
	case CodeNotModel:
		return "NotModel"
	default:
		return "Unknown"
	}
}

var (
	// ErrInvalidState matches all attachment state violations.
	ErrInvalidState = &Error{Code: CodeInvalidState, Msg: "invalid state"}
	// ErrInvalidParent matches values put into a parent that cannot hold them.
	ErrInvalidParent = &Error{Code: CodeInvalidParent, Msg: "invalid parent"}
	// ErrOutOfRange matches index and location violations.
	ErrOutOfRange = &Error{Code: CodeOutOfRange, Msg: "out of range"}
	// ErrInvalidReference matches malformed or unknown references.
	ErrInvalidReference = &Error{Code: CodeInvalidReference, Msg: "invalid reference"}
	// ErrDocumentExists matches attempts to create an existing document.
	ErrDocumentExists = &Error{Code: CodeDocumentExists, Msg: "document exists"}
	// ErrDocumentMissing matches lookups of absent documents.
	ErrDocumentMissing = &Error{Code: CodeDocumentMissing, Msg: "document missing"}
	// ErrNotModel matches waves that do not hold a model.
	ErrNotModel = &Error{Code: CodeNotModel, Msg: "not a model wave"}
)

func errNotAttached(name, op string) *Error {
	return newError(CodeInvalidState, "unable to %s an unattached %s", op, name)
}

// ErrNotAttached matches operations on values that are not part of a tree. It
// carries the same code as ErrInvalidState.
var ErrNotAttached = &Error{Code: CodeInvalidState, Msg: "not attached"}
