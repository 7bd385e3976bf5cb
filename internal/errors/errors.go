package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode identifies the kind of failure returned by reminder operations.
type ErrorCode string

const (
	ErrParse         ErrorCode = "PARSE_ERROR"
	ErrValidation    ErrorCode = "VALIDATION_ERROR"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrExhaustedRule ErrorCode = "EXHAUSTED_RULE"
	ErrInternal      ErrorCode = "INTERNAL"
)

// ReminderError is a typed failure surfaced to the caller of the reminder API.
type ReminderError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *ReminderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ReminderError) Unwrap() error {
	return e.Err
}

// NewParse creates an error for recurrence text that could not be interpreted.
func NewParse(text string, cause error) *ReminderError {
	return &ReminderError{
		Code:    ErrParse,
		Message: fmt.Sprintf("invalid recurrence text: %q", text),
		Details: map[string]any{"recurrence_text": text},
		Err:     cause,
	}
}

// NewValidation creates an error for out-of-range or otherwise rejected input.
func NewValidation(msg string) *ReminderError {
	return &ReminderError{
		Code:    ErrValidation,
		Message: msg,
	}
}

// NewNotFound creates an error for a reminder that does not exist or is owned
// by somebody else. The two cases produce the same message.
func NewNotFound(id int64) *ReminderError {
	return &ReminderError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("reminder %d not found", id),
		Details: map[string]any{"id": id},
	}
}

// NewExhaustedRule creates an error for a finite rule with no further occurrences.
func NewExhaustedRule(rule string) *ReminderError {
	return &ReminderError{
		Code:    ErrExhaustedRule,
		Message: fmt.Sprintf("recurrence rule has no further occurrences: %s", rule),
		Details: map[string]any{"rule": rule},
	}
}

// NewInternal wraps an unexpected failure, usually from storage.
func NewInternal(err error) *ReminderError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ReminderError{
		Code:    ErrInternal,
		Message: msg,
		Err:     err,
	}
}

// Is reports whether err is, or wraps, a ReminderError with the given code.
func Is(err error, code ErrorCode) bool {
	var rErr *ReminderError
	if stderrors.As(err, &rErr) {
		return rErr.Code == code
	}
	return false
}

// CodeOf returns the code of a ReminderError, or ErrInternal for anything else.
func CodeOf(err error) ErrorCode {
	var rErr *ReminderError
	if stderrors.As(err, &rErr) {
		return rErr.Code
	}
	return ErrInternal
}
