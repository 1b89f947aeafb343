package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is an error raised by the engine itself rather than by
// phrase resolution. Grammar and lookup errors pass through unwrapped.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Phrase is the utterance being handled, if any.
	Phrase string

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeStopped indicates the loop is no longer accepting events.
	ErrCodeStopped RuntimeErrorCode = "ENGINE_STOPPED"

	// ErrCodeTaskPanic indicates a posted task panicked.
	ErrCodeTaskPanic RuntimeErrorCode = "TASK_PANIC"

	// ErrCodeEmptyPhrase indicates an utterance with no words.
	ErrCodeEmptyPhrase RuntimeErrorCode = "EMPTY_PHRASE"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Phrase != "" {
		msg += fmt.Sprintf(" (phrase=%q)", e.Phrase)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsStopped reports whether err means the engine was stopped.
// Uses errors.As to handle wrapped errors.
func IsStopped(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeStopped
	}
	return false
}

func newStoppedError(phrase string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeStopped,
		Message: "engine is not accepting events",
		Phrase:  phrase,
	}
}
