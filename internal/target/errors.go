package target

import (
	"errors"
	"fmt"
)

// ErrEmptyMatch is returned when a match carries none of its alternatives.
// The grammar guarantees exactly one, so this indicates a caller bug.
var ErrEmptyMatch = errors.New("match has no alternative set")

// ErrNoTargets is returned by the builders when given an empty sequence.
var ErrNoTargets = errors.New("at least one target is required")

// LookupError reports an identifier missing from a term table.
//
// A lookup failure aborts the utterance: the grammar and the table are out
// of sync, and falling back to some default would run the wrong command.
type LookupError struct {
	Table      string
	Identifier string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: unknown identifier %q", e.Table, e.Identifier)
}

// IsLookupError reports whether err (or anything it wraps) is a LookupError.
func IsLookupError(err error) bool {
	var le *LookupError
	return errors.As(err, &le)
}
