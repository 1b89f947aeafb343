package terms

import (
	"errors"
	"fmt"
)

// RowError describes one override row that was dropped. Row errors are
// collected in LoadReport.Rejected and logged; they never fail a load.
type RowError struct {
	Domain     string
	File       string
	Line       int
	SpokenForm string
	Identifier string
	Reason     string
	Suggestion string
}

func (e *RowError) Error() string {
	msg := fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

// ErrBadHeader is reported when an override file does not start with the
// expected header. The file is ignored and the defaults stay in effect.
var ErrBadHeader = errors.New("unexpected override file header")

// ErrUnknownDomain is returned by Manager lookups for a domain never loaded.
var ErrUnknownDomain = errors.New("unknown term domain")
