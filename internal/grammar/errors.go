package grammar

import "fmt"

// Parse error codes.
const (
	ErrCodeUnexpectedWord = "UNEXPECTED_WORD"
	ErrCodeIncomplete     = "INCOMPLETE"
	ErrCodeUnknownAction  = "UNKNOWN_ACTION"
)

// ParseError reports a phrase the grammar cannot read.
type ParseError struct {
	Code     string
	Position int // word index
	Word     string
	Message  string
}

func (e *ParseError) Error() string {
	if e.Word != "" {
		return fmt.Sprintf("%s at word %d %q: %s", e.Code, e.Position+1, e.Word, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
