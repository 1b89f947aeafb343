package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, actual %s", e.Type, e.Expected, e.Actual)
}

func evaluateAssertion(a Assertion, r *Result) error {
	switch a.Type {
	case AssertRejected:
		return assertRejected(a, r)
	case AssertRejectedCount:
		return assertCount(a.Type, a.Count, len(r.Rejected))
	case AssertHistoryCount:
		return assertCount(a.Type, a.Count, len(r.History))
	case AssertHistoryContains:
		return assertHistoryContains(a, r)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertRejected checks that a row with the identifier was rejected and,
// when given, that its suggestion matches.
func assertRejected(a Assertion, r *Result) error {
	var suggestions []string
	for _, rej := range r.Rejected {
		if rej.Identifier != a.Identifier {
			continue
		}
		if a.Suggestion == "" || rej.Suggestion == a.Suggestion {
			return nil
		}
		suggestions = append(suggestions, fmt.Sprintf("%q", rej.Suggestion))
	}

	actual := "no such rejected row"
	if len(suggestions) > 0 {
		actual = "suggestions " + strings.Join(suggestions, ", ")
	}
	expected := fmt.Sprintf("rejected row for %q", a.Identifier)
	if a.Suggestion != "" {
		expected += fmt.Sprintf(" suggesting %q", a.Suggestion)
	}
	return &AssertionError{Type: a.Type, Expected: expected, Actual: actual}
}

func assertCount(kind string, want, got int) error {
	if want == got {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("%d", want),
		Actual:   fmt.Sprintf("%d", got),
	}
}

func assertHistoryContains(a Assertion, r *Result) error {
	phrases := make([]string, 0, len(r.History))
	for _, u := range r.History {
		if u.Phrase == a.Phrase {
			return nil
		}
		phrases = append(phrases, fmt.Sprintf("%q", u.Phrase))
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("phrase %q in history", a.Phrase),
		Actual:   "[" + strings.Join(phrases, ", ") + "]",
	}
}
