package harness

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hatgram/internal/engine"
	"github.com/roach88/hatgram/internal/grammar"
	"github.com/roach88/hatgram/internal/target"
)

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(doc))
	require.NoError(t, err)
	return s
}

func TestRun_Passing(t *testing.T) {
	s := mustParse(t, `
name: passing
description: a bare decorated symbol
steps:
  - say: green cap
    expect:
      output:
        type: primitive
        mark:
          type: decoratedSymbol
          symbolColor: green
          character: c
          usePrePhraseSnapshot: false
assertions:
  - type: history_count
    count: 1
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, EventUtterance, result.Trace[0].Kind)
	assert.Equal(t, int64(1), result.Trace[0].Seq)
	require.Len(t, result.History, 1)
	assert.Equal(t, "utt-0001", result.History[0].ID)
}

func TestRun_OutputMismatch(t *testing.T) {
	s := mustParse(t, `
name: mismatch
description: wrong color expected
steps:
  - say: green cap
    expect:
      output:
        type: primitive
        mark:
          type: decoratedSymbol
          symbolColor: blue
          character: c
          usePrePhraseSnapshot: false
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "output mismatch")
}

func TestRun_ActionMismatch(t *testing.T) {
	s := mustParse(t, `
name: action_mismatch
description: chuck is delete, not cut
steps:
  - say: chuck air
    expect:
      action: cut
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `action = "delete", want "cut"`)
}

func TestRun_UnexpectedError(t *testing.T) {
	s := mustParse(t, `
name: unexpected_error
description: an unknown word with no expect clause
steps:
  - say: zebra air
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, EventError, result.Trace[0].Kind)
	assert.Equal(t, grammar.ErrCodeUnknownAction, result.Trace[0].Error)
	assert.Contains(t, result.Errors[0], "unexpected error")
}

func TestRun_ExpectedErrorButSucceeded(t *testing.T) {
	s := mustParse(t, `
name: no_error
description: the phrase resolves
steps:
  - say: air
    expect:
      error: INCOMPLETE
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error INCOMPLETE, got success")
}

func TestRun_WrongErrorCode(t *testing.T) {
	s := mustParse(t, `
name: wrong_code
description: ran out of words, not an unexpected one
steps:
  - say: take
    expect:
      error: UNEXPECTED_WORD
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "error code = INCOMPLETE, want UNEXPECTED_WORD")
}

func TestRun_EmptyPhrase(t *testing.T) {
	s := mustParse(t, `
name: empty
description: whitespace only
steps:
  - say: "   "
    expect:
      error: EMPTY_PHRASE
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.History)
}

func TestRun_RawOverrideBadHeader(t *testing.T) {
	s := mustParse(t, `
name: bad_header
description: a file without the header is ignored
raw_overrides:
  actions: |
    grab,setSelection
steps:
  - say: take air
    expect:
      action: setSelection
  - say: grab air
    expect:
      error: UNKNOWN_ACTION
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Rejected)
}

func TestRun_FailedAssertion(t *testing.T) {
	s := mustParse(t, `
name: failed_assertion
description: history count is off by one
steps:
  - say: air
assertions:
  - type: history_count
    count: 2
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "assertions[0]: history_count: expected 2, actual 1", result.Errors[0])
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"parse", &grammar.ParseError{Code: grammar.ErrCodeIncomplete}, grammar.ErrCodeIncomplete},
		{"wrapped parse", fmt.Errorf("resolve: %w", &grammar.ParseError{Code: grammar.ErrCodeUnexpectedWord}), grammar.ErrCodeUnexpectedWord},
		{"lookup", fmt.Errorf("range 1: %w", &target.LookupError{Table: "actions", Identifier: "fly"}), ErrCodeLookup},
		{"runtime", &engine.RuntimeError{Code: engine.ErrCodeStopped}, "ENGINE_STOPPED"},
		{"other", errors.New("boom"), "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorCode(tt.err))
		})
	}
}
