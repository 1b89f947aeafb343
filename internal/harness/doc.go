// Package harness runs phrase scenarios against a fully wired session.
//
// Each scenario gets a fresh customization directory, settings file,
// in-memory history and deterministic helpers (fixed utterance IDs and a
// manual scheduler for the hat reload timers), so runs are reproducible
// and can be compared against golden traces.
//
// # Scenario Format
//
//	name: decorated_symbol
//	description: "What this scenario validates"
//	full_line_numbers: false
//	overrides:
//	  actions:
//	    - [grab, setSelection]
//	settings:
//	  cursorless.hatEnablement.shapes: {fox: true}
//	steps:
//	  - say: blue air
//	    expect:
//	      output: {type: primitive, mark: {...}}
//	  - say: zebra
//	    expect:
//	      error: UNEXPECTED_WORD
//	  - settings:
//	      cursorless.hatEnablement.shapes: {fox: false}
//	  - override:
//	      domain: actions
//	      rows: [[grab, setSelection]]
//	assertions:
//	  - type: rejected
//	    identifier: setSelecton
//	    suggestion: setSelection
//
// # Steps
//
//   - say: resolve a phrase; expect may give the exact output tree, the
//     action identifier, or the error code.
//   - settings: rewrite the settings file, signal the change and run both
//     reload timers to completion.
//   - override: rewrite one domain's CSV and reload that domain.
//
// # Assertions
//
//   - rejected: an override row with the identifier was rejected,
//     optionally with the given suggestion.
//   - rejected_count: exactly count rows were rejected over the run.
//   - history_count: exactly count utterances reached the history log.
//   - history_contains: a logged utterance has the given phrase.
//
// # Golden Files
//
// RunWithGolden compares the trace against testdata/golden/<name>.golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
