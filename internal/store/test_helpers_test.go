package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/hatgram/internal/ir"
)

// createTestStore opens a fresh store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// symbolTarget builds the lowered tree for a decorated symbol.
func symbolTarget(color, character string) ir.IRObject {
	return ir.IRObject{
		"type": ir.IRString("primitive"),
		"mark": ir.IRObject{
			"type":                 ir.IRString("decoratedSymbol"),
			"symbolColor":          ir.IRString(color),
			"character":            ir.IRString(character),
			"usePrePhraseSnapshot": ir.IRBool(false),
		},
	}
}

// createTestUtterance creates an utterance with minimal required fields.
func createTestUtterance(id, phrase string, target ir.IRObject, seq int64) ir.Utterance {
	return ir.Utterance{
		ID:        id,
		Phrase:    phrase,
		Target:    target,
		Seq:       seq,
		IRVersion: ir.IRVersion,
	}
}
