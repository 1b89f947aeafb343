package grammar

import "github.com/roach88/hatgram/internal/target"

// ActionMatch is a spoken action word resolved to its identifier.
type ActionMatch struct {
	List       string
	Spoken     string
	Identifier string
}

// PrimitiveMatch is one parsed primitive target. SimpleLine is set for the
// "up N" / "down N" form, which skips the full line-number capture.
type PrimitiveMatch struct {
	Mark       target.MarkMatch
	SimpleLine *target.LineCapture
}

// RangeMatch is one parsed range: one or two primitives and the specifier
// identifier, "" when none was spoken.
type RangeMatch struct {
	Specifier  string
	Primitives []PrimitiveMatch
}

// Phrase is the parse of one utterance.
type Phrase struct {
	Words  []string
	Action *ActionMatch
	Ranges []RangeMatch
}
