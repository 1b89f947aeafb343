package target

import (
	"github.com/roach88/hatgram/internal/terms"
)

// SnapshotSignal reports whether the speech front end emitted a pre-phrase
// signal for the current utterance. When it did, decorated marks refer to
// the hat positions captured before the phrase started.
type SnapshotSignal interface {
	DidEmitPrePhraseSignal() bool
}

// NoSnapshotSignal is the capability used when no front end provides one.
type NoSnapshotSignal struct{}

func (NoSnapshotSignal) DidEmitPrePhraseSignal() bool { return false }

// DecoratedSymbolMatch is the capture "[color] [shape] character".
// Empty Color or Shape means that token was not spoken.
type DecoratedSymbolMatch struct {
	Color     string
	Shape     string
	Character string
}

// SpecialMarkMatch is a spoken special mark, by identifier.
type SpecialMarkMatch struct {
	Identifier string
}

// MarkMatch is the grammar capture for a mark. Exactly one field is set.
type MarkMatch struct {
	DecoratedSymbol *DecoratedSymbolMatch
	Special         *SpecialMarkMatch
	LineNumber      *LineNumberMatch
}

// Resolver turns mark captures into marks.
type Resolver struct {
	specialMarks map[string]terms.Term[Mark]
	snapshot     SnapshotSignal
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSnapshotSignal sets the pre-phrase snapshot capability.
// A nil signal keeps the default.
func WithSnapshotSignal(s SnapshotSignal) ResolverOption {
	return func(r *Resolver) {
		if s != nil {
			r.snapshot = s
		}
	}
}

// WithSpecialMarks replaces the special-marks table.
func WithSpecialMarks(table []terms.Term[Mark]) ResolverOption {
	return func(r *Resolver) {
		r.specialMarks = terms.ByIdentifier(table)
	}
}

// NewResolver creates a resolver over the default special-marks table
// with no snapshot capability.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		specialMarks: terms.ByIdentifier(SpecialMarks),
		snapshot:     NoSnapshotSignal{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveMark resolves a capture. Alternatives are tried in order:
// decorated symbol, special mark, line number.
func (r *Resolver) ResolveMark(m MarkMatch) (Mark, error) {
	switch {
	case m.DecoratedSymbol != nil:
		return r.decoratedSymbol(*m.DecoratedSymbol), nil
	case m.Special != nil:
		t, ok := r.specialMarks[m.Special.Identifier]
		if !ok {
			return nil, &LookupError{Table: "special_marks", Identifier: m.Special.Identifier}
		}
		return t.Value, nil
	case m.LineNumber != nil:
		return ResolveLineNumber(*m.LineNumber)
	default:
		return nil, ErrEmptyMatch
	}
}

func (r *Resolver) decoratedSymbol(m DecoratedSymbolMatch) DecoratedSymbol {
	return DecoratedSymbol{
		SymbolColor:          SymbolColor(m.Color, m.Shape),
		Character:            m.Character,
		UsePrePhraseSnapshot: r.snapshot.DidEmitPrePhraseSignal(),
	}
}

// SymbolColor composes the hat style name: "color-shape" when both are
// spoken, the one spoken token otherwise, DefaultSymbolColor when neither is.
func SymbolColor(color, shape string) string {
	switch {
	case color != "" && shape != "":
		return color + "-" + shape
	case color != "":
		return color
	case shape != "":
		return shape
	default:
		return DefaultSymbolColor
	}
}
