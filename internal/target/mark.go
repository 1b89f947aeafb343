package target

import (
	"github.com/roach88/hatgram/internal/ir"
	"github.com/roach88/hatgram/internal/terms"
)

// MarkType is the wire tag of a mark.
type MarkType string

const (
	MarkDecoratedSymbol MarkType = "decoratedSymbol"
	MarkCursor          MarkType = "cursor"
	MarkThat            MarkType = "that"
	MarkSource          MarkType = "source"
	MarkLineNumber      MarkType = "lineNumber"
)

// DefaultSymbolColor is the hat style used when neither color nor shape is spoken.
const DefaultSymbolColor = "default"

// Mark is a reference to a location in the editor.
// Sealed: DecoratedSymbol, SpecialMark and LineNumberMark are the only kinds.
type Mark interface {
	Type() MarkType

	// Fragment is what the mark contributes to its primitive target.
	Fragment() ir.IRObject

	isMark()
}

// DecoratedSymbol points at a character decorated with a colored/shaped hat.
type DecoratedSymbol struct {
	SymbolColor          string
	Character            string
	UsePrePhraseSnapshot bool
}

func (DecoratedSymbol) Type() MarkType { return MarkDecoratedSymbol }
func (DecoratedSymbol) isMark()        {}

// ToIR lowers the mark to its wire object.
func (m DecoratedSymbol) ToIR() ir.IRObject {
	return ir.IRObject{
		"type":                 ir.IRString(MarkDecoratedSymbol),
		"symbolColor":          ir.IRString(m.SymbolColor),
		"character":            ir.IRString(m.Character),
		"usePrePhraseSnapshot": ir.IRBool(m.UsePrePhraseSnapshot),
	}
}

func (m DecoratedSymbol) Fragment() ir.IRObject {
	return ir.IRObject{"mark": m.ToIR()}
}

// SpecialMark is one of the tag-only marks: cursor, that or source.
type SpecialMark struct {
	Kind MarkType
}

func (m SpecialMark) Type() MarkType { return m.Kind }
func (SpecialMark) isMark()          {}

func (m SpecialMark) ToIR() ir.IRObject {
	return ir.IRObject{"type": ir.IRString(m.Kind)}
}

func (m SpecialMark) Fragment() ir.IRObject {
	return ir.IRObject{"mark": m.ToIR()}
}

// SpecialMarks is the default special-marks table.
var SpecialMarks = []terms.Term[Mark]{
	{DefaultSpokenForm: "this", Identifier: "currentSelection", Value: SpecialMark{Kind: MarkCursor}},
	{DefaultSpokenForm: "that", Identifier: "previousTarget", Value: SpecialMark{Kind: MarkThat}},
	{DefaultSpokenForm: "source", Identifier: "previousSource", Value: SpecialMark{Kind: MarkSource}},
}

// LinePosition is one end of a line-number mark. Relative positions are a
// signed offset from the cursor line; absolute positions are zero-based.
type LinePosition struct {
	LineNumber int64
	IsRelative bool
}

func (p LinePosition) ToIR() ir.IRObject {
	return ir.IRObject{
		"lineNumber": ir.IRInt(p.LineNumber),
		"isRelative": ir.IRBool(p.IsRelative),
	}
}

// LineNumberMark selects whole lines from Anchor to Active.
type LineNumberMark struct {
	Anchor LinePosition
	Active LinePosition
}

func (LineNumberMark) Type() MarkType { return MarkLineNumber }
func (LineNumberMark) isMark()        {}

func (m LineNumberMark) ToIR() ir.IRObject {
	return ir.IRObject{
		"type":   ir.IRString(MarkLineNumber),
		"anchor": m.Anchor.ToIR(),
		"active": m.Active.ToIR(),
	}
}

// Fragment for a line number is a line selection with a lineNumber
// modifier rather than a mark field.
func (m LineNumberMark) Fragment() ir.IRObject {
	return ir.IRObject{
		"selectionType": ir.IRString("line"),
		"modifier":      m.ToIR(),
	}
}
