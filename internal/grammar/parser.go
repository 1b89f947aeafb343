package grammar

import (
	"sort"
	"strings"

	"github.com/roach88/hatgram/internal/target"
)

// Vocabulary list names read by the parser.
const (
	ListRangeSpecifier = "range_specifier"
	ListListSpecifier  = "list_specifier"
	ListHatColor       = "hat_color"
	ListHatShape       = "hat_shape"
	ListSpecialMark    = "special_mark"
)

// ActionLists are the lists an action word may come from, in preference order.
var ActionLists = []string{
	"simple_action",
	"swap_action",
	"move_bring_action",
	"wrap_action",
	"reformat_action",
}

// Lists provides the live spoken lists. terms.Manager implements it.
type Lists interface {
	List(name string) map[string]string
}

// phraseList is a spoken list prepared for multi-word matching.
type phraseList struct {
	name    string
	entries []listEntry // longest spoken form first
}

type listEntry struct {
	spoken     string
	words      []string
	identifier string
}

func newPhraseList(name string, m map[string]string) phraseList {
	pl := phraseList{name: name}
	for spoken, id := range m {
		pl.entries = append(pl.entries, listEntry{
			spoken:     spoken,
			words:      strings.Fields(strings.ToLower(spoken)),
			identifier: id,
		})
	}
	sort.Slice(pl.entries, func(i, j int) bool {
		a, b := pl.entries[i], pl.entries[j]
		if len(a.words) != len(b.words) {
			return len(a.words) > len(b.words)
		}
		return a.spoken < b.spoken
	})
	return pl
}

type listMatch struct {
	entry listEntry
	next  int
}

func (pl phraseList) matchAt(words []string, i int) []listMatch {
	var out []listMatch
	for _, e := range pl.entries {
		if len(e.words) == 0 || i+len(e.words) > len(words) {
			continue
		}
		ok := true
		for k, w := range e.words {
			if words[i+k] != w {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, listMatch{entry: e, next: i + len(e.words)})
		}
	}
	return out
}

// parser holds one parse: the words and a snapshot of every list.
type parser struct {
	words []string

	actions    []phraseList
	rangeSpec  phraseList
	listSpec   phraseList
	colors     phraseList
	shapes     phraseList
	special    phraseList
	directions phraseList

	fullLineNumbers bool

	// furthest is the highest word index any alternative failed at.
	furthest int
}

func (p *parser) fail(i int) {
	if i > p.furthest {
		p.furthest = i
	}
}

type cand[T any] struct {
	val  T
	next int
}

func (p *parser) commands() []cand[Phrase] {
	var out []cand[Phrase]
	for _, list := range p.actions {
		for _, m := range list.matchAt(p.words, 0) {
			action := &ActionMatch{List: list.name, Spoken: m.entry.spoken, Identifier: m.entry.identifier}
			for _, t := range p.targets(m.next) {
				out = append(out, cand[Phrase]{val: Phrase{Action: action, Ranges: t.val}, next: t.next})
			}
		}
	}
	for _, t := range p.targets(0) {
		out = append(out, cand[Phrase]{val: Phrase{Ranges: t.val}, next: t.next})
	}
	return out
}

func (p *parser) targets(i int) []cand[[]RangeMatch] {
	var out []cand[[]RangeMatch]
	for _, r := range p.ranges(i) {
		for _, ls := range p.listSpec.matchAt(p.words, r.next) {
			for _, rest := range p.targets(ls.next) {
				out = append(out, cand[[]RangeMatch]{
					val:  append([]RangeMatch{r.val}, rest.val...),
					next: rest.next,
				})
			}
		}
		out = append(out, cand[[]RangeMatch]{val: []RangeMatch{r.val}, next: r.next})
	}
	return out
}

// ranges yields a lone primitive first so that a full line number's
// "past" part binds to the line rather than starting a range.
func (p *parser) ranges(i int) []cand[RangeMatch] {
	var out []cand[RangeMatch]
	firsts := p.primitives(i)

	for _, prim := range firsts {
		out = append(out, cand[RangeMatch]{val: RangeMatch{Primitives: []PrimitiveMatch{prim.val}}, next: prim.next})
	}
	for _, spec := range p.rangeSpec.matchAt(p.words, i) {
		for _, prim := range p.primitives(spec.next) {
			out = append(out, cand[RangeMatch]{
				val:  RangeMatch{Specifier: spec.entry.identifier, Primitives: []PrimitiveMatch{prim.val}},
				next: prim.next,
			})
		}
	}
	for _, first := range firsts {
		for _, spec := range p.rangeSpec.matchAt(p.words, first.next) {
			for _, second := range p.primitives(spec.next) {
				out = append(out, cand[RangeMatch]{
					val: RangeMatch{
						Specifier:  spec.entry.identifier,
						Primitives: []PrimitiveMatch{first.val, second.val},
					},
					next: second.next,
				})
			}
		}
	}
	return out
}

func (p *parser) primitives(i int) []cand[PrimitiveMatch] {
	if i >= len(p.words) {
		p.fail(i)
		return nil
	}

	var out []cand[PrimitiveMatch]
	out = append(out, p.decorated(i)...)
	for _, m := range p.special.matchAt(p.words, i) {
		out = append(out, cand[PrimitiveMatch]{
			val:  PrimitiveMatch{Mark: target.MarkMatch{Special: &target.SpecialMarkMatch{Identifier: m.entry.identifier}}},
			next: m.next,
		})
	}
	out = append(out, p.lines(i)...)

	if len(out) == 0 {
		p.fail(i)
	}
	return out
}

func (p *parser) decorated(i int) []cand[PrimitiveMatch] {
	type style struct {
		color, shape string
		next         int
	}
	var styles []style
	for _, c := range p.colors.matchAt(p.words, i) {
		for _, s := range p.shapes.matchAt(p.words, c.next) {
			styles = append(styles, style{c.entry.identifier, s.entry.identifier, s.next})
		}
		styles = append(styles, style{color: c.entry.identifier, next: c.next})
	}
	for _, s := range p.shapes.matchAt(p.words, i) {
		styles = append(styles, style{shape: s.entry.identifier, next: s.next})
	}
	styles = append(styles, style{next: i})

	var out []cand[PrimitiveMatch]
	for _, st := range styles {
		key, ok := keyAt(p.words, st.next)
		if !ok {
			p.fail(st.next)
			continue
		}
		out = append(out, cand[PrimitiveMatch]{
			val: PrimitiveMatch{Mark: target.MarkMatch{DecoratedSymbol: &target.DecoratedSymbolMatch{
				Color:     st.color,
				Shape:     st.shape,
				Character: key,
			}}},
			next: st.next + 1,
		})
	}
	return out
}

func (p *parser) lines(i int) []cand[PrimitiveMatch] {
	var out []cand[PrimitiveMatch]
	for _, d := range p.directions.matchAt(p.words, i) {
		dir := target.Direction(d.entry.identifier)
		nums := numbersAt(p.words, d.next)
		if len(nums) == 0 {
			p.fail(d.next)
			continue
		}

		if p.fullLineNumbers {
			for _, n := range nums {
				anchor := target.LineCapture{Direction: dir, LineNumber: n.value}
				for _, a := range p.lineActives(n.next) {
					active := a.val
					out = append(out, cand[PrimitiveMatch]{
						val: PrimitiveMatch{Mark: target.MarkMatch{LineNumber: &target.LineNumberMatch{
							Anchor: anchor, Active: &active,
						}}},
						next: a.next,
					})
				}
				out = append(out, cand[PrimitiveMatch]{
					val:  PrimitiveMatch{Mark: target.MarkMatch{LineNumber: &target.LineNumberMatch{Anchor: anchor}}},
					next: n.next,
				})
			}
			continue
		}

		if dir != target.DirectionUp && dir != target.DirectionDown {
			p.fail(i)
			continue
		}
		for _, n := range nums {
			capture := target.LineCapture{Direction: dir, LineNumber: n.value}
			out = append(out, cand[PrimitiveMatch]{val: PrimitiveMatch{SimpleLine: &capture}, next: n.next})
		}
	}
	return out
}

// lineActives matches `"past" [direction] number`.
func (p *parser) lineActives(i int) []cand[target.LineCapture] {
	if i >= len(p.words) || p.words[i] != "past" {
		return nil
	}
	i++

	var out []cand[target.LineCapture]
	for _, d := range p.directions.matchAt(p.words, i) {
		for _, n := range numbersAt(p.words, d.next) {
			out = append(out, cand[target.LineCapture]{
				val:  target.LineCapture{Direction: target.Direction(d.entry.identifier), LineNumber: n.value},
				next: n.next,
			})
		}
	}
	for _, n := range numbersAt(p.words, i) {
		out = append(out, cand[target.LineCapture]{val: target.LineCapture{LineNumber: n.value}, next: n.next})
	}
	return out
}
