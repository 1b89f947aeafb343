package grammar

import (
	"fmt"
	"strings"

	"github.com/roach88/hatgram/internal/target"
)

// DefaultLineDirections is used when no direction table is configured.
// Each direction is spoken as its own name.
var DefaultLineDirections = func() map[string]string {
	m := make(map[string]string)
	for _, d := range target.Directions() {
		m[string(d)] = string(d)
	}
	return m
}()

// Grammar parses phrases against a live vocabulary.
type Grammar struct {
	lists           Lists
	directions      map[string]string
	resolver        *target.Resolver
	fullLineNumbers bool
}

// Option configures a Grammar.
type Option func(*Grammar)

// WithResolver sets the mark resolver.
func WithResolver(r *target.Resolver) Option {
	return func(g *Grammar) { g.resolver = r }
}

// WithLineDirections sets the spoken line directions (spoken -> direction).
func WithLineDirections(m map[string]string) Option {
	return func(g *Grammar) {
		if len(m) > 0 {
			g.directions = m
		}
	}
}

// WithFullLineNumbers enables "row N [past [direction] M]". Without it only
// "up N" and "down N" are recognized.
func WithFullLineNumbers(on bool) Option {
	return func(g *Grammar) { g.fullLineNumbers = on }
}

// New creates a grammar reading its word lists from lists.
func New(lists Lists, opts ...Option) *Grammar {
	g := &Grammar{
		lists:      lists,
		directions: DefaultLineDirections,
		resolver:   target.NewResolver(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Words splits a phrase into lower-case words.
func Words(phrase string) []string {
	return strings.Fields(strings.ToLower(phrase))
}

func (g *Grammar) newParser(words []string) *parser {
	p := &parser{
		words:           words,
		rangeSpec:       newPhraseList(ListRangeSpecifier, g.lists.List(ListRangeSpecifier)),
		listSpec:        newPhraseList(ListListSpecifier, g.lists.List(ListListSpecifier)),
		colors:          newPhraseList(ListHatColor, g.lists.List(ListHatColor)),
		shapes:          newPhraseList(ListHatShape, g.lists.List(ListHatShape)),
		special:         newPhraseList(ListSpecialMark, g.lists.List(ListSpecialMark)),
		directions:      newPhraseList("line_direction", g.directions),
		fullLineNumbers: g.fullLineNumbers,
	}
	for _, name := range ActionLists {
		p.actions = append(p.actions, newPhraseList(name, g.lists.List(name)))
	}
	return p
}

// Parse reads a phrase. The first complete parse in preference order wins.
func (g *Grammar) Parse(phrase string) (*Phrase, error) {
	words := Words(phrase)
	if len(words) == 0 {
		return nil, &ParseError{Code: ErrCodeIncomplete, Message: "empty phrase"}
	}

	p := g.newParser(words)
	for _, c := range p.commands() {
		if c.next == len(words) {
			ph := c.val
			ph.Words = words
			return &ph, nil
		}
		p.fail(c.next)
	}

	// A leading word that starts nothing, followed by a valid target, is
	// reported as an unknown action.
	q := g.newParser(words)
	if len(words) > 1 && len(q.primitives(0)) == 0 && len(q.rangeSpec.matchAt(words, 0)) == 0 {
		for _, t := range q.targets(1) {
			if t.next == len(words) {
				return nil, &ParseError{
					Code:     ErrCodeUnknownAction,
					Position: 0,
					Word:     words[0],
					Message:  fmt.Sprintf("%q is not an action", words[0]),
				}
			}
		}
	}

	if p.furthest >= len(words) {
		return nil, &ParseError{
			Code:     ErrCodeIncomplete,
			Position: len(words),
			Message:  "phrase ended before a complete target",
		}
	}
	return nil, &ParseError{
		Code:     ErrCodeUnexpectedWord,
		Position: p.furthest,
		Word:     words[p.furthest],
		Message:  "no rule matches here",
	}
}

// Build turns a parse into a command.
func (g *Grammar) Build(ph *Phrase) (target.Command, error) {
	ranges := make([]target.Target, 0, len(ph.Ranges))
	for i, rm := range ph.Ranges {
		prims := make([]target.Primitive, 0, len(rm.Primitives))
		for _, pm := range rm.Primitives {
			mark, err := g.resolve(pm)
			if err != nil {
				return target.Command{}, fmt.Errorf("range %d: %w", i+1, err)
			}
			prims = append(prims, target.PrimitiveFromMark(mark))
		}
		r, err := target.BuildRange(prims, target.RangeSpecifier(rm.Specifier))
		if err != nil {
			return target.Command{}, fmt.Errorf("range %d: %w", i+1, err)
		}
		ranges = append(ranges, r)
	}

	t, err := target.BuildTargetList(ranges)
	if err != nil {
		return target.Command{}, err
	}

	cmd := target.Command{Target: t}
	if ph.Action != nil {
		cmd.Action = ph.Action.Identifier
	}
	return cmd, nil
}

func (g *Grammar) resolve(pm PrimitiveMatch) (target.Mark, error) {
	if pm.SimpleLine != nil {
		return target.ResolveSimpleLineNumber(pm.SimpleLine.Direction, pm.SimpleLine.LineNumber)
	}
	return g.resolver.ResolveMark(pm.Mark)
}

// Resolve parses and builds a phrase.
func (g *Grammar) Resolve(phrase string) (target.Command, error) {
	ph, err := g.Parse(phrase)
	if err != nil {
		return target.Command{}, err
	}
	return g.Build(ph)
}
