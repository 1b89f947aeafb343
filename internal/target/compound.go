package target

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/hatgram/internal/ir"
)

// RangeSpecifier says which ends of a range are included.
// The zero value means no specifier was spoken.
type RangeSpecifier string

const (
	RangeIncludingBothEnds RangeSpecifier = "rangeIncludingBothEnds"
	RangeExcludingBothEnds RangeSpecifier = "rangeExcludingBothEnds"
	RangeExcludingAnchor   RangeSpecifier = "rangeExcludingAnchor"
	RangeExcludingActive   RangeSpecifier = "rangeExcludingActive"
)

// ExcludesStart reports whether the specifier drops the start of the range.
func (s RangeSpecifier) ExcludesStart() bool {
	return s == RangeExcludingBothEnds || s == RangeExcludingAnchor
}

// ExcludesEnd reports whether the specifier drops the end of the range.
func (s RangeSpecifier) ExcludesEnd() bool {
	return s == RangeExcludingBothEnds || s == RangeExcludingActive
}

// Range spans from Start to End.
type Range struct {
	Start        Primitive
	End          Primitive
	ExcludeStart bool
	ExcludeEnd   bool
}

func (*Range) isTarget() {}

func (r *Range) ToIR() ir.IRObject {
	return ir.IRObject{
		"type":         ir.IRString("range"),
		"start":        r.Start.ToIR(),
		"end":          r.End.ToIR(),
		"excludeStart": ir.IRBool(r.ExcludeStart),
		"excludeEnd":   ir.IRBool(r.ExcludeEnd),
	}
}

func (r *Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToIR())
}

// List is two or more targets in utterance order.
type List struct {
	Elements []Target
}

func (*List) isTarget() {}

func (l *List) ToIR() ir.IRObject {
	elems := make(ir.IRArray, len(l.Elements))
	for i, e := range l.Elements {
		elems[i] = e.ToIR()
	}
	return ir.IRObject{
		"type":     ir.IRString("list"),
		"elements": elems,
	}
}

func (l *List) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.ToIR())
}

// BuildRange combines one or two primitive targets with an optional
// specifier.
//
// A single target with no specifier is returned unchanged. Otherwise the
// result is a range ending at the last target; with a single target the
// range starts at a fresh base target (the cursor), with more it starts at
// the first.
func BuildRange(primitives []Primitive, spec RangeSpecifier) (Target, error) {
	if len(primitives) == 0 {
		return nil, ErrNoTargets
	}
	if spec == "" && len(primitives) == 1 {
		return primitives[0], nil
	}

	start := BaseTarget()
	if len(primitives) > 1 {
		start = primitives[0]
	}
	return &Range{
		Start:        start,
		End:          primitives[len(primitives)-1],
		ExcludeStart: spec.ExcludesStart(),
		ExcludeEnd:   spec.ExcludesEnd(),
	}, nil
}

// BuildTargetList combines ranges joined by the list specifier. A single
// element is returned as is.
func BuildTargetList(ranges []Target) (Target, error) {
	switch len(ranges) {
	case 0:
		return nil, ErrNoTargets
	case 1:
		return ranges[0], nil
	}
	elems := make([]Target, len(ranges))
	for i, r := range ranges {
		if _, ok := r.(*List); ok {
			return nil, fmt.Errorf("element %d: lists do not nest", i)
		}
		elems[i] = r
	}
	return &List{Elements: elems}, nil
}

// Command is a resolved utterance: an optional action identifier and the
// target it applies to.
type Command struct {
	Action string
	Target Target
}

// ToIR lowers the command to the executor's envelope. Without an action the
// target itself is returned.
func (c Command) ToIR() ir.IRObject {
	if c.Action == "" {
		return c.Target.ToIR()
	}
	return ir.IRObject{
		"action":  ir.IRString(c.Action),
		"targets": ir.IRArray{c.Target.ToIR()},
	}
}
