package target

import (
	"encoding/json"

	"github.com/roach88/hatgram/internal/ir"
)

// Target is a node of the target tree.
// Sealed: Primitive, *Range and *List.
type Target interface {
	ToIR() ir.IRObject
	isTarget()
}

// Primitive is an opaque primitive target node. Its fields come from the
// primitive grammar; hatgram only ever adds a mark or line fragment.
type Primitive struct {
	fields ir.IRObject
}

func (Primitive) isTarget() {}

// BaseTarget returns a fresh base primitive target, {"type": "primitive"}.
// Every call allocates: callers may extend the result freely.
func BaseTarget() Primitive {
	return Primitive{fields: ir.IRObject{"type": ir.IRString("primitive")}}
}

// NewPrimitive wraps fields produced elsewhere. The fields are copied.
func NewPrimitive(fields ir.IRObject) Primitive {
	return Primitive{fields: fields.Clone()}
}

// PrimitiveFromMark is the primitive target for a bare mark: the base target
// with the mark's fragment applied.
func PrimitiveFromMark(m Mark) Primitive {
	return BaseTarget().With(m.Fragment())
}

// With returns a copy of p with the fragments merged in. p is unchanged.
func (p Primitive) With(fragments ...ir.IRObject) Primitive {
	return Primitive{fields: p.fields.Merge(fragments...)}
}

// ToIR returns a copy of the node's fields.
func (p Primitive) ToIR() ir.IRObject {
	if p.fields == nil {
		return BaseTarget().fields
	}
	return p.fields.Clone()
}

func (p Primitive) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToIR())
}
