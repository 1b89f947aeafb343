// Package target builds the target expression tree for a spoken command.
//
// The tree describes what text an editing action operates on. Leaves are
// primitive targets: opaque nodes that start from the base target
// ({"type": "primitive"}) and carry the fragment contributed by a mark.
// Primitive targets combine into ranges, and ranges into lists:
//
//	mark resolver  -> Mark (decorated symbol | special mark | line number)
//	primitive      -> BaseTarget() merged with Mark.Fragment()
//	BuildRange     -> Primitive (pass-through) | *Range
//	BuildTargetList-> single element (unwrapped) | *List
//
// Every node lowers to an ir.IRObject whose field names and tag strings are
// the contract with the external command executor.
//
// Construction is synchronous and allocation-only: nothing here blocks, and
// no node is shared between two trees.
package target
