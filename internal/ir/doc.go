// Package ir provides the wire representation shared by every hatgram
// package: a sealed JSON value tree and its canonical serialization.
//
// Target trees built by the grammar are lowered to IRObject before they are
// handed to the external command executor, stored in the history log, or
// compared against golden files. ir imports nothing internal.
//
// Constraints:
//   - No float values. Line numbers and offsets are int64.
//   - JSON field names are camelCase; they are part of the executor contract.
//   - Canonical output (MarshalCanonical) follows RFC 8785 key ordering.
package ir
