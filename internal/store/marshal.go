package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/hatgram/internal/ir"
)

// marshalTarget converts a target tree to canonical JSON TEXT for storage.
// Canonical form keeps the stored text byte-identical to what TargetHash saw.
func marshalTarget(target ir.IRObject) (string, error) {
	if target == nil {
		return "", fmt.Errorf("marshal target: target tree is nil")
	}
	data, err := ir.MarshalCanonical(target)
	if err != nil {
		return "", fmt.Errorf("marshal target: %w", err)
	}
	return string(data), nil
}

// unmarshalTarget parses canonical JSON TEXT back into a target tree.
// ir.IRObject decodes numbers through json.Number so line numbers stay int64.
func unmarshalTarget(data string) (ir.IRObject, error) {
	if data == "" {
		return nil, fmt.Errorf("unmarshal target: empty column")
	}
	var obj ir.IRObject
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal target: %w", err)
	}
	return obj, nil
}
