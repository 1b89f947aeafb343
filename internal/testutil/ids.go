package testutil

import (
	"fmt"
	"sync"
)

// FixedIDs generates predictable utterance IDs: "<prefix>-0001", "<prefix>-0002", ...
//
// This enables deterministic test execution and golden snapshot comparison.
// The same scenario with the same FixedIDs produces byte-identical history.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewFixedIDs creates a generator. An empty prefix uses "utt".
func NewFixedIDs(prefix string) *FixedIDs {
	if prefix == "" {
		prefix = "utt"
	}
	return &FixedIDs{prefix: prefix}
}

// Generate returns the next ID.
//
// Implements engine.IDGenerator interface.
func (g *FixedIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset restarts the sequence.
func (g *FixedIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
