package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm changes.
const (
	DomainTarget    = "hatgram/target/v1"
	DomainUtterance = "hatgram/utterance/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps domain and data from running together.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TargetHash computes the content hash of a lowered target tree.
// Two utterances that resolve to the same tree share a hash, which is what
// the history log groups on.
func TargetHash(target IRObject) (string, error) {
	canonical, err := MarshalCanonical(target)
	if err != nil {
		return "", fmt.Errorf("TargetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTarget, canonical), nil
}

// UtteranceHash identifies a resolution: the phrase, the action and the
// target it produced. The history log uses it to skip duplicate writes.
func UtteranceHash(phrase, action string, target IRObject) (string, error) {
	obj := IRObject{
		"phrase": IRString(phrase),
		"action": IRString(action),
		"target": target,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("UtteranceHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainUtterance, canonical), nil
}

// MustTargetHash is like TargetHash but panics on error.
// Use only in tests or when the tree is known to be valid.
func MustTargetHash(target IRObject) string {
	h, err := TargetHash(target)
	if err != nil {
		panic(err)
	}
	return h
}
