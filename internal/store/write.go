package store

import (
	"context"
	"fmt"

	"github.com/roach88/hatgram/internal/ir"
)

// WriteUtterance appends an utterance to the history.
// Uses ON CONFLICT DO NOTHING: a duplicate id, or the same resolution
// written twice under one seq, is silently ignored. Other constraint
// violations still return errors.
//
// TargetHash is recomputed when the caller left it empty.
func (s *Store) WriteUtterance(ctx context.Context, u ir.Utterance) error {
	targetJSON, err := marshalTarget(u.Target)
	if err != nil {
		return fmt.Errorf("write utterance: %w", err)
	}

	targetHash := u.TargetHash
	if targetHash == "" {
		targetHash, err = ir.TargetHash(u.Target)
		if err != nil {
			return fmt.Errorf("write utterance: %w", err)
		}
	}

	utteranceHash, err := ir.UtteranceHash(u.Phrase, u.Action, u.Target)
	if err != nil {
		return fmt.Errorf("write utterance: %w", err)
	}

	irVersion := u.IRVersion
	if irVersion == "" {
		irVersion = ir.IRVersion
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO utterances
		(id, phrase, action, target, target_hash, utterance_hash, seq, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		u.ID,
		u.Phrase,
		u.Action,
		targetJSON,
		targetHash,
		utteranceHash,
		u.Seq,
		irVersion,
	)
	if err != nil {
		return fmt.Errorf("write utterance: %w", err)
	}

	return nil
}
