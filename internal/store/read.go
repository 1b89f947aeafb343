package store

import (
	"context"
	"fmt"

	"github.com/roach88/hatgram/internal/ir"
)

const utteranceColumns = `id, phrase, action, target, target_hash, seq, ir_version`

// ReadUtterance retrieves a single utterance by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadUtterance(ctx context.Context, id string) (ir.Utterance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+utteranceColumns+`
		FROM utterances
		WHERE id = ?
	`, id)

	return scanUtterance(row)
}

// ListUtterances returns the most recent utterances, oldest first.
// A limit of zero or less returns the whole history.
// Results are ordered by seq ASC, id ASC.
func (s *Store) ListUtterances(ctx context.Context, limit int) ([]ir.Utterance, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryUtterances(ctx, `
		SELECT `+utteranceColumns+` FROM (
			SELECT `+utteranceColumns+`
			FROM utterances
			ORDER BY seq DESC, id COLLATE BINARY DESC
			LIMIT ?
		)
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, limit)
}

// ReadByTarget returns every utterance that resolved to the target tree
// with the given hash, ordered by seq ASC, id ASC.
func (s *Store) ReadByTarget(ctx context.Context, targetHash string) ([]ir.Utterance, error) {
	return s.queryUtterances(ctx, `
		SELECT `+utteranceColumns+`
		FROM utterances
		WHERE target_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, targetHash)
}

// LatestSeq returns the highest seq in the history, or 0 when empty.
// The engine resumes its clock from here.
func (s *Store) LatestSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM utterances`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("latest seq: %w", err)
	}
	return seq, nil
}

func (s *Store) queryUtterances(ctx context.Context, query string, args ...any) ([]ir.Utterance, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query utterances: %w", err)
	}
	defer rows.Close()

	var utterances []ir.Utterance
	for rows.Next() {
		u, err := scanUtterance(rows)
		if err != nil {
			return nil, err
		}
		utterances = append(utterances, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate utterances: %w", err)
	}

	// Return empty slice instead of nil
	if utterances == nil {
		utterances = []ir.Utterance{}
	}

	return utterances, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUtterance(row scanner) (ir.Utterance, error) {
	var u ir.Utterance
	var targetJSON string

	if err := row.Scan(
		&u.ID, &u.Phrase, &u.Action, &targetJSON, &u.TargetHash, &u.Seq, &u.IRVersion,
	); err != nil {
		return ir.Utterance{}, fmt.Errorf("scan utterance: %w", err)
	}

	target, err := unmarshalTarget(targetJSON)
	if err != nil {
		return ir.Utterance{}, fmt.Errorf("utterance %s: %w", u.ID, err)
	}
	u.Target = target

	return u, nil
}
