package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/layout"
)

// Session is one committed change session.
type Session struct {
	ID        uuid.UUID
	Started   time.Time
	Committed time.Time
	Summary   string
	Moves     int
}

// Move is one audited position change.
type Move struct {
	Session   uuid.UUID
	Committed time.Time
	BottleID  int64
	From      layout.Position
	To        layout.Position
}

// Sessions returns the most recent committed sessions, newest first. A limit
// of zero or less returns all of them.
func (s *Store) Sessions(ctx context.Context, limit int) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT cs.id, cs.started_at, cs.committed_at, cs.summary, COUNT(pc.bottle_id)
		FROM change_sessions cs
		LEFT JOIN position_changes pc ON pc.session_id = cs.id
		GROUP BY cs.id
		ORDER BY cs.committed_at DESC, cs.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "query sessions")
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess               Session
			id                 string
			started, committed string
		)
		if err := rows.Scan(&id, &started, &committed, &sess.Summary, &sess.Moves); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan session")
		}
		if sess.ID, err = uuid.Parse(id); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "session id %q", id)
		}
		if sess.Started, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "session %s start", id)
		}
		if sess.Committed, err = time.Parse(time.RFC3339, committed); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "session %s commit", id)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "query sessions")
	}
	return out, nil
}

// Moves returns every audited move of one bottle, oldest first.
func (s *Store) Moves(ctx context.Context, bottleID int64) ([]Move, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT pc.session_id, cs.committed_at,
		       pc.from_boldness, pc.from_cost, pc.from_hold,
		       pc.to_boldness, pc.to_cost, pc.to_hold
		FROM position_changes pc
		JOIN change_sessions cs ON cs.id = pc.session_id
		WHERE pc.bottle_id = ?
		ORDER BY cs.committed_at, pc.rowid`, bottleID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "query moves")
	}
	defer rows.Close()

	var out []Move
	for rows.Next() {
		var (
			m                      Move
			session, committed     string
			fb, fc, fh, tb, tc, th sql.NullInt64
		)
		if err := rows.Scan(&session, &committed, &fb, &fc, &fh, &tb, &tc, &th); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan move")
		}
		if m.Session, err = uuid.Parse(session); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "session id %q", session)
		}
		if m.Committed, err = time.Parse(time.RFC3339, committed); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "session %s commit", session)
		}
		m.BottleID = bottleID
		m.From = position(fb, fc, fh)
		m.To = position(tb, tc, th)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "query moves")
	}
	return out, nil
}
