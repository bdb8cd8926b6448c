package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/matzehuels/cellar/pkg/cellar"
	"github.com/matzehuels/cellar/pkg/changelog"
	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/observability"
)

// IDMap maps the provisional IDs of a session to the IDs storage assigned.
type IDMap map[int64]int64

// Resolve returns the stored ID for id. Stored IDs map to themselves.
func (m IDMap) Resolve(id int64) int64 {
	if id >= 0 {
		return id
	}
	if got, ok := m[id]; ok {
		return got
	}
	return id
}

// Commit writes every change in l in one transaction and records the
// session together with one audit row per moved bottle. New entities are
// inserted first; the returned map gives their stored IDs.
//
// Moved bottles are unslotted before any is slotted again so that swaps
// never trip the one-bottle-per-slot index.
func (s *Store) Commit(ctx context.Context, l *changelog.Log) (IDMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	ids := make(IDMap)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		steps := []struct {
			name string
			fn   func(context.Context, *sql.Tx, *changelog.Log, IDMap) error
		}{
			{"regions", insertRegions},
			{"varietals", insertVarietals},
			{"wineries", insertWineries},
			{"labels", insertLabels},
			{"bottles", insertBottles},
			{"label wineries", updateLabelWineries},
			{"consumptions", updateConsumptions},
			{"positions", updatePositions},
			{"session", insertSession},
		}
		for _, step := range steps {
			if err := step.fn(ctx, tx, l, ids); err != nil {
				return errors.Wrap(errors.ErrCodeStorage, err, "commit %s", step.name)
			}
		}
		return nil
	})
	observability.Store().OnCommit(ctx, l.Session(), l.Summary(), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("committed session", "session", l.Session(), "summary", l.Summary(), "took", time.Since(start).Round(time.Millisecond))
	return ids, nil
}

func insert(ctx context.Context, tx *sql.Tx, ids IDMap, provisional int64, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ids[provisional] = id
	return nil
}

func insertRegions(ctx context.Context, tx *sql.Tx, l *changelog.Log, ids IDMap) error {
	for _, r := range l.Regions() {
		if err := insert(ctx, tx, ids, r.ID,
			`INSERT INTO regions (name, country) VALUES (?, ?)`, r.Name, r.Country); err != nil {
			return err
		}
	}
	return nil
}

func insertVarietals(ctx context.Context, tx *sql.Tx, l *changelog.Log, ids IDMap) error {
	for _, v := range l.Varietals() {
		if err := insert(ctx, tx, ids, v.ID,
			`INSERT INTO varietals (name, boldness) VALUES (?, ?)`, v.Name, v.Boldness); err != nil {
			return err
		}
	}
	return nil
}

func insertWineries(ctx context.Context, tx *sql.Tx, l *changelog.Log, ids IDMap) error {
	for _, w := range l.Wineries() {
		if err := insert(ctx, tx, ids, w.ID,
			`INSERT INTO wineries (name, region_id) VALUES (?, ?)`, w.Name, ids.Resolve(w.RegionID)); err != nil {
			return err
		}
	}
	return nil
}

func insertLabels(ctx context.Context, tx *sql.Tx, l *changelog.Log, ids IDMap) error {
	for _, lb := range l.Labels() {
		if err := insert(ctx, tx, ids, lb.ID,
			`INSERT INTO labels (winery_id, name, vintage, abv) VALUES (?, ?, ?, ?)`,
			ids.Resolve(lb.WineryID), lb.Name, lb.Vintage, lb.ABV); err != nil {
			return err
		}
		if err := insertBlends(ctx, tx, ids.Resolve(lb.ID), lb.Blends, ids); err != nil {
			return err
		}
	}
	return nil
}

func insertBlends(ctx context.Context, tx *sql.Tx, labelID int64, blends []cellar.Blend, ids IDMap) error {
	for _, bl := range blends {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO blends (label_id, varietal_id, portion) VALUES (?, ?, ?)`,
			labelID, ids.Resolve(bl.VarietalID), bl.Portion); err != nil {
			return err
		}
	}
	return nil
}

// insertBottles stores new bottles without a slot; updatePositions places
// them.
func insertBottles(ctx context.Context, tx *sql.Tx, l *changelog.Log, ids IDMap) error {
	for _, b := range l.Bottles() {
		if err := insert(ctx, tx, ids, b.ID,
			`INSERT INTO bottles (label_id, cost, acquired_on, hold_until) VALUES (?, ?, ?, ?)`,
			ids.Resolve(b.LabelID), b.Cost, b.Acquisition.Format(dateFormat), b.HoldUntil); err != nil {
			return err
		}
	}
	return nil
}

func updateLabelWineries(ctx context.Context, tx *sql.Tx, l *changelog.Log, ids IDMap) error {
	for _, lb := range l.LabelWineries() {
		if _, err := tx.ExecContext(ctx, `UPDATE labels SET winery_id = ? WHERE id = ?`,
			ids.Resolve(lb.WineryID), ids.Resolve(lb.ID)); err != nil {
			return err
		}
	}
	return nil
}

func updateConsumptions(ctx context.Context, tx *sql.Tx, l *changelog.Log, ids IDMap) error {
	for _, b := range l.Consumptions() {
		if err := execOne(ctx, tx, `UPDATE bottles SET consumed_on = ? WHERE id = ?`,
			nullDate(b.Consumption), ids.Resolve(b.ID)); err != nil {
			return err
		}
	}
	return nil
}

func updatePositions(ctx context.Context, tx *sql.Tx, l *changelog.Log, ids IDMap) error {
	moved := append(l.Cleared(), l.Positions()...)
	for _, pc := range moved {
		if err := execOne(ctx, tx,
			`UPDATE bottles SET pos_boldness = NULL, pos_cost = NULL, pos_hold = NULL WHERE id = ?`,
			ids.Resolve(pc.BottleID)); err != nil {
			return err
		}
	}
	for _, pc := range l.Positions() {
		bold, cost, hold := columns(pc.To)
		if err := execOne(ctx, tx,
			`UPDATE bottles SET pos_boldness = ?, pos_cost = ?, pos_hold = ? WHERE id = ?`,
			bold, cost, hold, ids.Resolve(pc.BottleID)); err != nil {
			return err
		}
	}
	return nil
}

func insertSession(ctx context.Context, tx *sql.Tx, l *changelog.Log, ids IDMap) error {
	session := l.Session().String()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO change_sessions (id, started_at, committed_at, summary) VALUES (?, ?, ?, ?)`,
		session, l.Started().UTC().Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339), l.Summary()); err != nil {
		return err
	}

	moved := append(l.Cleared(), l.Positions()...)
	for _, pc := range moved {
		fb, fc, fh := columns(pc.From)
		tb, tc, th := columns(pc.To)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO position_changes (
				session_id, bottle_id,
				from_boldness, from_cost, from_hold,
				to_boldness, to_cost, to_hold
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			session, ids.Resolve(pc.BottleID), fb, fc, fh, tb, tc, th); err != nil {
			return err
		}
	}
	return nil
}

// execOne runs an update that must touch exactly one row.
func execOne(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return errors.New(errors.ErrCodeNotFound, "bottle %v not found", args[len(args)-1])
	}
	return nil
}
