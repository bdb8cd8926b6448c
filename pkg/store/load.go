package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/matzehuels/cellar/pkg/cellar"
	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/layout"
	"github.com/matzehuels/cellar/pkg/observability"
)

// Load reads every stored entity into a new cellar.
func (s *Store) Load(ctx context.Context) (*cellar.Cellar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := time.Now()
	r, err := s.records(ctx)
	if err != nil {
		observability.Store().OnLoad(ctx, 0, time.Since(start), err)
		return nil, err
	}
	c, err := cellar.FromRecords(r)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeStorage, err, "inconsistent database")
		observability.Store().OnLoad(ctx, 0, time.Since(start), err)
		return nil, err
	}
	observability.Store().OnLoad(ctx, len(r.Bottles), time.Since(start), nil)
	s.logger.Debug("loaded cellar", "bottles", len(r.Bottles), "labels", len(r.Labels), "took", time.Since(start).Round(time.Millisecond))
	return c, nil
}

func (s *Store) records(ctx context.Context) (cellar.Records, error) {
	var r cellar.Records
	var err error
	if r.Regions, err = s.regions(ctx); err != nil {
		return r, errors.Wrap(errors.ErrCodeStorage, err, "load regions")
	}
	if r.Wineries, err = s.wineries(ctx); err != nil {
		return r, errors.Wrap(errors.ErrCodeStorage, err, "load wineries")
	}
	if r.Varietals, err = s.varietals(ctx); err != nil {
		return r, errors.Wrap(errors.ErrCodeStorage, err, "load varietals")
	}
	if r.Labels, err = s.labels(ctx); err != nil {
		return r, errors.Wrap(errors.ErrCodeStorage, err, "load labels")
	}
	if r.Bottles, err = s.bottles(ctx); err != nil {
		return r, errors.Wrap(errors.ErrCodeStorage, err, "load bottles")
	}
	return r, nil
}

// queryAll runs query and scans each row with scan.
func queryAll[T any](ctx context.Context, db *sql.DB, query string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) regions(ctx context.Context) ([]cellar.Region, error) {
	return queryAll(ctx, s.db, `SELECT id, name, country FROM regions ORDER BY id`,
		func(rows *sql.Rows) (cellar.Region, error) {
			var r cellar.Region
			err := rows.Scan(&r.ID, &r.Name, &r.Country)
			return r, err
		})
}

func (s *Store) wineries(ctx context.Context) ([]cellar.Winery, error) {
	return queryAll(ctx, s.db, `SELECT id, name, region_id FROM wineries ORDER BY id`,
		func(rows *sql.Rows) (cellar.Winery, error) {
			var w cellar.Winery
			err := rows.Scan(&w.ID, &w.Name, &w.RegionID)
			return w, err
		})
}

func (s *Store) varietals(ctx context.Context) ([]cellar.Varietal, error) {
	return queryAll(ctx, s.db, `SELECT id, name, boldness FROM varietals ORDER BY id`,
		func(rows *sql.Rows) (cellar.Varietal, error) {
			var v cellar.Varietal
			err := rows.Scan(&v.ID, &v.Name, &v.Boldness)
			return v, err
		})
}

func (s *Store) labels(ctx context.Context) ([]cellar.Label, error) {
	labels, err := queryAll(ctx, s.db, `SELECT id, winery_id, name, vintage, abv FROM labels ORDER BY id`,
		func(rows *sql.Rows) (cellar.Label, error) {
			var l cellar.Label
			err := rows.Scan(&l.ID, &l.WineryID, &l.Name, &l.Vintage, &l.ABV)
			return l, err
		})
	if err != nil {
		return nil, err
	}

	type blendRow struct {
		labelID int64
		blend   cellar.Blend
	}
	blends, err := queryAll(ctx, s.db, `SELECT label_id, varietal_id, portion FROM blends ORDER BY label_id, varietal_id`,
		func(rows *sql.Rows) (blendRow, error) {
			var b blendRow
			err := rows.Scan(&b.labelID, &b.blend.VarietalID, &b.blend.Portion)
			return b, err
		})
	if err != nil {
		return nil, err
	}

	byLabel := make(map[int64][]cellar.Blend)
	for _, b := range blends {
		byLabel[b.labelID] = append(byLabel[b.labelID], b.blend)
	}
	for i := range labels {
		labels[i].Blends = byLabel[labels[i].ID]
	}
	return labels, nil
}

func (s *Store) bottles(ctx context.Context) ([]cellar.Bottle, error) {
	return queryAll(ctx, s.db, `
		SELECT id, label_id, cost, acquired_on, consumed_on, hold_until,
		       pos_boldness, pos_cost, pos_hold
		FROM bottles ORDER BY id`,
		func(rows *sql.Rows) (cellar.Bottle, error) {
			var (
				b                cellar.Bottle
				acquired         string
				consumed         sql.NullString
				bold, cost, hold sql.NullInt64
			)
			if err := rows.Scan(&b.ID, &b.LabelID, &b.Cost, &acquired, &consumed, &b.HoldUntil, &bold, &cost, &hold); err != nil {
				return b, err
			}

			var err error
			if b.Acquisition, err = time.Parse(dateFormat, acquired); err != nil {
				return b, err
			}
			if consumed.Valid {
				if b.Consumption, err = time.Parse(dateFormat, consumed.String); err != nil {
					return b, err
				}
			}
			b.Position = position(bold, cost, hold)
			return b, nil
		})
}

// position rebuilds a position from its three nullable columns. The CHECK
// constraint guarantees they are all set or all NULL.
func position(bold, cost, hold sql.NullInt64) layout.Position {
	if !bold.Valid {
		return layout.Unpositioned()
	}
	return layout.PositionedAt(layout.Coord{
		Boldness: int(bold.Int64),
		Cost:     int(cost.Int64),
		Hold:     int(hold.Int64),
	})
}

// columns splits a position into three nullable column values.
func columns(p layout.Position) (bold, cost, hold any) {
	c, ok := p.Coord()
	if !ok {
		return nil, nil, nil
	}
	return c.Boldness, c.Cost, c.Hold
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(dateFormat)
}
