package store

import (
	"context"
	"database/sql"

	"github.com/matzehuels/cellar/pkg/cellar"
	"github.com/matzehuels/cellar/pkg/errors"
)

// Restore writes a full set of records, keeping their IDs, into an empty
// database. It is the inverse of [Store.Load] and is used to restore
// exports.
func (s *Store) Restore(ctx context.Context, r cellar.Records) error {
	// Reject dangling references before touching the database.
	if _, err := cellar.FromRecords(r); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT (SELECT COUNT(*) FROM regions) + (SELECT COUNT(*) FROM bottles)`).Scan(&n); err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "count rows")
		}
		if n > 0 {
			return errors.New(errors.ErrCodeInvalidInput, "database %s is not empty", s.path)
		}

		for _, x := range r.Regions {
			if _, err := tx.ExecContext(ctx, `INSERT INTO regions (id, name, country) VALUES (?, ?, ?)`,
				x.ID, x.Name, x.Country); err != nil {
				return errors.Wrap(errors.ErrCodeStorage, err, "restore region %d", x.ID)
			}
		}
		for _, x := range r.Varietals {
			if _, err := tx.ExecContext(ctx, `INSERT INTO varietals (id, name, boldness) VALUES (?, ?, ?)`,
				x.ID, x.Name, x.Boldness); err != nil {
				return errors.Wrap(errors.ErrCodeStorage, err, "restore varietal %d", x.ID)
			}
		}
		for _, x := range r.Wineries {
			if _, err := tx.ExecContext(ctx, `INSERT INTO wineries (id, name, region_id) VALUES (?, ?, ?)`,
				x.ID, x.Name, x.RegionID); err != nil {
				return errors.Wrap(errors.ErrCodeStorage, err, "restore winery %d", x.ID)
			}
		}
		for _, x := range r.Labels {
			if _, err := tx.ExecContext(ctx, `INSERT INTO labels (id, winery_id, name, vintage, abv) VALUES (?, ?, ?, ?, ?)`,
				x.ID, x.WineryID, x.Name, x.Vintage, x.ABV); err != nil {
				return errors.Wrap(errors.ErrCodeStorage, err, "restore label %d", x.ID)
			}
			if err := insertBlends(ctx, tx, x.ID, x.Blends, nil); err != nil {
				return errors.Wrap(errors.ErrCodeStorage, err, "restore blends of label %d", x.ID)
			}
		}
		for _, x := range r.Bottles {
			bold, cost, hold := columns(x.Position)
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO bottles (
					id, label_id, cost, acquired_on, consumed_on, hold_until,
					pos_boldness, pos_cost, pos_hold
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				x.ID, x.LabelID, x.Cost, x.Acquisition.Format(dateFormat), nullDate(x.Consumption), x.HoldUntil,
				bold, cost, hold); err != nil {
				return errors.Wrap(errors.ErrCodeStorage, err, "restore bottle %d", x.ID)
			}
		}

		s.logger.Debug("restored records", "regions", len(r.Regions), "labels", len(r.Labels), "bottles", len(r.Bottles))
		return nil
	})
}
