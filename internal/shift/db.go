package shift

import (
	"context"
	"database/sql"
	"errors"

	"ms-excursions/internal/database"
	"ms-excursions/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// InsertClosure records the closure marker. The primary key on
// business_day makes a double close a conflict, reported as inserted ==
// false rather than an error. The insert runs serializable on Postgres
// so a ledger append with an in-flight open-day check conflicts with it
// instead of committing alongside it.
func (d *DB) InsertClosure(ctx context.Context, closure *models.ShiftClosure) (bool, error) {
	var inserted bool
	err := database.RunSerializable(ctx, d.Bun, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewInsert().
			Model(closure).
			On("CONFLICT DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		inserted = affected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (d *DB) GetClosure(ctx context.Context, day string) (*models.ShiftClosure, error) {
	var closure models.ShiftClosure
	err := d.Bun.NewSelect().
		Model(&closure).
		Where("business_day = ?", day).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &closure, nil
}

func (d *DB) IsClosed(ctx context.Context, day string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.ShiftClosure)(nil)).
		Where("business_day = ?", day).
		Exists(ctx)
}
