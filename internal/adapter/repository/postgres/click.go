package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/vortex/internal/entity"

	pgutil "github.com/vadimbarashkov/vortex/pkg/postgres"
)

type ClickRepository struct {
	db *sqlx.DB
}

func NewClickRepository(db *sqlx.DB) *ClickRepository {
	return &ClickRepository{db: db}
}

// Record persists a click for the link identified by linkID in one transaction.
//
// Uniqueness is decided by inserting the (short code, client IP) visitor
// marker: only the transaction whose insert wins marks its event unique, so
// concurrent first clicks from the same visitor yield exactly one unique event.
// The event and the counters are committed together.
func (r *ClickRepository) Record(ctx context.Context, linkID int64, click entity.ClickEvent) (*entity.ClickEvent, error) {
	const op = "adapter.repository.postgres.ClickRepository.Record"
	const (
		insertVisitor = `INSERT INTO link_visitors(short_code, client_ip, first_seen_at)
VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`
		insertClick = `INSERT INTO click_events(short_code, owner_id, clicked_at, client_ip, user_agent, device, browser, os, country, city, referrer, is_unique)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING *`
	)

	var c clickDB

	err := pgutil.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, insertVisitor, click.ShortCode, click.ClientIP, click.ClickedAt)
		if err != nil {
			return fmt.Errorf("failed to insert into link_visitors table: %w", err)
		}

		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get number of affected rows: %w", err)
		}

		unique := rowsAffected == 1

		err = tx.GetContext(ctx, &c, insertClick,
			click.ShortCode,
			nullUUID(click.OwnerID),
			click.ClickedAt,
			click.ClientIP,
			click.UserAgent,
			string(click.Device),
			click.Browser,
			click.OS,
			nullString(click.Country),
			nullString(click.City),
			nullString(click.Referrer),
			unique,
		)
		if err != nil {
			return fmt.Errorf("failed to insert into click_events table: %w", err)
		}

		res, err = tx.ExecContext(ctx, incrementCountersQuery, linkID, uniqueDelta(unique), click.ClickedAt)
		if err != nil {
			return fmt.Errorf("failed to update links table row: %w", err)
		}

		rowsAffected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get number of affected rows: %w", err)
		}

		if rowsAffected != 1 {
			return entity.ErrLinkNotFound
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	event := c.toEntity()

	return &event, nil
}
