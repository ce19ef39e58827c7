package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/vortex/internal/entity"

	pgutil "github.com/vadimbarashkov/vortex/pkg/postgres"
)

const incrementCountersQuery = `UPDATE links
SET click_count = click_count + 1,
    unique_clicks = unique_clicks + $2,
    last_clicked_at = GREATEST(last_clicked_at, $3)
WHERE id = $1`

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Save inserts a link. Uniqueness of the short code is enforced by the
// database; a violation maps to ErrAliasExists for custom aliases and to
// ErrShortCodeExists for generated codes.
func (r *LinkRepository) Save(ctx context.Context, link *entity.Link) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.Save"
	const query = `INSERT INTO links(short_code, custom_alias, original_url, owner_id, password_hash, description, category, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING *`

	var l linkDB

	err := r.db.GetContext(ctx, &l, query,
		link.ShortCode,
		nullString(link.CustomAlias),
		link.OriginalURL,
		nullUUID(link.OwnerID),
		nullString(link.PasswordHash),
		link.Description,
		link.Category,
		nullTime(link.ExpiresAt),
	)
	if err != nil {
		if isUniqueViolationError(err) {
			if link.CustomAlias != "" {
				return nil, fmt.Errorf("%s: %w", op, entity.ErrAliasExists)
			}

			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into links table: %w", op, err)
	}

	return l.toEntity(), nil
}

// RetrieveByCode looks a link up by short code. Custom aliases are stored as
// short codes, so both share one namespace.
func (r *LinkRepository) RetrieveByCode(ctx context.Context, code string) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.RetrieveByCode"
	const query = `SELECT * FROM links WHERE short_code = $1`

	var l linkDB

	if err := r.db.GetContext(ctx, &l, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from links table: %w", op, err)
	}

	return l.toEntity(), nil
}

func (r *LinkRepository) RetrieveOwned(ctx context.Context, ownerID uuid.UUID, code string) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.RetrieveOwned"
	const query = `SELECT * FROM links WHERE short_code = $1 AND owner_id = $2`

	var l linkDB

	if err := r.db.GetContext(ctx, &l, query, code, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from links table: %w", op, err)
	}

	return l.toEntity(), nil
}

// IncrementCounters bumps the counters of a link in a single statement.
func (r *LinkRepository) IncrementCounters(ctx context.Context, id int64, unique bool, at time.Time) error {
	const op = "adapter.repository.postgres.LinkRepository.IncrementCounters"

	res, err := r.db.ExecContext(ctx, incrementCountersQuery, id, uniqueDelta(unique), at)
	if err != nil {
		return fmt.Errorf("%s: failed to update links table row: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	return nil
}

func (r *LinkRepository) Update(ctx context.Context, ownerID uuid.UUID, code string, upd entity.LinkUpdate) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.Update"
	const query = `UPDATE links
SET original_url = COALESCE($3, original_url),
    description = COALESCE($4, description),
    category = COALESCE($5, category),
    is_active = COALESCE($6, is_active),
    expires_at = CASE WHEN $7::boolean THEN NULL ELSE COALESCE($8, expires_at) END
WHERE short_code = $1 AND owner_id = $2
RETURNING *`

	var l linkDB

	err := r.db.GetContext(ctx, &l, query,
		code,
		ownerID,
		upd.OriginalURL,
		upd.Description,
		upd.Category,
		upd.IsActive,
		upd.ClearExpiry,
		nullTime(upd.ExpiresAt),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update links table row: %w", op, err)
	}

	return l.toEntity(), nil
}

// Toggle flips the active flag of an owned link.
func (r *LinkRepository) Toggle(ctx context.Context, ownerID uuid.UUID, code string) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.Toggle"
	const query = `UPDATE links SET is_active = NOT is_active WHERE short_code = $1 AND owner_id = $2 RETURNING *`

	var l linkDB

	if err := r.db.GetContext(ctx, &l, query, code, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update links table row: %w", op, err)
	}

	return l.toEntity(), nil
}

// Remove deletes an owned link together with its click history and visitor
// markers, so a code freed by deletion starts from a clean slate.
func (r *LinkRepository) Remove(ctx context.Context, ownerID uuid.UUID, code string) error {
	const op = "adapter.repository.postgres.LinkRepository.Remove"
	const (
		deleteLink     = `DELETE FROM links WHERE short_code = $1 AND owner_id = $2`
		deleteClicks   = `DELETE FROM click_events WHERE short_code = $1`
		deleteVisitors = `DELETE FROM link_visitors WHERE short_code = $1`
	)

	err := pgutil.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, deleteLink, code, ownerID)
		if err != nil {
			return fmt.Errorf("failed to delete from links table: %w", err)
		}

		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get number of affected rows: %w", err)
		}

		if rowsAffected != 1 {
			return entity.ErrLinkNotFound
		}

		if _, err := tx.ExecContext(ctx, deleteClicks, code); err != nil {
			return fmt.Errorf("failed to delete from click_events table: %w", err)
		}

		if _, err := tx.ExecContext(ctx, deleteVisitors, code); err != nil {
			return fmt.Errorf("failed to delete from link_visitors table: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func uniqueDelta(unique bool) int {
	if unique {
		return 1
	}
	return 0
}
