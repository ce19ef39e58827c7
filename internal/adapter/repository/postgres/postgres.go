// Package postgres implements the link, click and analytics storage on top of
// PostgreSQL through sqlx and the pgx driver.
package postgres

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vadimbarashkov/vortex/internal/entity"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode
}

type linkDB struct {
	ID            int64          `db:"id"`
	ShortCode     string         `db:"short_code"`
	CustomAlias   sql.NullString `db:"custom_alias"`
	OriginalURL   string         `db:"original_url"`
	OwnerID       uuid.NullUUID  `db:"owner_id"`
	PasswordHash  sql.NullString `db:"password_hash"`
	Description   string         `db:"description"`
	Category      string         `db:"category"`
	IsActive      bool           `db:"is_active"`
	ExpiresAt     sql.NullTime   `db:"expires_at"`
	ClickCount    int64          `db:"click_count"`
	UniqueClicks  int64          `db:"unique_clicks"`
	LastClickedAt sql.NullTime   `db:"last_clicked_at"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (l *linkDB) toEntity() *entity.Link {
	return &entity.Link{
		ID:           l.ID,
		ShortCode:    l.ShortCode,
		CustomAlias:  l.CustomAlias.String,
		OriginalURL:  l.OriginalURL,
		OwnerID:      l.OwnerID.UUID,
		PasswordHash: l.PasswordHash.String,
		Description:  l.Description,
		Category:     l.Category,
		IsActive:     l.IsActive,
		ExpiresAt:    timePtr(l.ExpiresAt),
		LinkStats: entity.LinkStats{
			ClickCount:    l.ClickCount,
			UniqueClicks:  l.UniqueClicks,
			LastClickedAt: timePtr(l.LastClickedAt),
		},
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

type clickDB struct {
	ID        int64          `db:"id"`
	ShortCode string         `db:"short_code"`
	OwnerID   uuid.NullUUID  `db:"owner_id"`
	ClickedAt time.Time      `db:"clicked_at"`
	ClientIP  string         `db:"client_ip"`
	UserAgent string         `db:"user_agent"`
	Device    string         `db:"device"`
	Browser   string         `db:"browser"`
	OS        string         `db:"os"`
	Country   sql.NullString `db:"country"`
	City      sql.NullString `db:"city"`
	Referrer  sql.NullString `db:"referrer"`
	IsUnique  bool           `db:"is_unique"`
}

func (c *clickDB) toEntity() entity.ClickEvent {
	return entity.ClickEvent{
		ID:        c.ID,
		ShortCode: c.ShortCode,
		OwnerID:   c.OwnerID.UUID,
		ClickedAt: c.ClickedAt,
		ClientIP:  c.ClientIP,
		UserAgent: c.UserAgent,
		ClientInfo: entity.ClientInfo{
			Device:  entity.Device(c.Device),
			Browser: c.Browser,
			OS:      c.OS,
			Country: c.Country.String,
			City:    c.City.String,
		},
		Referrer: c.Referrer.String,
		IsUnique: c.IsUnique,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
