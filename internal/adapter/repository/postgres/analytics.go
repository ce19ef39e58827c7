package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/vortex/internal/entity"
)

// clickScope restricts click_events to an owner and a window, and to a single
// link when $4 is not empty. Every analytics query shares it.
const clickScope = `owner_id = $1 AND clicked_at >= $2 AND clicked_at <= $3 AND ($4::text = '' OR short_code = $4)`

var dimensionColumns = map[entity.Dimension]string{
	entity.DimensionDevice:   `device`,
	entity.DimensionBrowser:  `browser`,
	entity.DimensionOS:       `os`,
	entity.DimensionCountry:  `COALESCE(country, 'Unknown')`,
	entity.DimensionReferrer: `COALESCE(NULLIF(referrer, ''), 'Direct')`,
}

type AnalyticsRepository struct {
	db *sqlx.DB
}

func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func scopeArgs(f entity.ClickFilter) []any {
	return []any{f.OwnerID, f.From, f.To, f.ShortCode}
}

func (r *AnalyticsRepository) Summary(ctx context.Context, f entity.ClickFilter) (entity.ClickSummary, error) {
	const op = "adapter.repository.postgres.AnalyticsRepository.Summary"
	const query = `SELECT COUNT(*) AS clicks, COUNT(*) FILTER (WHERE is_unique) AS unique_clicks
FROM click_events WHERE ` + clickScope

	var row struct {
		Clicks       int64 `db:"clicks"`
		UniqueClicks int64 `db:"unique_clicks"`
	}

	if err := r.db.GetContext(ctx, &row, query, scopeArgs(f)...); err != nil {
		return entity.ClickSummary{}, fmt.Errorf("%s: failed to count click_events rows: %w", op, err)
	}

	return entity.ClickSummary{Clicks: row.Clicks, UniqueClicks: row.UniqueClicks}, nil
}

// Daily returns one point per UTC day that has at least one click.
func (r *AnalyticsRepository) Daily(ctx context.Context, f entity.ClickFilter) ([]entity.DailyPoint, error) {
	const op = "adapter.repository.postgres.AnalyticsRepository.Daily"
	const query = `SELECT date_trunc('day', clicked_at AT TIME ZONE 'UTC') AS date,
       COUNT(*) AS clicks,
       COUNT(*) FILTER (WHERE is_unique) AS unique_clicks
FROM click_events WHERE ` + clickScope + `
GROUP BY 1 ORDER BY 1`

	var rows []struct {
		Date         time.Time `db:"date"`
		Clicks       int64     `db:"clicks"`
		UniqueClicks int64     `db:"unique_clicks"`
	}

	if err := r.db.SelectContext(ctx, &rows, query, scopeArgs(f)...); err != nil {
		return nil, fmt.Errorf("%s: failed to aggregate click_events rows: %w", op, err)
	}

	points := make([]entity.DailyPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, entity.DailyPoint{
			Date: row.Date,
			ClickSummary: entity.ClickSummary{
				Clicks:       row.Clicks,
				UniqueClicks: row.UniqueClicks,
			},
		})
	}

	return points, nil
}

// Hourly returns click counts grouped by UTC hour of day.
func (r *AnalyticsRepository) Hourly(ctx context.Context, f entity.ClickFilter) ([]entity.HourlyPoint, error) {
	const op = "adapter.repository.postgres.AnalyticsRepository.Hourly"
	const query = `SELECT EXTRACT(HOUR FROM clicked_at AT TIME ZONE 'UTC')::int AS hour, COUNT(*) AS clicks
FROM click_events WHERE ` + clickScope + `
GROUP BY 1 ORDER BY 1`

	var rows []struct {
		Hour   int   `db:"hour"`
		Clicks int64 `db:"clicks"`
	}

	if err := r.db.SelectContext(ctx, &rows, query, scopeArgs(f)...); err != nil {
		return nil, fmt.Errorf("%s: failed to aggregate click_events rows: %w", op, err)
	}

	points := make([]entity.HourlyPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, entity.HourlyPoint{Hour: row.Hour, Clicks: row.Clicks})
	}

	return points, nil
}

// Breakdown returns the top limit values of dim ordered by click count.
func (r *AnalyticsRepository) Breakdown(ctx context.Context, f entity.ClickFilter, dim entity.Dimension, limit int) ([]entity.Bucket, error) {
	const op = "adapter.repository.postgres.AnalyticsRepository.Breakdown"

	column, ok := dimensionColumns[dim]
	if !ok {
		return nil, fmt.Errorf("%s: unsupported dimension %q", op, dim)
	}

	query := fmt.Sprintf(`SELECT %s AS key, COUNT(*) AS clicks
FROM click_events WHERE %s
GROUP BY 1 ORDER BY clicks DESC, key LIMIT $5`, column, clickScope)

	var buckets []entity.Bucket

	if err := r.db.SelectContext(ctx, &buckets, query, append(scopeArgs(f), limit)...); err != nil {
		return nil, fmt.Errorf("%s: failed to aggregate click_events rows by %s: %w", op, dim, err)
	}

	return buckets, nil
}

// Recent returns the latest limit clicks, newest first.
func (r *AnalyticsRepository) Recent(ctx context.Context, f entity.ClickFilter, limit int) ([]entity.ClickEvent, error) {
	const op = "adapter.repository.postgres.AnalyticsRepository.Recent"
	const query = `SELECT * FROM click_events WHERE ` + clickScope + `
ORDER BY clicked_at DESC, id DESC LIMIT $5`

	var rows []clickDB

	if err := r.db.SelectContext(ctx, &rows, query, append(scopeArgs(f), limit)...); err != nil {
		return nil, fmt.Errorf("%s: failed to select from click_events table: %w", op, err)
	}

	events := make([]entity.ClickEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toEntity())
	}

	return events, nil
}

// LinkTotals sums the counters over every link of the owner.
func (r *AnalyticsRepository) LinkTotals(ctx context.Context, ownerID uuid.UUID) (entity.Overview, error) {
	const op = "adapter.repository.postgres.AnalyticsRepository.LinkTotals"
	const query = `SELECT COUNT(*) AS total_links,
       COUNT(*) FILTER (WHERE is_active) AS active_links,
       COALESCE(SUM(click_count), 0) AS total_clicks,
       COALESCE(SUM(unique_clicks), 0) AS unique_clicks
FROM links WHERE owner_id = $1`

	var row struct {
		TotalLinks   int64 `db:"total_links"`
		ActiveLinks  int64 `db:"active_links"`
		TotalClicks  int64 `db:"total_clicks"`
		UniqueClicks int64 `db:"unique_clicks"`
	}

	if err := r.db.GetContext(ctx, &row, query, ownerID); err != nil {
		return entity.Overview{}, fmt.Errorf("%s: failed to aggregate links rows: %w", op, err)
	}

	return entity.Overview{
		TotalLinks:   row.TotalLinks,
		ActiveLinks:  row.ActiveLinks,
		TotalClicks:  row.TotalClicks,
		UniqueClicks: row.UniqueClicks,
	}, nil
}

// TopLinks returns the owner's most clicked links.
func (r *AnalyticsRepository) TopLinks(ctx context.Context, ownerID uuid.UUID, limit int) ([]entity.Link, error) {
	const op = "adapter.repository.postgres.AnalyticsRepository.TopLinks"
	const query = `SELECT * FROM links WHERE owner_id = $1 ORDER BY click_count DESC, created_at DESC LIMIT $2`

	var rows []linkDB

	if err := r.db.SelectContext(ctx, &rows, query, ownerID, limit); err != nil {
		return nil, fmt.Errorf("%s: failed to select from links table: %w", op, err)
	}

	links := make([]entity.Link, 0, len(rows))
	for _, row := range rows {
		links = append(links, *row.toEntity())
	}

	return links, nil
}
