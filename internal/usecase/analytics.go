package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vadimbarashkov/vortex/internal/entity"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultDashboardPeriod = entity.PeriodMonth
	DefaultLinkPeriod      = entity.PeriodWeek

	DefaultRecentLimit = 20
	MaxRecentLimit     = 100

	reportRecentLimit = 10
	topLinksLimit     = 5
)

// Top-N sizes per breakdown dimension.
var breakdownLimits = map[entity.Dimension]int{
	entity.DimensionDevice:   10,
	entity.DimensionBrowser:  10,
	entity.DimensionOS:       10,
	entity.DimensionCountry:  15,
	entity.DimensionReferrer: 10,
}

type analyticsRepository interface {
	Summary(ctx context.Context, f entity.ClickFilter) (entity.ClickSummary, error)
	Daily(ctx context.Context, f entity.ClickFilter) ([]entity.DailyPoint, error)
	Hourly(ctx context.Context, f entity.ClickFilter) ([]entity.HourlyPoint, error)
	Breakdown(ctx context.Context, f entity.ClickFilter, dim entity.Dimension, limit int) ([]entity.Bucket, error)
	Recent(ctx context.Context, f entity.ClickFilter, limit int) ([]entity.ClickEvent, error)
	LinkTotals(ctx context.Context, ownerID uuid.UUID) (entity.Overview, error)
	TopLinks(ctx context.Context, ownerID uuid.UUID, limit int) ([]entity.Link, error)
}

type ownedLinkFinder interface {
	RetrieveOwned(ctx context.Context, ownerID uuid.UUID, code string) (*entity.Link, error)
}

// AnalyticsUseCase answers read-only analytics queries for link owners. Each
// call takes a single time snapshot shared by all of its sub-queries, which
// run concurrently.
type AnalyticsUseCase struct {
	repo  analyticsRepository
	links ownedLinkFinder
	options
}

func NewAnalyticsUseCase(repo analyticsRepository, links ownedLinkFinder, opts ...Option) *AnalyticsUseCase {
	return &AnalyticsUseCase{
		repo:    repo,
		links:   links,
		options: newOptions(opts),
	}
}

// Dashboard aggregates clicks over all links of the owner.
func (uc *AnalyticsUseCase) Dashboard(ctx context.Context, ownerID uuid.UUID, period entity.Period) (*entity.Report, error) {
	const op = "usecase.AnalyticsUseCase.Dashboard"

	filter := entity.ClickFilter{
		OwnerID: ownerID,
		Window:  period.Window(uc.now()),
	}

	report, err := uc.report(ctx, filter, period)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return report, nil
}

// LinkAnalytics aggregates clicks of a single owned link.
func (uc *AnalyticsUseCase) LinkAnalytics(ctx context.Context, ownerID uuid.UUID, code string, period entity.Period) (*entity.LinkReport, error) {
	const op = "usecase.AnalyticsUseCase.LinkAnalytics"

	link, err := uc.links.RetrieveOwned(ctx, ownerID, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link: %w", op, err)
	}

	filter := entity.ClickFilter{
		OwnerID:   ownerID,
		ShortCode: link.ShortCode,
		Window:    period.Window(uc.now()),
	}

	report, err := uc.report(ctx, filter, period)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &entity.LinkReport{Link: link, Report: *report}, nil
}

// Recent returns the owner's latest clicks of the past 24 hours.
func (uc *AnalyticsUseCase) Recent(ctx context.Context, ownerID uuid.UUID, limit int) ([]entity.ClickEvent, error) {
	const op = "usecase.AnalyticsUseCase.Recent"

	filter := entity.ClickFilter{
		OwnerID: ownerID,
		Window:  entity.PeriodDay.Window(uc.now()),
	}

	events, err := uc.repo.Recent(ctx, filter, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get recent clicks: %w", op, err)
	}

	return events, nil
}

// Overview summarizes the owner's links and recent traffic volume.
func (uc *AnalyticsUseCase) Overview(ctx context.Context, ownerID uuid.UUID) (*entity.Overview, error) {
	const op = "usecase.AnalyticsUseCase.Overview"

	now := uc.now()
	startOfDay := truncateDay(now)

	var (
		overview                  entity.Overview
		top                       []entity.Link
		today, thisWeek, lastHour entity.ClickSummary
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		overview, err = uc.repo.LinkTotals(gctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		top, err = uc.repo.TopLinks(gctx, ownerID, topLinksLimit)
		return err
	})
	g.Go(func() error {
		var err error
		today, err = uc.repo.Summary(gctx, ownerFilter(ownerID, startOfDay, now))
		return err
	})
	g.Go(func() error {
		var err error
		thisWeek, err = uc.repo.Summary(gctx, ownerFilter(ownerID, now.AddDate(0, 0, -7), now))
		return err
	})
	g.Go(func() error {
		var err error
		lastHour, err = uc.repo.Summary(gctx, ownerFilter(ownerID, now.Add(-time.Hour), now))
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	overview.ClicksToday = today.Clicks
	overview.ClicksThisWeek = thisWeek.Clicks
	overview.ClicksLastHour = lastHour.Clicks
	overview.TopLinks = top

	return &overview, nil
}

func (uc *AnalyticsUseCase) report(ctx context.Context, filter entity.ClickFilter, period entity.Period) (*entity.Report, error) {
	report := entity.Report{
		Period: period,
		Window: filter.Window,
	}

	var (
		daily  []entity.DailyPoint
		hourly []entity.HourlyPoint
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		report.Totals, err = uc.repo.Summary(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		daily, err = uc.repo.Daily(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		hourly, err = uc.repo.Hourly(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		report.Recent, err = uc.repo.Recent(gctx, filter, reportRecentLimit)
		return err
	})

	targets := map[entity.Dimension]*[]entity.Bucket{
		entity.DimensionDevice:   &report.Devices,
		entity.DimensionBrowser:  &report.Browsers,
		entity.DimensionOS:       &report.OS,
		entity.DimensionCountry:  &report.Countries,
		entity.DimensionReferrer: &report.Referrers,
	}

	for dim, target := range targets {
		dim, target := dim, target
		g.Go(func() error {
			buckets, err := uc.repo.Breakdown(gctx, filter, dim, breakdownLimits[dim])
			if err != nil {
				return err
			}

			*target = buckets
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Daily = fillDaily(daily, filter.Window)
	report.Hourly = fillHourly(hourly)

	return &report, nil
}

// fillDaily returns one point per UTC day of the window, zero-filling the
// days without clicks.
func fillDaily(points []entity.DailyPoint, w entity.Window) []entity.DailyPoint {
	byDay := make(map[time.Time]entity.ClickSummary, len(points))
	for _, p := range points {
		byDay[truncateDay(p.Date)] = p.ClickSummary
	}

	var filled []entity.DailyPoint
	for day := truncateDay(w.From); !day.After(w.To); day = day.AddDate(0, 0, 1) {
		filled = append(filled, entity.DailyPoint{Date: day, ClickSummary: byDay[day]})
	}

	return filled
}

// fillHourly returns all 24 hours of the day, zero-filling the missing ones.
func fillHourly(points []entity.HourlyPoint) []entity.HourlyPoint {
	filled := make([]entity.HourlyPoint, 24)
	for h := range filled {
		filled[h].Hour = h
	}

	for _, p := range points {
		if p.Hour >= 0 && p.Hour < 24 {
			filled[p.Hour].Clicks = p.Clicks
		}
	}

	return filled
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func ownerFilter(ownerID uuid.UUID, from, to time.Time) entity.ClickFilter {
	return entity.ClickFilter{
		OwnerID: ownerID,
		Window:  entity.Window{From: from, To: to},
	}
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRecentLimit
	case limit > MaxRecentLimit:
		return MaxRecentLimit
	default:
		return limit
	}
}
