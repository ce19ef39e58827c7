package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Period is a trailing analytics window ending at the request time.
type Period string

const (
	PeriodDay     Period = "1d"
	PeriodWeek    Period = "7d"
	PeriodMonth   Period = "30d"
	PeriodQuarter Period = "90d"
)

var periodDays = map[Period]int{
	PeriodDay:     1,
	PeriodWeek:    7,
	PeriodMonth:   30,
	PeriodQuarter: 90,
}

// ParsePeriod parses s, falling back to def when s is empty.
func ParsePeriod(s string, def Period) (Period, error) {
	if s == "" {
		return def, nil
	}

	p := Period(s)
	if _, ok := periodDays[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}

	return p, nil
}

// Days returns the length of the period in days.
func (p Period) Days() int {
	return periodDays[p]
}

// Window returns the interval [now-period, now].
func (p Period) Window(now time.Time) Window {
	return Window{
		From: now.AddDate(0, 0, -p.Days()),
		To:   now,
	}
}

// Window bounds an analytics query. All sub-queries of one report share it.
type Window struct {
	From time.Time
	To   time.Time
}

// ClickFilter scopes analytics queries to an owner, optionally a single link, and a window.
type ClickFilter struct {
	OwnerID   uuid.UUID
	ShortCode string
	Window
}

// ClickSummary holds total and unique click counts.
type ClickSummary struct {
	Clicks       int64
	UniqueClicks int64
}

// DailyPoint is one day of the click time series.
type DailyPoint struct {
	Date time.Time
	ClickSummary
}

// HourlyPoint is the number of clicks falling into an hour of the day (UTC).
type HourlyPoint struct {
	Hour   int
	Clicks int64
}

// Bucket is a single row of a top-N breakdown.
type Bucket struct {
	Key    string
	Clicks int64
}

// Breakdowns groups the top-N dimensions of a report.
type Breakdowns struct {
	Devices   []Bucket
	Browsers  []Bucket
	OS        []Bucket
	Countries []Bucket
	Referrers []Bucket
}

// Report is the read-side analytics view over a window.
type Report struct {
	Period Period
	Window
	Totals ClickSummary
	Daily  []DailyPoint
	Hourly []HourlyPoint
	Breakdowns
	Recent []ClickEvent
}

// LinkReport is a Report restricted to one link.
type LinkReport struct {
	Link *Link
	Report
}

// Overview summarizes an owner's links regardless of period.
type Overview struct {
	TotalLinks     int64
	ActiveLinks    int64
	TotalClicks    int64
	UniqueClicks   int64
	ClicksToday    int64
	ClicksThisWeek int64
	ClicksLastHour int64
	TopLinks       []Link
}

// Dimension is a click attribute analytics can break down by.
type Dimension string

const (
	DimensionDevice   Dimension = "device"
	DimensionBrowser  Dimension = "browser"
	DimensionOS       Dimension = "os"
	DimensionCountry  Dimension = "country"
	DimensionReferrer Dimension = "referrer"
)
