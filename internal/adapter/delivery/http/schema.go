package http

import (
	"time"

	"github.com/vadimbarashkov/vortex/internal/entity"
)

const dateLayout = "2006-01-02"

// createLinkRequest represents the request payload for shortening a URL.
type createLinkRequest struct {
	OriginalURL string     `json:"original_url" validate:"required,http_url,max=2048"`
	CustomAlias string     `json:"custom_alias,omitempty" validate:"omitempty,min=3,max=32"`
	Password    string     `json:"password,omitempty" validate:"omitempty,max=72"`
	Description string     `json:"description,omitempty" validate:"max=500"`
	Category    string     `json:"category,omitempty" validate:"max=50"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func (req createLinkRequest) toEntity() entity.NewLink {
	return entity.NewLink{
		OriginalURL: req.OriginalURL,
		CustomAlias: req.CustomAlias,
		Password:    req.Password,
		Description: req.Description,
		Category:    req.Category,
		ExpiresAt:   req.ExpiresAt,
	}
}

// updateLinkRequest represents a partial update of a link. Omitted fields are left unchanged.
type updateLinkRequest struct {
	OriginalURL *string    `json:"original_url,omitempty" validate:"omitempty,http_url,max=2048"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=500"`
	Category    *string    `json:"category,omitempty" validate:"omitempty,max=50"`
	IsActive    *bool      `json:"is_active,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ClearExpiry bool       `json:"clear_expiry,omitempty"`
}

func (req updateLinkRequest) toEntity() entity.LinkUpdate {
	return entity.LinkUpdate{
		OriginalURL: req.OriginalURL,
		Description: req.Description,
		Category:    req.Category,
		IsActive:    req.IsActive,
		ExpiresAt:   req.ExpiresAt,
		ClearExpiry: req.ClearExpiry,
	}
}

// verifyPasswordRequest represents a password submission for a protected link.
type verifyPasswordRequest struct {
	ShortCode string `json:"short_code" validate:"required,max=32"`
	Password  string `json:"password" validate:"required,max=72"`
}

type verifyPasswordResponse struct {
	OriginalURL string `json:"original_url"`
}

type linkStats struct {
	ClickCount    int64      `json:"click_count"`
	UniqueClicks  int64      `json:"unique_clicks"`
	LastClickedAt *time.Time `json:"last_clicked_at,omitempty"`
}

// linkResponse represents a link as seen by its owner. The password hash never leaves the service.
type linkResponse struct {
	ID          int64      `json:"id"`
	ShortCode   string     `json:"short_code"`
	CustomAlias string     `json:"custom_alias,omitempty"`
	OriginalURL string     `json:"original_url"`
	HasPassword bool       `json:"has_password"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	IsActive    bool       `json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Stats       linkStats  `json:"stats"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toLinkResponse(link *entity.Link) linkResponse {
	return linkResponse{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		CustomAlias: link.CustomAlias,
		OriginalURL: link.OriginalURL,
		HasPassword: link.HasPassword(),
		Description: link.Description,
		Category:    link.Category,
		IsActive:    link.IsActive,
		ExpiresAt:   link.ExpiresAt,
		Stats: linkStats{
			ClickCount:    link.ClickCount,
			UniqueClicks:  link.UniqueClicks,
			LastClickedAt: link.LastClickedAt,
		},
		CreatedAt: link.CreatedAt,
		UpdatedAt: link.UpdatedAt,
	}
}

func toLinkResponses(links []entity.Link) []linkResponse {
	resp := make([]linkResponse, 0, len(links))
	for i := range links {
		resp = append(resp, toLinkResponse(&links[i]))
	}
	return resp
}

// clickResponse represents a recorded visit. The visitor IP is not exposed.
type clickResponse struct {
	ID        int64     `json:"id"`
	ShortCode string    `json:"short_code"`
	ClickedAt time.Time `json:"clicked_at"`
	Device    string    `json:"device"`
	Browser   string    `json:"browser"`
	OS        string    `json:"os"`
	Country   string    `json:"country,omitempty"`
	City      string    `json:"city,omitempty"`
	Referrer  string    `json:"referrer,omitempty"`
	IsUnique  bool      `json:"is_unique"`
}

func toClickResponses(clicks []entity.ClickEvent) []clickResponse {
	resp := make([]clickResponse, 0, len(clicks))
	for _, c := range clicks {
		resp = append(resp, clickResponse{
			ID:        c.ID,
			ShortCode: c.ShortCode,
			ClickedAt: c.ClickedAt,
			Device:    string(c.Device),
			Browser:   c.Browser,
			OS:        c.OS,
			Country:   c.Country,
			City:      c.City,
			Referrer:  c.Referrer,
			IsUnique:  c.IsUnique,
		})
	}
	return resp
}

type clickTotals struct {
	Clicks       int64 `json:"clicks"`
	UniqueClicks int64 `json:"unique_clicks"`
}

type dailyPoint struct {
	Date string `json:"date"`
	clickTotals
}

type hourlyPoint struct {
	Hour   int   `json:"hour"`
	Clicks int64 `json:"clicks"`
}

type bucket struct {
	Key    string `json:"key"`
	Clicks int64  `json:"clicks"`
}

type breakdowns struct {
	Devices   []bucket `json:"devices"`
	Browsers  []bucket `json:"browsers"`
	OS        []bucket `json:"os"`
	Countries []bucket `json:"countries"`
	Referrers []bucket `json:"referrers"`
}

// reportResponse represents an analytics report over a period.
type reportResponse struct {
	Period     string          `json:"period"`
	From       time.Time       `json:"from"`
	To         time.Time       `json:"to"`
	Totals     clickTotals     `json:"totals"`
	Daily      []dailyPoint    `json:"daily"`
	Hourly     []hourlyPoint   `json:"hourly"`
	Breakdowns breakdowns      `json:"breakdowns"`
	Recent     []clickResponse `json:"recent"`
}

func toBuckets(in []entity.Bucket) []bucket {
	out := make([]bucket, 0, len(in))
	for _, b := range in {
		out = append(out, bucket{Key: b.Key, Clicks: b.Clicks})
	}
	return out
}

func toReportResponse(r *entity.Report) reportResponse {
	daily := make([]dailyPoint, 0, len(r.Daily))
	for _, p := range r.Daily {
		daily = append(daily, dailyPoint{
			Date:        p.Date.Format(dateLayout),
			clickTotals: clickTotals{Clicks: p.Clicks, UniqueClicks: p.UniqueClicks},
		})
	}

	hourly := make([]hourlyPoint, 0, len(r.Hourly))
	for _, p := range r.Hourly {
		hourly = append(hourly, hourlyPoint{Hour: p.Hour, Clicks: p.Clicks})
	}

	return reportResponse{
		Period: string(r.Period),
		From:   r.From,
		To:     r.To,
		Totals: clickTotals{Clicks: r.Totals.Clicks, UniqueClicks: r.Totals.UniqueClicks},
		Daily:  daily,
		Hourly: hourly,
		Breakdowns: breakdowns{
			Devices:   toBuckets(r.Devices),
			Browsers:  toBuckets(r.Browsers),
			OS:        toBuckets(r.OS),
			Countries: toBuckets(r.Countries),
			Referrers: toBuckets(r.Referrers),
		},
		Recent: toClickResponses(r.Recent),
	}
}

type linkReportResponse struct {
	Link linkResponse `json:"link"`
	reportResponse
}

type overviewResponse struct {
	TotalLinks     int64          `json:"total_links"`
	ActiveLinks    int64          `json:"active_links"`
	TotalClicks    int64          `json:"total_clicks"`
	UniqueClicks   int64          `json:"unique_clicks"`
	ClicksToday    int64          `json:"clicks_today"`
	ClicksThisWeek int64          `json:"clicks_this_week"`
	ClicksLastHour int64          `json:"clicks_last_hour"`
	TopLinks       []linkResponse `json:"top_links"`
}

func toOverviewResponse(o *entity.Overview) overviewResponse {
	return overviewResponse{
		TotalLinks:     o.TotalLinks,
		ActiveLinks:    o.ActiveLinks,
		TotalClicks:    o.TotalClicks,
		UniqueClicks:   o.UniqueClicks,
		ClicksToday:    o.ClicksToday,
		ClicksThisWeek: o.ClicksThisWeek,
		ClicksLastHour: o.ClicksLastHour,
		TopLinks:       toLinkResponses(o.TopLinks),
	}
}
