package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/vadimbarashkov/vortex/internal/entity"
	"github.com/vadimbarashkov/vortex/internal/usecase"
	"github.com/vadimbarashkov/vortex/pkg/response"
)

const periodIssue = "Must be one of 1d, 7d, 30d, 90d."

type analyticsService interface {
	Overview(ctx context.Context, ownerID uuid.UUID) (*entity.Overview, error)
	Dashboard(ctx context.Context, ownerID uuid.UUID, period entity.Period) (*entity.Report, error)
	LinkAnalytics(ctx context.Context, ownerID uuid.UUID, code string, period entity.Period) (*entity.LinkReport, error)
	Recent(ctx context.Context, ownerID uuid.UUID, limit int) ([]entity.ClickEvent, error)
}

// parsePeriod reads the period query parameter. On failure the error response is already written.
func parsePeriod(w http.ResponseWriter, r *http.Request, def entity.Period) (entity.Period, bool) {
	raw := r.URL.Query().Get("period")

	period, err := entity.ParsePeriod(raw, def)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.FieldErrorResponse("period", raw, periodIssue))
		return "", false
	}

	return period, true
}

func handleOverview(svc analyticsService) http.HandlerFunc {
	const op = "delivery.http.handleOverview"
	const successMsg = "The overview was retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		overview, err := svc.Overview(r.Context(), ownerFromContext(r.Context()))
		if err != nil {
			renderUseCaseError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toOverviewResponse(overview)))
	}
}

// handleDashboard handles GET requests for the owner-wide report over a period (30d by default).
func handleDashboard(svc analyticsService) http.HandlerFunc {
	const op = "delivery.http.handleDashboard"
	const successMsg = "The dashboard was retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		period, ok := parsePeriod(w, r, usecase.DefaultDashboardPeriod)
		if !ok {
			return
		}

		report, err := svc.Dashboard(r.Context(), ownerFromContext(r.Context()), period)
		if err != nil {
			renderUseCaseError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toReportResponse(report)))
	}
}

// handleLinkAnalytics handles GET requests for a single link report over a period (7d by default).
func handleLinkAnalytics(svc analyticsService) http.HandlerFunc {
	const op = "delivery.http.handleLinkAnalytics"
	const successMsg = "The link analytics were retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		period, ok := parsePeriod(w, r, usecase.DefaultLinkPeriod)
		if !ok {
			return
		}

		report, err := svc.LinkAnalytics(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "shortCode"), period)
		if err != nil {
			renderUseCaseError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, linkReportResponse{
			Link:           toLinkResponse(report.Link),
			reportResponse: toReportResponse(&report.Report),
		}))
	}
}

// handleRecent handles GET requests for the latest clicks of the last 24 hours.
func handleRecent(svc analyticsService) http.HandlerFunc {
	const op = "delivery.http.handleRecent"
	const successMsg = "The recent activity was retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		limit := usecase.DefaultRecentLimit

		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.FieldErrorResponse("limit", raw, "Must be a positive integer."))
				return
			}
			limit = n
		}

		clicks, err := svc.Recent(r.Context(), ownerFromContext(r.Context()), limit)
		if err != nil {
			renderUseCaseError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toClickResponses(clicks)))
	}
}
