package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/vortex/internal/entity"
	"github.com/vadimbarashkov/vortex/internal/usecase"
	"github.com/vadimbarashkov/vortex/pkg/response"
)

var (
	linkExpiredResponse     = response.ErrorResponse("The link has expired.")
	linkDeactivatedResponse = response.ErrorResponse("The link has been deactivated.")
	wrongPasswordResponse   = response.ErrorResponse("The password is incorrect.")
)

type redirectService interface {
	ResolveRedirect(ctx context.Context, req usecase.RedirectRequest) (entity.RedirectOutcome, error)
	VerifyPassword(ctx context.Context, code, password string) (entity.VerifyOutcome, error)
}

// handleRedirect handles GET requests for a short code and redirects the visitor.
//
// Protected links send the visitor to the frontend verification page instead
// of the destination. Redirects are not cacheable so that every visit is counted.
func handleRedirect(svc redirectService, frontendURL string) http.HandlerFunc {
	const op = "delivery.http.handleRedirect"

	frontendURL = strings.TrimRight(frontendURL, "/")

	return func(w http.ResponseWriter, r *http.Request) {
		outcome, err := svc.ResolveRedirect(r.Context(), usecase.RedirectRequest{
			ShortCode:    chi.URLParam(r, "shortCode"),
			UserAgent:    r.UserAgent(),
			RemoteAddr:   r.RemoteAddr,
			ForwardedFor: r.Header.Get("X-Forwarded-For"),
			Referrer:     r.Referer(),
		})
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		switch o := outcome.(type) {
		case entity.Redirect:
			w.Header().Set("Cache-Control", "private, no-cache")
			http.Redirect(w, r, o.URL, http.StatusFound)
		case entity.PasswordRequired:
			w.Header().Set("Cache-Control", "private, no-cache")
			http.Redirect(w, r, frontendURL+"/verify/"+url.PathEscape(o.ShortCode), http.StatusFound)
		case entity.Expired:
			render.Status(r, http.StatusGone)
			render.JSON(w, r, linkExpiredResponse)
		case entity.Deactivated:
			render.Status(r, http.StatusGone)
			render.JSON(w, r, linkDeactivatedResponse)
		default:
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ResourceNotFoundResponse)
		}
	}
}

// handleVerifyPassword handles POST requests unlocking a password-protected link.
//
// On success the destination is returned in the body for the frontend to follow.
func handleVerifyPassword(svc redirectService, validate *validator.Validate) http.HandlerFunc {
	const op = "delivery.http.handleVerifyPassword"
	const successMsg = "The password was verified successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyPasswordRequest

		if !decodeRequest(w, r, validate, &req) {
			return
		}

		outcome, err := svc.VerifyPassword(r.Context(), req.ShortCode, req.Password)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		switch o := outcome.(type) {
		case entity.Redirect:
			render.Status(r, http.StatusOK)
			render.JSON(w, r, response.SuccessResponse(successMsg, verifyPasswordResponse{OriginalURL: o.URL}))
		case entity.IncorrectPassword:
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, wrongPasswordResponse)
		case entity.Expired:
			render.Status(r, http.StatusGone)
			render.JSON(w, r, linkExpiredResponse)
		case entity.Deactivated:
			render.Status(r, http.StatusGone)
			render.JSON(w, r, linkDeactivatedResponse)
		default:
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ResourceNotFoundResponse)
		}
	}
}
