package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/vadimbarashkov/vortex/internal/entity"
	"github.com/vadimbarashkov/vortex/pkg/response"
)

type linkService interface {
	Create(ctx context.Context, nl entity.NewLink) (*entity.Link, error)
	Get(ctx context.Context, ownerID uuid.UUID, code string) (*entity.Link, error)
	Update(ctx context.Context, ownerID uuid.UUID, code string, upd entity.LinkUpdate) (*entity.Link, error)
	Toggle(ctx context.Context, ownerID uuid.UUID, code string) (*entity.Link, error)
	Delete(ctx context.Context, ownerID uuid.UUID, code string) error
}

// handleCreateLink handles POST requests to shorten a URL.
//
// Authenticated callers become the owner of the link; anonymous links can be
// resolved but never managed.
func handleCreateLink(svc linkService, validate *validator.Validate) http.HandlerFunc {
	const op = "delivery.http.handleCreateLink"
	const successMsg = "The URL has been shortened successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req createLinkRequest

		if !decodeRequest(w, r, validate, &req) {
			return
		}

		nl := req.toEntity()
		nl.OwnerID = ownerFromContext(r.Context())

		link, err := svc.Create(r.Context(), nl)
		if err != nil {
			renderUseCaseError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponse(link)))
	}
}

func handleGetLink(svc linkService) http.HandlerFunc {
	const op = "delivery.http.handleGetLink"
	const successMsg = "The link was retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		link, err := svc.Get(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "shortCode"))
		if err != nil {
			renderUseCaseError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponse(link)))
	}
}

// handleUpdateLink handles PATCH requests editing a link. The short code cannot be changed.
func handleUpdateLink(svc linkService, validate *validator.Validate) http.HandlerFunc {
	const op = "delivery.http.handleUpdateLink"
	const successMsg = "The link was successfully modified."

	return func(w http.ResponseWriter, r *http.Request) {
		var req updateLinkRequest

		if !decodeRequest(w, r, validate, &req) {
			return
		}

		link, err := svc.Update(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "shortCode"), req.toEntity())
		if err != nil {
			renderUseCaseError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponse(link)))
	}
}

// handleToggleLink handles PUT requests flipping the active flag of a link.
func handleToggleLink(svc linkService) http.HandlerFunc {
	const op = "delivery.http.handleToggleLink"
	const successMsg = "The link status was successfully changed."

	return func(w http.ResponseWriter, r *http.Request) {
		link, err := svc.Toggle(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "shortCode"))
		if err != nil {
			renderUseCaseError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponse(link)))
	}
}

// handleDeleteLink handles DELETE requests. The click history of the link is removed with it.
func handleDeleteLink(svc linkService) http.HandlerFunc {
	const op = "delivery.http.handleDeleteLink"
	const successMsg = "The link was successfully deleted."

	return func(w http.ResponseWriter, r *http.Request) {
		err := svc.Delete(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "shortCode"))
		if err != nil {
			renderUseCaseError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg))
	}
}
