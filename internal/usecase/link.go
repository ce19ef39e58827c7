package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"
	"github.com/vadimbarashkov/vortex/internal/entity"
	"github.com/vadimbarashkov/vortex/internal/shortcode"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultMaxRetries = 5
	maxPasswordBytes  = 72
)

type linkRepository interface {
	Save(ctx context.Context, link *entity.Link) (*entity.Link, error)
	RetrieveOwned(ctx context.Context, ownerID uuid.UUID, code string) (*entity.Link, error)
	Update(ctx context.Context, ownerID uuid.UUID, code string, upd entity.LinkUpdate) (*entity.Link, error)
	Toggle(ctx context.Context, ownerID uuid.UUID, code string) (*entity.Link, error)
	Remove(ctx context.Context, ownerID uuid.UUID, code string) error
}

type codeGenerator interface {
	Generate() (string, error)
}

// LinkConfig tunes link creation.
type LinkConfig struct {
	// MaxRetries bounds the number of generated codes tried per creation.
	MaxRetries int
	// BcryptCost is the work factor of link password hashes.
	BcryptCost int
}

// LinkUseCase creates and manages links on behalf of their owners.
type LinkUseCase struct {
	repo linkRepository
	gen  codeGenerator
	cfg  LinkConfig
	options
}

func NewLinkUseCase(repo linkRepository, gen codeGenerator, cfg LinkConfig, opts ...Option) *LinkUseCase {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	return &LinkUseCase{
		repo:    repo,
		gen:     gen,
		cfg:     cfg,
		options: newOptions(opts),
	}
}

// Create validates and stores a new link. A custom alias is used verbatim as
// the short code; otherwise codes are generated until one is accepted by the
// store or the retry budget is spent.
func (uc *LinkUseCase) Create(ctx context.Context, nl entity.NewLink) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.Create"

	if err := validateDestination(nl.OriginalURL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	link := &entity.Link{
		OriginalURL: nl.OriginalURL,
		OwnerID:     nl.OwnerID,
		Description: nl.Description,
		Category:    nl.Category,
		IsActive:    true,
		ExpiresAt:   nl.ExpiresAt,
	}

	if nl.Password != "" {
		hash, err := uc.hashPassword(nl.Password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		link.PasswordHash = hash
	}

	if nl.CustomAlias != "" {
		if err := shortcode.ValidateAlias(nl.CustomAlias); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		link.ShortCode = nl.CustomAlias
		link.CustomAlias = nl.CustomAlias

		saved, err := uc.repo.Save(ctx, link)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to save aliased link: %w", op, err)
		}

		uc.metrics.LinksCreated.WithLabelValues("alias").Inc()

		return saved, nil
	}

	for attempt := 1; attempt <= uc.cfg.MaxRetries; attempt++ {
		code, err := uc.gen.Generate()
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		link.ShortCode = code

		saved, err := uc.repo.Save(ctx, link)
		if err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				uc.metrics.CodeCollisions.Inc()
				uc.logger.Debug("short code collision", slog.String("op", op), slog.Int("attempt", attempt))
				continue
			}

			return nil, fmt.Errorf("%s: failed to save link: %w", op, err)
		}

		uc.metrics.LinksCreated.WithLabelValues("generated").Inc()

		return saved, nil
	}

	uc.logger.Error("short code space exhausted",
		slog.String("op", op),
		slog.Int("max_retries", uc.cfg.MaxRetries),
	)

	return nil, fmt.Errorf("%s: %w", op, entity.ErrCodeSpaceExhausted)
}

func (uc *LinkUseCase) Get(ctx context.Context, ownerID uuid.UUID, code string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.Get"

	link, err := uc.repo.RetrieveOwned(ctx, ownerID, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link: %w", op, err)
	}

	return link, nil
}

// Update applies the owner's changes. An empty update returns the link unchanged.
func (uc *LinkUseCase) Update(ctx context.Context, ownerID uuid.UUID, code string, upd entity.LinkUpdate) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.Update"

	if upd.Empty() {
		return uc.Get(ctx, ownerID, code)
	}

	if upd.OriginalURL != nil {
		if err := validateDestination(*upd.OriginalURL); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	link, err := uc.repo.Update(ctx, ownerID, code, upd)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update link: %w", op, err)
	}

	return link, nil
}

// Toggle flips the active flag of the link.
func (uc *LinkUseCase) Toggle(ctx context.Context, ownerID uuid.UUID, code string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.Toggle"

	link, err := uc.repo.Toggle(ctx, ownerID, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to toggle link: %w", op, err)
	}

	return link, nil
}

// Delete removes the link and its click history.
func (uc *LinkUseCase) Delete(ctx context.Context, ownerID uuid.UUID, code string) error {
	const op = "usecase.LinkUseCase.Delete"

	if err := uc.repo.Remove(ctx, ownerID, code); err != nil {
		return fmt.Errorf("%s: failed to delete link: %w", op, err)
	}

	return nil
}

func (uc *LinkUseCase) hashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", &entity.ValidationError{
			Field: "password",
			Issue: fmt.Sprintf("must be at most %d bytes", maxPasswordBytes),
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

func validateDestination(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &entity.ValidationError{
			Field: "original_url",
			Issue: "must be an absolute http or https url",
		}
	}

	return nil
}
