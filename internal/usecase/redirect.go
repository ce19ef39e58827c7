package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vadimbarashkov/vortex/internal/classifier"
	"github.com/vadimbarashkov/vortex/internal/entity"
	"golang.org/x/crypto/bcrypt"
)

type linkResolver interface {
	RetrieveByCode(ctx context.Context, code string) (*entity.Link, error)
	IncrementCounters(ctx context.Context, id int64, unique bool, at time.Time) error
}

type clickRecorder interface {
	Record(ctx context.Context, link *entity.Link, rc entity.RequestContext, at time.Time) (*entity.ClickEvent, error)
}

// RedirectRequest is the raw visitor side of a redirect.
type RedirectRequest struct {
	ShortCode    string
	UserAgent    string
	RemoteAddr   string
	ForwardedFor string
	Referrer     string
}

// RedirectUseCase resolves short codes for visitors. Link state is read from
// the store on every call so owner edits take effect immediately.
type RedirectUseCase struct {
	links    linkResolver
	recorder clickRecorder
	options
}

func NewRedirectUseCase(links linkResolver, recorder clickRecorder, opts ...Option) *RedirectUseCase {
	return &RedirectUseCase{
		links:    links,
		recorder: recorder,
		options:  newOptions(opts),
	}
}

// ResolveRedirect runs the policy gates in order (expiry, active flag,
// password) and records a click only when the visitor is redirected.
// Storage failures are returned as errors, never as outcomes.
func (uc *RedirectUseCase) ResolveRedirect(ctx context.Context, req RedirectRequest) (entity.RedirectOutcome, error) {
	const op = "usecase.RedirectUseCase.ResolveRedirect"

	outcome, err := uc.resolve(ctx, req)
	if err != nil {
		uc.metrics.RedirectOutcomes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	uc.metrics.RedirectOutcomes.WithLabelValues(outcomeLabel(outcome)).Inc()

	return outcome, nil
}

func (uc *RedirectUseCase) resolve(ctx context.Context, req RedirectRequest) (entity.RedirectOutcome, error) {
	link, err := uc.links.RetrieveByCode(ctx, req.ShortCode)
	if err != nil {
		if errors.Is(err, entity.ErrLinkNotFound) {
			return entity.NotFound{}, nil
		}

		return nil, fmt.Errorf("failed to look up link: %w", err)
	}

	now := uc.now()

	if denied := policyGate(link, now); denied != nil {
		return denied, nil
	}

	if link.HasPassword() {
		return entity.PasswordRequired{ShortCode: link.ShortCode}, nil
	}

	rc := entity.RequestContext{
		ClientIP:  classifier.ClientIP(req.ForwardedFor, req.RemoteAddr),
		UserAgent: req.UserAgent,
		Referrer:  req.Referrer,
	}

	click, err := uc.recorder.Record(ctx, link, rc, now)
	if err != nil {
		// The link was deleted between lookup and recording.
		if errors.Is(err, entity.ErrLinkNotFound) {
			return entity.NotFound{}, nil
		}

		return nil, err
	}

	return entity.Redirect{URL: link.OriginalURL, Click: click}, nil
}

// VerifyPassword checks a submitted password for a protected link. The same
// expiry and active gates as redirects apply first. A match increments the
// click counter only; no click event is written on this path.
func (uc *RedirectUseCase) VerifyPassword(ctx context.Context, code, password string) (entity.VerifyOutcome, error) {
	const op = "usecase.RedirectUseCase.VerifyPassword"

	outcome, err := uc.verify(ctx, code, password)
	if err != nil {
		uc.metrics.PasswordVerifications.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	uc.metrics.PasswordVerifications.WithLabelValues(outcomeLabel(outcome)).Inc()

	return outcome, nil
}

func (uc *RedirectUseCase) verify(ctx context.Context, code, password string) (entity.VerifyOutcome, error) {
	link, err := uc.links.RetrieveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, entity.ErrLinkNotFound) {
			return entity.InvalidOrUnprotected{}, nil
		}

		return nil, fmt.Errorf("failed to look up link: %w", err)
	}

	now := uc.now()

	if denied := policyGate(link, now); denied != nil {
		return denied.(entity.VerifyOutcome), nil
	}

	if !link.HasPassword() {
		return entity.InvalidOrUnprotected{}, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(link.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return entity.IncorrectPassword{}, nil
		}

		return nil, fmt.Errorf("failed to compare password: %w", err)
	}

	if err := uc.links.IncrementCounters(ctx, link.ID, false, now); err != nil {
		if errors.Is(err, entity.ErrLinkNotFound) {
			return entity.InvalidOrUnprotected{}, nil
		}

		return nil, fmt.Errorf("failed to increment counters: %w", err)
	}

	return entity.Redirect{URL: link.OriginalURL}, nil
}

// policyGate returns Expired or Deactivated when the link must not be served.
// Expiry wins over the active flag, and both precede the password gate so a
// denied link never reveals whether it is protected.
func policyGate(link *entity.Link, now time.Time) entity.RedirectOutcome {
	if link.IsExpired(now) {
		return entity.Expired{ExpiredAt: *link.ExpiresAt}
	}

	if !link.IsActive {
		return entity.Deactivated{}
	}

	return nil
}

func outcomeLabel(outcome any) string {
	switch outcome.(type) {
	case entity.NotFound:
		return "not_found"
	case entity.Expired:
		return "expired"
	case entity.Deactivated:
		return "deactivated"
	case entity.PasswordRequired:
		return "password_required"
	case entity.InvalidOrUnprotected:
		return "invalid_or_unprotected"
	case entity.IncorrectPassword:
		return "incorrect_password"
	case entity.Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}
