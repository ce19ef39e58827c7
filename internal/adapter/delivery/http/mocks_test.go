package http

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/vortex/internal/entity"
	"github.com/vadimbarashkov/vortex/internal/usecase"
	"github.com/vadimbarashkov/vortex/pkg/ratelimit"
)

type MockLinkService struct {
	mock.Mock
}

func (s *MockLinkService) Create(ctx context.Context, nl entity.NewLink) (*entity.Link, error) {
	args := s.Called(ctx, nl)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (s *MockLinkService) Get(ctx context.Context, ownerID uuid.UUID, code string) (*entity.Link, error) {
	args := s.Called(ctx, ownerID, code)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (s *MockLinkService) Update(ctx context.Context, ownerID uuid.UUID, code string, upd entity.LinkUpdate) (*entity.Link, error) {
	args := s.Called(ctx, ownerID, code, upd)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (s *MockLinkService) Toggle(ctx context.Context, ownerID uuid.UUID, code string) (*entity.Link, error) {
	args := s.Called(ctx, ownerID, code)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (s *MockLinkService) Delete(ctx context.Context, ownerID uuid.UUID, code string) error {
	args := s.Called(ctx, ownerID, code)
	return args.Error(0)
}

type MockRedirectService struct {
	mock.Mock
}

func (s *MockRedirectService) ResolveRedirect(ctx context.Context, req usecase.RedirectRequest) (entity.RedirectOutcome, error) {
	args := s.Called(ctx, req)
	outcome, _ := args.Get(0).(entity.RedirectOutcome)
	return outcome, args.Error(1)
}

func (s *MockRedirectService) VerifyPassword(ctx context.Context, code, password string) (entity.VerifyOutcome, error) {
	args := s.Called(ctx, code, password)
	outcome, _ := args.Get(0).(entity.VerifyOutcome)
	return outcome, args.Error(1)
}

type MockAnalyticsService struct {
	mock.Mock
}

func (s *MockAnalyticsService) Overview(ctx context.Context, ownerID uuid.UUID) (*entity.Overview, error) {
	args := s.Called(ctx, ownerID)
	overview, _ := args.Get(0).(*entity.Overview)
	return overview, args.Error(1)
}

func (s *MockAnalyticsService) Dashboard(ctx context.Context, ownerID uuid.UUID, period entity.Period) (*entity.Report, error) {
	args := s.Called(ctx, ownerID, period)
	report, _ := args.Get(0).(*entity.Report)
	return report, args.Error(1)
}

func (s *MockAnalyticsService) LinkAnalytics(ctx context.Context, ownerID uuid.UUID, code string, period entity.Period) (*entity.LinkReport, error) {
	args := s.Called(ctx, ownerID, code, period)
	report, _ := args.Get(0).(*entity.LinkReport)
	return report, args.Error(1)
}

func (s *MockAnalyticsService) Recent(ctx context.Context, ownerID uuid.UUID, limit int) ([]entity.ClickEvent, error) {
	args := s.Called(ctx, ownerID, limit)
	clicks, _ := args.Get(0).([]entity.ClickEvent)
	return clicks, args.Error(1)
}

type MockRateLimiter struct {
	mock.Mock
}

func (l *MockRateLimiter) Allow(ctx context.Context, key string) (ratelimit.Result, error) {
	args := l.Called(ctx, key)
	return args.Get(0).(ratelimit.Result), args.Error(1)
}
