package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/vortex/internal/entity"
)

type mockLinkRepository struct {
	mock.Mock
}

func (m *mockLinkRepository) Save(ctx context.Context, link *entity.Link) (*entity.Link, error) {
	args := m.Called(ctx, link)
	l, _ := args.Get(0).(*entity.Link)
	return l, args.Error(1)
}

func (m *mockLinkRepository) RetrieveByCode(ctx context.Context, code string) (*entity.Link, error) {
	args := m.Called(ctx, code)
	l, _ := args.Get(0).(*entity.Link)
	return l, args.Error(1)
}

func (m *mockLinkRepository) RetrieveOwned(ctx context.Context, ownerID uuid.UUID, code string) (*entity.Link, error) {
	args := m.Called(ctx, ownerID, code)
	l, _ := args.Get(0).(*entity.Link)
	return l, args.Error(1)
}

func (m *mockLinkRepository) IncrementCounters(ctx context.Context, id int64, unique bool, at time.Time) error {
	return m.Called(ctx, id, unique, at).Error(0)
}

func (m *mockLinkRepository) Update(ctx context.Context, ownerID uuid.UUID, code string, upd entity.LinkUpdate) (*entity.Link, error) {
	args := m.Called(ctx, ownerID, code, upd)
	l, _ := args.Get(0).(*entity.Link)
	return l, args.Error(1)
}

func (m *mockLinkRepository) Toggle(ctx context.Context, ownerID uuid.UUID, code string) (*entity.Link, error) {
	args := m.Called(ctx, ownerID, code)
	l, _ := args.Get(0).(*entity.Link)
	return l, args.Error(1)
}

func (m *mockLinkRepository) Remove(ctx context.Context, ownerID uuid.UUID, code string) error {
	return m.Called(ctx, ownerID, code).Error(0)
}

type mockCodeGenerator struct {
	mock.Mock
}

func (m *mockCodeGenerator) Generate() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

type mockClickRepository struct {
	mock.Mock
}

func (m *mockClickRepository) Record(ctx context.Context, linkID int64, click entity.ClickEvent) (*entity.ClickEvent, error) {
	args := m.Called(ctx, linkID, click)
	c, _ := args.Get(0).(*entity.ClickEvent)
	return c, args.Error(1)
}

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(userAgent, clientIP string) entity.ClientInfo {
	return m.Called(userAgent, clientIP).Get(0).(entity.ClientInfo)
}

type mockClickRecorder struct {
	mock.Mock
}

func (m *mockClickRecorder) Record(ctx context.Context, link *entity.Link, rc entity.RequestContext, at time.Time) (*entity.ClickEvent, error) {
	args := m.Called(ctx, link, rc, at)
	c, _ := args.Get(0).(*entity.ClickEvent)
	return c, args.Error(1)
}

type mockAnalyticsRepository struct {
	mock.Mock
}

func (m *mockAnalyticsRepository) Summary(ctx context.Context, f entity.ClickFilter) (entity.ClickSummary, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(entity.ClickSummary), args.Error(1)
}

func (m *mockAnalyticsRepository) Daily(ctx context.Context, f entity.ClickFilter) ([]entity.DailyPoint, error) {
	args := m.Called(ctx, f)
	p, _ := args.Get(0).([]entity.DailyPoint)
	return p, args.Error(1)
}

func (m *mockAnalyticsRepository) Hourly(ctx context.Context, f entity.ClickFilter) ([]entity.HourlyPoint, error) {
	args := m.Called(ctx, f)
	p, _ := args.Get(0).([]entity.HourlyPoint)
	return p, args.Error(1)
}

func (m *mockAnalyticsRepository) Breakdown(ctx context.Context, f entity.ClickFilter, dim entity.Dimension, limit int) ([]entity.Bucket, error) {
	args := m.Called(ctx, f, dim, limit)
	b, _ := args.Get(0).([]entity.Bucket)
	return b, args.Error(1)
}

func (m *mockAnalyticsRepository) Recent(ctx context.Context, f entity.ClickFilter, limit int) ([]entity.ClickEvent, error) {
	args := m.Called(ctx, f, limit)
	e, _ := args.Get(0).([]entity.ClickEvent)
	return e, args.Error(1)
}

func (m *mockAnalyticsRepository) LinkTotals(ctx context.Context, ownerID uuid.UUID) (entity.Overview, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(entity.Overview), args.Error(1)
}

func (m *mockAnalyticsRepository) TopLinks(ctx context.Context, ownerID uuid.UUID, limit int) ([]entity.Link, error) {
	args := m.Called(ctx, ownerID, limit)
	l, _ := args.Get(0).([]entity.Link)
	return l, args.Error(1)
}
