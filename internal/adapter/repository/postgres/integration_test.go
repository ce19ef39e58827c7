//go:build integration

package postgres

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vadimbarashkov/vortex/internal/classifier"
	"github.com/vadimbarashkov/vortex/internal/config"
	"github.com/vadimbarashkov/vortex/internal/entity"

	pgutil "github.com/vadimbarashkov/vortex/pkg/postgres"
)

type IntegrationTestSuite struct {
	suite.Suite
	pgCont     testcontainers.Container
	cfg        config.Postgres
	migrations string
	db         *sqlx.DB
	links      *LinkRepository
	clicks     *ClickRepository
	analytics  *AnalyticsRepository
}

func (suite *IntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	var err error
	suite.pgCont, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:16-alpine",
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "vortex",
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	suite.Require().NoError(err, "failed to start postgres container")
	suite.T().Cleanup(func() {
		if err := suite.pgCont.Terminate(ctx); err != nil {
			suite.T().Errorf("Failed to terminate postgres container: %v", err)
		}
	})

	host, err := suite.pgCont.Host(ctx)
	suite.Require().NoError(err)

	port, err := suite.pgCont.MappedPort(ctx, "5432")
	suite.Require().NoError(err)

	suite.cfg = config.Postgres{
		User:     "test",
		Password: "test",
		Host:     host,
		Port:     port.Int(),
		DB:       "vortex",
		SSLMode:  "disable",
	}

	root, err := filepath.Abs("../../../../migrations")
	suite.Require().NoError(err)
	suite.migrations = "file://" + root

	suite.Require().NoError(pgutil.RunMigrations(suite.migrations, suite.cfg.DSN()))

	suite.db, err = pgutil.New(ctx, suite.cfg.DSN(), pgutil.WithMaxOpenConns(20))
	suite.Require().NoError(err)
	suite.T().Cleanup(func() { suite.db.Close() })

	suite.links = NewLinkRepository(suite.db)
	suite.clicks = NewClickRepository(suite.db)
	suite.analytics = NewAnalyticsRepository(suite.db)
}

func (suite *IntegrationTestSuite) TearDownTest() {
	_, err := suite.db.Exec(`TRUNCATE links, click_events, link_visitors RESTART IDENTITY`)
	suite.Require().NoError(err)
}

func (suite *IntegrationTestSuite) saveLink(code, alias string) *entity.Link {
	link, err := suite.links.Save(context.Background(), &entity.Link{
		ShortCode:   code,
		CustomAlias: alias,
		OriginalURL: "https://example.com",
		OwnerID:     testOwner,
		IsActive:    true,
	})
	suite.Require().NoError(err)

	return link
}

func (suite *IntegrationTestSuite) click(link *entity.Link, ip string, at time.Time) *entity.ClickEvent {
	event, err := suite.clicks.Record(context.Background(), link.ID, entity.ClickEvent{
		ShortCode: link.ShortCode,
		OwnerID:   link.OwnerID,
		ClickedAt: at,
		ClientIP:  ip,
		UserAgent: "test-agent",
		ClientInfo: entity.ClientInfo{
			Device:  entity.DeviceDesktop,
			Browser: "Firefox 121.0",
			OS:      "Linux x86_64",
		},
	})
	suite.Require().NoError(err)

	return event
}

func (suite *IntegrationTestSuite) TestMigrationVersion() {
	version, dirty, err := pgutil.MigrationVersion(suite.migrations, suite.cfg.DSN())

	suite.NoError(err)
	suite.False(dirty)
	suite.Equal(uint(2), version)
}

func (suite *IntegrationTestSuite) TestCodeUniqueness() {
	ctx := context.Background()

	suite.saveLink("abc1234", "")
	suite.saveLink("launch", "launch")

	_, err := suite.links.Save(ctx, &entity.Link{ShortCode: "abc1234", OriginalURL: "https://example.org", IsActive: true})
	suite.ErrorIs(err, entity.ErrShortCodeExists)

	_, err = suite.links.Save(ctx, &entity.Link{ShortCode: "launch", CustomAlias: "launch", OriginalURL: "https://example.org", IsActive: true})
	suite.ErrorIs(err, entity.ErrAliasExists)

	_, err = suite.links.Save(ctx, &entity.Link{ShortCode: "launch", OriginalURL: "https://example.org", IsActive: true})
	suite.ErrorIs(err, entity.ErrShortCodeExists)
}

func (suite *IntegrationTestSuite) TestConcurrentClicks() {
	ctx := context.Background()
	link := suite.saveLink("abc1234", "")
	now := time.Now().UTC()

	ips := []string{"203.0.113.1", "203.0.113.2"}

	const perIP = 20

	var wg sync.WaitGroup
	for _, ip := range ips {
		for i := 0; i < perIP; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := suite.clicks.Record(ctx, link.ID, entity.ClickEvent{
					ShortCode: link.ShortCode,
					OwnerID:   link.OwnerID,
					ClickedAt: now,
					ClientIP:  ip,
				})
				suite.NoError(err)
			}()
		}
	}
	wg.Wait()

	got, err := suite.links.RetrieveByCode(ctx, link.ShortCode)
	suite.Require().NoError(err)

	suite.Equal(int64(len(ips)*perIP), got.ClickCount)
	suite.Equal(int64(len(ips)), got.UniqueClicks)
	suite.NotNil(got.LastClickedAt)

	summary, err := suite.analytics.Summary(ctx, entity.ClickFilter{
		OwnerID: testOwner,
		Window:  entity.Window{From: now.Add(-time.Minute), To: now.Add(time.Minute)},
	})
	suite.Require().NoError(err)

	suite.Equal(entity.ClickSummary{Clicks: got.ClickCount, UniqueClicks: got.UniqueClicks}, summary)
}

func (suite *IntegrationTestSuite) TestOversizedUserAgent() {
	ctx := context.Background()
	link := suite.saveLink("abc1234", "")
	c := classifier.New(nil)

	agents := []string{
		strings.Repeat("A", 300) + "/1.0",
		"Mozilla/5.0 (Windows NT 10.0) Chrome/" + strings.Repeat("9", 300),
	}

	for _, ua := range agents {
		_, err := suite.clicks.Record(ctx, link.ID, entity.ClickEvent{
			ShortCode:  link.ShortCode,
			OwnerID:    link.OwnerID,
			ClickedAt:  time.Now().UTC(),
			ClientIP:   "203.0.113.5",
			UserAgent:  ua,
			ClientInfo: c.Classify(ua, "203.0.113.5"),
		})
		suite.Require().NoError(err)
	}

	got, err := suite.links.RetrieveByCode(ctx, link.ShortCode)
	suite.Require().NoError(err)
	suite.Equal(int64(2), got.ClickCount)
	suite.Equal(int64(1), got.UniqueClicks)
}

func (suite *IntegrationTestSuite) TestPasswordPathCountsOnly() {
	ctx := context.Background()
	link := suite.saveLink("abc1234", "")

	suite.Require().NoError(suite.links.IncrementCounters(ctx, link.ID, false, time.Now()))

	got, err := suite.links.RetrieveByCode(ctx, link.ShortCode)
	suite.Require().NoError(err)
	suite.Equal(int64(1), got.ClickCount)
	suite.Zero(got.UniqueClicks)

	events, err := suite.analytics.Recent(ctx, entity.ClickFilter{
		OwnerID: testOwner,
		Window:  entity.PeriodDay.Window(time.Now().Add(time.Minute)),
	}, 10)
	suite.Require().NoError(err)
	suite.Empty(events)
}

func (suite *IntegrationTestSuite) TestReportQueries() {
	ctx := context.Background()
	link := suite.saveLink("abc1234", "")
	other := suite.saveLink("xyz7890", "")
	now := time.Now().UTC()

	suite.click(link, "203.0.113.1", now.Add(-2*time.Hour))
	suite.click(link, "203.0.113.1", now.Add(-time.Hour))
	suite.click(other, "203.0.113.2", now.Add(-time.Hour))

	f := entity.ClickFilter{
		OwnerID:   testOwner,
		ShortCode: link.ShortCode,
		Window:    entity.PeriodWeek.Window(now),
	}

	summary, err := suite.analytics.Summary(ctx, f)
	suite.Require().NoError(err)
	suite.Equal(entity.ClickSummary{Clicks: 2, UniqueClicks: 1}, summary)

	devices, err := suite.analytics.Breakdown(ctx, f, entity.DimensionDevice, 10)
	suite.Require().NoError(err)
	suite.Equal([]entity.Bucket{{Key: "desktop", Clicks: 2}}, devices)

	referrers, err := suite.analytics.Breakdown(ctx, f, entity.DimensionReferrer, 10)
	suite.Require().NoError(err)
	suite.Equal([]entity.Bucket{{Key: "Direct", Clicks: 2}}, referrers)

	daily, err := suite.analytics.Daily(ctx, f)
	suite.Require().NoError(err)
	suite.NotEmpty(daily)

	totals, err := suite.analytics.LinkTotals(ctx, testOwner)
	suite.Require().NoError(err)
	suite.Equal(int64(2), totals.TotalLinks)
	suite.Equal(int64(3), totals.TotalClicks)

	top, err := suite.analytics.TopLinks(ctx, testOwner, 5)
	suite.Require().NoError(err)
	suite.Require().Len(top, 2)
	suite.Equal(link.ShortCode, top[0].ShortCode)
}

func (suite *IntegrationTestSuite) TestRemoveCascades() {
	ctx := context.Background()
	link := suite.saveLink("abc1234", "")
	suite.click(link, "203.0.113.1", time.Now().UTC())

	suite.ErrorIs(suite.links.Remove(ctx, uuid.New(), link.ShortCode), entity.ErrLinkNotFound)
	suite.Require().NoError(suite.links.Remove(ctx, testOwner, link.ShortCode))

	var events, visitors int
	suite.Require().NoError(suite.db.Get(&events, `SELECT COUNT(*) FROM click_events`))
	suite.Require().NoError(suite.db.Get(&visitors, `SELECT COUNT(*) FROM link_visitors`))
	suite.Zero(events)
	suite.Zero(visitors)

	relinked := suite.saveLink("abc1234", "")
	event := suite.click(relinked, "203.0.113.1", time.Now().UTC())
	suite.True(event.IsUnique)
}

func TestIntegration(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
