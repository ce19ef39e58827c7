package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadimbarashkov/vortex/internal/classifier"
	"github.com/vadimbarashkov/vortex/internal/entity"
	"github.com/vadimbarashkov/vortex/internal/shortcode"
	"golang.org/x/crypto/bcrypt"
)

// memStore is an in-memory link and click store with the same atomicity as
// the Postgres repositories: unique codes, first-insert-wins visitors and
// counter updates under one lock.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	links    map[string]*entity.Link
	visitors map[string]struct{}
	clicks   []entity.ClickEvent
}

func newMemStore() *memStore {
	return &memStore{
		links:    make(map[string]*entity.Link),
		visitors: make(map[string]struct{}),
	}
}

func (s *memStore) Save(_ context.Context, link *entity.Link) (*entity.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[link.ShortCode]; ok {
		if link.CustomAlias != "" {
			return nil, entity.ErrAliasExists
		}
		return nil, entity.ErrShortCodeExists
	}

	s.nextID++
	saved := *link
	saved.ID = s.nextID
	s.links[saved.ShortCode] = &saved

	out := saved
	return &out, nil
}

func (s *memStore) RetrieveByCode(_ context.Context, code string) (*entity.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.links[code]
	if !ok {
		return nil, entity.ErrLinkNotFound
	}

	out := *l
	return &out, nil
}

func (s *memStore) RetrieveOwned(ctx context.Context, ownerID uuid.UUID, code string) (*entity.Link, error) {
	l, err := s.RetrieveByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if l.OwnerID != ownerID {
		return nil, entity.ErrLinkNotFound
	}

	return l, nil
}

func (s *memStore) IncrementCounters(_ context.Context, id int64, unique bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.increment(id, unique, at)
}

func (s *memStore) increment(id int64, unique bool, at time.Time) error {
	for _, l := range s.links {
		if l.ID != id {
			continue
		}

		l.ClickCount++
		if unique {
			l.UniqueClicks++
		}
		if l.LastClickedAt == nil || at.After(*l.LastClickedAt) {
			t := at
			l.LastClickedAt = &t
		}

		return nil
	}

	return entity.ErrLinkNotFound
}

func (s *memStore) Record(_ context.Context, linkID int64, click entity.ClickEvent) (*entity.ClickEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := click.ShortCode + "|" + click.ClientIP
	_, seen := s.visitors[key]
	s.visitors[key] = struct{}{}

	click.IsUnique = !seen
	click.ID = int64(len(s.clicks) + 1)

	if err := s.increment(linkID, click.IsUnique, click.ClickedAt); err != nil {
		return nil, err
	}

	s.clicks = append(s.clicks, click)

	return &click, nil
}

func (s *memStore) Update(context.Context, uuid.UUID, string, entity.LinkUpdate) (*entity.Link, error) {
	panic("not used")
}

func (s *memStore) Toggle(context.Context, uuid.UUID, string) (*entity.Link, error) {
	panic("not used")
}

func (s *memStore) Remove(context.Context, uuid.UUID, string) error {
	panic("not used")
}

func (s *memStore) stats(t *testing.T, code string) entity.LinkStats {
	t.Helper()

	l, err := s.RetrieveByCode(context.Background(), code)
	require.NoError(t, err)

	return l.LinkStats
}

type pipeline struct {
	store    *memStore
	links    *LinkUseCase
	redirect *RedirectUseCase
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	gen, err := shortcode.New(shortcode.DefaultLength)
	require.NoError(t, err)

	store := newMemStore()
	recorder := NewClickRecorder(store, classifier.New(nil))

	return &pipeline{
		store:    store,
		links:    NewLinkUseCase(store, gen, LinkConfig{BcryptCost: bcrypt.MinCost}),
		redirect: NewRedirectUseCase(store, recorder),
	}
}

func (p *pipeline) visit(t *testing.T, code, ip string) entity.RedirectOutcome {
	t.Helper()

	outcome, err := p.redirect.ResolveRedirect(context.Background(), RedirectRequest{
		ShortCode:  code,
		UserAgent:  "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
		RemoteAddr: ip + ":51234",
	})
	require.NoError(t, err)

	return outcome
}

func TestRedirectScenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("counters track visits and visitors", func(t *testing.T) {
		p := newPipeline(t)

		link, err := p.links.Create(ctx, entity.NewLink{OriginalURL: "https://example.com/page"})
		require.NoError(t, err)

		outcome := p.visit(t, link.ShortCode, "203.0.113.7")
		assert.Equal(t, "https://example.com/page", outcome.(entity.Redirect).URL)
		stats := p.store.stats(t, link.ShortCode)
		assert.Equal(t, int64(1), stats.ClickCount)
		assert.Equal(t, int64(1), stats.UniqueClicks)
		assert.NotNil(t, stats.LastClickedAt)

		p.visit(t, link.ShortCode, "203.0.113.7")
		stats = p.store.stats(t, link.ShortCode)
		assert.Equal(t, int64(2), stats.ClickCount)
		assert.Equal(t, int64(1), stats.UniqueClicks)

		p.visit(t, link.ShortCode, "198.51.100.9")
		stats = p.store.stats(t, link.ShortCode)
		assert.Equal(t, int64(3), stats.ClickCount)
		assert.Equal(t, int64(2), stats.UniqueClicks)
		assert.Len(t, p.store.clicks, 3)
	})

	t.Run("password gate", func(t *testing.T) {
		p := newPipeline(t)

		link, err := p.links.Create(ctx, entity.NewLink{
			OriginalURL: "https://example.com/page",
			Password:    "secret",
		})
		require.NoError(t, err)

		assert.Equal(t, entity.PasswordRequired{ShortCode: link.ShortCode}, p.visit(t, link.ShortCode, "203.0.113.7"))

		outcome, err := p.redirect.VerifyPassword(ctx, link.ShortCode, "wrong")
		require.NoError(t, err)
		assert.Equal(t, entity.IncorrectPassword{}, outcome)
		assert.Zero(t, p.store.stats(t, link.ShortCode).ClickCount)

		outcome, err = p.redirect.VerifyPassword(ctx, link.ShortCode, "secret")
		require.NoError(t, err)
		assert.Equal(t, entity.Redirect{URL: "https://example.com/page"}, outcome)
		assert.Equal(t, int64(1), p.store.stats(t, link.ShortCode).ClickCount)
		assert.Empty(t, p.store.clicks)
	})

	t.Run("expired link", func(t *testing.T) {
		p := newPipeline(t)
		past := time.Now().Add(-time.Second)

		link, err := p.links.Create(ctx, entity.NewLink{
			OriginalURL: "https://example.com/page",
			ExpiresAt:   &past,
		})
		require.NoError(t, err)

		assert.IsType(t, entity.Expired{}, p.visit(t, link.ShortCode, "203.0.113.7"))
		assert.Zero(t, p.store.stats(t, link.ShortCode).ClickCount)
	})

	t.Run("duplicate alias leaves the store untouched", func(t *testing.T) {
		p := newPipeline(t)

		_, err := p.links.Create(ctx, entity.NewLink{OriginalURL: "https://example.com/a", CustomAlias: "launch"})
		require.NoError(t, err)

		link, err := p.links.Create(ctx, entity.NewLink{OriginalURL: "https://example.com/b", CustomAlias: "launch"})
		assert.ErrorIs(t, err, entity.ErrAliasExists)
		assert.Nil(t, link)

		assert.Len(t, p.store.links, 1)
		assert.Equal(t, "https://example.com/a", p.visit(t, "launch", "203.0.113.7").(entity.Redirect).URL)
	})

	t.Run("generated codes never collide", func(t *testing.T) {
		p := newPipeline(t)

		for i := 0; i < 500; i++ {
			_, err := p.links.Create(ctx, entity.NewLink{OriginalURL: "https://example.com"})
			require.NoError(t, err)
		}

		assert.Len(t, p.store.links, 500)
	})
}

func TestConcurrentRedirects(t *testing.T) {
	p := newPipeline(t)

	link, err := p.links.Create(context.Background(), entity.NewLink{OriginalURL: "https://example.com"})
	require.NoError(t, err)

	ips := []string{"203.0.113.1", "203.0.113.2", "203.0.113.3", "203.0.113.4"}

	const perIP = 50

	var wg sync.WaitGroup
	for _, ip := range ips {
		ip := ip
		for i := 0; i < perIP; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := p.redirect.ResolveRedirect(context.Background(), RedirectRequest{
					ShortCode:  link.ShortCode,
					RemoteAddr: ip + ":40000",
				})
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	stats := p.store.stats(t, link.ShortCode)
	assert.Equal(t, int64(len(ips)*perIP), stats.ClickCount)
	assert.Equal(t, int64(len(ips)), stats.UniqueClicks)
	assert.LessOrEqual(t, stats.UniqueClicks, stats.ClickCount)

	unique := 0
	for _, c := range p.store.clicks {
		if c.IsUnique {
			unique++
		}
	}
	assert.Equal(t, len(ips), unique)
}
