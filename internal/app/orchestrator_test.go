package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abante-news-scraper/internal/config"
	"abante-news-scraper/internal/fetcher"
	"abante-news-scraper/internal/observability"
	"abante-news-scraper/internal/scraper"
	"abante-news-scraper/internal/storage"
)

// fakeRepo is an in-memory storage.Repository keyed by article URL.
type fakeRepo struct {
	mu      sync.Mutex
	rows    map[string]*storage.ArticleRow
	updates map[uuid.UUID]*storage.DetailUpdate
	missing []*storage.ArticleRef
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		rows:    make(map[string]*storage.ArticleRow),
		updates: make(map[uuid.UUID]*storage.DetailUpdate),
	}
}

func (r *fakeRepo) InsertArticle(_ context.Context, row *storage.ArticleRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rows[row.URL]; exists {
		return fmt.Errorf("duplicate url: %s", row.URL)
	}
	r.rows[row.URL] = row
	return nil
}

func (r *fakeRepo) GetByURL(_ context.Context, url string) (*storage.ArticleRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, exists := r.rows[url]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return &storage.ArticleRef{
		ID:             row.ID,
		URL:            row.URL,
		Title:          row.Title,
		StoredImageURL: row.StoredImageURL,
	}, nil
}

func (r *fakeRepo) UpdateStoredImage(_ context.Context, id uuid.UUID, imageURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			row.StoredImageURL = imageURL
			return nil
		}
	}
	return storage.ErrNotFound
}

func (r *fakeRepo) ListMissingDetails(_ context.Context, limit int) ([]*storage.ArticleRef, error) {
	if len(r.missing) > limit {
		return r.missing[:limit], nil
	}
	return r.missing, nil
}

func (r *fakeRepo) UpdateDetails(_ context.Context, id uuid.UUID, update *storage.DetailUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates[id] = update
	return nil
}

func (r *fakeRepo) CountArticles(_ context.Context) (int, error) {
	return len(r.rows), nil
}

func (r *fakeRepo) Close() error { return nil }

type fakeUploader struct {
	mu      sync.Mutex
	uploads []string
	err     error
}

func (u *fakeUploader) UploadFromURL(_ context.Context, sourceURL string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return "", u.err
	}
	u.uploads = append(u.uploads, sourceURL)
	return "https://cdn.example.com/stored/" + fmt.Sprint(len(u.uploads)) + ".jpg", nil
}

func appTestConfig(baseURL string) *config.Config {
	return &config.Config{
		Site: config.SiteConfig{
			ListingURL:      baseURL + "/news/",
			ListingStrategy: config.StrategyHTTP,
			DetailStrategy:  config.StrategyHTTP,
		},
		HTTP: config.HTTPConfig{
			UserAgent:                 "test-agent",
			ConnectTimeoutMS:          2000,
			TotalTimeoutMS:            5000,
			MaxRetries:                1,
			MaxIdleConnections:        10,
			MaxIdleConnectionsPerHost: 2,
			IdleConnectionTimeoutS:    10,
		},
		Backoff:             config.BackoffConfig{MinMS: 1, MaxMS: 5, JitterPct: 10},
		RateLimit:           config.RateLimitConfig{MaxConcurrentPerHost: 2, RPM: 1000},
		RobotsCacheTTLHours: 1,
		Pagination:          config.PaginationConfig{MaxPages: 5, StopOnKnownChainPages: 1},
		Normalize: config.NormalizeConfig{
			StripBlocks:      []string{"ADVERTISEMENT"},
			TrimNBSP:         true,
			CollapseSpaces:   true,
			MaxPreviewChars:  200,
			SummarySentences: 2,
		},
		Storage: config.StorageConfig{BackfillBatchSize: 20},
	}
}

func appTestSelectors() *scraper.Selectors {
	return &scraper.Selectors{
		Listing: scraper.ListingSelectors{
			CardSelector:   "article.card",
			TitleSelectors: []string{"h3 a"},
			URLSelectors:   []string{"a.thumb"},
			ImageSelectors: []string{"a.thumb img"},
			NextPageLinks:  []string{"a.next"},
		},
		Detail: scraper.DetailSelectors{
			AuthorSelectors: []string{"span.byline"},
			AuthorFallback:  "Abante News",
			ContentSelector: "div.content",
			TagSelectors:    []string{"a.tag"},
			DateSelectors:   []string{"time.published"},
			DateFormats:     []string{"January 2, 2006"},
		},
	}
}

func listingPage(cards []string, nextLink string) string {
	page := "<html><body>"
	for _, card := range cards {
		page += card
	}
	if nextLink != "" {
		page += `<a class="next" href="` + nextLink + `">Next</a>`
	}
	return page + "</body></html>"
}

func cardHTML(slug, title string) string {
	return fmt.Sprintf(
		`<article class="card"><a class="thumb" href="/2025/08/20/%s/"><img src="/img/%s.jpg"></a><h3><a href="/2025/08/20/%s/">%s</a></h3></article>`,
		slug, slug, slug, title)
}

func newListingServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/news/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, listingPage(
			[]string{cardHTML("first", "First story"), cardHTML("second", "Second story")},
			"/news/page/2/",
		))
	})
	mux.HandleFunc("/news/page/2/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, listingPage([]string{cardHTML("third", "Third story")}, ""))
	})

	return server
}

func newTestOrchestrator(t *testing.T, cfg *config.Config, repo storage.Repository, uploader Uploader) *Orchestrator {
	t.Helper()

	factory := fetcher.NewFactory(cfg, observability.NewNop())
	t.Cleanup(func() { _ = factory.Close() })

	return NewOrchestrator(cfg, observability.NewNop(), factory, appTestSelectors(), repo, uploader)
}

func TestRunListingInsertsNewArticles(t *testing.T) {
	server := newListingServer(t)
	repo := newFakeRepo()
	uploader := &fakeUploader{}

	o := newTestOrchestrator(t, appTestConfig(server.URL), repo, uploader)

	stats, err := o.RunListing(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalPages)
	assert.Equal(t, 3, stats.TotalCards)
	assert.Equal(t, 3, stats.NewArticles)
	assert.Equal(t, 0, stats.KnownCards)
	assert.Contains(t, stats.StoppedReason, "no next link")

	require.Len(t, repo.rows, 3)
	row, ok := repo.rows[server.URL+"/2025/08/20/first/"]
	require.True(t, ok)
	assert.Equal(t, "First story", row.Title)
	assert.NotEmpty(t, row.Checksum)
	assert.Equal(t, 0, row.SequenceNum)
	// Every card carried a thumbnail, so every row got a stored image.
	assert.NotEmpty(t, row.StoredImageURL)
	assert.Len(t, uploader.uploads, 3)
}

func TestRunListingStopsOnKnownChain(t *testing.T) {
	server := newListingServer(t)
	repo := newFakeRepo()
	uploader := &fakeUploader{}

	// Pre-store page one's articles, images included.
	for i, slug := range []string{"first", "second"} {
		url := server.URL + "/2025/08/20/" + slug + "/"
		repo.rows[url] = &storage.ArticleRow{
			ID:             uuid.New(),
			Title:          slug,
			URL:            url,
			StoredImageURL: "https://cdn.example.com/existing.jpg",
			SequenceNum:    i + 1,
		}
	}

	o := newTestOrchestrator(t, appTestConfig(server.URL), repo, uploader)

	stats, err := o.RunListing(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalPages)
	assert.Equal(t, 2, stats.KnownCards)
	assert.Equal(t, 0, stats.NewArticles)
	assert.Contains(t, stats.StoppedReason, "consecutive known pages")
	assert.Empty(t, uploader.uploads)
}

func TestRunListingBackfillsMissingImage(t *testing.T) {
	server := newListingServer(t)
	repo := newFakeRepo()
	uploader := &fakeUploader{}

	// Known article without a stored image: the run should upload its
	// thumbnail but insert nothing.
	url := server.URL + "/2025/08/20/first/"
	repo.rows[url] = &storage.ArticleRow{ID: uuid.New(), Title: "first", URL: url, SequenceNum: 1}

	cfg := appTestConfig(server.URL)
	cfg.Pagination.MaxPages = 1
	o := newTestOrchestrator(t, cfg, repo, uploader)

	stats, err := o.RunListing(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.UpdatedImages)
	assert.Equal(t, 1, stats.NewArticles)
	assert.NotEmpty(t, repo.rows[url].StoredImageURL)
}

func TestRunListingUploadFailureIsNotFatal(t *testing.T) {
	server := newListingServer(t)
	repo := newFakeRepo()
	uploader := &fakeUploader{err: errors.New("bucket unreachable")}

	cfg := appTestConfig(server.URL)
	cfg.Pagination.MaxPages = 1
	o := newTestOrchestrator(t, cfg, repo, uploader)

	stats, err := o.RunListing(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.NewArticles)
	for _, row := range repo.rows {
		assert.Empty(t, row.StoredImageURL)
	}
}

func TestRunListingNilUploader(t *testing.T) {
	server := newListingServer(t)
	repo := newFakeRepo()

	cfg := appTestConfig(server.URL)
	cfg.Pagination.MaxPages = 1
	o := newTestOrchestrator(t, cfg, repo, nil)

	stats, err := o.RunListing(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.NewArticles)
}

func TestRunListingInvalidListingURL(t *testing.T) {
	cfg := appTestConfig("http://127.0.0.1:1")
	cfg.Site.ListingURL = "not-a-url"
	o := newTestOrchestrator(t, cfg, newFakeRepo(), nil)

	_, err := o.RunListing(context.Background())
	assert.Error(t, err)
}

func TestRunListingCanceledContext(t *testing.T) {
	server := newListingServer(t)
	o := newTestOrchestrator(t, appTestConfig(server.URL), newFakeRepo(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.RunListing(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

const detailPageHTML = `<html><head>
<meta property="og:image" content="https://www.abante.com.ph/img/og.jpg">
</head><body>
<span class="byline">Juan dela Cruz</span>
<time class="published">August 20, 2025</time>
<div class="content">
<p>Unang pangungusap ng balita. Pangalawang pangungusap nito. Pangatlong pangungusap.</p>
<p>ADVERTISEMENT</p>
<p>Huling talata.</p>
</div>
<a class="tag" href="/tag/metro/">Metro</a>
<a class="tag" href="/tag/balita/">Balita</a>
</body></html>`

func newBackfillFixture(t *testing.T, detailHTML string) (*httptest.Server, *fakeRepo, *storage.ArticleRef) {
	t.Helper()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/2025/08/20/first/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, detailHTML)
	})

	repo := newFakeRepo()
	ref := &storage.ArticleRef{
		ID:    uuid.New(),
		URL:   server.URL + "/2025/08/20/first/",
		Title: "First story",
	}
	repo.missing = []*storage.ArticleRef{ref}
	repo.rows[ref.URL] = &storage.ArticleRow{ID: ref.ID, URL: ref.URL, Title: ref.Title}

	return server, repo, ref
}

func TestRunBackfill(t *testing.T) {
	server, repo, ref := newBackfillFixture(t, detailPageHTML)
	uploader := &fakeUploader{}

	o := newTestOrchestrator(t, appTestConfig(server.URL), repo, uploader)

	stats, err := o.RunBackfill(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Candidates)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 0, stats.DateMisses)
	assert.Equal(t, 1, stats.ImagesFilled)

	update := repo.updates[ref.ID]
	require.NotNil(t, update)
	assert.Equal(t, "Juan dela Cruz", *update.Author)
	require.NotNil(t, update.Content)
	assert.NotContains(t, *update.Content, "ADVERTISEMENT")
	assert.Contains(t, *update.Content, "Unang pangungusap ng balita.")
	assert.Contains(t, *update.Content, "Huling talata.")
	require.NotNil(t, update.Summary)
	assert.Equal(t, "Unang pangungusap ng balita. Pangalawang pangungusap nito.", *update.Summary)
	assert.Equal(t, []string{"Metro", "Balita"}, update.Tags)
	require.NotNil(t, update.PublishedAt)
	assert.Equal(t, time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC), *update.PublishedAt)
	require.NotNil(t, update.Checksum)
	assert.Len(t, *update.Checksum, 64)

	assert.Equal(t, []string{"https://www.abante.com.ph/img/og.jpg"}, uploader.uploads)
}

func TestRunBackfillUnparsableDate(t *testing.T) {
	page := `<html><body>
<div class="content"><p>Nilalaman.</p></div>
<time class="published">kahapon lang</time>
</body></html>`

	server, repo, ref := newBackfillFixture(t, page)
	o := newTestOrchestrator(t, appTestConfig(server.URL), repo, nil)

	stats, err := o.RunBackfill(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 1, stats.DateMisses)

	update := repo.updates[ref.ID]
	require.NotNil(t, update)
	assert.Nil(t, update.PublishedAt)
	// No byline on the page, the configured fallback applies.
	assert.Equal(t, "Abante News", *update.Author)
}

func TestRunBackfillNoCandidates(t *testing.T) {
	o := newTestOrchestrator(t, appTestConfig("http://127.0.0.1:1"), newFakeRepo(), nil)

	stats, err := o.RunBackfill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Candidates)
	assert.Equal(t, 0, stats.Updated)
}
