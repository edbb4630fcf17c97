package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abante-news-scraper/internal/observability"
	"abante-news-scraper/internal/storage"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := &Repository{
		db:             db,
		commandTimeout: 5 * time.Second,
		logger:         observability.NewNop(),
	}
	return repo, mock
}

func TestInsertArticle(t *testing.T) {
	repo, mock := newMockRepository(t)

	published := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)
	row := &storage.ArticleRow{
		ID:             uuid.New(),
		Title:          "Bagong balita",
		Author:         "Abante News",
		Content:        "Full content here.",
		Summary:        "Full content here.",
		Tags:           []string{"metro", "balita"},
		URL:            "https://www.abante.com.ph/2025/08/20/bagong-balita/",
		StoredImageURL: "https://cdn.example.com/scraped/abc.jpg",
		PublishedAt:    &published,
		Checksum:       "deadbeef",
		SequenceNum:    3,
	}

	mock.ExpectExec("INSERT INTO articles").
		WithArgs(
			row.ID, row.Title, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), row.URL, sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), row.SequenceNum,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.InsertArticle(context.Background(), row)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertArticleEmptyFieldsBecomeNull(t *testing.T) {
	repo, mock := newMockRepository(t)

	row := &storage.ArticleRow{
		ID:          uuid.New(),
		Title:       "Listing stub",
		URL:         "https://www.abante.com.ph/2025/08/20/listing-stub/",
		SequenceNum: 1,
	}

	// Empty author, content, summary, image and checksum must land as NULL,
	// and nil tags as a NULL array, so the backfill query picks the row up.
	mock.ExpectExec("INSERT INTO articles").
		WithArgs(
			row.ID, row.Title,
			sql.NullString{}, sql.NullString{}, sql.NullString{},
			nil,
			row.URL,
			sql.NullString{}, sql.NullTime{}, sql.NullString{},
			row.SequenceNum,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.InsertArticle(context.Background(), row)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByURL(t *testing.T) {
	repo, mock := newMockRepository(t)

	id := uuid.New()
	url := "https://www.abante.com.ph/2025/08/20/bagong-balita/"

	mock.ExpectQuery("SELECT id, url, title, COALESCE").
		WithArgs(url).
		WillReturnRows(sqlmock.NewRows([]string{"id", "url", "title", "coalesce"}).
			AddRow(id, url, "Bagong balita", ""))

	ref, err := repo.GetByURL(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, id, ref.ID)
	assert.Equal(t, url, ref.URL)
	assert.Equal(t, "Bagong balita", ref.Title)
	assert.Empty(t, ref.StoredImageURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByURLNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT id, url, title, COALESCE").
		WithArgs("https://www.abante.com.ph/missing/").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByURL(context.Background(), "https://www.abante.com.ph/missing/")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateStoredImage(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE articles SET s3_img").
		WithArgs("https://cdn.example.com/scraped/abc.jpg", id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStoredImage(context.Background(), id, "https://cdn.example.com/scraped/abc.jpg")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStoredImageNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("UPDATE articles SET s3_img").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStoredImage(context.Background(), uuid.New(), "x")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListMissingDetails(t *testing.T) {
	repo, mock := newMockRepository(t)

	id1, id2 := uuid.New(), uuid.New()
	mock.ExpectQuery("WHERE author IS NULL OR content IS NULL").
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "url", "title", "coalesce"}).
			AddRow(id1, "https://www.abante.com.ph/a/", "A", "").
			AddRow(id2, "https://www.abante.com.ph/b/", "B", "https://cdn.example.com/b.jpg"))

	refs, err := repo.ListMissingDetails(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, id1, refs[0].ID)
	assert.Equal(t, "https://cdn.example.com/b.jpg", refs[1].StoredImageURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMissingDetailsEmpty(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("WHERE author IS NULL").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "url", "title", "coalesce"}))

	refs, err := repo.ListMissingDetails(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestUpdateDetails(t *testing.T) {
	repo, mock := newMockRepository(t)

	id := uuid.New()
	author := "Juan dela Cruz"
	content := "Buong nilalaman."
	summary := "Buong nilalaman."
	checksum := "cafebabe"
	published := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE articles SET author = \\$1, content = \\$2, summary = \\$3, tags = \\$4, published_at = \\$5, checksum = \\$6 WHERE id = \\$7").
		WithArgs(author, content, summary, sqlmock.AnyArg(), published, checksum, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	update := &storage.DetailUpdate{
		Author:      &author,
		Content:     &content,
		Summary:     &summary,
		Tags:        []string{"metro"},
		PublishedAt: &published,
		Checksum:    &checksum,
	}
	err := repo.UpdateDetails(context.Background(), id, update)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDetailsPartial(t *testing.T) {
	repo, mock := newMockRepository(t)

	id := uuid.New()
	author := "Abante News"

	// Only the provided fields appear in the SET clause.
	mock.ExpectExec("UPDATE articles SET author = \\$1 WHERE id = \\$2").
		WithArgs(author, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateDetails(context.Background(), id, &storage.DetailUpdate{Author: &author})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDetailsNoFields(t *testing.T) {
	repo, mock := newMockRepository(t)

	// An empty update is a no-op, no SQL should be issued.
	err := repo.UpdateDetails(context.Background(), uuid.New(), &storage.DetailUpdate{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDetailsNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	author := "x"

	mock.ExpectExec("UPDATE articles SET author").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateDetails(context.Background(), uuid.New(), &storage.DetailUpdate{Author: &author})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCountArticles(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountArticles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}
