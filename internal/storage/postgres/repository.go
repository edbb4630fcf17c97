// Package postgres implements the article repository on a Postgres-compatible
// database such as Supabase.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"abante-news-scraper/internal/observability"
	"abante-news-scraper/internal/storage"
)

type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{
		db:             db,
		commandTimeout: commandTimeout,
		logger:         logger,
	}, nil
}

// nullable maps "" to NULL so the backfill query can find incomplete rows.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (r *Repository) InsertArticle(ctx context.Context, row *storage.ArticleRow) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `
		INSERT INTO articles
			(id, title, author, content, summary, tags, url, s3_img, published_at, checksum, sequence_num)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	var tags interface{}
	if len(row.Tags) > 0 {
		tags = pq.Array(row.Tags)
	}

	_, err := r.db.ExecContext(ctx, query,
		row.ID,
		row.Title,
		nullable(row.Author),
		nullable(row.Content),
		nullable(row.Summary),
		tags,
		row.URL,
		nullable(row.StoredImageURL),
		nullableTime(row.PublishedAt),
		nullable(row.Checksum),
		row.SequenceNum,
	)
	if err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}

	return nil
}

func (r *Repository) GetByURL(ctx context.Context, url string) (*storage.ArticleRef, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `SELECT id, url, title, COALESCE(s3_img, '') FROM articles WHERE url = $1 LIMIT 1`

	ref := &storage.ArticleRef{}
	err := r.db.QueryRowContext(ctx, query, url).Scan(&ref.ID, &ref.URL, &ref.Title, &ref.StoredImageURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query article by url: %w", err)
	}

	return ref, nil
}

func (r *Repository) UpdateStoredImage(ctx context.Context, id uuid.UUID, imageURL string) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx,
		`UPDATE articles SET s3_img = $1 WHERE id = $2`, imageURL, id)
	if err != nil {
		return fmt.Errorf("failed to update stored image: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (r *Repository) ListMissingDetails(ctx context.Context, limit int) ([]*storage.ArticleRef, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `
		SELECT id, url, title, COALESCE(s3_img, '')
		FROM articles
		WHERE author IS NULL OR content IS NULL OR tags IS NULL OR published_at IS NULL
		ORDER BY sequence_num
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query incomplete articles: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.Error("Failed to close rows", "error", closeErr.Error())
		}
	}()

	var refs []*storage.ArticleRef
	for rows.Next() {
		ref := &storage.ArticleRef{}
		if err := rows.Scan(&ref.ID, &ref.URL, &ref.Title, &ref.StoredImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate article rows: %w", err)
	}

	return refs, nil
}

func (r *Repository) UpdateDetails(ctx context.Context, id uuid.UUID, update *storage.DetailUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var (
		sets []string
		args []interface{}
	)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Author != nil {
		add("author", *update.Author)
	}
	if update.Content != nil {
		add("content", *update.Content)
	}
	if update.Summary != nil {
		add("summary", *update.Summary)
	}
	if update.Tags != nil {
		add("tags", pq.Array(update.Tags))
	}
	if update.PublishedAt != nil {
		add("published_at", *update.PublishedAt)
	}
	if update.Checksum != nil {
		add("checksum", *update.Checksum)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE articles SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update article details: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (r *Repository) CountArticles(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}

	return count, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
