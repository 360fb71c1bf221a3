package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/blogo/blog/domain"
	"github.com/dfryer1193/blogo/shared/db"
)

var _ domain.PostRepository = (*SQLitePostRepository)(nil)

// DefaultPageSize is used when a listing is requested without a positive limit.
const DefaultPageSize = 50

// SQLitePostRepository implements domain.PostRepository using SQL database (SQLite)
type SQLitePostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new SQLitePostRepository from a standard sql.DB
func NewPostRepository(sqlDB *sql.DB) *SQLitePostRepository {
	return &SQLitePostRepository{
		db: sqlDB,
	}
}

const postColumns = `id, slug, title, content, description, body, author, pub_date, updated_at, created_at`

const upsertPostQuery = `
	INSERT INTO posts (slug, title, content, description, body, author, pub_date, updated_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(slug) DO UPDATE SET
		title = excluded.title,
		content = excluded.content,
		description = excluded.description,
		body = excluded.body,
		author = excluded.author,
		pub_date = excluded.pub_date,
		updated_at = excluded.updated_at,
		created_at = COALESCE(posts.created_at, excluded.created_at)
`

const getPostKeyQuery = `SELECT id, created_at FROM posts WHERE slug = ?`

// UpsertPost inserts the post or updates the one with the same slug.
// ID and CreatedAt are filled in from the stored row, which keeps its original creation time.
func (r *SQLitePostRepository) UpsertPost(ctx context.Context, p *domain.Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}

	if p.Slug == "" {
		return fmt.Errorf("post slug cannot be empty")
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	var updatedAt, pubDate any
	if !p.UpdatedAt.IsZero() {
		updatedAt = p.UpdatedAt.UTC()
	}
	if p.PubDate != nil {
		pubDate = p.PubDate.UTC()
	}

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)
		_, err := executor.ExecContext(txCtx, upsertPostQuery,
			p.Slug,
			p.Title,
			p.Content,
			p.Description,
			p.Body,
			p.Author,
			pubDate,
			updatedAt,
			p.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert post: %w", err)
		}

		if err := executor.QueryRowContext(txCtx, getPostKeyQuery, p.Slug).Scan(&p.ID, &p.CreatedAt); err != nil {
			return fmt.Errorf("failed to read back post %q: %w", p.Slug, err)
		}
		return nil
	})
}

// GetPost retrieves a single post by ID
func (r *SQLitePostRepository) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = ?`
	post, err := r.getOne(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("post %d: %w", id, err)
	}
	return post, nil
}

// GetPostBySlug retrieves a single post by its slug
func (r *SQLitePostRepository) GetPostBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	if slug == "" {
		return nil, fmt.Errorf("post slug cannot be empty")
	}

	query := `SELECT ` + postColumns + ` FROM posts WHERE slug = ?`
	post, err := r.getOne(ctx, query, slug)
	if err != nil {
		return nil, fmt.Errorf("post %q: %w", slug, err)
	}
	return post, nil
}

func (r *SQLitePostRepository) getOne(ctx context.Context, query string, arg any) (*domain.Post, error) {
	var row postRow
	err := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, arg).Scan(row.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return row.toDomain(), nil
}

const getLatestUpdatedTimeQuery = `
	SELECT updated_at FROM posts WHERE updated_at IS NOT NULL ORDER BY updated_at DESC LIMIT 1
`

// GetLatestUpdatedTime returns the latest updated_at time across all posts
func (r *SQLitePostRepository) GetLatestUpdatedTime(ctx context.Context) (time.Time, error) {
	var latestUpdated sql.NullTime
	err := r.db.QueryRowContext(ctx, getLatestUpdatedTimeQuery).Scan(&latestUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest updated time: %w", err)
	}

	if !latestUpdated.Valid {
		return time.Time{}, nil
	}

	return latestUpdated.Time, nil
}

const listPublishedPostsQuery = `
	SELECT ` + postColumns + `
	FROM posts
	WHERE pub_date IS NOT NULL AND pub_date <= ?
	ORDER BY pub_date DESC, created_at DESC
	LIMIT ? OFFSET ?
`

// ListPublishedPosts retrieves posts published at or before now, newest first
func (r *SQLitePostRepository) ListPublishedPosts(ctx context.Context, now time.Time, limit, offset int) ([]*domain.Post, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, listPublishedPostsQuery, now.UTC(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list published posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*domain.Post, 0)
	for rows.Next() {
		var row postRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, row.toDomain())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}

const publishPostQuery = `
	UPDATE posts
	SET pub_date = ?, updated_at = ?
	WHERE slug = ?
`

const unpublishPostQuery = `
	UPDATE posts
	SET pub_date = NULL, updated_at = ?
	WHERE slug = ?
`

// Publish sets the publication date of a post
func (r *SQLitePostRepository) Publish(ctx context.Context, slug string, at time.Time) error {
	return r.setPublication(ctx, slug, publishPostQuery, at.UTC(), time.Now().UTC(), slug)
}

// Unpublish turns the post back into a draft
func (r *SQLitePostRepository) Unpublish(ctx context.Context, slug string) error {
	return r.setPublication(ctx, slug, unpublishPostQuery, time.Now().UTC(), slug)
}

func (r *SQLitePostRepository) setPublication(ctx context.Context, slug string, query string, args ...any) error {
	if slug == "" {
		return fmt.Errorf("post slug cannot be empty")
	}

	res, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update publication of post %q: %w", slug, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update publication of post %q: %w", slug, err)
	}
	if n == 0 {
		return fmt.Errorf("post %q: %w", slug, domain.ErrPostNotFound)
	}

	return nil
}

// postRow scans nullable timestamps before converting to a domain.Post
type postRow struct {
	ID          int64
	Slug        string
	Title       string
	Content     string
	Description string
	Body        string
	Author      string
	PubDate     sql.NullTime
	UpdatedAt   sql.NullTime
	CreatedAt   sql.NullTime
}

// dest lists scan targets in postColumns order
func (pr *postRow) dest() []any {
	return []any{
		&pr.ID,
		&pr.Slug,
		&pr.Title,
		&pr.Content,
		&pr.Description,
		&pr.Body,
		&pr.Author,
		&pr.PubDate,
		&pr.UpdatedAt,
		&pr.CreatedAt,
	}
}

func (pr *postRow) toDomain() *domain.Post {
	post := &domain.Post{
		ID:          pr.ID,
		Slug:        pr.Slug,
		Title:       pr.Title,
		Content:     pr.Content,
		Description: pr.Description,
		Body:        pr.Body,
		Author:      pr.Author,
	}

	if pr.PubDate.Valid {
		pubDate := pr.PubDate.Time
		post.PubDate = &pubDate
	}
	if pr.UpdatedAt.Valid {
		post.UpdatedAt = pr.UpdatedAt.Time
	}
	if pr.CreatedAt.Valid {
		post.CreatedAt = pr.CreatedAt.Time
	}

	return post
}
