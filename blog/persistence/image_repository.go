package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dfryer1193/blogo/blog/domain"
	"github.com/dfryer1193/blogo/shared/db"
)

var _ domain.ImageRepository = (*SQLiteImageRepository)(nil)

// SQLiteImageRepository keeps image metadata in SQLite and image bytes under dir.
type SQLiteImageRepository struct {
	db  *sql.DB
	dir string
}

// NewImageRepository creates a new SQLiteImageRepository storing files under dir
func NewImageRepository(sqlDB *sql.DB, dir string) *SQLiteImageRepository {
	return &SQLiteImageRepository{
		db:  sqlDB,
		dir: dir,
	}
}

// Dir is the directory image files are written to.
func (r *SQLiteImageRepository) Dir() string {
	return r.dir
}

const upsertImageQuery = `
	INSERT INTO images (path, hash, content_type, updated_at, created_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		hash = excluded.hash,
		content_type = excluded.content_type,
		updated_at = excluded.updated_at,
		created_at = COALESCE(images.created_at, excluded.created_at)
`

// SaveImage saves an image to both filesystem and database within a transaction
func (r *SQLiteImageRepository) SaveImage(ctx context.Context, img *domain.Image) error {
	if img == nil {
		return fmt.Errorf("image cannot be nil")
	}

	if img.Path == "" {
		return fmt.Errorf("image path cannot be empty")
	}

	createdAt := img.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var updatedAt any
	if !img.UpdatedAt.IsZero() {
		updatedAt = img.UpdatedAt.UTC()
	}

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)
		_, err := executor.ExecContext(txCtx, upsertImageQuery,
			img.Path,
			img.Hash,
			img.ContentType,
			updatedAt,
			createdAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert image record: %w", err)
		}

		// A failed write rolls the record back.
		if err := os.MkdirAll(r.dir, 0755); err != nil {
			return fmt.Errorf("failed to create image directory: %w", err)
		}

		if err := os.WriteFile(r.localPath(img.Path), img.Content, 0644); err != nil {
			return fmt.Errorf("failed to write image file: %w", err)
		}

		return nil
	})
}

const getImageQuery = `
	SELECT path, hash, content_type, updated_at, created_at
	FROM images
	WHERE path = ?
`

// GetImage retrieves a single image record by path, without its content
func (r *SQLiteImageRepository) GetImage(ctx context.Context, path string) (*domain.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}

	var row imageRow
	err := r.db.QueryRowContext(ctx, getImageQuery, path).Scan(
		&row.Path,
		&row.Hash,
		&row.ContentType,
		&row.UpdatedAt,
		&row.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("image %q: %w", path, domain.ErrImageNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return row.toDomain(), nil
}

const deleteImageQuery = `
	DELETE FROM images WHERE path = ?
`

// DeleteImage removes an image from both filesystem and database within a transaction
func (r *SQLiteImageRepository) DeleteImage(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("image path cannot be empty")
	}

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)
		if _, err := executor.ExecContext(txCtx, deleteImageQuery, path); err != nil {
			return fmt.Errorf("failed to delete image record: %w", err)
		}

		if err := os.Remove(r.localPath(path)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove image file: %w", err)
		}

		return nil
	})
}

// localPath flattens source paths; rendered posts reference images by base name.
func (r *SQLiteImageRepository) localPath(path string) string {
	return filepath.Join(r.dir, filepath.Base(path))
}

type imageRow struct {
	Path        string
	Hash        string
	ContentType string
	UpdatedAt   sql.NullTime
	CreatedAt   sql.NullTime
}

func (ir *imageRow) toDomain() *domain.Image {
	img := &domain.Image{
		Path:        ir.Path,
		Hash:        ir.Hash,
		ContentType: ir.ContentType,
	}

	if ir.UpdatedAt.Valid {
		img.UpdatedAt = ir.UpdatedAt.Time
	}
	if ir.CreatedAt.Valid {
		img.CreatedAt = ir.CreatedAt.Time
	}

	return img
}
