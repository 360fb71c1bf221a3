package domain

import (
	"context"
	"errors"
	"time"
)

var ErrImageNotFound = errors.New("image not found")

// Image is a picture referenced from post content, stored on disk with its metadata in the database.
type Image struct {
	Path        string
	Hash        string
	ContentType string
	Content     []byte
	UpdatedAt   time.Time
	CreatedAt   time.Time
}

type ImageRepository interface {
	// SaveImage saves an image to both filesystem and database
	SaveImage(ctx context.Context, img *Image) error

	// GetImage retrieves an image record from the database
	GetImage(ctx context.Context, path string) (*Image, error)

	// DeleteImage removes an image from both filesystem and database
	DeleteImage(ctx context.Context, path string) error
}
