package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength = 200
	MaxSlugLength  = 50
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrInvalidPost  = errors.New("invalid post")
)

// Post represents a blog post.
// Content is what the author writes; Description and Body are derived from it on every save.
// A post is published once its PubDate is set and no longer in the future.
type Post struct {
	ID          int64
	Slug        string
	Title       string
	Content     string
	Description string
	Body        string
	Author      string
	PubDate     *time.Time
	UpdatedAt   time.Time
	CreatedAt   time.Time
}

// Render recomputes Description and Body from Content.
func (p *Post) Render(render RenderFunc) {
	result := SplitContent(p.Content, render)
	p.Description = result.Description
	p.Body = result.Body
}

// Published reports whether the post is visible at the given time.
func (p *Post) Published(now time.Time) bool {
	return p.PubDate != nil && !p.PubDate.After(now)
}

// HasMore reports whether the post has a teaser distinct from its body.
func (p *Post) HasMore() bool {
	return p.Description != ""
}

// Summary is the teaser of the post, or the whole body when there is none.
func (p *Post) Summary() string {
	if p.Description != "" {
		return p.Description
	}
	return p.Body
}

func (p *Post) AbsoluteURL() string {
	return fmt.Sprintf("/blogo/%s/", p.Slug)
}

func (p *Post) String() string {
	return p.Title
}

// Validate checks the fields an author controls. The author name is optional
// but must be written in Latin script when given.
func (p *Post) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidPost)
	}
	if n := utf8.RuneCountInString(p.Title); n > MaxTitleLength {
		return fmt.Errorf("%w: title has %d characters, at most %d allowed", ErrInvalidPost, n, MaxTitleLength)
	}
	if p.Slug == "" {
		return fmt.Errorf("%w: slug cannot be empty", ErrInvalidPost)
	}
	if n := utf8.RuneCountInString(p.Slug); n > MaxSlugLength {
		return fmt.Errorf("%w: slug has %d characters, at most %d allowed", ErrInvalidPost, n, MaxSlugLength)
	}
	if err := ValidateNotAllCaps(p.Title); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPost, err)
	}
	if p.Author != "" {
		if err := ValidateLatin(p.Author); err != nil {
			return fmt.Errorf("%w: author: %w", ErrInvalidPost, err)
		}
	}
	return nil
}

type PostRepository interface {
	UpsertPost(ctx context.Context, p *Post) error
	GetPost(ctx context.Context, id int64) (*Post, error)
	GetPostBySlug(ctx context.Context, slug string) (*Post, error)
	GetLatestUpdatedTime(ctx context.Context) (time.Time, error)
	// ListPublishedPosts returns posts published at or before now, newest first.
	ListPublishedPosts(ctx context.Context, now time.Time, limit int, offset int) ([]*Post, error)

	Publish(ctx context.Context, slug string, at time.Time) error
	Unpublish(ctx context.Context, slug string) error
}
