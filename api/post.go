package api

import "time"

type Post struct {
	ID          int64      `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Description string     `json:"description"`
	Body        string     `json:"body"`
	Summary     string     `json:"summary"`
	HasMore     bool       `json:"has_more"`
	URL         string     `json:"url"`
	PubDate     *time.Time `json:"pub_date,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

type PostList struct {
	Posts  []Post `json:"posts"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// PostProto is the author-controlled part of a post. The slug comes from the URL.
type PostProto struct {
	Title   string     `json:"title" binding:"required"`
	Content string     `json:"content"`
	Author  string     `json:"author"`
	PubDate *time.Time `json:"pub_date"`
}

type PreviewRequest struct {
	Content string `json:"content"`
}

type Preview struct {
	Description string `json:"description"`
	Body        string `json:"body"`
	HasMore     bool   `json:"has_more"`
}

type Error struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
