package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dfryer1193/blogo/api"
	"github.com/dfryer1193/blogo/blog/application"
	"github.com/dfryer1193/blogo/blog/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

func (a *Api) GetPosts(c *gin.Context) {
	limit, err := intQuery(c, "limit", defaultLimit)
	if err != nil || limit < 1 || limit > maxLimit {
		c.JSON(http.StatusBadRequest, api.Error{Error: "limit must be between 1 and " + strconv.Itoa(maxLimit)})
		return
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, api.Error{Error: "offset must be a non-negative integer"})
		return
	}

	posts, err := a.posts.ListPublished(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	out := api.PostList{Posts: make([]api.Post, 0, len(posts)), Limit: limit, Offset: offset}
	for _, p := range posts {
		out.Posts = append(out.Posts, toApiPost(p))
	}
	c.JSON(http.StatusOK, out)
}

func (a *Api) GetPost(c *gin.Context) {
	post, err := a.posts.GetPublishedPost(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toApiPost(post))
}

func (a *Api) PutPost(c *gin.Context) {
	var proto api.PostProto
	if err := c.ShouldBindJSON(&proto); err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: err.Error()})
		return
	}

	post, err := a.posts.SavePost(c.Request.Context(), application.PostInput{
		Slug:    c.Param("slug"),
		Title:   proto.Title,
		Content: proto.Content,
		Author:  proto.Author,
		PubDate: proto.PubDate,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toApiPost(post))
}

func (a *Api) PublishPost(c *gin.Context) {
	if err := a.posts.Publish(c.Request.Context(), c.Param("slug")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *Api) UnpublishPost(c *gin.Context) {
	if err := a.posts.Unpublish(c.Request.Context(), c.Param("slug")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *Api) PostPreview(c *gin.Context) {
	var req api.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: err.Error()})
		return
	}

	result := a.posts.Preview(req.Content)
	c.JSON(http.StatusOK, api.Preview{
		Description: result.Description,
		Body:        result.Body,
		HasMore:     result.Description != "",
	})
}

func intQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func writeError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrPostNotFound):
		c.JSON(http.StatusNotFound, api.Error{Error: "post not found"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, api.Error{Error: validationErr.Message, Code: validationErr.Code})
	case errors.Is(err, domain.ErrInvalidPost):
		c.JSON(http.StatusBadRequest, api.Error{Error: err.Error()})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, api.Error{Error: "internal server error"})
	}
}

func toApiPost(p *domain.Post) api.Post {
	return api.Post{
		ID:          p.ID,
		Slug:        p.Slug,
		Title:       p.Title,
		Author:      p.Author,
		Description: p.Description,
		Body:        p.Body,
		Summary:     p.Summary(),
		HasMore:     p.HasMore(),
		URL:         p.AbsoluteURL(),
		PubDate:     p.PubDate,
		UpdatedAt:   p.UpdatedAt,
		CreatedAt:   p.CreatedAt,
	}
}
