package rest

import (
	"context"
	"net/http"

	"github.com/dfryer1193/blogo/blog/application"
	"github.com/dfryer1193/blogo/blog/domain"
	"github.com/gin-gonic/gin"
)

// PostService is what the REST API needs from the blog.
type PostService interface {
	SavePost(ctx context.Context, in application.PostInput) (*domain.Post, error)
	Preview(content string) domain.SplitResult
	GetPublishedPost(ctx context.Context, slug string) (*domain.Post, error)
	ListPublished(ctx context.Context, limit, offset int) ([]*domain.Post, error)
	Publish(ctx context.Context, slug string) error
	Unpublish(ctx context.Context, slug string) error
}

var _ PostService = (*application.PostService)(nil)

type Api struct {
	posts PostService
}

func NewApi(router *gin.Engine, posts PostService) *Api {
	a := &Api{posts: posts}

	router.GET("/healthz", a.Healthz)

	postsV1 := router.Group("posts/v1")
	{
		postsV1.GET("/", a.GetPosts)
		postsV1.GET("/:slug", a.GetPost)
		postsV1.PUT("/:slug", a.PutPost)
		postsV1.POST("/:slug/publish", a.PublishPost)
		postsV1.DELETE("/:slug/publish", a.UnpublishPost)
	}

	previewV1 := router.Group("preview/v1")
	{
		previewV1.POST("/", a.PostPreview)
	}

	return a
}

func (a *Api) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
