package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dfryer1193/blogo/api"
	"github.com/dfryer1193/blogo/blog/application"
	"github.com/dfryer1193/blogo/blog/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wrap(text string) string {
	return "<p>" + text + "</p>"
}

type stubPostService struct {
	posts      map[string]*domain.Post
	lastLimit  int
	lastOffset int
	saved      *application.PostInput
	listErr    error
}

func newStubPostService() *stubPostService {
	pub := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	teaser := &domain.Post{ID: 1, Slug: "teaser", Title: "Teaser", Content: "short----long", PubDate: &pub}
	teaser.Render(wrap)
	plain := &domain.Post{ID: 2, Slug: "plain", Title: "Plain", Content: "only body", PubDate: &pub}
	plain.Render(wrap)
	return &stubPostService{posts: map[string]*domain.Post{"teaser": teaser, "plain": plain}}
}

func (s *stubPostService) SavePost(_ context.Context, in application.PostInput) (*domain.Post, error) {
	s.saved = &in
	if in.Title == "ALL CAPS" {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidPost, &domain.ValidationError{Code: domain.CodeCaps, Message: "no caps"})
	}
	p := &domain.Post{Slug: in.Slug, Title: in.Title, Content: in.Content, Author: in.Author, PubDate: in.PubDate}
	p.Render(wrap)
	return p, nil
}

func (s *stubPostService) Preview(content string) domain.SplitResult {
	return domain.SplitContent(content, wrap)
}

func (s *stubPostService) GetPublishedPost(_ context.Context, slug string) (*domain.Post, error) {
	p, ok := s.posts[slug]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	return p, nil
}

func (s *stubPostService) ListPublished(_ context.Context, limit, offset int) ([]*domain.Post, error) {
	s.lastLimit, s.lastOffset = limit, offset
	if s.listErr != nil {
		return nil, s.listErr
	}
	return []*domain.Post{s.posts["teaser"], s.posts["plain"]}, nil
}

func (s *stubPostService) Publish(_ context.Context, slug string) error {
	if _, ok := s.posts[slug]; !ok {
		return domain.ErrPostNotFound
	}
	return nil
}

func (s *stubPostService) Unpublish(_ context.Context, slug string) error {
	return s.Publish(context.Background(), slug)
}

func newTestRouter(svc PostService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewApi(r, svc)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetPosts(t *testing.T) {
	svc := newStubPostService()
	r := newTestRouter(svc)

	w := do(r, http.MethodGet, "/posts/v1/?limit=10&offset=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, svc.lastLimit)
	assert.Equal(t, 5, svc.lastOffset)

	var list api.PostList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Posts, 2)

	teaser := list.Posts[0]
	assert.Equal(t, "<p>short</p>", teaser.Description)
	assert.Equal(t, "<p>shortlong</p>", teaser.Body)
	assert.Equal(t, "<p>short</p>", teaser.Summary)
	assert.True(t, teaser.HasMore)
	assert.Equal(t, "/blogo/teaser/", teaser.URL)

	plain := list.Posts[1]
	assert.Empty(t, plain.Description)
	assert.Equal(t, "<p>only body</p>", plain.Summary)
	assert.False(t, plain.HasMore)
}

func TestGetPosts_Pagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
	}{
		{name: "Defaults", query: "", wantStatus: http.StatusOK, wantLimit: defaultLimit},
		{name: "Limit too large", query: "?limit=1000", wantStatus: http.StatusBadRequest},
		{name: "Limit not a number", query: "?limit=ten", wantStatus: http.StatusBadRequest},
		{name: "Negative offset", query: "?offset=-1", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newStubPostService()
			w := do(newTestRouter(svc), http.MethodGet, "/posts/v1/"+tt.query, "")
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantLimit, svc.lastLimit)
			}
		})
	}
}

func TestGetPosts_InternalError(t *testing.T) {
	svc := newStubPostService()
	svc.listErr = fmt.Errorf("database is locked")

	w := do(newTestRouter(svc), http.MethodGet, "/posts/v1/", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "locked")
}

func TestGetPost(t *testing.T) {
	r := newTestRouter(newStubPostService())

	w := do(r, http.MethodGet, "/posts/v1/teaser", "")
	require.Equal(t, http.StatusOK, w.Code)
	var post api.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	assert.Equal(t, "teaser", post.Slug)
	assert.Equal(t, int64(1), post.ID)

	w = do(r, http.MethodGet, "/posts/v1/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPutPost(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "Saved",
			body:       `{"title":"Hello","content":"a----b","author":"Dana","pub_date":"2024-05-01T10:00:00Z"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "Missing title",
			body:       `{"content":"a"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Malformed JSON",
			body:       `{"title":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Validation error",
			body:       `{"title":"ALL CAPS","content":"a"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   domain.CodeCaps,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newStubPostService()
			w := do(newTestRouter(svc), http.MethodPut, "/posts/v1/hello", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantCode != "" {
				var apiErr api.Error
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
				assert.Equal(t, tt.wantCode, apiErr.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			require.NotNil(t, svc.saved)
			assert.Equal(t, "hello", svc.saved.Slug)
			assert.Equal(t, "Dana", svc.saved.Author)
			require.NotNil(t, svc.saved.PubDate)
			assert.True(t, svc.saved.PubDate.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))

			var post api.Post
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
			assert.Equal(t, "<p>a</p>", post.Description)
			assert.Equal(t, "<p>ab</p>", post.Body)
		})
	}
}

func TestPublishPost(t *testing.T) {
	r := newTestRouter(newStubPostService())

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/posts/v1/plain/publish", "").Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/posts/v1/plain/publish", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/posts/v1/missing/publish", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/posts/v1/missing/publish", "").Code)
}

func TestPostPreview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    api.Preview
	}{
		{
			name:    "Genuine split",
			content: "intro----more",
			want:    api.Preview{Description: "<p>intro</p>", Body: "<p>intromore</p>", HasMore: true},
		},
		{
			name:    "No separator",
			content: "single",
			want:    api.Preview{Body: "<p>single</p>"},
		},
		{
			name:    "Separator only",
			content: "----",
			want:    api.Preview{Body: "<p></p>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(api.PreviewRequest{Content: tt.content})
			require.NoError(t, err)

			w := do(newTestRouter(newStubPostService()), http.MethodPost, "/preview/v1/", string(body))
			require.Equal(t, http.StatusOK, w.Code)

			var got api.Preview
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHealthz(t *testing.T) {
	w := do(newTestRouter(newStubPostService()), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
