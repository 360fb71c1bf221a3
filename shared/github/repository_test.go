package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newTestRepository(t *testing.T, mux *http.ServeMux) *GithubSourceRepository {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient("")
	baseURL, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatalf("failed to parse server URL: %v", err)
	}
	client.BaseURL = baseURL

	return NewGithubSourceRepository(client, "owner", "posts")
}

func TestGithubSourceRepository_GetCommit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/posts/commits/abc123", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"sha": "abc123",
			"commit": {"author": {"date": "2026-01-02T03:04:05Z"}},
			"files": [
				{"filename": "posts/001-hello.md", "status": "added"},
				{"filename": "posts/002-new.md", "previous_filename": "posts/002-old.md", "status": "renamed"}
			]
		}`)
	})

	repo := newTestRepository(t, mux)
	commit, err := repo.GetCommit(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("GetCommit failed: %v", err)
	}

	if commit.SHA != "abc123" {
		t.Errorf("SHA = %q, want %q", commit.SHA, "abc123")
	}
	wantDate := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if !commit.AuthoredAt.Equal(wantDate) {
		t.Errorf("AuthoredAt = %v, want %v", commit.AuthoredAt, wantDate)
	}
	if len(commit.Files) != 2 {
		t.Fatalf("len(Files) = %d, want 2", len(commit.Files))
	}
	if commit.Files[1].PreviousPath != "posts/002-old.md" || commit.Files[1].Status != "renamed" {
		t.Errorf("Files[1] = %+v", commit.Files[1])
	}
}

func TestGithubSourceRepository_GetFileContents(t *testing.T) {
	content := "# Title\nteaser----rest"
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/posts/contents/posts/001-hello.md", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ref"); got != "abc123" {
			t.Errorf("ref = %q, want %q", got, "abc123")
		}
		fmt.Fprintf(w, `{"type": "file", "encoding": "base64", "path": "posts/001-hello.md", "content": %q}`,
			base64.StdEncoding.EncodeToString([]byte(content)))
	})

	repo := newTestRepository(t, mux)
	got, err := repo.GetFileContents(context.Background(), "posts/001-hello.md", "abc123")
	if err != nil {
		t.Fatalf("GetFileContents failed: %v", err)
	}
	if string(got) != content {
		t.Errorf("content = %q, want %q", got, content)
	}
}

func TestGithubSourceRepository_ListBranches(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/posts/branches", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"name": "draft"}]`)
			return
		}
		w.Header().Set("Link", `<`+r.URL.Path+`?page=2>; rel="next"`)
		fmt.Fprint(w, `[{"name": "main"}]`)
	})

	repo := newTestRepository(t, mux)
	branches, err := repo.ListBranches(context.Background())
	if err != nil {
		t.Fatalf("ListBranches failed: %v", err)
	}
	if strings.Join(branches, ",") != "main,draft" {
		t.Errorf("branches = %v, want [main draft]", branches)
	}
}

func TestGithubSourceRepository_ErrorResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/posts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})

	repo := newTestRepository(t, mux)
	_, err := repo.GetDefaultBranchName(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status 404") {
		t.Errorf("error = %v, want status 404 in message", err)
	}
}

func TestGetRepoFullName(t *testing.T) {
	repo := NewGithubSourceRepository(NewClient("token"), "owner", "posts")
	if got := repo.GetRepoFullName(); got != "owner/posts" {
		t.Errorf("GetRepoFullName() = %q", got)
	}
}
