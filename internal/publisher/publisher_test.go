package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/LJTian/SyndicateHub/internal/auth"
	"github.com/LJTian/SyndicateHub/internal/render"
	"golang.org/x/oauth2"
)

type staticProvider struct {
	err error
}

func (s staticProvider) Session(ctx context.Context) (oauth2.TokenSource, error) {
	if s.err != nil {
		return nil, s.err
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token", TokenType: "Bearer"}), nil
}

func samplePost() render.Post {
	return render.Post{
		Title:   "Headline a1",
		Content: "<div>body</div>",
		Labels:  []string{"World news", "News Update"},
	}
}

func TestBloggerPublishSendsPost(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody struct {
			Title   string   `json:"title"`
			Content string   `json:"content"`
			Labels  []string `json:"labels"`
		}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"42","url":"https://example.blogspot.com/2024/01/headline-a1.html"}`))
	}))
	defer srv.Close()

	b := NewBlogger("blog-1", staticProvider{})
	b.Endpoint = srv.URL + "/"

	loc, err := b.Publish(context.Background(), samplePost())
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if loc != "https://example.blogspot.com/2024/01/headline-a1.html" {
		t.Fatalf("location = %q", loc)
	}
	if !strings.HasSuffix(gotPath, "/blogs/blog-1/posts") {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotBody.Title != "Headline a1" || gotBody.Content != "<div>body</div>" || len(gotBody.Labels) != 2 {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
}

func TestBloggerPublishRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"We're sorry, but you don't have permission"}}`))
	}))
	defer srv.Close()

	b := NewBlogger("blog-1", staticProvider{})
	b.Endpoint = srv.URL + "/"
	if _, err := b.Publish(context.Background(), samplePost()); err == nil {
		t.Fatalf("expected error on 403")
	}
}

func TestBloggerPublishEmptyURLIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"42"}`))
	}))
	defer srv.Close()

	b := NewBlogger("blog-1", staticProvider{})
	b.Endpoint = srv.URL + "/"
	if _, err := b.Publish(context.Background(), samplePost()); err == nil {
		t.Fatalf("expected error when url is missing")
	}
}

func TestBloggerPublishWithoutSession(t *testing.T) {
	b := NewBlogger("blog-1", staticProvider{err: auth.ErrNotAuthorized})
	_, err := b.Publish(context.Background(), samplePost())
	if !errors.Is(err, auth.ErrNotAuthorized) {
		t.Fatalf("error = %v, want ErrNotAuthorized", err)
	}
}
