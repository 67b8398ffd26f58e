package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/LJTian/SyndicateHub/internal/collector"
)

func fakeTelegram(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu       sync.Mutex
		messages []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Syndicate","username":"syndicate_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			_ = r.ParseForm()
			mu.Lock()
			messages = append(messages, r.Form.Get("chat_id")+"|"+r.Form.Get("text"))
			mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":100,"type":"channel"}}}`))
		default:
			_, _ = w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), messages...)
	}
}

func TestTelegramNotify(t *testing.T) {
	srv, sent := fakeTelegram(t)

	n, err := NewTelegramWithEndpoint("token", srv.URL+"/bot%s/%s", 100)
	if err != nil {
		t.Fatalf("NewTelegramWithEndpoint error: %v", err)
	}

	a := collector.Article{Title: "Headline a1", Category: "World news"}
	if err := n.Notify(context.Background(), a, "https://example.blogspot.com/p/1"); err != nil {
		t.Fatalf("Notify error: %v", err)
	}

	got := sent()
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	want := "100|[World news] Headline a1\nhttps://example.blogspot.com/p/1"
	if got[0] != want {
		t.Fatalf("message = %q, want %q", got[0], want)
	}
}

func TestTelegramInitFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	if _, err := NewTelegramWithEndpoint("bad", srv.URL+"/bot%s/%s", 1); err == nil {
		t.Fatalf("expected error for unauthorized bot")
	}
}
