package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/LJTian/SyndicateHub/internal/seen"
)

// 需要真实 PostgreSQL，设置 POSTGRES_TEST_DSN 后运行
func TestPostgresBackendRoundTrip(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	p, err := NewPostgresBackend(dsn)
	if err != nil {
		t.Fatalf("NewPostgresBackend error: %v", err)
	}
	defer p.Close()

	ctx := context.Background()
	id := "test/" + time.Now().Format("20060102150405.000000000")
	t.Cleanup(func() { p.DB.Delete(&PostedArticle{}, "id = ?", id) })

	for i := 0; i < 2; i++ {
		if err := p.Append(ctx, seen.Entry{ID: id, Title: "t", Labels: []string{"World"}, PostedAt: time.Now()}); err != nil {
			t.Fatalf("Append #%d error: %v", i, err)
		}
	}

	ids, err := p.Load(ctx)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	n := 0
	for _, got := range ids {
		if got == id {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("expected id once, found %d times", n)
	}

	recent, err := p.Recent(ctx, 5)
	if err != nil || len(recent) == 0 {
		t.Fatalf("Recent = %v, %v", recent, err)
	}
}

func TestToValidUTF8(t *testing.T) {
	if got := toValidUTF8("ok\xffok"); got != "ok\uFFFDok" {
		t.Fatalf("toValidUTF8 = %q", got)
	}
	if got := nonNil(nil); got == nil || len(got) != 0 {
		t.Fatalf("nonNil(nil) = %v", got)
	}
}
