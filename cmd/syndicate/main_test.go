package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LJTian/SyndicateHub/internal/collector"
	"github.com/LJTian/SyndicateHub/internal/config"
	"github.com/LJTian/SyndicateHub/internal/logger"
	"github.com/alicebob/miniredis/v2"
)

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !strings.Contains(buf.String(), "syndicate dev") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	want := map[string]bool{"run": false, "serve": false, "auth": false, "version": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("subcommand %q not registered", name)
		}
	}
}

func TestNewSourceByKind(t *testing.T) {
	cfg := &config.Config{SourceKind: "rss", RSSURL: "https://example.com/rss"}
	if _, ok := newSource(cfg).(*collector.RSSSource); !ok {
		t.Fatalf("expected RSSSource for rss kind")
	}
	cfg.SourceKind = "guardian"
	if _, ok := newSource(cfg).(*collector.GuardianSource); !ok {
		t.Fatalf("expected GuardianSource for guardian kind")
	}
}

func TestNewAppRejectsInvalidConfig(t *testing.T) {
	if _, err := newApp(&config.Config{SourceKind: "guardian"}, logger.Discard()); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestAppRunWithEmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>empty</title></channel></rss>`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := &config.Config{
		SourceKind:  "rss",
		RSSURL:      srv.URL,
		BlogID:      "blog-1",
		MaxPerRun:   2,
		SeenBackend: "file",
		SeenFile:    filepath.Join(dir, "posted_articles.txt"),
		SourceName:  "The Guardian",
	}
	a, err := newApp(cfg, logger.Discard())
	if err != nil {
		t.Fatalf("newApp error: %v", err)
	}
	defer a.Close()

	rep := a.Run(context.Background())
	if !rep.OK() || rep.Fetched != 0 {
		t.Fatalf("expected successful empty run: %+v", rep)
	}
}

func TestNewAppToleratesUnreachableBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.Close()

	cfg := &config.Config{
		SourceKind:     "guardian",
		GuardianAPIKey: "key",
		BlogID:         "blog-1",
		MaxPerRun:      2,
		SeenBackend:    "redis",
		RedisAddr:      mr.Addr(),
		RedisKey:       "syndicate:posted",
	}
	a, err := newApp(cfg, logger.Discard())
	if err != nil {
		t.Fatalf("newApp should start without redis: %v", err)
	}
	defer a.Close()
	if a.backend.Name() != "redis" {
		t.Fatalf("backend = %q, want redis", a.backend.Name())
	}
}

func TestNewAppRejectsUnknownBackend(t *testing.T) {
	cfg := &config.Config{
		SourceKind:     "guardian",
		GuardianAPIKey: "key",
		BlogID:         "blog-1",
		MaxPerRun:      2,
		SeenBackend:    "tape",
	}
	if _, err := newApp(cfg, logger.Discard()); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
