package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LJTian/SyndicateHub/internal/auth"
	"github.com/LJTian/SyndicateHub/internal/collector"
	"github.com/LJTian/SyndicateHub/internal/config"
	"github.com/LJTian/SyndicateHub/internal/logger"
	"github.com/LJTian/SyndicateHub/internal/notify"
	"github.com/LJTian/SyndicateHub/internal/pipeline"
	"github.com/LJTian/SyndicateHub/internal/publisher"
	"github.com/LJTian/SyndicateHub/internal/render"
	"github.com/LJTian/SyndicateHub/internal/seen"
	"github.com/LJTian/SyndicateHub/internal/storage"
)

// app 一次进程内共享的依赖；发布记录每轮重新加载
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	backend  seen.Backend
	source   collector.Source
	renderer *render.Renderer
	pub      publisher.Publisher
	notifier notify.Notifier
	sessions *auth.FileProvider
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)
	return cfg, log, nil
}

func newSessions(cfg *config.Config, log *slog.Logger) *auth.FileProvider {
	return &auth.FileProvider{
		ClientSecretFile: cfg.ClientSecretFile,
		TokenFile:        cfg.TokenFile,
		Interactive:      cfg.AuthInteractive,
		CallbackPort:     cfg.AuthCallbackPort,
		Log:              log,
	}
}

func newApp(cfg *config.Config, log *slog.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// 存储连不上时不退出，每轮重连，期间按空集合运行
	backend, err := storage.Dial(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open seen backend: %w", err)
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		backend:  backend,
		source:   newSource(cfg),
		renderer: render.New(cfg.SourceName, cfg.ExtraLabels...),
		sessions: newSessions(cfg, log),
	}
	a.pub = publisher.NewBlogger(cfg.BlogID, a.sessions)

	if cfg.TelegramEnabled() {
		n, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Warn("telegram notifier disabled", "err", err)
		} else {
			a.notifier = n
		}
	}
	return a, nil
}

func newSource(cfg *config.Config) collector.Source {
	d := collector.Defaults{Author: cfg.FallbackAuthor, Category: cfg.FallbackCategory}
	if cfg.SourceKind == "rss" {
		return collector.NewRSSSource(cfg.RSSURL, d)
	}
	return &collector.GuardianSource{
		Endpoint: cfg.GuardianEndpoint,
		APIKey:   cfg.GuardianAPIKey,
		PageSize: cfg.GuardianPageSize,
		Defaults: d,
	}
}

// Run 每轮开始时全量加载发布记录
func (a *app) Run(ctx context.Context) pipeline.Report {
	set := seen.Open(ctx, a.backend, a.log)

	var opts []pipeline.Option
	if a.notifier != nil {
		opts = append(opts, pipeline.WithNotifier(a.notifier))
	}
	p := pipeline.New(pipeline.Config{MaxPerRun: a.cfg.MaxPerRun}, a.source, set, a.renderer, a.pub, a.log, opts...)
	return p.Run(ctx)
}

func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		a.log.Warn("close seen backend", "err", err)
	}
}
