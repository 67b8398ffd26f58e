package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/LJTian/SyndicateHub/internal/collector"
	"github.com/LJTian/SyndicateHub/internal/notify"
	"github.com/LJTian/SyndicateHub/internal/publisher"
	"github.com/LJTian/SyndicateHub/internal/render"
	"github.com/LJTian/SyndicateHub/internal/seen"
	"github.com/google/uuid"
)

const (
	DefaultMaxPerRun = 2
	// 发布成功后写记录的时限，不受本轮 ctx 取消影响
	recordTimeout = 30 * time.Second
)

// Config 单轮运行参数
type Config struct {
	// 每轮最多发布的文章数，多出的留待下一轮
	MaxPerRun int
}

// SeenSet 已发布集合，见 seen.Set
type SeenSet interface {
	Contains(id string) bool
	Record(ctx context.Context, e seen.Entry) error
}

type Renderer interface {
	Render(a collector.Article) (render.Post, error)
}

// Pipeline 拉取 → 去重 → 截断 → 渲染发布 → 记录
type Pipeline struct {
	cfg       Config
	source    collector.Source
	seen      SeenSet
	renderer  Renderer
	publisher publisher.Publisher
	notifier  notify.Notifier
	log       *slog.Logger
	now       func() time.Time
}

type Option func(*Pipeline)

// WithNotifier 发布并记录成功后发送通知
func WithNotifier(n notify.Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(cfg Config, src collector.Source, set SeenSet, r Renderer, pub publisher.Publisher, log *slog.Logger, opts ...Option) *Pipeline {
	if cfg.MaxPerRun <= 0 {
		cfg.MaxPerRun = DefaultMaxPerRun
	}
	p := &Pipeline{
		cfg:       cfg,
		source:    src,
		seen:      set,
		renderer:  r,
		publisher: pub,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run 执行一轮。单篇文章的失败只记录日志，整体成败由 Report.OK 决定
func (p *Pipeline) Run(ctx context.Context) (rep Report) {
	rep = Report{RunID: uuid.NewString(), StartedAt: p.now()}
	log := p.log.With("run", rep.RunID)
	defer func() {
		rep.FinishedAt = p.now()
		log.Info("run finished",
			"ok", rep.OK(),
			"candidates", rep.Candidates,
			"published", rep.Published(),
			"failed", rep.Failed(),
			"duration", rep.FinishedAt.Sub(rep.StartedAt))
	}()

	// FETCHED
	articles, err := p.source.Fetch(ctx)
	if err != nil {
		rep.FetchErr = err
		log.Error("fetch failed, treating as empty", "source", p.source.Name(), "err", err)
		articles = nil
	}
	rep.Fetched = len(articles)
	log.Info("fetched articles", "source", p.source.Name(), "count", rep.Fetched)
	if rep.Fetched == 0 {
		log.Info("no new articles")
		return rep
	}

	// FILTERED
	fresh := p.filter(articles, &rep, log)
	rep.Candidates = len(fresh)
	if rep.Candidates == 0 {
		log.Info("no new articles", "skipped", rep.Skipped)
		return rep
	}

	if len(fresh) > p.cfg.MaxPerRun {
		rep.Deferred = len(fresh) - p.cfg.MaxPerRun
		fresh = fresh[:p.cfg.MaxPerRun]
		log.Info("batch capped", "max", p.cfg.MaxPerRun, "deferred", rep.Deferred)
	}

	// PUBLISHING
	for _, a := range fresh {
		rep.Results = append(rep.Results, p.publishOne(ctx, a, log))
	}
	return rep
}

// filter 去掉已发布的文章以及同一批次中重复的 ID，保持原有顺序
func (p *Pipeline) filter(articles []collector.Article, rep *Report, log *slog.Logger) []collector.Article {
	out := make([]collector.Article, 0, len(articles))
	batch := make(map[string]struct{}, len(articles))
	for _, a := range articles {
		if p.seen.Contains(a.ID) {
			rep.Skipped++
			log.Debug("skip already posted", "article", a.ID)
			continue
		}
		if _, dup := batch[a.ID]; dup {
			rep.Skipped++
			log.Debug("skip duplicate in batch", "article", a.ID)
			continue
		}
		batch[a.ID] = struct{}{}
		out = append(out, a)
	}
	return out
}

func (p *Pipeline) publishOne(ctx context.Context, a collector.Article, log *slog.Logger) Result {
	res := Result{ArticleID: a.ID, Title: a.Title}
	log = log.With("article", a.ID)

	post, err := p.renderer.Render(a)
	if err != nil {
		res.Stage, res.Err = StageRender, err
		log.Error("render failed", "err", err)
		return res
	}
	loc, err := p.publisher.Publish(ctx, post)
	if err != nil {
		res.Stage, res.Err = StagePublish, err
		log.Error("publish failed, will retry next run", "err", err)
		return res
	}
	res.Location = loc

	// 远端已创建，超时或中断也要把记录写完
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	err = p.seen.Record(recCtx, seen.Entry{
		ID:       a.ID,
		Title:    a.Title,
		URL:      a.URL,
		Location: loc,
		Labels:   post.Labels,
		PostedAt: p.now().UTC(),
	})
	if err != nil {
		// 远端已有文章但未记录，下一轮可能重复发布
		res.Stage, res.Err = StageRecord, err
		log.Error("record failed after publish", "location", loc, "err", err)
		return res
	}
	log.Info("posted", "category", a.Category, "location", loc)

	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, a, loc); err != nil {
			log.Warn("notify failed", "err", err)
		}
	}
	return res
}
