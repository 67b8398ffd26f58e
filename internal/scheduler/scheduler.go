package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/LJTian/SyndicateHub/internal/pipeline"
	"github.com/robfig/cron/v3"
)

// ErrBusy 已有一轮在运行
var ErrBusy = errors.New("scheduler: a run is already in progress")

// Runner 执行一轮发布，*pipeline.Pipeline 满足该接口
type Runner interface {
	Run(ctx context.Context) pipeline.Report
}

type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	timeout time.Duration
	log     *slog.Logger

	running sync.Mutex

	mu   sync.RWMutex
	last *pipeline.Report
}

func New(spec string, runner Runner, timeout time.Duration, log *slog.Logger) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:    c,
		runner:  runner,
		timeout: timeout,
		log:     log,
	}

	_, err := c.AddFunc(spec, s.runScheduled)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "entries", len(s.cron.Entries()))
}

// Stop 停止触发新的任务，并等待正在执行的一轮结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) Cron() *cron.Cron {
	return s.cron
}

// RunOnce 同步执行一轮；已有任务在跑时返回 ErrBusy
func (s *Scheduler) RunOnce(ctx context.Context) (pipeline.Report, error) {
	if !s.running.TryLock() {
		return pipeline.Report{}, ErrBusy
	}
	defer s.running.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	rep := s.runner.Run(ctx)

	s.mu.Lock()
	s.last = &rep
	s.mu.Unlock()
	return rep, nil
}

// Last 最近一轮的结果，尚未运行时返回 false
func (s *Scheduler) Last() (pipeline.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return pipeline.Report{}, false
	}
	return *s.last, true
}

func (s *Scheduler) runScheduled() {
	if _, err := s.RunOnce(context.Background()); err != nil {
		s.log.Warn("skip scheduled run", "err", err)
	}
}
