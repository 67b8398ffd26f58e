package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/LJTian/SyndicateHub/internal/logger"
	"github.com/LJTian/SyndicateHub/internal/pipeline"
)

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	calls   int
}

func (b *blockingRunner) Run(ctx context.Context) pipeline.Report {
	b.calls++
	if b.started != nil {
		close(b.started)
	}
	if b.release != nil {
		<-b.release
	}
	return pipeline.Report{RunID: fmt.Sprintf("r%d", b.calls)}
}

func TestNewRejectsBadSpec(t *testing.T) {
	if _, err := New("not a cron spec", &blockingRunner{}, 0, logger.Discard()); err == nil {
		t.Fatalf("expected error for invalid cron spec")
	}
}

func TestRunOnceStoresLastReport(t *testing.T) {
	s, err := New("0 * * * *", &blockingRunner{}, time.Minute, logger.Discard())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if _, ok := s.Last(); ok {
		t.Fatalf("Last should be empty before any run")
	}
	rep, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	last, ok := s.Last()
	if !ok || last.RunID != rep.RunID {
		t.Fatalf("Last = %+v, %v; want %q", last, ok, rep.RunID)
	}
}

func TestRunOnceRejectsOverlap(t *testing.T) {
	r := &blockingRunner{started: make(chan struct{}), release: make(chan struct{})}
	s, err := New("0 * * * *", r, 0, logger.Discard())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.RunOnce(context.Background())
		done <- err
	}()
	<-r.started

	if _, err := s.RunOnce(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("overlapping RunOnce error = %v, want ErrBusy", err)
	}

	close(r.release)
	if err := <-done; err != nil {
		t.Fatalf("first RunOnce error: %v", err)
	}
	if r.calls != 1 {
		t.Fatalf("runner calls = %d, want 1", r.calls)
	}
}

func TestStartStop(t *testing.T) {
	s, err := New("@every 1h", &blockingRunner{}, 0, logger.Discard())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	s.Start()
	if len(s.Cron().Entries()) != 1 {
		t.Fatalf("expected one cron entry")
	}
	s.Stop()
}
