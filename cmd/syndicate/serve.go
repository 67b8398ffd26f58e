package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/LJTian/SyndicateHub/internal/api"
	"github.com/LJTian/SyndicateHub/internal/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var flagStartupDelay time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline on a cron schedule and expose a status API",
	RunE:  serve,
}

func init() {
	serveCmd.Flags().DurationVar(&flagStartupDelay, "startup-delay", 15*time.Second, "delay before the first run (0 disables the startup run)")
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := scheduler.New(cfg.CronSpec, a, cfg.RunTimeout, log)
	if err != nil {
		return err
	}
	s.Start()
	defer s.Stop()

	// 延迟执行首轮，避免与启动时的其它初始化争抢
	if flagStartupDelay > 0 {
		timer := time.AfterFunc(flagStartupDelay, func() {
			if _, err := s.RunOnce(context.Background()); err != nil {
				log.Warn("skip startup run", "err", err)
			}
		})
		defer timer.Stop()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	api.NewServer(s).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting api server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
