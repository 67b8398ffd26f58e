package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// errRunFailed 有待发布文章但全部失败，细节已写入日志
var errRunFailed = errors.New("run failed")

var flagMaxPerRun int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once and exit",
	RunE:  runOnce,
}

func init() {
	runCmd.Flags().IntVar(&flagMaxPerRun, "max", 0, "override the maximum number of posts per run")
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if flagMaxPerRun > 0 {
		cfg.MaxPerRun = flagMaxPerRun
	}

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// 信号只用于让阻塞中的网络调用尽快返回
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	if rep := a.Run(ctx); !rep.OK() {
		return errRunFailed
	}
	return nil
}
