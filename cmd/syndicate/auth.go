package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize Blogger access once and cache the token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p := newSessions(cfg, log)
		p.Prompt = cmd.OutOrStdout()
		if err := p.Authorize(ctx); err != nil {
			return err
		}
		cmd.Printf("token saved to %s\n", cfg.TokenFile)
		return nil
	},
}
