package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/transport"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// serve runs the API. With the memory queue nothing else can reach the jobs,
// so the worker and the scheduler run in the same process
func serve(cmd *cobra.Command, cfg config.Configuration, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := build(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to start")
		return err
	}
	defer a.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return transport.RunHttp(ctx, cfg, a.handler, log)
	})
	if cfg.Queue.Driver == "memory" {
		background(ctx, g, a)
	}
	return g.Wait()
}

func work(cmd *cobra.Command, cfg config.Configuration, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := build(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to start")
		return err
	}
	defer a.Close()

	g, ctx := errgroup.WithContext(ctx)
	background(ctx, g, a)
	return g.Wait()
}

func background(ctx context.Context, g *errgroup.Group, a *app) {
	g.Go(func() error {
		return a.worker().Run(ctx)
	})
	g.Go(func() error {
		return a.scheduler().Run(ctx)
	})
}
