package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/koupai/koupai/internal/server"
	"github.com/koupai/koupai/internal/store"
)

// ServerCmd runs the WebSocket room server.
type ServerCmd struct {
	Config string `kong:"default='koupai.hcl',help='Path to HCL configuration file'"`
	Addr   string `kong:"help='Listen address, overrides the config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *ServerCmd) Run() error {
	logger := setupLogger(c.Debug)

	config, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		host, port, err := splitAddr(c.Addr)
		if err != nil {
			return err
		}
		config.Server.Address = host
		config.Server.Port = port
	}
	if err := config.Validate(); err != nil {
		return err
	}

	s := server.NewServer(config, store.NewMemoryStore(), quartz.NewReal(), logger)

	logger.Info("starting koupai server",
		"addr", config.GetServerAddress(),
		"target_score", config.Match.TargetScore,
		"total_rounds", config.Match.TotalRounds)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(s.Start)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return s.Stop()
	})
	return g.Wait()
}
