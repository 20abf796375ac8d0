package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nxyexiong/CardGameDemo/internal/core"
	"github.com/nxyexiong/CardGameDemo/internal/core/data"
	"github.com/nxyexiong/CardGameDemo/internal/game"
	"github.com/nxyexiong/CardGameDemo/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the game server",
	Run:   ServeCommand,
}

func ServeCommand(cmd *cobra.Command, args []string) {
	cfg := core.LoadConfig(ConfigFlag)

	logger, err := core.NewLogger(cfg)
	if err != nil {
		fmt.Println("error initializing logger:", err)
		os.Exit(1)
	}

	dataSource := cfg.Database.Filename
	if cfg.Database.Engine == "postgres" {
		dataSource = cfg.DatabaseURL()
	}
	db, err := data.Initialize(cfg.Database.Engine, dataSource, cfg.Debugging.DatabaseLoggingEnabled)
	if err != nil {
		logger.Errorf("error initializing database: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := data.Shutdown(db); err != nil {
			logger.Warnf("error shutting down database: %v", err)
		}
	}()

	if cfg.Debugging.PprofEnabled {
		go func() {
			addr := fmt.Sprintf("localhost:%d", cfg.Debugging.PprofPort)
			logger.Infof("starting pprof server on %s", addr)
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.Warnf("pprof server exited: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		logger.Info("shutting down")
		cancel()
	}()

	frontend := &server.Frontend{
		Address: cfg.GameServerAddress(),
		Config:  cfg,
		Logger:  logger,
		Backend: &game.Server{
			Name:   "GAME",
			Config: cfg,
			Logger: logger,
			DB:     db,
		},
	}

	var wg sync.WaitGroup
	if err := frontend.Start(ctx, &wg); err != nil {
		logger.Errorf("error starting game server: %v", err)
		os.Exit(1)
	}
	wg.Wait()
}
