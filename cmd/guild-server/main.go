// Package main is the entry point for the Ghost Hunters Guild server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ghostguild/ghg-server/internal/engine"
	"github.com/ghostguild/ghg-server/internal/events"
	"github.com/ghostguild/ghg-server/internal/guild"
	"github.com/ghostguild/ghg-server/internal/infra/storage"
	"github.com/ghostguild/ghg-server/internal/network"
	"github.com/ghostguild/ghg-server/internal/platform/config"
	"github.com/ghostguild/ghg-server/internal/platform/logger"
	"github.com/ghostguild/ghg-server/internal/platform/metrics"
)

func main() {
	appLogger := logger.NewLogger()
	appLogger.Info("[GUILD-SERVER] Initializing Ghost Hunters Guild server...")

	cfg, invalid := config.FromEnv()
	if len(invalid) > 0 {
		appLogger.Warn("Ignoring invalid settings, using defaults: " + strings.Join(invalid, ", "))
	}

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("Server failed: " + err.Error())
		os.Exit(1)
	}
	appLogger.Info("[GUILD-SERVER] Shut down cleanly.")
}

func run(cfg *config.Config, appLogger *logger.Logger) error {
	m := metrics.Get()

	appLogger.Info("Initializing SQLite database '" + cfg.DBPath + "'...")
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return err
	}
	db, err := storage.InitSQLite(cfg.DBPath, cfg.DBMaxOpenConns)
	if err != nil {
		return err
	}
	defer db.Close()

	eventRepo := storage.NewSQLiteEventRepository(db)
	store := storage.NewSQLiteStore(db)

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLog(storage.NewHistoryWriter(eventRepo, cfg.UserID))
	eventLog.SetRetention(cfg.EventRetention)
	eventLog.OnPersistError(func(e events.GameEvent, err error) {
		m.RecordPersistError()
		appLogger.With("event", e.ID).Warn("History write-through failed: " + err.Error())
	})

	appLogger.Info("Bootstrapping Engine...")
	eng := engine.NewEngine(eventLog, appLogger, engine.Options{
		TickRate: cfg.TickRate,
		Seed:     cfg.ResolveSeed(),
		Metrics:  m,
	})

	svc := guild.NewService(store, appLogger.With("component", "guild"))
	ledger := guild.NewLedger(svc, eventLog, cfg.UserID, appLogger.With("component", "ledger"))

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(eng, svc, cfg.UserID, appLogger.With("component", "hub"), m, network.HubOptions{
		BroadcastBuffer:      cfg.BroadcastChannelBuffer,
		ClientSendBuffer:     cfg.ClientSendBuffer,
		MaxMessagesPerSecond: cfg.MaxMessagesPerSecond,
	})
	api := network.NewAPI(eng, svc, storage.NewReconstructor(eventRepo), hub, cfg.UserID, appLogger, m)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	// The persister flushes its queue before returning, ahead of db.Close.
	eg.Go(func() error { return eventLog.RunPersister(ctx) })
	eg.Go(func() error { return eng.Run(ctx) })
	eg.Go(func() error { return ledger.Run(ctx) })
	eg.Go(func() error { return hub.Run(ctx) })
	eg.Go(func() error { return hub.PollEvents(ctx, eventLog) })
	eg.Go(func() error {
		appLogger.Info("[GUILD-SERVER] HTTP API & WS Server listening on " + cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		appLogger.Info("[GUILD-SERVER] Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
