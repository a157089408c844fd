package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/harwick/chime/internal/config"
	"github.com/harwick/chime/internal/database"
	"github.com/harwick/chime/internal/dispatch"
	"github.com/harwick/chime/internal/firetime"
	"github.com/harwick/chime/internal/logging"
	"github.com/harwick/chime/internal/push"
	"github.com/harwick/chime/internal/server"
	"github.com/harwick/chime/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info").Error("configuration error", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	sender := push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDContact, cfg.PushTTLSeconds)

	engine := dispatch.New(
		store.NewSubscriptionStore(db),
		store.NewScheduleStore(db),
		store.NewLoopStore(db),
		store.NewQuestStore(db),
		store.NewSendLogStore(db),
		sender,
		dispatch.Config{
			Window:        firetime.Window{Late: cfg.LateWindow, Early: cfg.EarlyWindow},
			LookaheadDays: cfg.LookaheadDays,
			BaseURL:       cfg.BaseURL,
		},
		logger.With("component", "dispatch"),
	)

	srv := server.New(engine, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	var schedule *cron.Cron
	if cfg.CronEnabled {
		schedule = cron.New()
		_, err := schedule.AddFunc("* * * * *", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 55*time.Second)
			defer cancel()
			if err := engine.Tick(ctx); err != nil {
				logger.Error("scheduled tick failed", "error", err)
			}
		})
		if err != nil {
			logger.Error("failed to register tick schedule", "error", err)
			os.Exit(1)
		}
		schedule.Start()
		logger.Info("minute tick schedule started")
	} else {
		logger.Info("in-process schedule disabled, expecting external POST /__cron")
	}

	go func() {
		logger.Info("chime listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if schedule != nil {
		// Let an in-flight tick finish before the server goes away.
		<-schedule.Stop().Done()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
