package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/lekarna/internal/api"
	"github.com/erazemk/lekarna/internal/config"
	"github.com/erazemk/lekarna/internal/metrics"
	"github.com/erazemk/lekarna/internal/notify"
	"github.com/erazemk/lekarna/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the notification schedule",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringP(config.KeyAddr, "a", config.DefaultAddr, "listen address")
	f.StringP(config.KeyUser, "u", config.DefaultUser, "admin username on first run")
	f.String(config.KeyNotifySchedule, config.DefaultNotifySchedule, "cron schedule for raising notifications (empty disables)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// First run: create the admin account.
	password, err := initDatabase(ctx, a.db, a.cfg.AdminUser)
	switch {
	case err == nil:
		printInitResult(a.cfg.AdminUser, password)
		fmt.Println()
	case !errors.Is(err, errAlreadyInitialized):
		return err
	}

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, a.db)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	if a.cfg.NotifySchedule != "" {
		job := &notify.Job{DB: a.db, Reconciler: a.reconciler, Metrics: a.metrics}
		c, err := notify.Schedule(a.cfg.NotifySchedule, job)
		if err != nil {
			return err
		}
		defer func() { <-c.Stop().Done() }()
		slog.Info("notification schedule started", "schedule", a.cfg.NotifySchedule)
	}

	apiRouter := api.NewRouter(api.Deps{
		DB:         a.db,
		JWTSecret:  jwtSecret,
		Reconciler: a.reconciler,
		Clock:      a.clock,
		Metrics:    a.metrics,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("GET /metrics", metrics.Handler(nil))

	server := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", a.cfg.Addr, "today", a.reconciler.Today().String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}
