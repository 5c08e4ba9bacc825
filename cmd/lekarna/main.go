// Command lekarna runs the pharmacy stock tracker.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/erazemk/lekarna/internal/clock"
	"github.com/erazemk/lekarna/internal/config"
	"github.com/erazemk/lekarna/internal/db"
	"github.com/erazemk/lekarna/internal/metrics"
	"github.com/erazemk/lekarna/internal/reconcile"
)

var rootCmd = &cobra.Command{
	Use:           "lekarna",
	Short:         "Pharmacy stock tracker with expiry reconciliation",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP(config.KeyDB, "d", config.DefaultDB, "SQLite path or PostgreSQL URL")
	pf.String(config.KeyDriver, db.DriverSQLite, "database driver (sqlite or postgres)")
	pf.StringP(config.KeyLog, "l", "", "log file path (default: stdout/stderr only)")
	pf.String(config.KeyLogLevel, "info", "log level (debug, info, warn, error)")
	pf.String(config.KeyTimezone, "Local", "time zone that decides the current date")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every subcommand needs.
type app struct {
	cfg        *config.Config
	db         *sqlx.DB
	clock      clock.Clock
	metrics    *metrics.Metrics
	reconciler *reconcile.Reconciler
	closeLog   func()
}

// openApp loads the configuration, sets up logging and opens a migrated
// database.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}

	closeLog, err := setupLogger(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Migrate(database); err != nil {
		database.Close()
		closeLog()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database ready", "driver", cfg.Driver)

	clk := clock.System{Location: cfg.Location}
	m := metrics.New(nil)
	return &app{
		cfg:        cfg,
		db:         database,
		clock:      clk,
		metrics:    m,
		reconciler: reconcile.New(reconcile.SQLStorage(database), clk, m),
		closeLog:   closeLog,
	}, nil
}

func (a *app) Close() {
	a.db.Close()
	a.closeLog()
}
