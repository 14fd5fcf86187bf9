// Package cli implements the tracker command line: the HTTP server and the
// one-shot snapshot and difference commands meant for cron and operators.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-support-tracker/internal/config"
	"github.com/tbourn/go-support-tracker/internal/repo"
	"github.com/tbourn/go-support-tracker/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

var (
	envFile string
	rootCmd = &cobra.Command{
		Use:   "tracker",
		Short: "Support tracker - daily Zendesk and Jira differences per customer",
		Long: `tracker keeps a per-customer mirror of Zendesk tickets and Jira issues,
snapshots them once a day, and reports what changed since the previous day.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// app is the state every subcommand starts from.
type app struct {
	cfg config.Config
	log zerolog.Logger
	db  *gorm.DB
}

// bootstrap loads the dotenv file (a missing file is fine), the config, the
// global logger, and the migrated database.
func bootstrap() (*app, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	lg := sysutil.SetupLogger(sysutil.LogOptions{
		Level:      cfg.LogLevel,
		Pretty:     cfg.LogPretty,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	db, err := repo.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DB.Driver, err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &app{cfg: cfg, log: lg, db: db}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// appVersion prefers APP_VERSION from the environment over the build stamp.
func appVersion() string {
	return sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
}
