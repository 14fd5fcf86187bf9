package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-support-tracker/internal/config"
	httpapi "github.com/tbourn/go-support-tracker/internal/http"
	"github.com/tbourn/go-support-tracker/internal/observability"
	"github.com/tbourn/go-support-tracker/internal/repo"
	"github.com/tbourn/go-support-tracker/internal/scheduler"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (and the daily snapshot job when enabled)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return a.serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func (a *app) serve(ctx context.Context) error {
	shutdownOTel, err := observability.SetupOTel(ctx, a.cfg.OTEL, observability.ServiceInfo{
		Version:  appVersion(),
		DBDriver: a.cfg.DB.Driver,
		GinMode:  a.cfg.GinMode,
	})
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			a.log.Warn().Err(err).Msg("otel shutdown")
		}
	}()
	if a.cfg.OTEL.Enabled {
		if err := repo.EnableTracing(a.db); err != nil {
			return fmt.Errorf("gorm tracing: %w", err)
		}
	}

	gin.SetMode(a.cfg.GinMode)
	r := gin.New()
	svc := httpapi.NewServices(a.db, a.cfg)
	httpapi.RegisterRoutesWith(r, a.db, a.cfg, svc)

	if a.cfg.Schedule.Enabled {
		stopJob, err := a.startScheduler(ctx, svc)
		if err != nil {
			return err
		}
		defer stopJob()
	}

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           r,
		ReadTimeout:       a.cfg.ReadTimeout,
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
		MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Str("version", appVersion()).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

func (a *app) startScheduler(ctx context.Context, svc httpapi.Services) (func(), error) {
	hour, minute, err := config.ParseClock(a.cfg.Schedule.At)
	if err != nil {
		return nil, err
	}
	job := &scheduler.DailySnapshotter{
		Writer: svc.Snapshots,
		Purge: func(ctx context.Context, now time.Time) (int64, error) {
			return repo.PurgeExpiredIdempotency(ctx, a.db, now)
		},
		Hour:    hour,
		Minute:  minute,
		Timeout: 10 * time.Minute,
		Logger:  &a.log,
	}
	return job.Start(ctx), nil
}
