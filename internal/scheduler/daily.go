// Package scheduler runs the daily snapshot writer inside the server process.
//
// A DailySnapshotter sleeps until the configured UTC wall-clock time, writes
// the snapshots for that day, and re-arms for the next day. Failures are
// logged and never stop the loop; the next run simply tries again.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-support-tracker/internal/domain"
)

// Writer persists one day of snapshots.
type Writer interface {
	WriteDaily(ctx context.Context, day time.Time) (domain.SnapshotCounts, error)
}

// Purger removes expired idempotency records. Optional.
type Purger func(ctx context.Context, now time.Time) (int64, error)

// DailySnapshotter triggers Writer once per UTC day at Hour:Minute.
type DailySnapshotter struct {
	Writer Writer
	Purge  Purger

	Hour   int
	Minute int

	// Timeout bounds a single run; zero means no bound.
	Timeout time.Duration

	Now    func() time.Time
	Logger *zerolog.Logger
}

// NextRun returns the first instant strictly after now at hour:minute UTC.
func NextRun(now time.Time, hour, minute int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start launches the loop in a goroutine. The returned stop function cancels
// the loop and waits for an in-flight run to return.
func (d *DailySnapshotter) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.loop(ctx)
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

func (d *DailySnapshotter) loop(ctx context.Context) {
	for {
		next := NextRun(d.now(), d.Hour, d.Minute)
		d.logger().Info().Time("next_run", next).Msg("snapshot scheduled")

		timer := time.NewTimer(next.Sub(d.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		d.RunOnce(ctx)
	}
}

// RunOnce writes today's snapshots and purges expired idempotency records.
func (d *DailySnapshotter) RunOnce(ctx context.Context) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	lg := d.logger()
	now := d.now()

	counts, err := d.Writer.WriteDaily(lg.WithContext(ctx), domain.DayKey(now))
	if err != nil {
		lg.Error().Err(err).
			Int("ticket_snapshots", counts.TicketSnapshotsWritten).
			Int("issue_snapshots", counts.IssueSnapshotsWritten).
			Msg("scheduled snapshot failed")
	}

	if d.Purge != nil {
		n, err := d.Purge(ctx, now)
		if err != nil {
			lg.Warn().Err(err).Msg("idempotency purge failed")
		} else if n > 0 {
			lg.Debug().Int64("purged", n).Msg("idempotency purge")
		}
	}
}

func (d *DailySnapshotter) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *DailySnapshotter) logger() *zerolog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return &log.Logger
}
