package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-support-tracker/internal/domain"
	"github.com/tbourn/go-support-tracker/internal/services"
)

var snapshotDate string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Write the daily snapshots once and exit",
	Long: `Write the daily snapshots once and exit.

Copies every live Zendesk ticket and Jira issue into the snapshot tables,
stamped with --date (default: today in UTC). Re-running a day replaces its
rows, so the command is safe to schedule from cron.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()
		return runSnapshot(a.log.WithContext(cmd.Context()), a.db, snapshotDate, time.Now(), os.Stdout)
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotDate, "date", "", "day to stamp (YYYY-MM-DD, default today UTC)")
	rootCmd.AddCommand(snapshotCmd)
}

// snapshotReport is what the snapshot command prints.
type snapshotReport struct {
	Date string `json:"date"`
	domain.SnapshotCounts
}

// runSnapshot writes one day of snapshots and prints the counts as JSON.
// Counts of a kind that succeeded are printed even when the other failed.
func runSnapshot(ctx context.Context, db *gorm.DB, date string, now time.Time, w io.Writer) error {
	day, err := services.ParseReportDate(date, now)
	if err != nil {
		return err
	}
	svc := &services.SnapshotService{DB: db}
	counts, werr := svc.WriteDaily(ctx, day)
	if err := printJSON(w, snapshotReport{Date: day.Format(domain.DateLayout), SnapshotCounts: counts}); err != nil {
		return err
	}
	return werr
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
