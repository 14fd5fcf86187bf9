package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-support-tracker/internal/repo"
	"github.com/tbourn/go-support-tracker/internal/services"
)

var (
	diffCustomer       uint
	diffDate           string
	diffIncludeRemoved bool
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Print a customer's daily differences as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()
		return runDiff(a.log.WithContext(cmd.Context()), a.db, diffCustomer, diffDate, diffIncludeRemoved, time.Now, os.Stdout)
	},
}

func init() {
	diffCmd.Flags().UintVar(&diffCustomer, "customer", 0, "customer id")
	diffCmd.Flags().StringVar(&diffDate, "date", "", "report date (YYYY-MM-DD, default today UTC)")
	diffCmd.Flags().BoolVar(&diffIncludeRemoved, "include-removed", false, "also report records missing from the live set")
	_ = diffCmd.MarkFlagRequired("customer")
	rootCmd.AddCommand(diffCmd)
}

// runDiff computes the report for an existing customer and prints it.
func runDiff(ctx context.Context, db *gorm.DB, customerID uint, date string, includeRemoved bool, now func() time.Time, w io.Writer) error {
	exists, err := repo.CustomerExists(ctx, db, customerID)
	if err != nil {
		return err
	}
	if !exists {
		return services.ErrCustomerNotFound
	}
	engine := &services.DifferenceService{DB: db, Now: now}
	out, err := engine.Compute(ctx, customerID, date, services.DiffOptions{IncludeRemoved: includeRemoved})
	if err != nil {
		return err
	}
	return printJSON(w, out)
}
