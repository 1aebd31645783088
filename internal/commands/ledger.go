package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/aggregate"
	"fintrack/internal/cli"
	"fintrack/internal/export"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/persistence"
)

// asOf parses --as-of, defaulting to now.
func asOf(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--as-of must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

func newSummaryCommand() *cobra.Command {
	var userID, date string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print a user's dashboard figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(userID); err != nil {
				return err
			}
			today, err := asOf(date)
			if err != nil {
				return err
			}
			e, err := openEnv(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			snap, err := e.load(cmd.Context(), userID)
			if err != nil {
				return err
			}
			sum := aggregate.Summarize(e.calc, snap, today)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			return printSummary(cmd.OutOrStdout(), userID, sum)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&date, "as-of", "", "reference date, YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")

	return cmd
}

func printSummary(out io.Writer, userID string, sum aggregate.Summary) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Summary for %s as of %s\n\n", userID, sum.AsOf)
	fmt.Fprintf(tw, "Total income\t%s\n", sum.TotalIncome)
	fmt.Fprintf(tw, "Total bills\t%s\n", sum.TotalBills)
	fmt.Fprintf(tw, "Total expenses\t%s\n", sum.TotalExpenses)
	fmt.Fprintf(tw, "Remaining\t%s\n", sum.RemainingBalance)

	if len(sum.SpendingByCategory) > 0 {
		fmt.Fprintln(tw, "\nSpending by category")
		for _, s := range sum.SpendingByCategory {
			fmt.Fprintf(tw, "  %s\t%s\n", s.Name, s.Amount)
		}
	}

	fmt.Fprintln(tw, "\nUpcoming bills")
	if len(sum.UpcomingBills) == 0 {
		fmt.Fprintln(tw, "  none")
	}
	for _, u := range sum.UpcomingBills {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t(in %d days)\n", u.Bill.Title, u.Bill.Amount, u.DueOn, u.DueDays)
	}
	return tw.Flush()
}

func newExportCommand() *cobra.Command {
	var userID, date, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's ledger and dashboard to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(userID); err != nil {
				return err
			}
			today, err := asOf(date)
			if err != nil {
				return err
			}
			if out == "" {
				out = "fintrack-" + userID + ".xlsx"
			}
			e, err := openEnv(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			snap, err := e.load(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if err := export.WriteFile(out, snap, aggregate.Summarize(e.calc, snap, today)); err != nil {
				return err
			}
			e.logger.WithComponent(log.ComponentExport).Info("Workbook written",
				log.FieldUserID, userID,
				log.FieldItems, snap.Len(),
				"path", out)
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d items to %s\n", snap.Len(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&date, "as-of", "", "reference date for the dashboard sheet, YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default fintrack-<user>.xlsx)")

	return cmd
}

func newResetCommand() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore a user's ledger to the default seed state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(userID); err != nil {
				return err
			}
			ctx := cmd.Context()
			e, err := openEnv(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			snap := ledger.DefaultSnapshot()
			if err := e.primary.Gateway.SaveSnapshot(ctx, userID, snap); err != nil {
				return fmt.Errorf("save snapshot for %s: %w", userID, err)
			}

			publisher, err := cli.OpenAMQP(e.cfg, e.logger)
			if err != nil {
				e.logger.Warn("Reset saved but not announced", log.FieldError, err.Error())
			} else if publisher != nil {
				defer publisher.Close()
				ev := persistence.SnapshotSaved{UserID: userID, Items: snap.Len(), SavedAt: time.Now().UTC()}
				if err := publisher.PublishSnapshotSaved(ctx, ev); err != nil {
					e.logger.Warn("Reset saved but not announced", log.FieldError, err.Error())
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Reset ledger for %s\n", userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")

	return cmd
}
