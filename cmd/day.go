package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/klokku/flextime/internal/app"
	"github.com/klokku/flextime/pkg/day"
	"github.com/klokku/flextime/pkg/month_ledger"
	"github.com/spf13/cobra"
)

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Record start and end times",
}

var dayStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Set today's start time to now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, application *app.Application) error {
			record, err := application.Dependencies().MonthService.StartDay(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Started the day at %s\n", record.Start)
			return nil
		})
	},
}

var dayEndCmd = &cobra.Command{
	Use:   "end",
	Short: "Set today's end time to now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, application *app.Application) error {
			record, err := application.Dependencies().MonthService.EndDay(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Ended the day at %s\n", record.End)
			return nil
		})
	},
}

var dayStampCmd = &cobra.Command{
	Use:   "stamp [day-of-month]",
	Short: "Fill the start time of a day of the current month, or its end time once the start is set",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, application *app.Application) error {
			deps := application.Dependencies()
			now := deps.Clock.Now()
			if err := switchMonth(ctx, deps.MonthService, now.Year(), now.Month()); err != nil {
				return err
			}
			index := now.Day() - 1
			if len(args) == 1 {
				dayOfMonth, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid day %q", args[0])
				}
				index = dayOfMonth - 1
			}
			record, err := deps.MonthService.StampDay(ctx, index)
			if err != nil {
				return err
			}
			printRecord(index, record)
			return nil
		})
	},
}

var dayShowCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current month with totals and flex balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, application *app.Application) error {
			printSummary(application.Dependencies().MonthService.Summary())
			return nil
		})
	},
}

func init() {
	dayCmd.AddCommand(dayStartCmd)
	dayCmd.AddCommand(dayEndCmd)
	dayCmd.AddCommand(dayStampCmd)
	dayCmd.AddCommand(dayShowCmd)
}

func printRecord(index int, record day.Record) {
	fmt.Printf("Day %d: start %s, end %s\n", index+1, clockText(record.Start.String(), record.Start.IsUnset()), clockText(record.End.String(), record.End.IsUnset()))
}

func clockText(text string, unset bool) string {
	if unset {
		return "--:--"
	}
	return text
}

func printSummary(summary month_ledger.Summary) {
	fmt.Println(summary.Label)
	for _, view := range summary.Days {
		if view.Result.Skipped {
			continue
		}
		if view.Result.Excluded {
			fmt.Printf("  %s  vacation\n", view.Date.Format("Mon 02"))
			continue
		}
		end := clockText(view.Result.EffectiveEnd.String(), view.Result.EffectiveEnd.IsUnset())
		if view.Result.ForecastApplied {
			end += "?"
		}
		fmt.Printf("  %s  %5s  %6s  %5s  %6s\n",
			view.Date.Format("Mon 02"),
			clockText(view.Result.EffectiveStart.String(), view.Result.EffectiveStart.IsUnset()),
			end,
			view.Result.WorkedText,
			view.Result.DiffText,
		)
	}
	fmt.Printf("Total %s  %s\n", summary.TotalText, summary.BalanceText)
	if summary.OnSiteText != "" {
		fmt.Printf("On-site %s", summary.OnSiteText)
		if summary.OnSiteBelowThreshold {
			fmt.Print(" (below target)")
		}
		fmt.Println()
	}
}

// switchMonth loads another month. An unreadable month file is only a warning, the month
// starts from defaults.
func switchMonth(ctx context.Context, service month_ledger.Service, year int, month time.Month) error {
	err := service.SwitchMonth(ctx, year, month)
	if errors.Is(err, month_ledger.ErrConfigLoad) {
		fmt.Fprintln(os.Stderr, "Warning:", err)
		return nil
	}
	return err
}
