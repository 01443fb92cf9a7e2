package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/klokku/flextime/internal/app"
	"github.com/klokku/flextime/pkg/stats"
	"github.com/klokku/flextime/pkg/timeofday"
	"github.com/klokku/flextime/pkg/worklog"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	statsMonth   string
)

var worklogCmd = &cobra.Command{
	Use:   "worklog",
	Short: "Book tracked time as Jira worklogs",
}

var worklogSubmitCmd = &cobra.Command{
	Use:   "submit <work-package>",
	Short: "Book the tracked time of a work package on its ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, application *app.Application) error {
			submission, err := application.Dependencies().WorklogService.SubmitWorkPackage(ctx, args[0])
			if err != nil {
				return err
			}
			var result worklog.Result
			select {
			case result = <-submission.Done():
			case <-ctx.Done():
				submission.Cancel()
				result = submission.Wait()
			}
			if err := application.Dependencies().WorklogService.Apply(context.WithoutCancel(ctx), result); err != nil {
				return err
			}
			if result.Err != nil {
				return fmt.Errorf("worklog for %s failed: %w", result.Request.Ticket, result.Err)
			}
			fmt.Printf("Logged %s on %s\n", timeofday.FormatClock(float64(result.Request.Seconds)), result.Request.Ticket)
			return nil
		})
	},
}

var worklogHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the latest worklog posts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, application *app.Application) error {
			entries, err := application.Dependencies().WorklogService.History(ctx, historyLimit)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				line := fmt.Sprintf("%s  %-10s %-12s %s  %s",
					entry.CreatedAt.Format("2006-01-02 15:04"),
					entry.Status,
					entry.Ticket,
					timeofday.FormatClock(float64(entry.Seconds)),
					entry.WorkPackage,
				)
				if entry.Error != "" {
					line += "  " + entry.Error
				}
				fmt.Println(line)
			}
			return nil
		})
	},
}

var worklogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the time booked per day and ticket in a month as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, application *app.Application) error {
			deps := application.Dependencies()
			now := deps.Clock.Now()
			from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
			if statsMonth != "" {
				parsed, err := time.ParseInLocation("2006-01", statsMonth, now.Location())
				if err != nil {
					return fmt.Errorf("invalid month %q, expected YYYY-MM", statsMonth)
				}
				from = parsed
			}
			summary, err := deps.StatsService.GetStats(ctx, from, from.AddDate(0, 1, 0).Add(-time.Nanosecond))
			if err != nil {
				return err
			}
			csvData, err := stats.NewCsvStatsRenderer().RenderStats(summary)
			if err != nil {
				return err
			}
			fmt.Print(csvData)
			return nil
		})
	},
}

func init() {
	worklogStatsCmd.Flags().StringVar(&statsMonth, "month", "", "Month as YYYY-MM, defaults to the current month")
	worklogHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of entries to show")

	worklogCmd.AddCommand(worklogSubmitCmd)
	worklogCmd.AddCommand(worklogHistoryCmd)
	worklogCmd.AddCommand(worklogStatsCmd)
}
