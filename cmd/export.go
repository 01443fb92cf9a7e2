package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/klokku/flextime/internal/app"
	"github.com/spf13/cobra"
)

var exportMonth string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a month as CSV to stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportMonth, "month", "", "Month to export as YYYY-MM, defaults to the current month")
}

func runExport(cmd *cobra.Command, args []string) error {
	return withApplication(cmd, func(ctx context.Context, application *app.Application) error {
		deps := application.Dependencies()
		month := deps.Clock.Now()
		if exportMonth != "" {
			parsed, err := time.Parse("2006-01", exportMonth)
			if err != nil {
				return fmt.Errorf("invalid month %q, expected YYYY-MM", exportMonth)
			}
			month = parsed
		}
		if err := switchMonth(ctx, deps.MonthService, month.Year(), month.Month()); err != nil {
			return err
		}
		csvData, err := deps.CsvRenderer.Render(deps.MonthService.Summary())
		if err != nil {
			return err
		}
		fmt.Print(csvData)
		return nil
	})
}
