package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/klokku/flextime/internal/app"
	"github.com/klokku/flextime/pkg/work_package"
	"github.com/spf13/cobra"
)

var (
	addTicket     string
	addStart      bool
	removeConfirm bool
)

var workPackageCmd = &cobra.Command{
	Use:     "workpackage",
	Aliases: []string{"wp"},
	Short:   "Manage work package timers",
}

var workPackageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List work packages with their tracked time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, application *app.Application) error {
			views := application.Dependencies().WorkPackageService.List()
			if len(views) == 0 {
				fmt.Println("No work packages.")
				return nil
			}
			for _, view := range views {
				line := view.Text
				if view.Ticket != "" {
					line += " [" + view.Ticket + "]"
				}
				if view.Active {
					line += " (running)"
				}
				fmt.Println(line)
			}
			return nil
		})
	},
}

var workPackageAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a work package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, application *app.Application) error {
			view, err := application.Dependencies().WorkPackageService.Create(ctx, args[0], addTicket, addStart)
			if err != nil {
				return err
			}
			fmt.Printf("Added %q\n", view.Name)
			return nil
		})
	},
}

var workPackageStartCmd = &cobra.Command{
	Use:   "start <name>",
	Short: "Start a work package and stop the running one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, application *app.Application) error {
			if err := application.Dependencies().WorkPackageService.Start(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Started %q\n", args[0])
			return nil
		})
	},
}

var workPackageStopCmd = &cobra.Command{
	Use:   "stop [name]",
	Short: "Stop a work package, or every running one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, application *app.Application) error {
			service := application.Dependencies().WorkPackageService
			if len(args) == 0 {
				return service.StopAll(ctx)
			}
			if err := service.Stop(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Stopped %q\n", args[0])
			return nil
		})
	},
}

var workPackageRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a work package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, application *app.Application) error {
			err := application.Dependencies().WorkPackageService.Remove(ctx, args[0], removeConfirm)
			if errors.Is(err, work_package.ErrConfirmationRequired) {
				return fmt.Errorf("%w, pass --yes", err)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Removed %q\n", args[0])
			return nil
		})
	},
}

func init() {
	workPackageAddCmd.Flags().StringVar(&addTicket, "ticket", "", "Jira ticket the time is booked on")
	workPackageAddCmd.Flags().BoolVar(&addStart, "start", false, "Start the new work package")
	workPackageRemoveCmd.Flags().BoolVarP(&removeConfirm, "yes", "y", false, "Remove even if time is tracked")

	workPackageCmd.AddCommand(workPackageListCmd)
	workPackageCmd.AddCommand(workPackageAddCmd)
	workPackageCmd.AddCommand(workPackageStartCmd)
	workPackageCmd.AddCommand(workPackageStopCmd)
	workPackageCmd.AddCommand(workPackageRemoveCmd)
}
