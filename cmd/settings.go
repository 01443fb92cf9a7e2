package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/klokku/flextime/internal/app"
	"github.com/klokku/flextime/pkg/schedule"
	"github.com/spf13/cobra"
)

var (
	trackerURL string
	trackerUID string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show settings and manage the Jira connection",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, application *app.Application) error {
			settings := application.Dependencies().ScheduleService.Settings()
			fmt.Printf("Hours (minutes, Mon..Sun): %v\n", settings.Hours[1:])
			fmt.Printf("Lunch break: %d minutes\n", settings.LunchBreak)
			fmt.Printf("Forecast end times: %t\n", settings.ForecastEndTimes)
			fmt.Printf("Office target: %d%%\n", settings.OfficePercentage)
			fmt.Printf("Jira: %s as %q\n", settings.URL, settings.UID)
			return nil
		})
	},
}

var settingsJiraCmd = &cobra.Command{
	Use:   "jira",
	Short: "Set the Jira URL and user, the password is read from stdin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, application *app.Application) error {
			service := application.Dependencies().ScheduleService
			settings := service.Settings()
			if trackerURL != "" {
				settings.URL = trackerURL
			}
			if trackerUID != "" {
				settings.UID = trackerUID
			}

			fmt.Fprint(os.Stderr, "Password or token (empty keeps the stored one): ")
			line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			commit := schedule.Commit{Settings: settings}
			if password := strings.TrimSpace(line); password != "" {
				commit.Password = &password
			}
			if err := service.Commit(ctx, commit); err != nil {
				return err
			}
			fmt.Println("Saved")
			return nil
		})
	},
}

var settingsVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the Jira connection with the stored credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, application *app.Application) error {
			account, err := application.Dependencies().TrackerClient.Verify(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Connected as %s (%s)\n", account.DisplayName, account.Name)
			return nil
		})
	},
}

func init() {
	settingsJiraCmd.Flags().StringVar(&trackerURL, "url", "", "Jira base URL")
	settingsJiraCmd.Flags().StringVar(&trackerUID, "uid", "", "Jira user name")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsJiraCmd)
	settingsCmd.AddCommand(settingsVerifyCmd)
}
