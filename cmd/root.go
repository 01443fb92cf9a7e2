package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/klokku/flextime/internal/app"
	"github.com/klokku/flextime/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "flextime",
	Short: "Flextime – working hours, flex balance and work package timers",
	Long: `flextime records start and end times per day, keeps the monthly flex-time balance
and runs stopwatch timers for work packages whose time can be booked as Jira worklogs.
Month files, settings and work packages are stored as JSON under the data directory.

Without a subcommand the interactive terminal UI is started.`,
	SilenceUsage: true,
	RunE:         runTui,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to the application config file")

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dayCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(workPackageCmd)
	rootCmd.AddCommand(worklogCmd)
	rootCmd.AddCommand(settingsCmd)
}

// openApplication loads the config and restores all data. Soft load failures are printed
// as warnings, the application is usable either way.
func openApplication(ctx context.Context) (*app.Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrConfigLoad, err)
	}
	application, err := app.NewApplication(ctx, cfg)
	if err != nil {
		return nil, err
	}
	for _, warning := range application.Warnings() {
		fmt.Fprintln(os.Stderr, "Warning:", warning)
	}
	return application, nil
}

// withApplication runs fn and always performs the final saves. A failed save fails the command.
func withApplication(cmd *cobra.Command, fn func(ctx context.Context, application *app.Application) error) (err error) {
	ctx := cmd.Context()
	application, err := openApplication(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if shutdownErr := application.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			log.Errorf("Final save failed: %v", shutdownErr)
			if err == nil {
				err = shutdownErr
			}
		}
	}()
	return fn(ctx, application)
}
