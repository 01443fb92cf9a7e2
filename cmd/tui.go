package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/klokku/flextime/internal/app"
	"github.com/klokku/flextime/internal/tui"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const logFileName = "flextime.log"

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive terminal UI",
	Args:  cobra.NoArgs,
	RunE:  runTui,
}

func runTui(cmd *cobra.Command, args []string) error {
	return withApplication(cmd, func(ctx context.Context, application *app.Application) error {
		// the alt screen owns the terminal, log lines go to a file next to the data
		logFile, err := openLogFile(application.Config().DataDir)
		if err != nil {
			return err
		}
		defer logFile.Close()
		log.SetOutput(logFile)
		defer log.SetOutput(os.Stderr)

		deps := application.Dependencies()
		model := tui.NewModel(ctx, tui.Options{
			Month:         deps.MonthService,
			Packages:      deps.WorkPackageService,
			Worklogs:      deps.WorklogService,
			Schedules:     deps.ScheduleService,
			Clock:         deps.Clock,
			AutosaveTicks: application.Config().Autosave.Ticks,
			Shutdown:      application.Shutdown,
			Warnings:      application.Warnings(),
		})
		if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
			return fmt.Errorf("terminal UI failed: %w", err)
		}
		return model.ExitError()
	})
}

func openLogFile(dataDir string) (*os.File, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	path := filepath.Join(dataDir, logFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return file, nil
}
