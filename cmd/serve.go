package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/klokku/flextime/internal/app"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the REST API until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address, overrides server.addr from the config")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)

	return withApplication(cmd, func(ctx context.Context, application *app.Application) error {
		if serveAddr != "" {
			application.SetAddr(serveAddr)
		}
		return application.Serve(ctx)
	})
}
