package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"deskbridge/internal/cmdutils"
	"deskbridge/internal/config"
	"deskbridge/internal/metrics"
	"deskbridge/internal/telemetry"
	"deskbridge/internal/web"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP front end and metrics endpoint",
	Long: `Starts the HTTP server that receives post-process notifications and
serves the ticket autocomplete, link and issue-url endpoints. Prometheus
metrics are exposed on --metrics-addr unless it is empty.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from listen_addr)")
	serveCmd.Flags().String("metrics-addr", "", "Metrics listen address (default from metrics_addr)")
	viper.BindPFlag("listen_addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("metrics_addr", serveCmd.Flags().Lookup("metrics-addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx)
}

func serve(ctx context.Context) error {
	m := metrics.NewMetrics()

	src := config.NewViperSource(nil)
	p, store, err := cmdutils.GetPlugin(logger, m, src)
	if err != nil {
		return err
	}
	defer store.Close()

	// Project settings are read per notification, so a watched file applies
	// edits without a restart. The global viper is left alone after startup.
	if file := viper.ConfigFileUsed(); file != "" {
		err := src.Watch(file, func(e fsnotify.Event, err error) {
			if err != nil {
				logger.Warn("configuration reload failed, keeping previous settings", "file", e.Name, "error", err)
				return
			}
			logger.Info("configuration reloaded", "file", e.Name, "op", e.Op.String())
		})
		if err != nil {
			logger.Warn("not watching configuration", "file", file, "error", err)
		}
	}

	if addr := viper.GetString("metrics_addr"); addr != "" {
		go func() {
			if err := telemetry.StartMetricsServer(ctx, addr, m.Registry()); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	srv := web.NewServer(p, viper.GetString("listen_addr"), logger, m.RequestTrackingMiddleware)
	return srv.Start(ctx)
}
