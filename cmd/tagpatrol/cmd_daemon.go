package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/tagpatrol/tagpatrol/internal/daemon"
	"github.com/tagpatrol/tagpatrol/telemetry"
)

var (
	daemonInterval    time.Duration
	daemonMetricsPort int
)

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run continuous compliance reporting daemon",
	Long: `Run Tagpatrol in daemon mode for continuous tag compliance reporting.

The daemon generates a fresh report at the configured interval, exports
Prometheus metrics, and answers health checks. A failed run is logged
and the next interval proceeds.`,
	Example: `  tagpatrol daemon                     # Report every hour
  tagpatrol daemon --interval 15m      # Report every 15 minutes
  tagpatrol daemon --metrics-port 9090 # Custom metrics port`,
	RunE: runDaemonCmd,
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.Flags().DurationVar(&daemonInterval, "interval", time.Hour, "Report interval")
	daemonCmd.Flags().IntVar(&daemonMetricsPort, "metrics-port", 2112, "Metrics HTTP server port")
}

func runDaemonCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	shutdown, err := telemetry.InitOTEL(ctx, telemetry.Config{
		ServiceName:    "tagpatrol",
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("failed to init telemetry: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	p, cleanup, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	d := daemon.New(p, daemon.Config{Interval: daemonInterval})

	fmt.Printf("🚀 Starting Tagpatrol daemon...\n")
	fmt.Printf("   Interval: %s\n", daemonInterval)
	fmt.Printf("   Metrics: http://localhost:%d/metrics\n", daemonMetricsPort)
	fmt.Printf("   Health: http://localhost:%d/health\n\n", daemonMetricsPort)

	var g run.Group

	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	srv := metricsServer(d, daemonMetricsPort)
	g.Add(func() error {
		return srv.ListenAndServe()
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})

	daemonCtx, daemonCancel := context.WithCancel(ctx)
	g.Add(func() error {
		return d.Start(daemonCtx)
	}, func(error) {
		daemonCancel()
	})

	err = g.Run()

	var sig run.SignalError
	if errors.As(err, &sig) {
		fmt.Printf("\n👋 Received %s, daemon stopped\n", sig.Signal)
		return nil
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// metricsServer serves Prometheus metrics and daemon health
func metricsServer(d *daemon.Daemon, port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		telemetry.PrometheusRegistry,
		promhttp.HandlerOpts{},
	))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(d.Health())
	})

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
