// Package daemon runs report passes on an interval.
package daemon

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tagpatrol/tagpatrol/pipeline"
	"github.com/tagpatrol/tagpatrol/telemetry"
)

// Runner executes one report pass
type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// Config holds daemon configuration
type Config struct {
	Interval time.Duration
}

// Daemon triggers report runs continuously. A failing run is logged and the
// next tick proceeds; the daemon only stops with its context.
type Daemon struct {
	runner    Runner
	interval  time.Duration
	startTime time.Time
	runCount  atomic.Int64
	logger    *telemetry.Logger
}

// New creates a daemon around a runner
func New(runner Runner, cfg Config) *Daemon {
	return &Daemon{
		runner:    runner,
		interval:  cfg.Interval,
		startTime: time.Now(),
		logger:    telemetry.NewLogger("daemon"),
	}
}

// Start runs one pass immediately, then on every tick until ctx is done
func (d *Daemon) Start(ctx context.Context) error {
	d.runOnce(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.WithContext(ctx).Info().
				Int64("runs", d.runCount.Load()).
				Msg("daemon stopping")
			return nil
		case <-ticker.C:
			d.runOnce(ctx)
		}
	}
}

func (d *Daemon) runOnce(ctx context.Context) {
	d.runCount.Add(1)

	result, err := d.runner.Run(ctx)
	if err != nil {
		d.logger.WithContext(ctx).Error().Err(err).Msg("report run failed")
		return
	}

	d.logger.WithContext(ctx).Info().
		Int("resources", result.ResourcesFound).
		Bool("uploaded", result.Uploaded).
		Bool("no_resources", result.NoResources).
		Dur("duration", result.Duration).
		Msg("report run complete")
}

// RunCount returns total report runs attempted
func (d *Daemon) RunCount() int64 {
	return d.runCount.Load()
}

// HealthStatus represents daemon health
type HealthStatus struct {
	Status string `json:"status"`
	Uptime int64  `json:"uptime_seconds"`
	Runs   int64  `json:"runs"`
}

// Health returns daemon health status
func (d *Daemon) Health() HealthStatus {
	return HealthStatus{
		Status: "healthy",
		Uptime: int64(time.Since(d.startTime).Seconds()),
		Runs:   d.runCount.Load(),
	}
}
