package main

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/tagpatrol/tagpatrol/attribution"
	"github.com/tagpatrol/tagpatrol/config"
	"github.com/tagpatrol/tagpatrol/discovery"
	"github.com/tagpatrol/tagpatrol/pipeline"
	"github.com/tagpatrol/tagpatrol/publish"
	"github.com/tagpatrol/tagpatrol/telemetry"
)

// loadConfig reads the config file when one is given, environment otherwise
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	return config.FromEnv()
}

// buildPipeline wires discovery, attribution, and publishing around one
// pipeline. The returned cleanup closes the provenance cache if one opened.
func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, func(), error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	metrics, err := telemetry.InitRunMetrics(telemetry.Meter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	collector := discovery.NewCollector(
		discovery.NewExplorerSource(awsCfg, cfg.ViewARN, cfg.ARN),
		discovery.NewTaggingSource(awsCfg, cfg.ARN),
		discovery.CollectorConfig{
			Regions:      cfg.Regions,
			Query:        cfg.QueryExpression(),
			RequiredTags: cfg.RequiredTags,
		},
	).WithMetrics(metrics)

	p := pipeline.New(collector, pipeline.Config{
		RequiredTags: cfg.RequiredTags,
		Enrich:       cfg.Enrich,
		Prefix:       cfg.Prefix,
		StagingDir:   cfg.StagingDir,
	})

	cleanup := func() {}
	if cfg.Enrich {
		resolver := attribution.NewResolver(awsCfg, cfg.Lookback)
		if cfg.CachePath != "" {
			cache, err := attribution.OpenCache(cfg.CachePath, cfg.Lookback)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to open provenance cache: %w", err)
			}
			resolver = resolver.WithCache(cache)
			cleanup = func() { _ = cache.Close() }
		}
		p = p.WithResolver(resolver)
	}

	if cfg.Bucket != "" {
		p = p.WithUploader(publish.NewPublisher(awsCfg, cfg.Bucket, cfg.Prefix))
	}

	return p.WithMetrics(metrics), cleanup, nil
}
