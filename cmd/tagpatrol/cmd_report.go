package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate one tag compliance report",
	Long: `Scan the configured regions for resources missing required tags,
attribute each one to its creator, and publish a per-region spreadsheet.

A region that cannot be scanned is skipped, a creator that cannot be
determined shows as Unknown; the report always covers everything that
could be gathered. Finding nothing is a clean result, not an error.`,
	Example: `  tagpatrol report                          # Config from environment
  tagpatrol report --config tagpatrol.yaml  # Config from file
  TAGPATROL_REQUIRED_TAGS=owner,env TAGPATROL_REGIONS=us-east-1 tagpatrol report`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	p, cleanup, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, runErr := p.Run(ctx)

	if result.NoResources {
		fmt.Println("No untagged resources found.")
		return nil
	}

	fmt.Printf("📋 Found %d untagged resources across %s\n",
		result.ResourcesFound, strings.Join(result.Regions, ", "))
	if result.StagedPath != "" {
		fmt.Printf("💾 Staged: %s\n", result.StagedPath)
	}
	if result.Uploaded {
		fmt.Printf("☁️  Uploaded: s3://%s/%s\n", cfg.Bucket, result.Key)
	}
	fmt.Printf("⏱️  Completed in %s\n", result.Duration.Round(time.Millisecond))

	return runErr
}
