package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	configFile string
	rootCmd    = &cobra.Command{
		Use:   "tagpatrol",
		Short: "Tag Compliance Reporter",
		Long: `Tagpatrol - Tag Compliance Reporter

Tagpatrol finds cloud resources missing your required governance tags,
attributes each one to whoever created it, and publishes a per-region
spreadsheet report to object storage.

Run it once for a point-in-time report, or as a daemon for continuous
compliance visibility.`,
		Version: version,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// init sets up the root command
func init() {
	rootCmd.SetVersionTemplate(`Tagpatrol {{.Version}} - Tag Compliance Reporter
`)
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file path (default: environment variables)")
}
