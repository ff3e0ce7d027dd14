// Package config loads the immutable run configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tagpatrol/tagpatrol/types"
	"gopkg.in/yaml.v3"
)

// DefaultLookback bounds audit-trail lookups when none is configured
const DefaultLookback = 30 * 24 * time.Hour

// DefaultPrefix is the logical name prepended to report keys
const DefaultPrefix = "untagged-resources-report"

// Config represents the main configuration. Built once at startup and passed
// by value; components never reach for ambient globals.
type Config struct {
	RequiredTags []string        `yaml:"required_tags"`
	Regions      []string        `yaml:"regions"`
	Query        string          `yaml:"query,omitempty"`
	ViewARN      string          `yaml:"view_arn,omitempty"`
	Enrich       bool            `yaml:"enrich"`
	Lookback     time.Duration   `yaml:"lookback"`
	Bucket       string          `yaml:"bucket,omitempty"`
	Prefix       string          `yaml:"prefix"`
	StagingDir   string          `yaml:"staging_dir,omitempty"`
	CachePath    string          `yaml:"cache_path,omitempty"`
	ARN          types.ARNLayout `yaml:"arn"`
}

// Load reads configuration from a YAML file, applies environment overrides
// and defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds configuration from environment variables alone, for runs
// without a config file.
func FromEnv() (*Config, error) {
	var cfg Config
	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyEnv overlays TAGPATROL_* environment variables onto the config
func (c *Config) applyEnv() {
	if v := os.Getenv("TAGPATROL_REQUIRED_TAGS"); v != "" {
		c.RequiredTags = splitList(v)
	}
	if v := os.Getenv("TAGPATROL_REGIONS"); v != "" {
		c.Regions = splitList(v)
	}
	if v := os.Getenv("TAGPATROL_QUERY"); v != "" {
		c.Query = v
	}
	if v := os.Getenv("TAGPATROL_VIEW_ARN"); v != "" {
		c.ViewARN = v
	}
	if v := os.Getenv("TAGPATROL_BUCKET"); v != "" {
		c.Bucket = v
	}
	if v := os.Getenv("TAGPATROL_PREFIX"); v != "" {
		c.Prefix = v
	}
	if v := os.Getenv("TAGPATROL_STAGING_DIR"); v != "" {
		c.StagingDir = v
	}
	if v := os.Getenv("TAGPATROL_CACHE_PATH"); v != "" {
		c.CachePath = v
	}
	if v := os.Getenv("TAGPATROL_ENRICH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enrich = b
		}
	}
	if v := os.Getenv("TAGPATROL_LOOKBACK"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Lookback = d
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Lookback <= 0 {
		c.Lookback = DefaultLookback
	}
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.ARN == (types.ARNLayout{}) {
		c.ARN = types.DefaultARNLayout
	}
}

// Validate ensures config has required fields
func (c *Config) Validate() error {
	if len(c.RequiredTags) == 0 {
		return fmt.Errorf("at least one required tag key is needed")
	}
	if len(c.Regions) == 0 {
		return fmt.Errorf("at least one region is needed")
	}
	for _, key := range c.RequiredTags {
		if key == "" {
			return fmt.Errorf("required tag keys must be non-empty")
		}
	}
	return nil
}

// QueryExpression returns the discovery query: the configured override, or one
// negated-tag predicate per required key.
func (c *Config) QueryExpression() string {
	if c.Query != "" {
		return c.Query
	}
	terms := make([]string, 0, len(c.RequiredTags))
	for _, key := range c.RequiredTags {
		terms = append(terms, "-tag.key:"+key)
	}
	return strings.Join(terms, " ")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
