package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cinematch/internal/catalog"
	"cinematch/internal/config"
	"cinematch/internal/logging"
	"cinematch/internal/metrics"
	"cinematch/internal/poster"
	"cinematch/internal/recommend"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) levelOverride() string {
	if c.logLevelFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.logLevelFlag)
}

// ensureLogger builds the process logger once. Commands that skip config
// loading get a stderr-only console logger.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger, c.loggerErr = logging.New(logging.Options{Level: c.levelOverride(), Format: "console"})
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg, c.levelOverride())
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) loadDataset(ctx context.Context) (*catalog.Dataset, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	ds, err := catalog.Load(ctx, cfg.Paths.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	metrics.RecordDatasetSize(ds.Len())
	return ds, nil
}

// newRecommender loads the dataset and applies the configured limit and
// duplicate policy. limitOverride > 0 replaces the configured limit.
func (c *commandContext) newRecommender(ctx context.Context, limitOverride int) (*recommend.Recommender, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	ds, err := c.loadDataset(ctx)
	if err != nil {
		return nil, err
	}
	limit := cfg.Recommend.Limit
	if limitOverride > 0 {
		limit = limitOverride
	}
	return recommend.New(ds,
		recommend.WithLimit(limit),
		recommend.WithDuplicatePolicy(cfg.Recommend.DuplicateTitles),
		recommend.WithLogger(logger),
	)
}

func (c *commandContext) newResolver() (*poster.Resolver, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return poster.NewFromConfig(cfg, logger)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
