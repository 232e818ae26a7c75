package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"animap/internal/aggregator"
	"animap/internal/catalog"
	"animap/internal/config"
	"animap/internal/linking"
	"animap/internal/logging"
	"animap/internal/media"
	"animap/internal/provider"
	"animap/internal/resolve"
	"animap/internal/store"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
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

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// runtime holds everything a service-backed command needs.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	service *aggregator.Service
}

// withService builds the service graph, runs fn and then flushes pending
// cache writes before closing the store.
func (c *commandContext) withService(cmd *cobra.Command, fn func(context.Context, *runtime) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	cat, err := catalog.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	registry, err := provider.Build(cfg, logger)
	if err != nil {
		return err
	}
	var linker linking.Linker
	if cfg.Linking.Enabled {
		client, err := linking.NewFromConfig(cfg, logger)
		if err != nil {
			return err
		}
		linker = client
	}

	cache, err := aggregator.OpenStore(cfg)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	writer := store.NewAsyncWriter(logger)
	defer func() {
		writer.Wait()
		if err := cache.Close(); err != nil {
			logger.Warn("failed to close cache", logging.Error(err))
		}
	}()

	resolver, err := resolve.NewResolver(resolve.Dependencies{
		Catalog:  cat,
		Linker:   linker,
		Registry: registry,
		Store:    cache,
		Writer:   writer,
		Logger:   logger,
	}, resolve.OptionsFromConfig(cfg))
	if err != nil {
		return err
	}
	service, err := aggregator.New(cfg, cat, resolver, registry, cache, writer, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, &runtime{cfg: cfg, logger: logger, service: service})
}

// withStore opens only the cache, for maintenance commands.
func (c *commandContext) withStore(cmd *cobra.Command, fn func(context.Context, store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	cache, err := aggregator.OpenStore(cfg)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer cache.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, cache)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// addTypeFlag registers --manga on cmd and returns a resolver for the
// selected media type.
func addTypeFlag(cmd *cobra.Command) func() media.Type {
	var manga bool
	cmd.Flags().BoolVar(&manga, "manga", false, "Target manga instead of anime")
	return func() media.Type {
		if manga {
			return media.Manga
		}
		return media.Anime
	}
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", value)
	}
	return id, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
