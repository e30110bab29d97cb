package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lukman83/storefront/config"
	"github.com/lukman83/storefront/internal/logger"
	"github.com/lukman83/storefront/internal/storefront"
)

var (
	cfg    *config.Config
	cfgErr error
	log    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront - catalog, cart and wishlist CLI & MCP server",
	Long: "A Go-based CLI tool and MCP server for a small shop: catalog browsing, " +
		"two-currency pricing, cart, favorites, wishlists and reorder suggestions.",
	SilenceUsage: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return cfgErr
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a YAML tuning file (currencies, tiers, reorder, catalog)")
	pf.String("store", "", "State backend: leveldb, redis, memory")
	pf.String("state-dir", "", "Directory of the leveldb state store")
	pf.String("redis-addr", "", "Redis address for the redis store")
	pf.String("api", "", "Catalog service base URL (overrides every other source)")
	pf.String("page", "", "Page URL the client is served from, used for ?api= and origin resolution")
	pf.String("proxy", "", "Proxy URL: http://, https:// or socks5://")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: json, text")
}

func initConfig() {
	cfg = config.DefaultConfig()
	cfgErr = loadConfig(cfg)
	log = logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)
}

func loadConfig(c *config.Config) error {
	if err := c.LoadFromEnv(); err != nil {
		return err
	}

	pf := rootCmd.PersistentFlags()
	if pf.Changed("config") {
		c.TuningFile, _ = pf.GetString("config")
	}
	if err := c.LoadTuning(c.TuningFile); err != nil {
		return err
	}

	// Override from flags
	for flag, dst := range map[string]*string{
		"store":      &c.Store,
		"state-dir":  &c.StateDir,
		"redis-addr": &c.RedisAddr,
		"api":        &c.APIBase,
		"page":       &c.PageURL,
		"proxy":      &c.Proxy,
		"log-level":  &c.LogLevel,
		"log-format": &c.LogFormat,
	} {
		if pf.Changed(flag) {
			*dst, _ = pf.GetString(flag)
		}
	}
	return c.Validate()
}

// withStorefront builds the storefront for one command and closes it after.
func withStorefront(cmd *cobra.Command, fn func(ctx context.Context, sf *storefront.Storefront) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	sf, err := storefront.New(ctx, cfg, storefront.Deps{Logger: log})
	if err != nil {
		return err
	}
	defer func() {
		if err := sf.Close(); err != nil {
			log.Warn("close store", "error", err)
		}
	}()
	return fn(ctx, sf)
}
