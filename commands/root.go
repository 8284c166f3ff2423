// Package commands holds the cashback-scraper CLI.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cashback-scraper/catalog"
	"cashback-scraper/config"
	"cashback-scraper/scraper/platforms"
	"cashback-scraper/storage"
	"cashback-scraper/utils"
)

var (
	merchantFilter []string
	platformFilter []string
)

var rootCmd = &cobra.Command{
	Use:   "cashback-scraper",
	Short: "cashback-scraper collects the cashback rates French merchants advertise on Poulpeo, Widilo, eBuyClub and iGraal.",
	// with no subcommand the scrape runs
	RunE:          runScrape,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&merchantFilter, "merchant", "m", nil,
		"Only process this merchant (name or slug, repeatable).")
	rootCmd.PersistentFlags().StringSliceVarP(&platformFilter, "platform", "p", nil,
		"Only query this platform (poulpeo, widilo, ebuyclub, igraal; repeatable).")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type environment struct {
	cfg       *config.Config
	logger    *utils.Logger
	catalog   *catalog.Catalog
	platforms []platforms.Platform
}

func setup() (*environment, error) {
	cfg := config.Load()
	logger := utils.NewLogger()
	slog.SetDefault(logger.Slog())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	for _, name := range merchantFilter {
		if len(cat.Filter([]string{name}).Merchants) > 0 {
			continue
		}
		if hint, ok := cat.Suggest(name); ok {
			logger.Warn("Unknown merchant %q, did you mean %q?", name, hint)
		} else {
			logger.Warn("Unknown merchant %q", name)
		}
	}
	cat = cat.Filter(merchantFilter)
	if len(cat.Merchants) == 0 {
		return nil, fmt.Errorf("no merchant matches %v", merchantFilter)
	}
	plats := platforms.Filter(platforms.Default(), platformFilter)
	if len(plats) == 0 {
		return nil, fmt.Errorf("no platform matches %v", platformFilter)
	}
	return &environment{cfg: cfg, logger: logger, catalog: cat, platforms: plats}, nil
}

// openHistory returns nil when no history driver is configured.
func openHistory(env *environment) (*storage.SQLHistory, error) {
	retry := &utils.RetryConfig{MaxAttempts: env.cfg.MaxRetries, BaseDelay: time.Second, Logger: env.logger}
	switch env.cfg.HistoryDriver {
	case "":
		return nil, nil
	case "sqlite":
		return storage.NewSQLiteHistory(env.cfg.SQLitePath, retry)
	case "postgres":
		return storage.NewPostgresHistory(env.cfg.DSN(), retry)
	default:
		return nil, fmt.Errorf("unknown history driver %q", env.cfg.HistoryDriver)
	}
}
