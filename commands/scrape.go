package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cashback-scraper/models"
	"cashback-scraper/observability"
	"cashback-scraper/scraper/cashback"
	"cashback-scraper/scraper/fetch"
	"cashback-scraper/services"
	"cashback-scraper/storage"
)

var outputPath string

// newFetcher is swapped in tests to keep them off the network.
var newFetcher = fetch.New

func init() {
	for _, c := range []*cobra.Command{rootCmd, scrapeCmd} {
		c.Flags().StringVarP(&outputPath, "output", "o", "", "Write the JSON report here instead of OUTPUT_PATH.")
	}
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--merchant <name>]... [--output <path/to/report.json>]",
	Short: "Scrapes every merchant on every platform and writes the JSON report.",
	RunE:  runScrape,
}

func runScrape(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env, err := setup()
	if err != nil {
		return err
	}
	cfg, logger := env.cfg, env.logger
	if outputPath != "" {
		cfg.OutputPath = outputPath
	}

	logger.Info("=== Cashback scraper starting ===")
	logger.Info("Config: %d merchants | fetcher %s | delay %dms | timeout %dms | empty results: %s",
		len(env.catalog.Merchants), cfg.Fetcher, cfg.RequestDelayMs, cfg.RequestTimeoutMs, cfg.EmptyResultPolicy)

	fetcher, err := newFetcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("start fetcher: %w", err)
	}
	defer fetcher.Close()

	jsonWriter := storage.NewJSONWriter(cfg.OutputPath)
	var previousSource storage.History = jsonWriter
	sinks := secondarySinks(env)
	for _, sink := range sinks {
		defer sink.Close()
		if h, ok := sink.(storage.History); ok {
			previousSource = h
		}
	}

	// read before anything is overwritten
	previous, err := previousSource.PreviousBest(ctx, models.KindCashback)
	if err != nil {
		logger.Warn("Could not load previous rates: %v", err)
		previous = nil
	}

	metrics := observability.NewMetrics()
	s := cashback.New(cfg, logger, cashback.Options{
		Fetcher:   fetcher,
		Platforms: env.platforms,
		Policy:    cashback.PolicyFor(cfg, env.catalog),
		Metrics:   metrics,
		Progress:  cmd.OutOrStdout(),
	})
	report := s.Run(ctx, env.catalog)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted, previous outputs kept: %w", err)
	}

	if err := jsonWriter.Write(ctx, report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	logger.Info("Report saved to %s (%d merchants)", jsonWriter.Path(), len(report.Merchants))

	for _, sink := range sinks {
		if err := sink.Write(ctx, report); err != nil {
			logger.Error("Secondary output failed: %v", err)
		}
	}
	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("Metrics textfile failed: %v", err)
		}
	}

	summary := services.NewSummary(logger, cmd.OutOrStdout())
	summary.Print(summary.Generate(report), previous)
	return nil
}

// secondarySinks opens the optional outputs. A sink that cannot be opened is
// logged and left out; it never stops the run.
func secondarySinks(env *environment) []storage.ReportWriter {
	var sinks []storage.ReportWriter

	if path := env.cfg.CSVOutputPath; path != "" {
		sinks = append(sinks, storage.NewCSVWriter(path))
	}

	history, err := openHistory(env)
	switch {
	case err != nil:
		env.logger.Error("Failed to open rate history: %v", err)
	case history != nil:
		sinks = append(sinks, history)
	}
	return sinks
}
