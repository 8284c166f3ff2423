package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"cashback-scraper/models"
	"cashback-scraper/scraper/cashback"
	"cashback-scraper/storage"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [--merchant <name>]...",
	Short: "Shows what each platform page looks like to the rate extractor. Writes nothing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		env, err := setup()
		if err != nil {
			return err
		}

		fetcher, err := newFetcher(env.cfg, env.logger)
		if err != nil {
			return fmt.Errorf("start fetcher: %w", err)
		}
		defer fetcher.Close()

		history, err := openHistory(env)
		if err != nil {
			env.logger.Warn("Rate history unavailable: %v", err)
			history = nil
		}
		if history != nil {
			defer history.Close()
		}

		s := cashback.New(env.cfg, env.logger, cashback.Options{
			Fetcher:   fetcher,
			Platforms: env.platforms,
			Policy:    cashback.PolicyFor(env.cfg, env.catalog),
		})

		out := cmd.OutOrStdout()
		for _, m := range env.catalog.Merchants {
			printInspection(out, m, s.Inspect(ctx, m))
			if history != nil {
				printHistory(ctx, out, history, m)
			}
		}
		return nil
	},
}

func printInspection(out io.Writer, m models.MerchantSpec, rows []cashback.Inspection) {
	fmt.Fprintf(out, "\n%s\n", text.Bold.Sprintf("%s %s", m.Icon, m.Name))

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Platform", "Outcome", "Cashback", "Bon d'achat", "Page"})
	t.SetColumnConfigs([]table.ColumnConfig{{Name: "Page", WidthMax: 80}})

	for _, r := range rows {
		res := r.Result
		outcome := string(res.Outcome)
		if res.StatusCode != 0 {
			outcome = fmt.Sprintf("%s (%d)", outcome, res.StatusCode)
		}
		if res.Outcome.IsError() {
			outcome = text.FgRed.Sprint(outcome)
		}

		var page []string
		if res.URL != "" {
			page = append(page, res.URL)
		}
		if res.Page.Title != "" {
			page = append(page, "title: "+clip(res.Page.Title, 150))
		}
		if res.Page.MetaDescription != "" {
			page = append(page, "meta: "+clip(res.Page.MetaDescription, 200))
		}
		if n := len(res.Page.Fragments); n > 0 {
			page = append(page, fmt.Sprintf("%d rate fragment(s)", n))
		}

		t.AppendRow(table.Row{
			r.Platform,
			outcome,
			formatRate(r.Rates, models.KindCashback),
			formatRate(r.Rates, models.KindVoucher),
			strings.Join(page, "\n"),
		})
	}
	t.Render()
}

func printHistory(ctx context.Context, out io.Writer, h *storage.SQLHistory, m models.MerchantSpec) {
	for _, kind := range models.Kinds {
		rates, err := h.RateHistory(ctx, m.Name, kind)
		if err != nil || len(rates) == 0 {
			continue
		}
		parts := make([]string, len(rates))
		for i, r := range rates {
			parts[i] = fmt.Sprintf("%.2f", r)
		}
		fmt.Fprintf(out, "  history %s: %s\n", kind, strings.Join(parts, " → "))
	}
}

func formatRate(rates map[models.OfferKind]float64, kind models.OfferKind) string {
	r, ok := rates[kind]
	if !ok {
		return "-"
	}
	return text.FgGreen.Sprintf("%.2f%%", r)
}

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
