package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"cashback-scraper/models"
	"cashback-scraper/utils"
)

// SummaryView holds the figures printed at the end of a run.
type SummaryView struct {
	Report          *models.RunReport
	TopCashback     []models.MerchantResult
	AverageCashback float64
	PlatformWins    map[string]int
	ByCategory      map[string]int
}

type Summary struct {
	logger *utils.Logger
	out    io.Writer
}

func NewSummary(logger *utils.Logger, out io.Writer) *Summary {
	return &Summary{logger: logger, out: out}
}

// Generate computes the summary figures for a report.
func (s *Summary) Generate(r *models.RunReport) *SummaryView {
	view := &SummaryView{
		Report:       r,
		PlatformWins: make(map[string]int),
		ByCategory:   make(map[string]int),
	}

	var withCashback []models.MerchantResult
	var total float64
	for _, m := range r.Merchants {
		if m.Category != "" {
			view.ByCategory[m.Category]++
		}
		if m.BestCashback != nil {
			withCashback = append(withCashback, m)
			total += m.BestCashback.Rate
			view.PlatformWins[m.BestCashback.Platform]++
		}
	}

	if len(withCashback) > 0 {
		view.AverageCashback = round2(total / float64(len(withCashback)))
	}

	sort.SliceStable(withCashback, func(i, j int) bool {
		return withCashback[i].BestCashback.Rate > withCashback[j].BestCashback.Rate
	})
	if len(withCashback) > 5 {
		withCashback = withCashback[:5]
	}
	view.TopCashback = withCashback

	return view
}

// Print renders the summary. previous maps merchant name to the best cashback
// rate of the last recorded run; it may be nil.
func (s *Summary) Print(v *SummaryView, previous map[string]float64) {
	r := v.Report
	st := r.Stats

	fmt.Fprintf(s.out, "\n%s\n", text.Colors{text.Bold, text.FgMagenta}.Sprint("  💰 CASHBACK RATES REPORT"))
	fmt.Fprintf(s.out, "  %s (run %s)\n\n", r.LastUpdatedHuman, r.RunID)

	overview := table.NewWriter()
	overview.SetOutputMirror(s.out)
	overview.SetStyle(table.StyleRounded)
	overview.AppendRows([]table.Row{
		{"Merchants processed", st.TotalMerchants},
		{"Merchants with offers", st.MerchantsWithOffers},
		{"Merchants without offers", st.MerchantsWithoutOffers},
		{"Offers found", fmt.Sprintf("%d (cashback %d, bon d'achat %d)", st.TotalOffers, st.CashbackOffers, st.VoucherOffers)},
		{"Fetch errors", fmt.Sprintf("%d / %d", st.Errors, st.Fetches)},
		{"Average best cashback", fmt.Sprintf("%.2f%%", v.AverageCashback)},
		{"Duration", fmt.Sprintf("%.1fs", st.DurationSeconds)},
	})
	overview.Render()

	merchants := table.NewWriter()
	merchants.SetOutputMirror(s.out)
	merchants.SetStyle(table.StyleRounded)
	merchants.AppendHeader(table.Row{"", "Merchant", "Best cashback", "Δ", "Best bon d'achat", "Offers"})
	for _, m := range r.Merchants {
		merchants.AppendRow(table.Row{
			m.Icon,
			truncate(m.Name, 24),
			formatBest(m.BestCashback),
			formatDelta(m, previous),
			formatBest(m.BestBonAchat),
			len(m.Offers),
		})
	}
	merchants.Render()

	if len(v.TopCashback) > 0 {
		fmt.Fprintf(s.out, "\n  %s\n", text.Bold.Sprint("Top cashback"))
		for i, m := range v.TopCashback {
			fmt.Fprintf(s.out, "  %d. %-24s %s\n", i+1, truncate(m.Name, 24),
				text.FgGreen.Sprintf("%.2f%% (%s)", m.BestCashback.Rate, m.BestCashback.Platform))
		}
	}

	if len(v.PlatformWins) > 0 {
		fmt.Fprintf(s.out, "\n  Best cashback by platform: %s\n", formatCounts(v.PlatformWins))
	}
	if len(v.ByCategory) > 0 {
		fmt.Fprintf(s.out, "  Merchants by category: %s\n", formatCounts(v.ByCategory))
	}

	if len(st.NoOfferMerchants) > 0 {
		fmt.Fprintf(s.out, "\n  No offer: %s\n", strings.Join(st.NoOfferMerchants, ", "))
	}
	if len(st.ErrorsByOutcome) > 0 {
		keys := make([]string, 0, len(st.ErrorsByOutcome))
		for k := range st.ErrorsByOutcome {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%d", k, st.ErrorsByOutcome[k]))
		}
		fmt.Fprintf(s.out, "  Errors: %s\n", strings.Join(parts, " "))
	}
	fmt.Fprintln(s.out)
}

// formatCounts renders "k=n" pairs, highest count first, then by name.
func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}

func formatBest(b *models.BestOffer) string {
	if b == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f%% %s", b.Rate, b.Platform)
}

func formatDelta(m models.MerchantResult, previous map[string]float64) string {
	prev, ok := previous[m.Name]
	if !ok || m.BestCashback == nil {
		return ""
	}
	diff := round2(m.BestCashback.Rate - prev)
	switch {
	case diff > 0:
		return text.FgGreen.Sprintf("▲ %+.2f", diff)
	case diff < 0:
		return text.FgRed.Sprintf("▼ %+.2f", diff)
	}
	return "="
}

func round2(f float64) float64 {
	if f < 0 {
		return -round2(-f)
	}
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
