package notifier

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"AgriValue/internal/appraisal"
	"AgriValue/internal/calculator"
	"AgriValue/internal/model"
)

// DefaultListingLimit caps the listings printed under an appraisal.
const DefaultListingLimit = 10

var gauge = []rune("▁▂▃▄▅▆▇█")

// FormatYen renders a price the way the listings show it, e.g. ¥1,280,000.
func FormatYen(v float64) string {
	return "¥" + humanize.Comma(int64(math.Round(v)))
}

// FormatAppraisal formats an identification, its market value over the
// current price window and the matching listings.
func FormatAppraisal(a *appraisal.Appraisal, listingLimit int) string {
	var b strings.Builder
	r := a.Result

	b.WriteString(fmt.Sprintf("🚜 %s\n", identification(r)))
	b.WriteString(fmt.Sprintf("Type: %s | Year: %s\n", withJA(orUnknown(r.Type), r.TypeJA), orUnknown(r.YearRange)))
	if r.Origin() == model.SourceManual {
		b.WriteString("Source: manual entry\n")
	} else {
		b.WriteString(fmt.Sprintf("Confidence: %.0f%% Match\n", r.Confidence*100))
	}
	if r.Verified {
		b.WriteString("✅ Model verified\n")
	}
	if r.VerificationWarning != "" {
		b.WriteString(fmt.Sprintf("⚠️ %s\n", r.VerificationWarning))
	}
	if a.HistoryID != "" {
		b.WriteString(fmt.Sprintf("History ID: %s\n", a.HistoryID))
	}

	if !r.HasMarketData() {
		b.WriteString("\nNo market data found.\n")
		return b.String()
	}

	v := a.View()
	b.WriteString(fmt.Sprintf("\n💰 Market Value (%d of %d listings, %s – %s, max %s)\n",
		len(v.Items), len(r.MarketData), FormatYen(v.Range.Min), FormatYen(v.Range.Max), FormatYen(v.Range.Ceiling)))
	if v.Stats == nil {
		b.WriteString("  No listings in the selected price range.\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("  Median:  %s\n", FormatYen(v.Stats.Median)))
	b.WriteString(fmt.Sprintf("  Average: %s\n", FormatYen(v.Stats.Avg)))
	b.WriteString(fmt.Sprintf("  Range:   %s – %s\n", FormatYen(v.Stats.Min), FormatYen(v.Stats.Max)))

	b.WriteString("\n📋 Listings\n")
	for i, it := range v.Items {
		if listingLimit > 0 && i >= listingLimit {
			b.WriteString(fmt.Sprintf("  … %d more\n", len(v.Items)-listingLimit))
			break
		}
		b.WriteString(formatListing(it, v.Stats))
	}
	return b.String()
}

func formatListing(it model.MarketItem, s *model.PriceStats) string {
	pos := calculator.Position(it.Price, s.Min, s.Max)
	mark := gauge[int(pos*float64(len(gauge)-1))]

	line := fmt.Sprintf("  %c %12s  %s", mark, FormatYen(it.Price), it.Title)
	if it.Source != "" {
		line += fmt.Sprintf(" [%s]", it.Source)
	}
	if it.Date != "" {
		line += " " + it.Date
	}
	line += "\n"
	if it.URL != "" {
		line += fmt.Sprintf("      %s\n", it.URL)
	}
	return line
}

// FormatHistory formats the history list, newest first.
func FormatHistory(items []model.HistoryItem) string {
	if len(items) == 0 {
		return "No history yet.\n"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🕘 History (%d)\n", len(items)))
	for _, it := range items {
		median := "—"
		if s := calculator.ComputeStats(it.Result.MarketData); s != nil {
			median = FormatYen(s.Median)
		}
		tag := ""
		if it.Result.Origin() == model.SourceManual {
			tag = " (manual)"
		}
		b.WriteString(fmt.Sprintf("  %s  %s  %-28s %12s%s\n",
			it.ID, it.Time().Format("2006-01-02 15:04"), identification(&it.Result), median, tag))
	}
	return b.String()
}

// FormatRefresh formats a price refresh run.
func FormatRefresh(report *appraisal.RefreshReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔄 Price refresh | %s\n", time.Now().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Checked %d, failed %d\n", report.Checked, report.Failed))
	for _, e := range report.Entries {
		b.WriteString(fmt.Sprintf("\n%s %s (%s)\n", e.Make, e.Model, e.HistoryID))
		switch {
		case e.After == nil:
			b.WriteString("  No listings found now.\n")
		case e.Before == nil:
			b.WriteString(fmt.Sprintf("  Median %s (new)\n", FormatYen(e.After.Median)))
		default:
			change := 0.0
			if e.Before.Median > 0 {
				change = (e.After.Median - e.Before.Median) / e.Before.Median * 100
			}
			b.WriteString(fmt.Sprintf("  Median %s → %s (%+.1f%%)\n",
				FormatYen(e.Before.Median), FormatYen(e.After.Median), change))
		}
	}
	return b.String()
}

func identification(r *model.AnalysisResult) string {
	if !r.Identified() {
		if r.Error != "" {
			return "Not identified: " + r.Error
		}
		return "Not identified"
	}
	name := withJA(r.Make, r.MakeJA)
	if r.Model != "" {
		name += " " + r.Model
	}
	return name
}

func withJA(en, ja string) string {
	if ja == "" || ja == en {
		return en
	}
	return fmt.Sprintf("%s (%s)", en, ja)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
