package calculator

import (
	"sort"

	"AgriValue/internal/model"

	"github.com/shopspring/decimal"
)

// ComputeStats summarizes the prices of the given items.
// Returns nil when there is nothing to summarize.
func ComputeStats(items []model.MarketItem) *model.PriceStats {
	if len(items) == 0 {
		return nil
	}

	prices := sortedPrices(items)
	n := len(prices)

	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(decimal.NewFromFloat(p))
	}
	avg := sum.Div(decimal.NewFromInt(int64(n)))

	mid := n / 2
	median := decimal.NewFromFloat(prices[mid])
	if n%2 == 0 {
		median = decimal.NewFromFloat(prices[mid-1]).Add(median).Div(decimal.NewFromInt(2))
	}

	return &model.PriceStats{
		Min:      prices[0],
		Max:      prices[n-1],
		Avg:      avg.InexactFloat64(),
		Median:   median.InexactFloat64(),
		Currency: model.WorkingCurrency,
	}
}

// FilterByPriceRange returns the items priced within [minPrice, maxPrice],
// keeping their original order. The input slice is left untouched.
func FilterByPriceRange(items []model.MarketItem, minPrice, maxPrice float64) []model.MarketItem {
	out := make([]model.MarketItem, 0, len(items))
	for _, it := range items {
		if it.Price >= minPrice && it.Price <= maxPrice {
			out = append(out, it)
		}
	}
	return out
}

func sortedPrices(items []model.MarketItem) []float64 {
	prices := make([]float64, len(items))
	for i, it := range items {
		prices[i] = it.Price
	}
	sort.Float64s(prices)
	return prices
}
