package main

import (
	"flag"
	"testing"

	"AgriValue/internal/appraisal"
	"AgriValue/internal/model"
)

func TestPriceWindow(t *testing.T) {
	base := &appraisal.Appraisal{
		Result: &model.AnalysisResult{MarketData: []model.MarketItem{
			{Title: "free", Price: 0}, {Title: "a", Price: 100000}, {Title: "b", Price: 300000},
		}},
		Range: model.PriceRange{Min: 0, Max: 300000, Ceiling: 300000},
	}

	tests := []struct {
		name     string
		args     []string
		min, max float64
		items    int
	}{
		{"no flags", nil, 0, 300000, 3},
		{"explicit zero window", []string{"-min", "0", "-max", "0"}, 0, 0, 1},
		{"min only", []string{"-min", "50000"}, 50000, 300000, 2},
		{"max only", []string{"-max", "150000"}, 0, 150000, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("show", flag.ContinueOnError)
			var w priceWindow
			w.register(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse: %v", err)
			}
			got := w.apply(fs, base)
			if got.Range.Min != tt.min || got.Range.Max != tt.max {
				t.Errorf("range = [%.0f, %.0f], want [%.0f, %.0f]", got.Range.Min, got.Range.Max, tt.min, tt.max)
			}
			if n := len(got.View().Items); n != tt.items {
				t.Errorf("items = %d, want %d", n, tt.items)
			}
		})
	}
}
