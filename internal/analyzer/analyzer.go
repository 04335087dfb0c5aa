package analyzer

import (
	"context"
	"errors"

	"AgriValue/internal/model"
)

// Analyzer is the remote service that identifies equipment from a photo
// and looks up market prices.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, imagePath string) (*model.AnalysisResult, error)
	SearchPrices(ctx context.Context, q Query) (*model.AnalysisResult, error)
	Name() string
}

// Query identifies equipment for a manual price search.
type Query struct {
	Make  string
	Model string
	Type  string
	Year  string
}

// ErrMakeRequired is returned for a price search without a make.
var ErrMakeRequired = errors.New("make is required")

// Validate checks the query before it is sent.
func (q Query) Validate() error {
	if q.Make == "" {
		return ErrMakeRequired
	}
	return nil
}

// QueryFor builds a price query from an existing identification.
func QueryFor(r *model.AnalysisResult) Query {
	year := r.YearRange
	if year == "Unknown" {
		year = ""
	}
	return Query{Make: r.Make, Model: r.Model, Type: r.Type, Year: year}
}
