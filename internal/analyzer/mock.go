package analyzer

import (
	"context"

	"AgriValue/internal/model"
)

// MockAnalyzer returns controllable results for development and testing.
// Unset funcs fall back to Result.
type MockAnalyzer struct {
	Result      *model.AnalysisResult
	AnalyzeFunc func(ctx context.Context, imagePath string) (*model.AnalysisResult, error)
	SearchFunc  func(ctx context.Context, q Query) (*model.AnalysisResult, error)

	AnalyzeCalls int
	SearchCalls  []Query
}

func (m *MockAnalyzer) Name() string { return "mock" }

func (m *MockAnalyzer) AnalyzeImage(ctx context.Context, imagePath string) (*model.AnalysisResult, error) {
	m.AnalyzeCalls++
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, imagePath)
	}
	r := m.result()
	r.Source = model.SourceAI
	return r, nil
}

func (m *MockAnalyzer) SearchPrices(ctx context.Context, q Query) (*model.AnalysisResult, error) {
	m.SearchCalls = append(m.SearchCalls, q)
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, q)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	r := m.result()
	r.Make, r.Model, r.Type = q.Make, q.Model, q.Type
	if q.Year != "" {
		r.YearRange = q.Year
	}
	r.Confidence = 1.0
	r.Source = model.SourceManual
	return r, nil
}

func (m *MockAnalyzer) result() *model.AnalysisResult {
	if m.Result == nil {
		return &model.AnalysisResult{}
	}
	r := *m.Result
	r.MarketData = append([]model.MarketItem(nil), m.Result.MarketData...)
	return &r
}
