package appraisal

import (
	"context"
	"fmt"
	"log"

	"AgriValue/internal/analyzer"
	"AgriValue/internal/calculator"
	"AgriValue/internal/history"
	"AgriValue/internal/model"
)

// Service runs the capture, analyze, correct and refresh flows.
type Service struct {
	Analyzer analyzer.Analyzer
	History  *history.Store
}

// NewService creates a new Service.
func NewService(a analyzer.Analyzer, h *history.Store) *Service {
	return &Service{Analyzer: a, History: h}
}

// Analyze identifies the equipment in the image and records the result.
func (s *Service) Analyze(ctx context.Context, imagePath string) (*Appraisal, error) {
	log.Printf("[INFO] analyzing %s via %s", imagePath, s.Analyzer.Name())
	res, err := s.Analyzer.AnalyzeImage(ctx, imagePath)
	if err != nil {
		return nil, err
	}
	res.Source = model.SourceAI

	id := s.History.Save(ctx, imagePath, *res)
	return newAppraisal(id, s.savedImage(ctx, id, imagePath), res), nil
}

// Search looks up prices for manually entered details and records the
// result as a new history entry.
func (s *Service) Search(ctx context.Context, q analyzer.Query, imageURI string) (*Appraisal, error) {
	res, err := s.search(ctx, q)
	if err != nil {
		return nil, err
	}
	id := s.History.Save(ctx, imageURI, *res)
	return newAppraisal(id, s.savedImage(ctx, id, imageURI), res), nil
}

// Correct re-queries prices with corrected details for an existing history
// entry and replaces its result in place. An unknown id records a new entry.
func (s *Service) Correct(ctx context.Context, historyID string, q analyzer.Query) (*Appraisal, error) {
	item, ok := s.History.Get(ctx, historyID)
	if !ok {
		log.Printf("[WARN] correct: history entry %s not found, saving as new search", historyID)
		return s.Search(ctx, q, "")
	}

	res, err := s.search(ctx, q)
	if err != nil {
		return nil, err
	}
	s.History.Update(ctx, historyID, *res)
	return newAppraisal(historyID, item.ImageURI, res), nil
}

// Select loads a past entry with its default price window.
func (s *Service) Select(ctx context.Context, historyID string) (*Appraisal, bool) {
	item, ok := s.History.Get(ctx, historyID)
	if !ok {
		return nil, false
	}
	res := item.Result
	return newAppraisal(item.ID, item.ImageURI, &res), true
}

// Latest returns the most recent entry.
func (s *Service) Latest(ctx context.Context) (*Appraisal, bool) {
	items := s.History.GetAll(ctx)
	if len(items) == 0 {
		return nil, false
	}
	res := items[0].Result
	return newAppraisal(items[0].ID, items[0].ImageURI, &res), true
}

// RefreshEntry describes the price change of one refreshed entry.
type RefreshEntry struct {
	HistoryID string
	Make      string
	Model     string
	Before    *model.PriceStats
	After     *model.PriceStats
}

// RefreshReport summarizes a refresh run.
type RefreshReport struct {
	Checked int
	Failed  int
	Entries []RefreshEntry
}

// Refresh re-queries market prices for up to limit of the most recent
// identified entries and stores the new listings in place. The entry's
// identification and source tag are kept.
func (s *Service) Refresh(ctx context.Context, limit int) (*RefreshReport, error) {
	report := &RefreshReport{}
	for _, item := range s.History.GetAll(ctx) {
		if limit > 0 && report.Checked >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !item.Result.Identified() {
			continue
		}
		report.Checked++

		fresh, err := s.Analyzer.SearchPrices(ctx, analyzer.QueryFor(&item.Result))
		if err != nil {
			log.Printf("[WARN] refresh %s (%s %s): %v", item.ID, item.Result.Make, item.Result.Model, err)
			report.Failed++
			continue
		}

		updated := item.Result
		updated.MarketData = fresh.MarketData
		updated.PriceStats = calculator.ComputeStats(fresh.MarketData)
		s.History.Update(ctx, item.ID, updated)

		report.Entries = append(report.Entries, RefreshEntry{
			HistoryID: item.ID,
			Make:      item.Result.Make,
			Model:     item.Result.Model,
			Before:    calculator.ComputeStats(item.Result.MarketData),
			After:     updated.PriceStats,
		})
	}
	log.Printf("[INFO] refresh done: checked=%d failed=%d", report.Checked, report.Failed)
	return report, nil
}

func (s *Service) search(ctx context.Context, q analyzer.Query) (*model.AnalysisResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	res, err := s.Analyzer.SearchPrices(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("manual search %s %s: %w", q.Make, q.Model, err)
	}
	res.Source = model.SourceManual
	return res, nil
}

// savedImage returns where the history entry keeps its image, falling back
// to the original location if the entry could not be saved.
func (s *Service) savedImage(ctx context.Context, id, original string) string {
	if id == "" {
		return original
	}
	if item, ok := s.History.Get(ctx, id); ok {
		return item.ImageURI
	}
	return original
}
