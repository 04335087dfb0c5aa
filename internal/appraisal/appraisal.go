package appraisal

import (
	"AgriValue/internal/calculator"
	"AgriValue/internal/model"
)

// Appraisal is a result as the user sees it: tied to a history entry and
// an image, with the price window currently applied.
type Appraisal struct {
	HistoryID string
	ImageURI  string
	Result    *model.AnalysisResult
	Range     model.PriceRange
}

// View is the filtered market data and the statistics computed over it.
type View struct {
	Range model.PriceRange
	Items []model.MarketItem
	Stats *model.PriceStats // nil when no listing falls inside Range
}

// View applies the appraisal's current price window.
func (a *Appraisal) View() View {
	return ViewOf(a.Result, a.Range)
}

// WithRange returns a copy of the appraisal filtered to [lo, hi].
func (a *Appraisal) WithRange(lo, hi float64) *Appraisal {
	cp := *a
	cp.Range.Min = lo
	cp.Range.Max = hi
	return &cp
}

// ViewOf filters the result's listings to r and summarizes them.
func ViewOf(result *model.AnalysisResult, r model.PriceRange) View {
	if result == nil || !result.HasMarketData() {
		return View{Range: r, Items: []model.MarketItem{}}
	}
	items := calculator.FilterByPriceRange(result.MarketData, r.Min, r.Max)
	return View{
		Range: r,
		Items: items,
		Stats: calculator.ComputeStats(items),
	}
}

func newAppraisal(id, imageURI string, result *model.AnalysisResult) *Appraisal {
	return &Appraisal{
		HistoryID: id,
		ImageURI:  imageURI,
		Result:    result,
		Range:     calculator.DefaultRange(result.MarketData),
	}
}
