package appraisal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"AgriValue/internal/analyzer"
	"AgriValue/internal/history"
	"AgriValue/internal/model"
	"AgriValue/internal/storage"
)

func listings(prices ...float64) []model.MarketItem {
	items := make([]model.MarketItem, len(prices))
	for i, p := range prices {
		items[i] = model.MarketItem{Title: "Kubota L2000", Price: p, Currency: "JPY", Source: "yahoo"}
	}
	return items
}

func newTestService(t *testing.T, mock *analyzer.MockAnalyzer) (*Service, *history.DirVault) {
	t.Helper()
	vault, err := history.NewDirVault(filepath.Join(t.TempDir(), "history"))
	if err != nil {
		t.Fatalf("NewDirVault failed: %v", err)
	}
	store := history.NewStore(storage.NewMemoryKV(), vault)
	return NewService(mock, store), vault
}

func captured(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "capture.jpg")
	if err := os.WriteFile(p, []byte("\xff\xd8\xff"), 0644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return p
}

func TestAnalyze_SavesHistory(t *testing.T) {
	ctx := context.Background()
	mock := &analyzer.MockAnalyzer{Result: &model.AnalysisResult{
		Make: "Kubota", Model: "L2000", Type: "Tractor", Confidence: 0.88,
		MarketData: listings(100000, 200000, 300000, 400000),
	}}
	svc, vault := newTestService(t, mock)

	a, err := svc.Analyze(ctx, captured(t))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if a.HistoryID == "" {
		t.Fatal("expected history id")
	}
	if !vault.Owns(a.ImageURI) {
		t.Errorf("expected managed image uri, got %s", a.ImageURI)
	}
	if a.Range.Min != 100000 || a.Range.Max != 400000 || a.Range.Ceiling != 400000 {
		t.Errorf("unexpected default range %+v", a.Range)
	}

	v := a.View()
	if len(v.Items) != 4 || v.Stats == nil || v.Stats.Median != 250000 {
		t.Errorf("unexpected view %+v", v)
	}

	items := svc.History.GetAll(ctx)
	if len(items) != 1 || items[0].Result.Source != model.SourceAI {
		t.Errorf("unexpected history %+v", items)
	}
}

func TestAnalyze_ErrorNotSaved(t *testing.T) {
	ctx := context.Background()
	mock := &analyzer.MockAnalyzer{
		AnalyzeFunc: func(context.Context, string) (*model.AnalysisResult, error) {
			return nil, analyzer.ErrServiceUnavailable
		},
	}
	svc, _ := newTestService(t, mock)

	if _, err := svc.Analyze(ctx, captured(t)); !errors.Is(err, analyzer.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	if n := len(svc.History.GetAll(ctx)); n != 0 {
		t.Errorf("failed analysis should not be recorded, got %d entries", n)
	}
}

func TestView_Filtering(t *testing.T) {
	a := &Appraisal{Result: &model.AnalysisResult{MarketData: listings(100, 200, 300, 400)}}
	v := a.WithRange(150, 350).View()
	if len(v.Items) != 2 || v.Items[0].Price != 200 || v.Items[1].Price != 300 {
		t.Errorf("unexpected items %+v", v.Items)
	}
	if v.Stats.Min != 200 || v.Stats.Max != 300 {
		t.Errorf("unexpected stats %+v", v.Stats)
	}

	empty := a.WithRange(500, 900).View()
	if empty.Stats != nil || len(empty.Items) != 0 {
		t.Errorf("expected no stats for empty window, got %+v", empty)
	}

	none := ViewOf(&model.AnalysisResult{}, model.PriceRange{})
	if none.Stats != nil || none.Items == nil {
		t.Errorf("unexpected view for result without listings: %+v", none)
	}
}

func TestCorrect_UpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	mock := &analyzer.MockAnalyzer{Result: &model.AnalysisResult{
		Make: "Kubota", Model: "L2000", Confidence: 0.55,
		MarketData: listings(300000),
	}}
	svc, _ := newTestService(t, mock)

	first, err := svc.Analyze(ctx, captured(t))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	corrected, err := svc.Correct(ctx, first.HistoryID, analyzer.Query{Make: "Kubota", Model: "L2201", Type: "Tractor", Year: "2015"})
	if err != nil {
		t.Fatalf("Correct failed: %v", err)
	}
	if corrected.HistoryID != first.HistoryID || corrected.ImageURI != first.ImageURI {
		t.Errorf("correction moved entry: %+v vs %+v", corrected, first)
	}

	items := svc.History.GetAll(ctx)
	if len(items) != 1 {
		t.Fatalf("expected 1 entry after correction, got %d", len(items))
	}
	if items[0].Result.Model != "L2201" || items[0].Result.Source != model.SourceManual {
		t.Errorf("entry not corrected: %+v", items[0].Result)
	}
}

func TestCorrect_UnknownIDSavesNew(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &analyzer.MockAnalyzer{Result: &model.AnalysisResult{MarketData: listings(1000)}})

	a, err := svc.Correct(ctx, "missing", analyzer.Query{Make: "Iseki", Model: "TA230"})
	if err != nil {
		t.Fatalf("Correct failed: %v", err)
	}
	if a.HistoryID == "" || a.HistoryID == "missing" {
		t.Errorf("expected a fresh id, got %q", a.HistoryID)
	}
	if n := len(svc.History.GetAll(ctx)); n != 1 {
		t.Errorf("expected 1 entry, got %d", n)
	}
}

func TestCorrect_RequiresMake(t *testing.T) {
	mock := &analyzer.MockAnalyzer{}
	svc, _ := newTestService(t, mock)
	if _, err := svc.Search(context.Background(), analyzer.Query{Model: "X"}, ""); !errors.Is(err, analyzer.ErrMakeRequired) {
		t.Errorf("expected ErrMakeRequired, got %v", err)
	}
	if len(mock.SearchCalls) != 0 {
		t.Error("invalid query should not reach the analyzer")
	}
}

func TestSelectAndLatest(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &analyzer.MockAnalyzer{Result: &model.AnalysisResult{Make: "Yanmar", MarketData: listings(5000, 125000)}})

	if _, ok := svc.Latest(ctx); ok {
		t.Fatal("expected no latest entry in empty history")
	}
	a, _ := svc.Search(ctx, analyzer.Query{Make: "Yanmar"}, "")

	sel, ok := svc.Select(ctx, a.HistoryID)
	if !ok {
		t.Fatal("Select failed")
	}
	if sel.Range.Ceiling != 130000 {
		t.Errorf("ceiling = %.0f, want 130000", sel.Range.Ceiling)
	}
	latest, ok := svc.Latest(ctx)
	if !ok || latest.HistoryID != a.HistoryID {
		t.Errorf("latest = %+v", latest)
	}
	if _, ok := svc.Select(ctx, "nope"); ok {
		t.Error("expected Select to miss unknown id")
	}
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	mock := &analyzer.MockAnalyzer{Result: &model.AnalysisResult{
		Make: "Kubota", Model: "L2000", Confidence: 0.9,
		MarketData: listings(100000),
	}}
	svc, _ := newTestService(t, mock)

	aiEntry, _ := svc.Analyze(ctx, captured(t))
	manualEntry, _ := svc.Search(ctx, analyzer.Query{Make: "Yanmar", Model: "EF230"}, "")
	svc.History.Save(ctx, "", model.AnalysisResult{Error: "Low confidence", Confidence: 0.2})

	mock.SearchCalls = nil
	mock.SearchFunc = func(_ context.Context, q analyzer.Query) (*model.AnalysisResult, error) {
		if q.Make == "Yanmar" {
			return nil, analyzer.ErrNetwork
		}
		return &model.AnalysisResult{Make: q.Make, Model: q.Model, MarketData: listings(200000, 400000)}, nil
	}

	report, err := svc.Refresh(ctx, 10)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if report.Checked != 2 || report.Failed != 1 || len(report.Entries) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if e := report.Entries[0]; e.Before.Median != 100000 || e.After.Median != 300000 {
		t.Errorf("unexpected entry %+v", e)
	}

	item, _ := svc.History.Get(ctx, aiEntry.HistoryID)
	if len(item.Result.MarketData) != 2 || item.Result.Source != model.SourceAI || item.Result.Confidence != 0.9 {
		t.Errorf("refreshed entry lost identification: %+v", item.Result)
	}
	unchanged, _ := svc.History.Get(ctx, manualEntry.HistoryID)
	if len(unchanged.Result.MarketData) != 1 {
		t.Errorf("failed refresh should leave entry unchanged: %+v", unchanged.Result)
	}
}

func TestRefresh_Limit(t *testing.T) {
	ctx := context.Background()
	mock := &analyzer.MockAnalyzer{Result: &model.AnalysisResult{Make: "Kubota", MarketData: listings(1)}}
	svc, _ := newTestService(t, mock)
	for i := 0; i < 3; i++ {
		svc.Search(ctx, analyzer.Query{Make: "Kubota"}, "")
	}
	mock.SearchCalls = nil

	report, _ := svc.Refresh(ctx, 2)
	if report.Checked != 2 || len(mock.SearchCalls) != 2 {
		t.Errorf("checked=%d calls=%d, want 2/2", report.Checked, len(mock.SearchCalls))
	}
}
