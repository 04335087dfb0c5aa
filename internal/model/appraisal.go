package model

// ResultSource tells whether an identification came from image analysis or
// from a user typing the details in.
type ResultSource string

const (
	SourceAI     ResultSource = "ai"
	SourceManual ResultSource = "manual"
)

// legacyManualConfidence: results stored before the source tag existed
// marked manual corrections with a confidence above 1.0.
const legacyManualConfidence = 1.0

// AnalysisResult is the identification and market data returned by the
// analysis service for one piece of equipment.
type AnalysisResult struct {
	Make                string       `json:"make"`
	Model               string       `json:"model"`
	Type                string       `json:"type"`
	YearRange           string       `json:"year_range"`
	Confidence          float64      `json:"confidence"`
	MakeJA              string       `json:"make_ja,omitempty"`
	TypeJA              string       `json:"type_ja,omitempty"`
	PriceStats          *PriceStats  `json:"price_stats,omitempty"`
	MarketData          []MarketItem `json:"market_data,omitempty"`
	Verified            bool         `json:"verified,omitempty"`
	VerificationWarning string       `json:"verification_warning,omitempty"`
	Error               string       `json:"error,omitempty"`
	Source              ResultSource `json:"source,omitempty"`
}

// Origin returns the result's source, deriving it from the legacy
// confidence marker when no explicit tag is present.
func (r *AnalysisResult) Origin() ResultSource {
	switch r.Source {
	case SourceAI, SourceManual:
		return r.Source
	}
	if r.Confidence > legacyManualConfidence {
		return SourceManual
	}
	return SourceAI
}

// Normalize fills in the explicit source tag.
func (r *AnalysisResult) Normalize() {
	r.Source = r.Origin()
}

// Identified reports whether the result names a make to search prices for.
func (r *AnalysisResult) Identified() bool {
	return r.Error == "" && r.Make != ""
}

// HasMarketData reports whether any listings came back with the result.
func (r *AnalysisResult) HasMarketData() bool {
	return len(r.MarketData) > 0
}
