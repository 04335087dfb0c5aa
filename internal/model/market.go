package model

// WorkingCurrency is the currency all prices and statistics are expressed in.
const WorkingCurrency = "JPY"

// MarketItem is one observed marketplace listing or sale used as a price sample.
type MarketItem struct {
	Title    string  `json:"title"`
	Price    float64 `json:"price"` // minor-unit currency, never negative
	Currency string  `json:"currency"`
	URL      string  `json:"url"`
	ImageURL string  `json:"image_url,omitempty"`
	Source   string  `json:"source"`
	Date     string  `json:"date,omitempty"`
}

// PriceStats holds summary statistics derived from a set of MarketItems.
type PriceStats struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Avg      float64 `json:"avg"`
	Median   float64 `json:"median"`
	Currency string  `json:"currency"`
}

// PriceRange is an inclusive price window plus the upper limit of the
// range picker it was derived from.
type PriceRange struct {
	Min     float64
	Max     float64
	Ceiling float64
}
