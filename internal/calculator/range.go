package calculator

import (
	"math"

	"AgriValue/internal/model"
)

// DefaultSliderStep is the granularity of the price range picker, in yen.
const DefaultSliderStep = 10000

// PriceBounds scans the items and returns the lowest and highest price.
// ok is false when there are no items.
func PriceBounds(items []model.MarketItem) (low, high float64, ok bool) {
	if len(items) == 0 {
		return 0, 0, false
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, it := range items {
		if it.Price > high {
			high = it.Price
		}
		if it.Price < low {
			low = it.Price
		}
	}
	return low, high, true
}

// SliderCeiling rounds high up to the next multiple of step.
func SliderCeiling(high, step float64) float64 {
	if step <= 0 {
		return high
	}
	return math.Ceil(high/step) * step
}

// DefaultRange is the filter window a freshly loaded result starts with:
// every observed price selected, picker sized to the rounded-up maximum.
func DefaultRange(items []model.MarketItem) model.PriceRange {
	low, high, ok := PriceBounds(items)
	if !ok {
		return model.PriceRange{}
	}
	return model.PriceRange{
		Min:     low,
		Max:     high,
		Ceiling: SliderCeiling(high, DefaultSliderStep),
	}
}

// Position returns where price sits within [low, high] (0.0~1.0).
func Position(price, low, high float64) float64 {
	if high <= low {
		return 0.5
	}
	pos := (price - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos
}
