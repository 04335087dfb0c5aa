package model

import "time"

// MaxHistoryItems bounds the persisted history list.
const MaxHistoryItems = 50

// HistoryItem is one persisted past scan or search.
type HistoryItem struct {
	ID        string         `json:"id"`
	Timestamp int64          `json:"timestamp"` // unix milliseconds
	ImageURI  string         `json:"imageUri"`
	Result    AnalysisResult `json:"result"`
}

// Time returns the capture time of the item.
func (h *HistoryItem) Time() time.Time {
	return time.UnixMilli(h.Timestamp)
}
