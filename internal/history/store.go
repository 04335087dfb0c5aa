package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"AgriValue/internal/model"
	"AgriValue/internal/storage"
)

// StorageKey is the key the history list is persisted under.
const StorageKey = "@agrivalue_history"

// Store is the bounded, newest-first list of past scans.
//
// History is convenience data: storage failures are logged and swallowed,
// callers get an empty list or a zero id back instead of an error.
type Store struct {
	kv       storage.KV
	vault    ImageVault
	capacity int
	now      func() time.Time

	mu     sync.Mutex
	lastID int64
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithCapacity overrides the maximum number of entries kept.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// NewStore creates a Store over the given backend and image vault.
// A nil vault means images are referenced in place.
func NewStore(kv storage.KV, vault ImageVault, opts ...Option) *Store {
	if vault == nil {
		vault = NewNoopVault()
	}
	s := &Store{
		kv:       kv,
		vault:    vault,
		capacity: model.MaxHistoryItems,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save records a new entry at the head of the list and returns its id.
// Returns "" if the entry could not be saved.
func (s *Store) Save(ctx context.Context, imageURI string, result model.AnalysisResult) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	savedURI := imageURI
	copied := false
	if imageURI != "" {
		managed := s.vault.Owns(imageURI)
		uri, err := s.vault.Import(imageURI)
		if err != nil {
			log.Printf("[ERROR] save history: import image %s: %v", imageURI, err)
			return ""
		}
		savedURI = uri
		copied = !managed && uri != imageURI
	}

	current := s.load(ctx)
	now := s.now()
	id := s.nextID(now, current)

	result.Normalize()
	item := model.HistoryItem{
		ID:        strconv.FormatInt(id, 10),
		Timestamp: now.UnixMilli(),
		ImageURI:  savedURI,
		Result:    result,
	}

	updated := append([]model.HistoryItem{item}, current...)
	var evicted []model.HistoryItem
	if len(updated) > s.capacity {
		evicted = updated[s.capacity:]
		updated = updated[:s.capacity]
	}

	if err := s.write(ctx, updated); err != nil {
		log.Printf("[ERROR] save history: %v", err)
		if copied {
			if err := s.vault.Discard(savedURI); err != nil {
				log.Printf("[WARN] discard orphaned image %s: %v", savedURI, err)
			}
		}
		return ""
	}

	s.discardEvicted(evicted, updated)
	return item.ID
}

// GetAll returns the stored entries, newest first.
func (s *Store) GetAll(ctx context.Context) []model.HistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get returns the entry with the given id.
func (s *Store) Get(ctx context.Context, id string) (model.HistoryItem, bool) {
	for _, item := range s.GetAll(ctx) {
		if item.ID == id {
			return item, true
		}
	}
	return model.HistoryItem{}, false
}

// Update replaces the result of the entry with the given id.
// Unknown ids are ignored.
func (s *Store) Update(ctx context.Context, id string, result model.AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.load(ctx)
	idx := -1
	for i := range items {
		if items[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		log.Printf("[INFO] update history: no entry with id %s", id)
		return
	}

	result.Normalize()
	items[idx].Result = result
	if err := s.write(ctx, items); err != nil {
		log.Printf("[ERROR] update history item %s: %v", id, err)
	}
}

// Clear removes every entry and the managed images.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Remove(ctx, StorageKey); err != nil {
		log.Printf("[ERROR] clear history: %v", err)
	}
	if err := s.vault.Purge(); err != nil {
		log.Printf("[ERROR] clear history images: %v", err)
	}
}

func (s *Store) load(ctx context.Context) []model.HistoryItem {
	data, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		log.Printf("[ERROR] load history: %v", err)
		return []model.HistoryItem{}
	}
	if !ok || len(data) == 0 {
		return []model.HistoryItem{}
	}

	var items []model.HistoryItem
	if err := json.Unmarshal(data, &items); err != nil {
		log.Printf("[ERROR] load history: decode: %v", err)
		return []model.HistoryItem{}
	}
	if items == nil {
		return []model.HistoryItem{}
	}
	for i := range items {
		items[i].Result.Normalize()
	}
	return items
}

func (s *Store) write(ctx context.Context, items []model.HistoryItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return s.kv.Set(ctx, StorageKey, data)
}

// nextID derives an id from the clock, bumped past every id already issued
// so two saves within the same millisecond still get distinct ids.
func (s *Store) nextID(now time.Time, existing []model.HistoryItem) int64 {
	floor := s.lastID
	for _, item := range existing {
		if n, err := strconv.ParseInt(item.ID, 10, 64); err == nil && n > floor {
			floor = n
		}
	}
	id := now.UnixMilli()
	if id <= floor {
		id = floor + 1
	}
	s.lastID = id
	return id
}

func (s *Store) discardEvicted(evicted, kept []model.HistoryItem) {
	if len(evicted) == 0 {
		return
	}
	inUse := make(map[string]bool, len(kept))
	for _, item := range kept {
		inUse[item.ImageURI] = true
	}
	for _, item := range evicted {
		if item.ImageURI == "" || inUse[item.ImageURI] || !s.vault.Owns(item.ImageURI) {
			continue
		}
		if err := s.vault.Discard(item.ImageURI); err != nil {
			log.Printf("[WARN] discard evicted image %s: %v", item.ImageURI, err)
		}
	}
}
