/*
Package history keeps the rolling record of articles already published in a
briefing, so later runs can recognise repeats and developing stories.
*/
package history

import (
	"log/slog"
	"sort"

	"github.com/shanehull/mikecast/internal/types"
)

const DefaultRetentionDays = 7

// Entry is one previously published story.
type Entry struct {
	Key         string     `json:"key"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Source      string     `json:"source,omitempty"`
	Description string     `json:"description,omitempty"`
	Fingerprint string     `json:"fingerprint"`
	FirstSeen   types.Date `json:"first_seen"`
	LastSeen    types.Date `json:"last_seen"`
}

// Persister reads and writes the full entry set.
type Persister interface {
	Load() (map[string]*Entry, error)
	Save(entries map[string]*Entry) error
	Location() string
}

// Store is the in-memory view of the history, loaded once per run and
// written back once at the end.
type Store struct {
	entries   map[string]*Entry
	persister Persister
	logger    *slog.Logger
}

func NewStore(p Persister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		entries:   make(map[string]*Entry),
		persister: p,
		logger:    logger,
	}
}

// Load replaces the in-memory entries with the persisted ones. An absent or
// unreadable history is not an error: the run starts from an empty store.
func (s *Store) Load() {
	s.entries = make(map[string]*Entry)

	loaded, err := s.persister.Load()
	if err != nil {
		s.logger.Warn("history unreadable, starting fresh", "path", s.persister.Location(), "error", err)
		return
	}

	dropped := 0
	for key, e := range loaded {
		if e == nil || key == "" || (e.FirstSeen.IsZero() && e.LastSeen.IsZero()) {
			dropped++
			continue
		}
		e.Key = key
		if e.FirstSeen.IsZero() {
			e.FirstSeen = e.LastSeen
		}
		if e.LastSeen.Before(e.FirstSeen) {
			e.LastSeen = e.FirstSeen
		}
		s.entries[key] = e
	}
	if dropped > 0 {
		s.logger.Warn("dropped malformed history entries", "count", dropped)
	}
	s.logger.Info("loaded history", "entries", len(s.entries), "path", s.persister.Location())
}

// Prune removes entries last seen retentionDays or more days before today.
// It returns the number of removed entries.
func (s *Store) Prune(today types.Date, retentionDays int) int {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	removed := 0
	for key, e := range s.entries {
		if today.DaysSince(e.LastSeen) >= retentionDays {
			delete(s.entries, key)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("pruned expired history entries", "removed", removed, "remaining", len(s.entries))
	}
	return removed
}

// Upsert inserts e or updates the entry with the same key. LastSeen is
// always set to today; FirstSeen is kept for existing entries.
func (s *Store) Upsert(e Entry, today types.Date) *Entry {
	if existing, ok := s.entries[e.Key]; ok {
		existing.Title = e.Title
		if e.URL != "" {
			existing.URL = e.URL
		}
		if e.Description != "" {
			existing.Description = e.Description
		}
		if existing.Source == "" {
			existing.Source = e.Source
		}
		if e.Fingerprint != "" {
			existing.Fingerprint = e.Fingerprint
		}
		existing.LastSeen = today
		return existing
	}

	entry := e
	entry.FirstSeen = today
	entry.LastSeen = today
	s.entries[entry.Key] = &entry
	return &entry
}

func (s *Store) Get(key string) (*Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Entries returns all entries ordered by key.
func (s *Store) Entries() []*Entry {
	out := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (s *Store) Len() int {
	return len(s.entries)
}

// Save writes the full entry set through the persister.
func (s *Store) Save() error {
	if err := s.persister.Save(s.entries); err != nil {
		return &types.PersistenceError{Op: "save history", Path: s.persister.Location(), Err: err}
	}
	s.logger.Info("saved history", "entries", len(s.entries), "path", s.persister.Location())
	return nil
}

func (s *Store) Location() string {
	return s.persister.Location()
}
