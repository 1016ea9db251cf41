package history

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/shanehull/mikecast/internal/logging"
	"github.com/shanehull/mikecast/internal/types"
)

func newJSONStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "briefing_history.json")
	return NewStore(NewJSONFile(path), logging.Discard()), path
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	s, _ := newJSONStore(t)
	s.Load()
	if s.Len() != 0 {
		t.Fatalf("len = %d, want 0", s.Len())
	}
}

func TestLoadMalformedFileStartsEmpty(t *testing.T) {
	s, path := newJSONStore(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s.Load()
	if s.Len() != 0 {
		t.Fatalf("len = %d, want 0", s.Len())
	}
}

func TestLoadLegacyListFormatStartsEmpty(t *testing.T) {
	s, path := newJSONStore(t)
	legacy := `[{"title": "x", "url": "https://a", "date": "2026-02-01T10:00:00+00:00"}]`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}
	s.Load()
	if s.Len() != 0 {
		t.Fatalf("len = %d, want 0", s.Len())
	}
}

func TestLoadDropsOnlyBadEntries(t *testing.T) {
	s, path := newJSONStore(t)
	doc := `{
  "nyt.com/good": {"title": "Good", "fingerprint": "good", "first_seen": "2026-02-20", "last_seen": "2026-02-21"},
  "nyt.com/no-dates": {"title": "Broken", "first_seen": null, "last_seen": "yesterday"},
  "nyt.com/no-first": {"title": "Half", "first_seen": null, "last_seen": "2026-02-22"}
}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	s.Load()

	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
	if _, ok := s.Get("nyt.com/no-dates"); ok {
		t.Fatal("entry without any usable date should be dropped")
	}
	half, ok := s.Get("nyt.com/no-first")
	if !ok || half.FirstSeen.String() != "2026-02-22" || half.LastSeen.String() != "2026-02-22" {
		t.Fatalf("half entry = %+v", half)
	}
	if good, ok := s.Get("nyt.com/good"); !ok || good.FirstSeen.String() != "2026-02-20" {
		t.Fatalf("good entry = %+v", good)
	}
}

func TestUpsertKeepsFirstSeen(t *testing.T) {
	s, _ := newJSONStore(t)
	d1 := types.MustDate("2026-02-20")
	d2 := types.MustDate("2026-02-21")

	s.Upsert(Entry{Key: "k", Title: "one", Source: "NYT"}, d1)
	got := s.Upsert(Entry{Key: "k", Title: "two", Source: "AP"}, d2)

	if got.FirstSeen.String() != "2026-02-20" || got.LastSeen.String() != "2026-02-21" {
		t.Fatalf("dates = %s..%s", got.FirstSeen, got.LastSeen)
	}
	if got.Title != "two" {
		t.Fatalf("title = %q, want two", got.Title)
	}
	if got.Source != "NYT" {
		t.Fatalf("source = %q, want original NYT", got.Source)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
}

func TestPruneRetentionBoundary(t *testing.T) {
	s, _ := newJSONStore(t)
	today := types.MustDate("2026-02-28")
	for _, d := range []string{"2026-02-20", "2026-02-21", "2026-02-22", "2026-02-28"} {
		s.Upsert(Entry{Key: d, Title: d}, types.MustDate(d))
	}

	removed := s.Prune(today, 7)
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	for _, gone := range []string{"2026-02-20", "2026-02-21"} {
		if _, ok := s.Get(gone); ok {
			t.Errorf("entry %s survived prune", gone)
		}
	}
	for _, kept := range []string{"2026-02-22", "2026-02-28"} {
		if _, ok := s.Get(kept); !ok {
			t.Errorf("entry %s was pruned", kept)
		}
	}
}

func TestPruneNothingOlderThanWindowSurvives(t *testing.T) {
	start := types.MustDate("2026-01-01")
	for offset := 0; offset < 30; offset++ {
		s, _ := newJSONStore(t)
		for i := 0; i < 30; i++ {
			d := start.AddDays(i)
			s.Upsert(Entry{Key: d.String(), Title: d.String()}, d)
		}
		today := start.AddDays(offset)
		s.Prune(today, 7)
		for _, e := range s.Entries() {
			if today.DaysSince(e.LastSeen) >= 7 {
				t.Fatalf("today %s: entry %s outside window survived", today, e.LastSeen)
			}
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, path := newJSONStore(t)
	s.Upsert(Entry{Key: "nyt.com/a1", Title: "Fed holds rates", URL: "https://nyt.com/a1", Fingerprint: "fed holds rates"}, types.MustDate("2026-02-20"))
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded := NewStore(NewJSONFile(path), logging.Discard())
	reloaded.Load()
	e, ok := reloaded.Get("nyt.com/a1")
	if !ok {
		t.Fatal("entry missing after reload")
	}
	if e.Title != "Fed holds rates" || e.LastSeen.String() != "2026-02-20" || e.Fingerprint != "fed holds rates" {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestPruneSaveIsIdempotent(t *testing.T) {
	s, path := newJSONStore(t)
	today := types.MustDate("2026-02-21")
	s.Upsert(Entry{Key: "a", Title: "A"}, types.MustDate("2026-02-10"))
	s.Upsert(Entry{Key: "b", Title: "B"}, types.MustDate("2026-02-20"))

	run := func() []byte {
		st := NewStore(NewJSONFile(path), logging.Discard())
		st.Load()
		st.Prune(today, 7)
		if err := st.Save(); err != nil {
			t.Fatalf("save: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		return data
	}

	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	first := run()
	second := run()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("second run changed history:\n%s\n---\n%s", first, second)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	p, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { p.Close() })

	s := NewStore(p, logging.Discard())
	s.Load()
	s.Upsert(Entry{Key: "a", Title: "A", Source: "NYT"}, types.MustDate("2026-02-19"))
	s.Upsert(Entry{Key: "a", Title: "A2"}, types.MustDate("2026-02-20"))
	s.Upsert(Entry{Key: "b", Title: "B"}, types.MustDate("2026-02-20"))
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Saving a smaller set must drop the missing rows.
	s.Prune(types.MustDate("2026-02-27"), 7)
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded := NewStore(p, logging.Discard())
	reloaded.Load()
	if reloaded.Len() != 0 {
		t.Fatalf("len = %d, want 0 after pruning everything", reloaded.Len())
	}

	s.Upsert(Entry{Key: "c", Title: "C"}, types.MustDate("2026-02-27"))
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	reloaded.Load()
	e, ok := reloaded.Get("c")
	if !ok || e.FirstSeen.String() != "2026-02-27" {
		t.Fatalf("unexpected entry: %+v", e)
	}
}
