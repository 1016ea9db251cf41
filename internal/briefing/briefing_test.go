package briefing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shanehull/mikecast/internal/ai"
	"github.com/shanehull/mikecast/internal/dedup"
	"github.com/shanehull/mikecast/internal/history"
	"github.com/shanehull/mikecast/internal/lock"
	"github.com/shanehull/mikecast/internal/logging"
	"github.com/shanehull/mikecast/internal/manifest"
	"github.com/shanehull/mikecast/internal/notify"
	"github.com/shanehull/mikecast/internal/picks"
	"github.com/shanehull/mikecast/internal/types"
)

var testCategories = []string{"AI & Tech", "Business & Markets"}

type fakeCollector struct {
	byCategory map[string][]types.Candidate
}

func (f *fakeCollector) Collect(_ context.Context, _ types.Date) (map[string][]types.Candidate, error) {
	return f.byCategory, nil
}

type titleMerger struct{}

func (titleMerger) Merge(_ context.Context, items []types.PickItem) []types.Pick {
	var out []types.Pick
	for _, it := range items {
		out = append(out, types.Pick{Title: it.Title, Summary: it.BodyText})
	}
	return out
}

type fakeSpeaker struct {
	err error
}

func (f *fakeSpeaker) Synthesize(_ context.Context, _ string, path string) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(path, []byte("ID3"), 0o644)
}

type failingSummarizer struct{}

func (failingSummarizer) Summarize(context.Context, types.Digest) (ai.Insights, error) {
	return ai.Insights{}, errors.New("quota exceeded")
}

type fakeSender struct {
	msgs        []*notify.RenderedMessage
	attachments [][]notify.Attachment
	err         error
}

func (f *fakeSender) Send(_ context.Context, msg *notify.RenderedMessage, attachments ...notify.Attachment) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	f.attachments = append(f.attachments, attachments)
	return nil
}

type harness struct {
	dataDir   string
	histPath  string
	queue     *picks.Queue
	collector *fakeCollector
	sender    *fakeSender
	out       bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	h := &harness{
		dataDir:  filepath.Join(root, "data"),
		histPath: filepath.Join(root, "briefing_history.json"),
		queue:    picks.NewQueue(filepath.Join(root, "mikes_picks.json"), logging.Discard()),
		collector: &fakeCollector{byCategory: map[string][]types.Candidate{
			"AI & Tech": {
				{Title: "OpenAI ships new model", URL: "https://example.com/ai-1", Source: "Reuters"},
				{Title: "Chip export rules tightened", URL: "https://example.com/ai-2", Source: "The New York Times"},
			},
			"Business & Markets": {
				{Title: "Markets rally on rate cut hopes", URL: "https://example.com/biz-1", Source: "Bloomberg"},
			},
		}},
		sender: &fakeSender{},
	}
	return h
}

func (h *harness) runner(day string, force bool, deps func(*Deps)) *Runner {
	d := Deps{
		History:   history.NewJSONFile(h.histPath),
		Collector: h.collector,
		Picks:     h.queue,
		Merger:    titleMerger{},
		Sender:    h.sender,
	}
	if deps != nil {
		deps(&d)
	}
	r := NewRunner(Options{
		DataDir:       h.dataDir,
		LockPath:      filepath.Join(filepath.Dir(h.dataDir), "mikecast.lock"),
		Categories:    testCategories,
		RetentionDays: 7,
		Thresholds:    dedup.DefaultThresholds(),
		TotalArticles: 25,
		Force:         force,
	}, d, &h.out, logging.Discard())
	ts := types.MustDate(day).Add(9 * time.Hour)
	r.now = func() time.Time { return ts }
	return r
}

func TestRunPublishesBriefing(t *testing.T) {
	h := newHarness(t)
	if _, err := h.queue.Add(types.PickItem{Kind: types.PickText, Title: "Weekend reading", BodyText: "A long essay."}); err != nil {
		t.Fatal(err)
	}

	res, err := h.runner("2025-03-01", false, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Stats.New != 3 || res.Drained != 1 || !res.Emailed {
		t.Fatalf("result = %+v", res)
	}

	a, err := ReadArtifact(filepath.Join(h.dataDir, "2025-03-01.json"))
	if err != nil {
		t.Fatal(err)
	}
	if a.Date != "2025-03-01" || a.DateDisplay != "March 01, 2025" {
		t.Errorf("dates = %q / %q", a.Date, a.DateDisplay)
	}
	if a.AudioFile != nil {
		t.Errorf("audio_file = %q, want null", *a.AudioFile)
	}
	if len(a.Articles["AI & Tech"]) != 2 || len(a.Articles["Business & Markets"]) != 1 {
		t.Errorf("articles = %+v", a.Articles)
	}
	if len(a.MikesPicks) != 1 || a.MikesPicks[0].Title != "Weekend reading" {
		t.Errorf("picks = %+v", a.MikesPicks)
	}
	if !strings.Contains(a.PodcastScript, "welcome to MikeCast") || !strings.Contains(a.HTMLBriefing, "Weekend reading") {
		t.Error("artifact is missing the script or the rendered briefing")
	}
	if _, err := time.Parse(time.RFC3339, a.GeneratedAt); err != nil {
		t.Errorf("generated_at = %q: %v", a.GeneratedAt, err)
	}

	if left := h.queue.Load(); len(left) != 0 {
		t.Errorf("queue not drained: %+v", left)
	}

	m, err := manifest.Load(filepath.Join(h.dataDir, manifest.FileName), h.dataDir)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Dates(); len(got) != 1 || got[0] != "2025-03-01" {
		t.Errorf("manifest = %v", got)
	}

	entries, err := history.NewJSONFile(h.histPath).Load()
	if err != nil || len(entries) != 3 {
		t.Errorf("history entries = %d, err = %v", len(entries), err)
	}

	if len(h.sender.attachments) != 1 || len(h.sender.attachments[0]) != 1 ||
		h.sender.attachments[0][0].Name != "MikeCast_Script_2025-03-01.txt" {
		t.Errorf("attachments = %+v", h.sender.attachments)
	}
	if h.sender.msgs[0].Subject != "MikeCast Daily Briefing — March 01, 2025" {
		t.Errorf("subject = %q", h.sender.msgs[0].Subject)
	}
	if !strings.Contains(h.out.String(), "3 STORIES, 1 PICKS") {
		t.Errorf("report = %s", h.out.String())
	}
}

func TestRunNextDaySuppressesRepeats(t *testing.T) {
	h := newHarness(t)
	if _, err := h.runner("2025-03-01", false, nil).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	h.collector.byCategory["AI & Tech"][0] = types.Candidate{
		Title:  "OpenAI ships new model as shares jump",
		URL:    "https://www.example.com/ai-1/",
		Source: "Reuters",
	}
	res, err := h.runner("2025-03-02", false, nil).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.New != 0 || res.Stats.Updated != 1 || res.Stats.Duplicate != 2 {
		t.Fatalf("stats = %+v", res.Stats)
	}

	a, err := ReadArtifact(filepath.Join(h.dataDir, "2025-03-02.json"))
	if err != nil {
		t.Fatal(err)
	}
	tech := a.Articles["AI & Tech"]
	if len(tech) != 1 || tech[0].Title != "[Updated] OpenAI ships new model as shares jump" {
		t.Errorf("AI & Tech = %+v", tech)
	}
	if got := a.Articles["Business & Markets"]; got == nil || len(got) != 0 {
		t.Errorf("Business & Markets = %#v, want empty list", got)
	}

	raw, err := os.ReadFile(filepath.Join(h.dataDir, manifest.FileName))
	if err != nil {
		t.Fatal(err)
	}
	var idx manifest.Index
	if err := json.Unmarshal(raw, &idx); err != nil {
		t.Fatal(err)
	}
	if len(idx.Dates) != 2 || idx.Dates[0] != "2025-03-02" || idx.Dates[1] != "2025-03-01" {
		t.Errorf("manifest dates = %v", idx.Dates)
	}
}

func TestRunRefusesRerunWithoutForce(t *testing.T) {
	h := newHarness(t)
	if _, err := h.runner("2025-03-01", false, nil).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	_, err := h.runner("2025-03-01", false, nil).Run(context.Background())
	if !errors.Is(err, ErrAlreadyPublished) {
		t.Fatalf("err = %v, want ErrAlreadyPublished", err)
	}

	res, err := h.runner("2025-03-01", true, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("forced run: %v", err)
	}
	if res.Stats.Duplicate != 3 {
		t.Errorf("forced rerun stats = %+v", res.Stats)
	}
}

func TestRunKeepsPicksWhenArtifactWriteFails(t *testing.T) {
	h := newHarness(t)
	if _, err := h.queue.Add(types.PickItem{Kind: types.PickURL, URL: "https://example.com/pick"}); err != nil {
		t.Fatal(err)
	}

	// A non-empty directory where the artifact should go makes the rename fail.
	blocker := filepath.Join(h.dataDir, "2025-03-01.json")
	if err := os.MkdirAll(filepath.Join(blocker, "x"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := h.runner("2025-03-01", true, nil).Run(context.Background())
	var perr *types.PersistenceError
	if !errors.As(err, &perr) || perr.Op != "write artifact" {
		t.Fatalf("err = %v, want artifact PersistenceError", err)
	}

	if left := h.queue.Load(); len(left) != 1 {
		t.Errorf("queue = %+v, want the pick kept", left)
	}
	if _, err := os.Stat(h.histPath); !os.IsNotExist(err) {
		t.Errorf("history should not be saved, stat err = %v", err)
	}
	if len(h.sender.msgs) != 0 {
		t.Error("email sent for a failed run")
	}
}

func TestRunDegradesOnDeliveryFailures(t *testing.T) {
	h := newHarness(t)
	h.sender.err = errors.New("smtp down")

	res, err := h.runner("2025-03-01", false, func(d *Deps) {
		d.Speaker = &fakeSpeaker{err: errors.New("tts down")}
		d.Summarizer = failingSummarizer{}
	}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Emailed || res.AudioPath != "" {
		t.Errorf("result = %+v", res)
	}

	a, err := ReadArtifact(res.ArtifactPath)
	if err != nil {
		t.Fatal(err)
	}
	if a.AudioFile != nil {
		t.Error("audio_file should be null after a TTS failure")
	}
	if !strings.Contains(a.HTMLBriefing, "covers 3 stories across 2 categories.") {
		t.Error("heuristic insights not used")
	}
}

func TestRunAttachesAudio(t *testing.T) {
	h := newHarness(t)
	res, err := h.runner("2025-03-01", false, func(d *Deps) {
		d.Speaker = &fakeSpeaker{}
	}).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	a, err := ReadArtifact(res.ArtifactPath)
	if err != nil {
		t.Fatal(err)
	}
	if a.AudioFile == nil || *a.AudioFile != "MikeCast_2025-03-01.mp3" {
		t.Fatalf("audio_file = %v", a.AudioFile)
	}
	atts := h.sender.attachments[0]
	if len(atts) != 2 || atts[1].Name != "MikeCast_2025-03-01.mp3" || atts[1].Path != filepath.Join(h.dataDir, "MikeCast_2025-03-01.mp3") {
		t.Errorf("attachments = %+v", atts)
	}
}

func TestRunFailsFastWhenLocked(t *testing.T) {
	h := newHarness(t)
	r := h.runner("2025-03-01", false, nil)

	held, err := lock.TryAcquire(r.opts.LockPath)
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release()

	if _, err := r.Run(context.Background()); !errors.Is(err, lock.ErrHeld) {
		t.Fatalf("err = %v, want ErrHeld", err)
	}
	if _, err := os.Stat(filepath.Join(h.dataDir, "2025-03-01.json")); !os.IsNotExist(err) {
		t.Error("artifact written while locked")
	}
}
