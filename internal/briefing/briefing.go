/*
Package briefing runs one day's MikeCast: it collects and deduplicates the
news, merges the picks queue, renders the briefing and its audio, then
publishes the artifact and delivers the email.
*/
package briefing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shanehull/mikecast/internal/ai"
	"github.com/shanehull/mikecast/internal/dedup"
	"github.com/shanehull/mikecast/internal/history"
	"github.com/shanehull/mikecast/internal/lock"
	"github.com/shanehull/mikecast/internal/manifest"
	"github.com/shanehull/mikecast/internal/news"
	"github.com/shanehull/mikecast/internal/notify"
	"github.com/shanehull/mikecast/internal/types"
)

// ErrAlreadyPublished is returned when today's artifact exists and the run
// was not forced.
var ErrAlreadyPublished = errors.New("briefing already published for today")

type Collector interface {
	Collect(ctx context.Context, today types.Date) (map[string][]types.Candidate, error)
}

type PicksQueue interface {
	Load() []types.PickItem
	Drain(ids []string) (int, error)
}

type PickMerger interface {
	Merge(ctx context.Context, items []types.PickItem) []types.Pick
}

type Summarizer interface {
	Summarize(ctx context.Context, d types.Digest) (ai.Insights, error)
}

type Speaker interface {
	Synthesize(ctx context.Context, script, path string) error
}

type Sender interface {
	Send(ctx context.Context, msg *notify.RenderedMessage, attachments ...notify.Attachment) error
}

// Options are the run settings taken from the configuration.
type Options struct {
	DataDir       string
	ManifestPath  string
	LockPath      string
	Categories    []string
	RetentionDays int
	Thresholds    dedup.Thresholds
	TotalArticles int
	Location      *time.Location
	Force         bool
}

// Deps are the collaborators of a run. Summarizer, Speaker and Sender are
// optional.
type Deps struct {
	History    history.Persister
	Collector  Collector
	Picks      PicksQueue
	Merger     PickMerger
	Summarizer Summarizer
	Speaker    Speaker
	Sender     Sender
	Renderer   *notify.HTMLEmailRenderer
}

// Result describes a finished run.
type Result struct {
	Digest       types.Digest
	Stats        dedup.Stats
	ArtifactPath string
	AudioPath    string
	Emailed      bool
	Drained      int
}

type Runner struct {
	opts   Options
	deps   Deps
	out    io.Writer
	now    func() time.Time
	logger *slog.Logger
}

func NewRunner(opts Options, deps Deps, out io.Writer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if out == nil {
		out = io.Discard
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.ManifestPath == "" {
		opts.ManifestPath = filepath.Join(opts.DataDir, manifest.FileName)
	}
	if deps.Renderer == nil {
		deps.Renderer = notify.NewHTMLEmailRenderer()
	}
	return &Runner{
		opts:   opts,
		deps:   deps,
		out:    out,
		now:    time.Now,
		logger: logger.With("component", "briefing"),
	}
}

// Today is the run date in the configured zone.
func (r *Runner) Today() types.Date {
	return types.DateOf(r.now().In(r.opts.Location))
}

// Run produces and publishes today's briefing. Only a lock conflict, a
// refused re-run, a cancelled context or a failed artifact write are
// returned as errors; every other failure degrades the output.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.opts.LockPath != "" {
		l, err := lock.TryAcquire(r.opts.LockPath)
		if err != nil {
			return nil, fmt.Errorf("another run is in progress: %w", err)
		}
		defer func() {
			if err := l.Release(); err != nil {
				r.logger.Warn("failed to release lock", "error", err)
			}
		}()
	}

	today := r.Today()
	artifactPath := ArtifactPath(r.opts.DataDir, today)
	exists, err := artifactExists(artifactPath)
	if err != nil {
		return nil, &types.PersistenceError{Op: "stat artifact", Path: artifactPath, Err: err}
	}
	if exists && !r.opts.Force {
		return nil, fmt.Errorf("%s: %w", artifactPath, ErrAlreadyPublished)
	}

	r.logger.Info("starting briefing", "date", today.String())

	store := history.NewStore(r.deps.History, r.logger)
	store.Load()
	store.Prune(today, r.opts.RetentionDays)

	candidates, err := r.deps.Collector.Collect(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to collect news: %w", err)
	}

	classifier := dedup.NewClassifier(store, today, r.opts.Thresholds, r.logger)
	accepted, stats := classifier.Filter(r.opts.Categories, candidates)
	selected := news.SelectTop(accepted, r.opts.TotalArticles)

	items := r.deps.Picks.Load()
	picks := r.deps.Merger.Merge(ctx, items)

	digest := types.Digest{
		Date:       today,
		Categories: r.opts.Categories,
		Articles:   selected,
		Picks:      picks,
	}

	insights := r.insights(ctx, digest)
	rendered, err := r.deps.Renderer.Render(notify.NotificationData{Digest: digest, Insights: insights})
	if err != nil {
		return nil, fmt.Errorf("failed to render briefing: %w", err)
	}
	script := ai.BuildScript(digest)

	audioPath := r.synthesize(ctx, script, today)
	audioFile := ""
	if audioPath != "" {
		audioFile = filepath.Base(audioPath)
	}

	artifact := NewArtifact(digest, rendered.HTML, script, audioFile, r.now().In(r.opts.Location))
	if err := WriteArtifact(artifactPath, artifact); err != nil {
		// Picks and history stay as they were so the next run retries.
		return nil, err
	}
	r.logger.Info("wrote artifact", "path", artifactPath)

	res := &Result{Digest: digest, Stats: stats, ArtifactPath: artifactPath, AudioPath: audioPath}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	if n, err := r.deps.Picks.Drain(ids); err != nil {
		r.logger.Error("failed to drain picks queue", "error", err)
	} else {
		res.Drained = n
	}

	if err := store.Save(); err != nil {
		r.logger.Error("failed to save history", "error", err)
	}

	r.updateManifest(today)

	res.Emailed = r.deliver(ctx, rendered, script, audioPath, today)

	notify.Report(r.out, notify.RunReport{
		Digest:       digest,
		New:          stats.New,
		Updated:      stats.Updated,
		Duplicates:   stats.Duplicate,
		Skipped:      stats.Skipped,
		ArtifactPath: artifactPath,
		AudioPath:    audioPath,
		Emailed:      res.Emailed,
		HistoryPath:  store.Location(),
	})
	return res, nil
}

func (r *Runner) insights(ctx context.Context, d types.Digest) ai.Insights {
	if r.deps.Summarizer == nil {
		return ai.Heuristic(d)
	}
	in, err := r.deps.Summarizer.Summarize(ctx, d)
	if err != nil {
		r.logger.Warn("AI summary failed, using heuristic insights", "error", err)
		return ai.Heuristic(d)
	}
	return in
}

func (r *Runner) synthesize(ctx context.Context, script string, today types.Date) string {
	if r.deps.Speaker == nil {
		r.logger.Info("speech synthesis not configured, skipping audio")
		return ""
	}
	path := filepath.Join(r.opts.DataDir, AudioFileName(today))
	if err := r.deps.Speaker.Synthesize(ctx, script, path); err != nil {
		r.logger.Error("audio generation failed", "error", &types.DeliveryError{Channel: "tts", Err: err})
		return ""
	}
	return path
}

func (r *Runner) updateManifest(today types.Date) {
	m, err := manifest.Load(r.opts.ManifestPath, r.opts.DataDir)
	if err != nil {
		r.logger.Error("failed to load manifest", "error", err)
		return
	}
	m.Append(today)
	if err := m.Save(); err != nil {
		r.logger.Error("failed to save manifest", "error", err)
		return
	}
	r.logger.Info("updated manifest", "dates", len(m.Dates()), "latest", m.Latest())
}

func (r *Runner) deliver(ctx context.Context, msg *notify.RenderedMessage, script, audioPath string, today types.Date) bool {
	if r.deps.Sender == nil {
		return false
	}
	attachments := []notify.Attachment{{
		Name:        ScriptFileName(today),
		ContentType: "text/plain; charset=utf-8",
		Data:        []byte(script),
	}}
	if audioPath != "" {
		if _, err := os.Stat(audioPath); err == nil {
			attachments = append(attachments, notify.Attachment{
				Name:        AudioFileName(today),
				ContentType: "audio/mpeg",
				Path:        audioPath,
			})
		}
	}
	if err := r.deps.Sender.Send(ctx, msg, attachments...); err != nil {
		r.logger.Error("email delivery failed", "error", &types.DeliveryError{Channel: "email", Err: err})
		return false
	}
	return true
}
