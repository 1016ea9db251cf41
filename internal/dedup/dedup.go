/*
Package dedup decides whether a fetched article is new, a repeat of a story
already published, or a repeat that has developed enough to be shown again.
*/
package dedup

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/shanehull/mikecast/internal/history"
	"github.com/shanehull/mikecast/internal/types"
)

const (
	DefaultMatchThreshold  = 0.8
	DefaultUpdateThreshold = 0.9

	titleKeyPrefix = "title:"
)

type Verdict int

const (
	New Verdict = iota
	Duplicate
	UpdatedDuplicate
)

func (v Verdict) String() string {
	switch v {
	case New:
		return "new"
	case Duplicate:
		return "duplicate"
	case UpdatedDuplicate:
		return "updated"
	default:
		return "unknown"
	}
}

// Result is the classification of one candidate. Match is nil for New.
type Result struct {
	Verdict Verdict
	Key     string
	Match   *history.Entry
	Overlap float64
}

// Thresholds are Jaccard ratios. Match decides "same story"; a title that
// overlaps its match by less than Update counts as a significant update.
type Thresholds struct {
	Match  float64
	Update float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Match: DefaultMatchThreshold, Update: DefaultUpdateThreshold}
}

// Classifier runs candidates against a pruned history store. It is not safe
// for concurrent use.
type Classifier struct {
	store      *history.Store
	today      types.Date
	thresholds Thresholds
	logger     *slog.Logger

	// keys accepted earlier in this run
	accepted map[string]bool
}

func NewClassifier(store *history.Store, today types.Date, t Thresholds, logger *slog.Logger) *Classifier {
	if t.Match <= 0 {
		t.Match = DefaultMatchThreshold
	}
	if t.Update <= 0 {
		t.Update = DefaultUpdateThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		store:      store,
		today:      today,
		thresholds: t,
		logger:     logger,
		accepted:   make(map[string]bool),
	}
}

// Classify decides the verdict for c without touching the store.
func (c *Classifier) Classify(cand types.Candidate) (Result, error) {
	title := strings.TrimSpace(cand.Title)
	link := strings.TrimSpace(cand.URL)
	if title == "" && link == "" {
		return Result{}, &types.InputError{Reason: "missing both title and url"}
	}

	fp := Fingerprint(title)
	key := Key(link, title)
	if key == "" {
		return Result{}, &types.InputError{Reason: "title has no usable tokens"}
	}

	if entry, ok := c.store.Get(key); ok {
		return c.judge(key, cand, fp, entry, 1), nil
	}

	match, overlap := c.bestFuzzyMatch(fp)
	if match != nil && overlap >= c.thresholds.Match {
		return c.judge(key, cand, fp, match, overlap), nil
	}

	return Result{Verdict: New, Key: key}, nil
}

// Apply classifies cand and records New and UpdatedDuplicate verdicts in
// the store.
func (c *Classifier) Apply(cand types.Candidate) (Result, error) {
	res, err := c.Classify(cand)
	if err != nil {
		return res, err
	}

	title := strings.TrimSpace(cand.Title)
	fresh := history.Entry{
		Key:         res.Key,
		Title:       title,
		URL:         strings.TrimSpace(cand.URL),
		Source:      cand.Source,
		Description: cand.Description,
		Fingerprint: Fingerprint(title),
	}

	switch res.Verdict {
	case New:
		c.store.Upsert(fresh, c.today)
		c.accepted[res.Key] = true
	case UpdatedDuplicate:
		updated := *res.Match
		updated.Title = title
		updated.Description = cand.Description
		updated.Fingerprint = fresh.Fingerprint
		res.Match = c.store.Upsert(updated, c.today)
		c.accepted[res.Match.Key] = true

		// Remember the new outlet's link too, so tomorrow it is a plain
		// duplicate instead of another update.
		if res.Key != res.Match.Key {
			c.store.Upsert(fresh, c.today)
			c.accepted[res.Key] = true
		}
	}

	c.logger.Debug("classified candidate", "verdict", res.Verdict, "key", res.Key, "overlap", res.Overlap)
	return res, nil
}

func (c *Classifier) judge(key string, cand types.Candidate, fp string, entry *history.Entry, overlap float64) Result {
	res := Result{Key: key, Match: entry, Overlap: overlap, Verdict: Duplicate}
	if c.accepted[entry.Key] {
		// Same story from another feed in this run.
		return res
	}
	if c.significantUpdate(cand, fp, entry) {
		res.Verdict = UpdatedDuplicate
	}
	return res
}

func (c *Classifier) significantUpdate(cand types.Candidate, fp string, entry *history.Entry) bool {
	if Overlap(fp, entry.Fingerprint) < c.thresholds.Update {
		return true
	}
	if cand.Source != "" && entry.Source != "" && !strings.EqualFold(cand.Source, entry.Source) {
		return true
	}
	if cand.Description != "" && entry.Description != "" &&
		Overlap(Fingerprint(cand.Description), Fingerprint(entry.Description)) < c.thresholds.Update {
		return true
	}
	return false
}

func (c *Classifier) bestFuzzyMatch(fp string) (*history.Entry, float64) {
	if fp == "" {
		return nil, 0
	}
	var (
		best      *history.Entry
		bestRatio float64
	)
	for _, e := range c.store.Entries() {
		r := Overlap(fp, e.Fingerprint)
		if r > bestRatio {
			best, bestRatio = e, r
		}
	}
	return best, bestRatio
}

// Key returns the identity of an article: its normalized URL, or the title
// fingerprint when there is no URL.
func Key(rawURL, title string) string {
	if k := NormalizeURL(rawURL); k != "" {
		return k
	}
	fp := Fingerprint(title)
	if fp == "" {
		return ""
	}
	return titleKeyPrefix + fp
}

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// NormalizeURL drops scheme, "www.", query, fragment and trailing slashes and
// lower-cases the rest. "https://www.NYT.com/a1/?x=1" becomes "nyt.com/a1".
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !schemeRe.MatchString(raw) {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		s := schemeRe.ReplaceAllString(raw, "")
		if i := strings.IndexAny(s, "?#"); i >= 0 {
			s = s[:i]
		}
		return strings.TrimRight(strings.ToLower(s), "/")
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	path := strings.TrimRight(strings.ToLower(u.EscapedPath()), "/")
	return host + path
}
