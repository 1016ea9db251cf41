package dedup

import (
	"errors"
	"strings"

	"github.com/shanehull/mikecast/internal/types"
)

// OutputTitle is the title as published: updated stories get the
// "[Updated] " marker.
func OutputTitle(res Result, title string) string {
	title = strings.TrimSpace(title)
	if res.Verdict == UpdatedDuplicate && !strings.HasPrefix(title, types.UpdatedPrefix) {
		return types.UpdatedPrefix + title
	}
	return title
}

// Stats counts verdicts over a batch.
type Stats struct {
	New       int
	Updated   int
	Duplicate int
	Skipped   int
}

// Filter runs every candidate through the classifier in category order and
// returns the articles to publish. Plain duplicates are dropped; malformed
// candidates are logged and skipped.
func (c *Classifier) Filter(categories []string, candidates map[string][]types.Candidate) (map[string][]types.Article, Stats) {
	var stats Stats
	out := make(map[string][]types.Article, len(categories))

	for _, cat := range categories {
		out[cat] = []types.Article{}
		for _, cand := range candidates[cat] {
			res, err := c.Apply(cand)
			if err != nil {
				var inputErr *types.InputError
				if errors.As(err, &inputErr) {
					c.logger.Warn("skipping candidate", "category", cat, "source", cand.Source, "reason", inputErr.Reason)
					stats.Skipped++
					continue
				}
				c.logger.Error("classification failed", "category", cat, "error", err)
				stats.Skipped++
				continue
			}

			switch res.Verdict {
			case Duplicate:
				stats.Duplicate++
				continue
			case UpdatedDuplicate:
				stats.Updated++
			default:
				stats.New++
			}

			out[cat] = append(out[cat], types.Article{
				Title:       OutputTitle(res, cand.Title),
				URL:         strings.TrimSpace(cand.URL),
				Source:      cand.Source,
				Description: cand.Description,
			})
		}
	}

	c.logger.Info("deduplicated candidates",
		"new", stats.New, "updated", stats.Updated, "duplicates", stats.Duplicate, "skipped", stats.Skipped)
	return out, stats
}
