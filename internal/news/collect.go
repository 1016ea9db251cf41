/*
Package news collects the day's candidate articles from the configured
sources and trims the accepted set to the briefing's size.
*/
package news

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/shanehull/mikecast/internal/config"
	"github.com/shanehull/mikecast/internal/types"
)

// Collector walks every configured source once per run. Requests are
// paced by a shared limiter and run sequentially.
type Collector struct {
	nyt     *NYT
	gnews   *GoogleNews
	cfg     config.SourcesConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewCollector(nyt *NYT, gnews *GoogleNews, cfg config.SourcesConfig, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.RequestInterval
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &Collector{
		nyt:     nyt,
		gnews:   gnews,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger,
	}
}

// Collect returns candidates keyed by category. Every configured category
// is present, possibly empty. A failing source is logged and skipped.
func (c *Collector) Collect(ctx context.Context, today types.Date) (map[string][]types.Candidate, error) {
	out := make(map[string][]types.Candidate, len(c.cfg.Categories))
	for _, cat := range c.cfg.Categories {
		out[cat.Name] = nil
	}

	add := func(category string, items []types.Candidate) {
		for i := range items {
			items[i].Category = category
		}
		out[category] = append(out[category], items...)
	}

	if c.nyt != nil && c.nyt.Enabled() {
		for _, s := range c.cfg.NYTSections {
			if _, ok := out[s.Category]; !ok {
				continue
			}
			items, err := c.call(ctx, "nyt top stories "+s.Section, func() ([]types.Candidate, error) {
				return c.nyt.TopStories(ctx, s.Section, c.cfg.TopStoriesLimit)
			})
			if err != nil {
				return out, err
			}
			add(s.Category, items)
		}
		for _, cat := range c.cfg.Categories {
			for _, q := range cat.NYTQueries {
				items, err := c.call(ctx, fmt.Sprintf("nyt search %q", q), func() ([]types.Candidate, error) {
					return c.nyt.ArticleSearch(ctx, q, c.cfg.MaxResults, today)
				})
				if err != nil {
					return out, err
				}
				add(cat.Name, items)
			}
		}
	} else {
		c.logger.Warn("NYT API key not set, skipping NYT sources")
	}

	if c.gnews != nil {
		for _, cat := range c.cfg.Categories {
			for _, q := range cat.Queries {
				items, err := c.call(ctx, fmt.Sprintf("google news %q", q), func() ([]types.Candidate, error) {
					return c.gnews.Search(ctx, q, c.cfg.MaxResults)
				})
				if err != nil {
					return out, err
				}
				add(cat.Name, items)
			}
		}
	}

	total := 0
	for _, items := range out {
		total += len(items)
	}
	c.logger.Info("collected candidates", "total", total, "categories", len(out))
	return out, nil
}

// call waits for the limiter and runs fn. Source failures are logged and
// swallowed; only a cancelled context is returned.
func (c *Collector) call(ctx context.Context, name string, fn func() ([]types.Candidate, error)) ([]types.Candidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	items, err := fn()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("source failed", "error", &types.FetchError{Source: name, Err: err})
		return nil, nil
	}
	c.logger.Debug("fetched source", "source", name, "items", len(items))
	return items, nil
}
