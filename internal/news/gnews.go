package news

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed/rss"

	"github.com/shanehull/mikecast/internal/retry"
	"github.com/shanehull/mikecast/internal/types"
)

const googleNewsSourceName = "Google News"

// GoogleNews queries the Google News RSS search feed.
type GoogleNews struct {
	baseURL string
	fetch   fetcher
}

func NewGoogleNews(baseURL string, client *http.Client, policy retry.Policy) *GoogleNews {
	return &GoogleNews{baseURL: baseURL, fetch: newFetcher(client, policy)}
}

// Search returns up to limit items for query. The outlet named in each
// item's <source> element becomes the candidate's source.
func (g *GoogleNews) Search(ctx context.Context, query string, limit int) ([]types.Candidate, error) {
	q := url.Values{
		"q":    {query},
		"hl":   {"en-US"},
		"gl":   {"US"},
		"ceid": {"US:en"},
	}
	raw, err := g.fetch.get(ctx, g.baseURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	parser := rss.Parser{}
	feed, err := parser.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS for %q: %w", query, err)
	}

	var out []types.Candidate
	for _, item := range feed.Items {
		if limit > 0 && len(out) >= limit {
			break
		}
		source := googleNewsSourceName
		if item.Source != nil && strings.TrimSpace(item.Source.Title) != "" {
			source = strings.TrimSpace(item.Source.Title)
		}
		out = append(out, types.Candidate{
			Title:       strings.TrimSpace(item.Title),
			URL:         strings.TrimSpace(item.Link),
			Source:      source,
			Description: HTMLToText(item.Description),
			Published:   item.PubDate,
		})
	}
	return out, nil
}
