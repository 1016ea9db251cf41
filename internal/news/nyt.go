package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shanehull/mikecast/internal/retry"
	"github.com/shanehull/mikecast/internal/types"
)

const (
	nytSourceName    = "The New York Times"
	nytSearchDateFmt = "20060102"
)

// NYT reads the Top Stories and Article Search APIs.
type NYT struct {
	baseURL string
	apiKey  string
	fetch   fetcher
}

func NewNYT(baseURL, apiKey string, client *http.Client, policy retry.Policy) *NYT {
	return &NYT{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		fetch:   newFetcher(client, policy),
	}
}

// Enabled reports whether an API key is configured.
func (n *NYT) Enabled() bool {
	return n.apiKey != ""
}

type topStoriesResponse struct {
	Results []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		Abstract      string `json:"abstract"`
		PublishedDate string `json:"published_date"`
	} `json:"results"`
}

// TopStories returns up to limit stories from one section.
func (n *NYT) TopStories(ctx context.Context, section string, limit int) ([]types.Candidate, error) {
	q := url.Values{"api-key": {n.apiKey}}
	endpoint := fmt.Sprintf("%s/topstories/v2/%s.json?%s", n.baseURL, url.PathEscape(section), q.Encode())

	raw, err := n.fetch.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var resp topStoriesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode top stories for %s: %w", section, err)
	}

	var out []types.Candidate
	for _, r := range resp.Results {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, types.Candidate{
			Title:       strings.TrimSpace(r.Title),
			URL:         strings.TrimSpace(r.URL),
			Source:      nytSourceName,
			Description: strings.TrimSpace(r.Abstract),
			Published:   r.PublishedDate,
		})
	}
	return out, nil
}

type articleSearchResponse struct {
	Response struct {
		Docs []struct {
			Headline struct {
				Main string `json:"main"`
			} `json:"headline"`
			WebURL  string `json:"web_url"`
			Snippet string `json:"snippet"`
			PubDate string `json:"pub_date"`
		} `json:"docs"`
	} `json:"response"`
}

// ArticleSearch returns up to limit articles matching query published
// between the day before today and today, newest first.
func (n *NYT) ArticleSearch(ctx context.Context, query string, limit int, today types.Date) ([]types.Candidate, error) {
	q := url.Values{
		"q":          {query},
		"begin_date": {today.AddDays(-1).Format(nytSearchDateFmt)},
		"end_date":   {today.Format(nytSearchDateFmt)},
		"sort":       {"newest"},
		"api-key":    {n.apiKey},
	}
	endpoint := n.baseURL + "/search/v2/articlesearch.json?" + q.Encode()

	raw, err := n.fetch.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var resp articleSearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode article search for %q: %w", query, err)
	}

	var out []types.Candidate
	for _, d := range resp.Response.Docs {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, types.Candidate{
			Title:       strings.TrimSpace(d.Headline.Main),
			URL:         strings.TrimSpace(d.WebURL),
			Source:      nytSourceName,
			Description: strings.TrimSpace(d.Snippet),
			Published:   d.PubDate,
		})
	}
	return out, nil
}

// redact drops credentials from a request URL before it is logged.
func redact(u *url.URL) string {
	c := *u
	q := c.Query()
	for _, k := range []string{"api-key", "key", "apikey"} {
		if q.Has(k) {
			q.Set(k, "REDACTED")
		}
	}
	c.RawQuery = q.Encode()
	return c.String()
}
