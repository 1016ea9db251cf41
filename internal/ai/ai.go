/*
Package ai produces the written and spoken parts of the briefing: the
executive summary and trend notes from Gemini, the podcast script, and the
narrated audio from OpenAI speech synthesis.
*/
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/shanehull/mikecast/internal/retry"
	"github.com/shanehull/mikecast/internal/types"
)

// Insights is the editorial layer on top of the article list.
type Insights struct {
	ExecutiveSummary string   `json:"executive_summary"`
	KeyTrends        []string `json:"key_trends"`
	WhatToWatch      []string `json:"what_to_watch"`
}

type SummarizerConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Retry      retry.Policy
}

// Summarizer asks Gemini for Insights over a digest.
type Summarizer struct {
	client *genai.Client
	model  string
	policy retry.Policy
	logger *slog.Logger
}

func NewSummarizer(ctx context.Context, cfg SummarizerConfig, logger *slog.Logger) (*Summarizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Summarizer{client: client, model: cfg.Model, policy: cfg.Retry, logger: logger}, nil
}

// Summarize returns Insights for the digest. Empty fields in the model's
// answer are filled from the heuristic version.
func (s *Summarizer) Summarize(ctx context.Context, d types.Digest) (Insights, error) {
	start := time.Now()
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildUserPrompt(d)}},
		},
	}
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    getResponseSchema(),
	}

	var resp *genai.GenerateContentResponse
	err := retry.Do(ctx, s.policy, func(attempt int) error {
		r, err := s.client.Models.GenerateContent(ctx, s.model, contents, genCfg)
		if err != nil {
			s.logger.Warn("gemini call failed", "attempt", attempt, "error", err)
			return retryable(ctx, err)
		}
		resp = r
		return nil
	})
	if err != nil {
		return Insights{}, fmt.Errorf("gemini API call failed: %w", err)
	}

	respText := resp.Text()
	var insights Insights
	if err := json.Unmarshal([]byte(respText), &insights); err != nil {
		return Insights{}, fmt.Errorf("failed to unmarshal gemini JSON response: %w. Raw text: %s", err, respText)
	}
	s.logger.Debug("gemini insights", "model", s.model, "duration", time.Since(start), "trends", len(insights.KeyTrends))

	fallback := Heuristic(d)
	if strings.TrimSpace(insights.ExecutiveSummary) == "" {
		insights.ExecutiveSummary = fallback.ExecutiveSummary
	}
	if len(insights.KeyTrends) == 0 {
		insights.KeyTrends = fallback.KeyTrends
	}
	if len(insights.WhatToWatch) == 0 {
		insights.WhatToWatch = fallback.WhatToWatch
	}
	return insights, nil
}

func getResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"executive_summary": {
				Type:        genai.TypeString,
				Description: "Two to four sentences covering the most important stories of the day.",
			},
			"key_trends": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Two to four short observations about themes that connect several stories.",
			},
			"what_to_watch": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Two to five concrete upcoming events or open questions worth following.",
			},
		},
		Required: []string{"executive_summary", "key_trends", "what_to_watch"},
	}
}

var watchByCategory = map[string]string{
	"AI & Tech":          "AI sector developments and regulatory moves",
	"Business & Markets": "Market reactions and earnings reports",
	"Companies":          "Big Tech product launches and strategic shifts",
	"NY Sports":          "Upcoming NY sports matchups and trade rumours",
}

// Heuristic builds Insights from the digest alone. It is used when no
// model is configured or the model call fails.
func Heuristic(d types.Digest) Insights {
	var (
		lead    []string
		watch   []string
		busiest string
		most    int
	)
	for _, cat := range d.NonEmpty() {
		arts := d.Articles[cat]
		lead = append(lead, fmt.Sprintf("%s: %s", cat, arts[0].DisplayTitle()))
		if len(arts) > most {
			busiest, most = cat, len(arts)
		}
		if w, ok := watchByCategory[cat]; ok {
			watch = append(watch, w)
		} else {
			watch = append(watch, "Further developments in "+cat)
		}
	}

	summary := "No major stories today."
	if len(lead) > 0 {
		summary = strings.Join(lead, " | ")
	}

	trends := []string{fmt.Sprintf("Today's briefing covers %d stories across %d categories.", d.Total(), len(d.NonEmpty()))}
	if most > 5 {
		trends = append(trends, fmt.Sprintf("%s continues to dominate headlines.", busiest))
	}
	updated := 0
	for _, arts := range d.Articles {
		for _, a := range arts {
			if a.IsUpdated() {
				updated++
			}
		}
	}
	if updated > 0 {
		trends = append(trends, fmt.Sprintf("%d developing %s from earlier in the week.", updated, plural(updated, "story", "stories")))
	}

	return Insights{ExecutiveSummary: summary, KeyTrends: trends, WhatToWatch: watch}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
