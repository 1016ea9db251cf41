package picks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/shanehull/mikecast/internal/retry"
	"github.com/shanehull/mikecast/internal/types"
)

const (
	MaxTitleRunes   = 80
	MaxSummaryRunes = 500

	maxPageBytes = 5 << 20
	userAgent    = "Mozilla/5.0 (compatible; MikeCast/1.0)"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// PDFTextFunc extracts text from a local PDF.
type PDFTextFunc func(ctx context.Context, path string) (string, error)

// Merger resolves queued items into the picks section of a briefing.
type Merger struct {
	client  *http.Client
	pdfText PDFTextFunc
	policy  retry.Policy
	logger  *slog.Logger
}

func NewMerger(client *http.Client, policy retry.Policy, logger *slog.Logger) *Merger {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{client: client, pdfText: ExtractPDFText, policy: policy, logger: logger}
}

// WithPDFText replaces the PDF extractor.
func (m *Merger) WithPDFText(fn PDFTextFunc) *Merger {
	m.pdfText = fn
	return m
}

// Merge turns items into picks, keeping their order. An item whose content
// cannot be resolved still produces a pick with a placeholder summary.
func (m *Merger) Merge(ctx context.Context, items []types.PickItem) []types.Pick {
	out := make([]types.Pick, 0, len(items))
	for _, item := range items {
		pick := m.resolve(ctx, item)
		m.logger.Info("merged pick", "id", item.ID, "kind", item.Kind, "title", pick.Title)
		out = append(out, pick)
	}
	return out
}

func (m *Merger) resolve(ctx context.Context, item types.PickItem) types.Pick {
	var (
		pageTitle   string
		body        string
		placeholder string
	)

	switch item.Kind {
	case types.PickURL:
		title, text, err := m.fetchPage(ctx, item.URL)
		if err != nil {
			m.logger.Warn("could not resolve pick url", "url", item.URL, "error", err)
			placeholder = "Submitted URL: " + item.URL
		}
		pageTitle, body = title, text
	case types.PickPDF:
		text, err := m.pdfText(ctx, item.Path)
		if err != nil {
			m.logger.Warn("could not extract pick pdf", "path", item.Path, "error", err)
			placeholder = "PDF document submitted: " + filepath.Base(item.Path)
		}
		body = text
	default:
		body = item.BodyText
	}

	summary := Truncate(normalizeSpace(body), MaxSummaryRunes)
	if summary == "" {
		summary = placeholder
	}

	return types.Pick{
		Title:   Truncate(DeriveTitle(item, pageTitle, body), MaxTitleRunes),
		URL:     item.URL,
		Summary: summary,
	}
}

// DeriveTitle picks the first available of: the submitted title, the page
// title, the first line of the body, the URL's domain, the PDF file name.
func DeriveTitle(item types.PickItem, pageTitle, body string) string {
	candidates := []string{item.Title, pageTitle, firstLine(body), domainOf(item.URL)}
	if item.Path != "" {
		candidates = append(candidates, filepath.Base(item.Path))
	}
	for _, c := range candidates {
		if c = normalizeSpace(c); c != "" {
			return c
		}
	}
	return "Untitled pick"
}

func (m *Merger) fetchPage(ctx context.Context, rawURL string) (title, text string, err error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || pageURL.Host == "" {
		return "", "", fmt.Errorf("invalid url %q", rawURL)
	}

	var raw []byte
	err = retry.Do(ctx, m.policy, func(int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := m.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", rawURL, err)
		}
		defer resp.Body.Close()

		if err := retry.CheckStatus(rawURL, resp.StatusCode); err != nil {
			return err
		}
		raw, err = io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
		return err
	})
	if err != nil {
		return "", "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse HTML from %s: %w", rawURL, err)
	}
	title = strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
	}

	article, rerr := readability.FromReader(bytes.NewReader(raw), pageURL)
	if rerr == nil {
		if title == "" {
			title = article.Title
		}
		if content, cerr := goquery.NewDocumentFromReader(strings.NewReader(spaceBlocks(article.Content))); cerr == nil {
			text = normalizeSpace(content.Text())
		}
	} else {
		m.logger.Debug("readability failed, using page text", "url", rawURL, "error", rerr)
	}
	if text == "" {
		doc.Find("script, style, noscript").Remove()
		text = normalizeSpace(doc.Find("body").Text())
	}
	return title, text, nil
}

var blockTagRe = regexp.MustCompile(`(?i)</?(p|div|br|li|h[1-6]|td|tr)[^>]*>`)

// spaceBlocks pads block tags so adjacent paragraphs do not run together
// once the markup is stripped.
func spaceBlocks(s string) string {
	return blockTagRe.ReplaceAllStringFunc(s, func(tag string) string { return " " + tag + " " })
}

func normalizeSpace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func domainOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// Truncate cuts s to at most n runes plus "..." when it is longer.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
