package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/shanehull/mikecast/internal/ai"
	"github.com/shanehull/mikecast/internal/types"
)

const subjectPrefix = "MikeCast Daily Briefing — "

// NotificationData is everything the briefing templates read.
type NotificationData struct {
	Digest   types.Digest
	Insights ai.Insights
}

// Section is one non-empty category in display order.
type Section struct {
	Category string
	Articles []types.Article
}

func (d NotificationData) Sections() []Section {
	var out []Section
	for _, cat := range d.Digest.NonEmpty() {
		out = append(out, Section{Category: cat, Articles: d.Digest.Articles[cat]})
	}
	return out
}

// RenderedMessage is a briefing ready to store or send.
type RenderedMessage struct {
	Subject string
	Text    string
	HTML    string
}

// HTMLEmailRenderer renders the briefing as an HTML document with a plain
// text fallback.
type HTMLEmailRenderer struct {
	tmpl *template.Template
}

func NewHTMLEmailRenderer() *HTMLEmailRenderer {
	t := template.Must(template.New("email").Funcs(template.FuncMap{
		"trunc": truncate,
	}).Parse(emailHTMLTemplate))
	return &HTMLEmailRenderer{tmpl: t}
}

func (r *HTMLEmailRenderer) Render(data NotificationData) (*RenderedMessage, error) {
	var htmlBuf bytes.Buffer
	if err := r.tmpl.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	return &RenderedMessage{
		Subject: Subject(data.Digest.Date),
		Text:    renderPlainText(data),
		HTML:    htmlBuf.String(),
	}, nil
}

func Subject(d types.Date) string {
	return subjectPrefix + d.Display()
}

// renderPlainText produces a readable plain text version for email clients that don't support HTML.
func renderPlainText(data NotificationData) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("MikeCast Daily Briefing - %s\n", data.Digest.Date.Display()))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	sb.WriteString("EXECUTIVE SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 20) + "\n")
	sb.WriteString(data.Insights.ExecutiveSummary + "\n\n")

	for _, s := range data.Sections() {
		sb.WriteString(strings.ToUpper(s.Category) + "\n")
		sb.WriteString(strings.Repeat("-", 20) + "\n")
		for _, a := range s.Articles {
			marker := ""
			if a.IsUpdated() {
				marker = "[UPDATED] "
			}
			sb.WriteString(fmt.Sprintf("• %s%s", marker, a.DisplayTitle()))
			if a.Source != "" {
				sb.WriteString(" (" + a.Source + ")")
			}
			sb.WriteString("\n")
			if a.URL != "" {
				sb.WriteString("  " + a.URL + "\n")
			}
		}
		sb.WriteString("\n")
	}

	if len(data.Digest.Picks) > 0 {
		sb.WriteString("MIKE'S PICKS\n")
		sb.WriteString(strings.Repeat("-", 20) + "\n")
		for _, p := range data.Digest.Picks {
			sb.WriteString(fmt.Sprintf("• %s\n", p.Title))
			if p.URL != "" {
				sb.WriteString("  " + p.URL + "\n")
			}
		}
		sb.WriteString("\n")
	}

	if len(data.Insights.KeyTrends) > 0 {
		sb.WriteString("KEY TRENDS\n")
		sb.WriteString(strings.Repeat("-", 20) + "\n")
		for _, t := range data.Insights.KeyTrends {
			sb.WriteString(fmt.Sprintf("• %s\n", t))
		}
		sb.WriteString("\n")
	}

	if len(data.Insights.WhatToWatch) > 0 {
		sb.WriteString("WHAT TO WATCH\n")
		sb.WriteString(strings.Repeat("-", 20) + "\n")
		for _, w := range data.Insights.WhatToWatch {
			sb.WriteString(fmt.Sprintf("• %s\n", w))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
