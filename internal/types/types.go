package types

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout        = "2006-01-02"
	DisplayDateLayout = "January 02, 2006"

	// UpdatedPrefix marks stories that resurfaced with new developments.
	UpdatedPrefix = "[Updated] "
)

// Candidate is a freshly fetched article before deduplication.
type Candidate struct {
	Title       string
	URL         string
	Source      string
	Category    string
	Description string
	Published   string
}

// Article is an accepted story as published in the daily artifact.
type Article struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	Description string `json:"description,omitempty"`
}

// IsUpdated reports whether the title carries the update marker.
func (a Article) IsUpdated() bool {
	return strings.HasPrefix(a.Title, UpdatedPrefix)
}

// DisplayTitle returns the title without the update marker.
func (a Article) DisplayTitle() string {
	return strings.TrimPrefix(a.Title, UpdatedPrefix)
}

type PickKind string

const (
	PickURL  PickKind = "url"
	PickPDF  PickKind = "pdf"
	PickText PickKind = "text"
)

// PickItem is a user-submitted item waiting for the next briefing.
type PickItem struct {
	ID       string    `json:"id"`
	Kind     PickKind  `json:"kind"`
	Title    string    `json:"title,omitempty"`
	URL      string    `json:"url,omitempty"`
	Path     string    `json:"path,omitempty"`
	BodyText string    `json:"body_text,omitempty"`
	AddedAt  time.Time `json:"added_at"`
}

// Pick is the rendered form of a PickItem in the briefing.
type Pick struct {
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// Digest is the content of one day's briefing. Categories fixes the
// section order; Articles may hold empty sections.
type Digest struct {
	Date       Date
	Categories []string
	Articles   map[string][]Article
	Picks      []Pick
}

// Total counts the articles across all sections.
func (d Digest) Total() int {
	n := 0
	for _, arts := range d.Articles {
		n += len(arts)
	}
	return n
}

// NonEmpty returns the categories that have articles, in order.
func (d Digest) NonEmpty() []string {
	var out []string
	for _, c := range d.Categories {
		if len(d.Articles[c]) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Date is a calendar day, serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Display() string {
	return d.Format(DisplayDateLayout)
}

func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// DaysSince returns the whole number of days from other to d.
func (d Date) DaysSince(other Date) int {
	return int(d.Time.Sub(other.Time).Hours() / 24)
}

func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON leaves null and unparseable values as the zero Date, so a
// single bad record does not fail the whole document. Callers check
// IsZero.
func (d *Date) UnmarshalJSON(b []byte) error {
	*d = Date{}
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	// Older history files stored full timestamps.
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	if parsed, err := ParseDate(s); err == nil {
		*d = parsed
	}
	return nil
}
