/*
Package notify renders the daily briefing and reports it via console output
and email.
*/
package notify

import (
	"fmt"
	"io"
	"strings"

	"github.com/shanehull/mikecast/internal/types"
)

// RunReport summarises one briefing run for the console.
type RunReport struct {
	Digest       types.Digest
	New          int
	Updated      int
	Duplicates   int
	Skipped      int
	ArtifactPath string
	AudioPath    string
	Emailed      bool
	HistoryPath  string
}

func formatBulletList(points []string) string {
	if len(points) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range points {
		sb.WriteString(fmt.Sprintf("\t- %s\n", p))
	}
	return sb.String()
}

// Report prints the run summary to w.
func Report(w io.Writer, r RunReport) {
	total := r.Digest.Total()
	if total == 0 && len(r.Digest.Picks) == 0 {
		fmt.Fprintln(w, "\n-------------------------------------------")
		fmt.Fprintln(w, "No new stories or picks for today's briefing.")
		fmt.Fprintln(w, "-------------------------------------------")
	} else {
		fmt.Fprintln(w, "\n===========================================")
		fmt.Fprintf(w, "✅ %d STORIES, %d PICKS FOR %s\n", total, len(r.Digest.Picks), strings.ToUpper(r.Digest.Date.Display()))
		fmt.Fprintln(w, "===========================================")

		for _, cat := range r.Digest.NonEmpty() {
			var titles []string
			for _, a := range r.Digest.Articles[cat] {
				titles = append(titles, a.Title)
			}
			fmt.Fprintf(w, "\n--- %s (%d) ---\n%s", cat, len(titles), formatBulletList(titles))
		}
		if len(r.Digest.Picks) > 0 {
			var titles []string
			for _, p := range r.Digest.Picks {
				titles = append(titles, p.Title)
			}
			fmt.Fprintf(w, "\n--- Mike's Picks (%d) ---\n%s", len(titles), formatBulletList(titles))
		}
	}

	fmt.Fprintln(w, "\n===========================================")
	fmt.Fprintf(w, "Classified: %d new, %d updated, %d duplicates, %d skipped.\n", r.New, r.Updated, r.Duplicates, r.Skipped)
	if r.ArtifactPath != "" {
		fmt.Fprintf(w, "Artifact: %s\n", r.ArtifactPath)
	}
	if r.AudioPath != "" {
		fmt.Fprintf(w, "Audio:    %s\n", r.AudioPath)
	}
	fmt.Fprintf(w, "Emailed:  %t\n", r.Emailed)
	if r.HistoryPath != "" {
		fmt.Fprintf(w, "History saved to %s.\n", r.HistoryPath)
	}
	fmt.Fprintln(w, "===========================================")
}
