package ai

import (
	"fmt"
	"strings"

	"github.com/shanehull/mikecast/internal/types"
)

const (
	storiesPerSection   = 4
	pickSummaryInScript = 200
)

// BuildScript writes the spoken version of the briefing.
func BuildScript(d types.Digest) string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	add("[INTRO MUSIC FADES IN]\n")
	add("Hey everyone, welcome to MikeCast, your daily news briefing. It's %s, and I've got a packed show for you today. Let's dive right in.\n", d.Date.Display())

	for _, cat := range d.NonEmpty() {
		arts := d.Articles[cat]
		add("\n--- %s ---\n", strings.ToUpper(cat))
		add("Starting with %s.\n", cat)
		for i, a := range arts {
			if i == storiesPerSection {
				break
			}
			switch {
			case a.IsUpdated():
				add("We have an update on a story we've been tracking: %s. %s\n", a.DisplayTitle(), a.Description)
			case i == 0:
				add("The big story here is: %s. %s\n", a.DisplayTitle(), a.Description)
			default:
				add("Also worth noting: %s. %s\n", a.DisplayTitle(), a.Description)
			}
		}
	}

	if len(d.Picks) > 0 {
		add("\n--- MIKE'S PICKS ---\n")
		add("Now for Mike's Picks, stories that Big Mike flagged as must-reads.\n")
		for i, p := range d.Picks {
			lead := "Next up"
			if i == 0 {
				lead = "First up"
			}
			add("%s: %s. %s\n", lead, p.Title, clip(p.Summary, pickSummaryInScript))
		}
	}

	add("\n--- WRAP-UP ---\n")
	add("That's your MikeCast for today. Stay sharp, stay informed, and I'll catch you tomorrow. Peace.\n")
	add("[OUTRO MUSIC]\n")

	return strings.Join(lines, "\n")
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
