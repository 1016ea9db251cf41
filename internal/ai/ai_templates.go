package ai

import (
	"fmt"
	"strings"

	"github.com/shanehull/mikecast/internal/types"
)

const systemInstruction = `
# [INSTRUCTION]

You are the editor of MikeCast, a short daily news briefing for a single reader who follows AI and technology, markets, the largest technology companies and New York sports.

You receive the day's selected headlines grouped by section, plus any items the reader submitted personally ("Mike's Picks").

---

# [OUTPUT]

- **executive_summary:** Two to four plain sentences naming the most consequential stories. No markdown, no bullet characters.
- **key_trends:** Themes that connect more than one story, or that continue a story marked [Updated]. Each item one sentence.
- **what_to_watch:** Concrete things to follow next: scheduled events, pending decisions, open questions raised by today's stories. Each item one short phrase or sentence.

---

# [CRITICAL INSTRUCTION]

Only use facts present in the provided headlines and descriptions. Do not invent numbers, dates or quotes. If a section is empty, do not mention it.
`

const userPromptTemplate = `
Briefing date: %s

Headlines by section:
---
%s
---

Mike's Picks:
---
%s
---
`

func buildUserPrompt(d types.Digest) string {
	var sections strings.Builder
	for _, cat := range d.NonEmpty() {
		fmt.Fprintf(&sections, "## %s\n", cat)
		for _, a := range d.Articles[cat] {
			fmt.Fprintf(&sections, "- %s", a.Title)
			if a.Source != "" {
				fmt.Fprintf(&sections, " (%s)", a.Source)
			}
			if a.Description != "" {
				fmt.Fprintf(&sections, ": %s", a.Description)
			}
			sections.WriteString("\n")
		}
	}
	if sections.Len() == 0 {
		sections.WriteString("(no headlines today)\n")
	}

	var picks strings.Builder
	for _, p := range d.Picks {
		fmt.Fprintf(&picks, "- %s: %s\n", p.Title, p.Summary)
	}
	if picks.Len() == 0 {
		picks.WriteString("(none)\n")
	}

	return fmt.Sprintf(userPromptTemplate, d.Date.Display(), sections.String(), picks.String())
}
