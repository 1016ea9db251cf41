package news

import "github.com/shanehull/mikecast/internal/types"

const minPerCategory = 3

// SelectTop trims each category so the briefing holds roughly total
// articles, split in proportion to what each category has. Every category
// keeps at least three when it has them.
func SelectTop(articles map[string][]types.Article, total int) map[string][]types.Article {
	available := 0
	for _, arts := range articles {
		available += len(arts)
	}
	if available == 0 || total <= 0 {
		return articles
	}

	out := make(map[string][]types.Article, len(articles))
	for cat, arts := range articles {
		share := total * len(arts) / available
		if share < minPerCategory {
			share = minPerCategory
		}
		if share > len(arts) {
			share = len(arts)
		}
		out[cat] = arts[:share]
	}
	return out
}
