package dedup

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "he": {}, "her": {}, "his": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {},
	"the": {}, "their": {}, "this": {}, "to": {}, "was": {}, "were": {}, "will": {},
	"with": {}, "after": {}, "over": {}, "into": {}, "new": {}, "says": {}, "amid": {},
}

// Fingerprint lower-cases title, strips punctuation, drops stop words and
// repeated tokens, and joins the rest with single spaces.
func Fingerprint(title string) string {
	return strings.Join(tokens(title), " ")
}

func tokens(s string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r) || r == '-' || r == '/':
			return ' '
		default:
			return -1
		}
	}, s)

	seen := make(map[string]struct{})
	var out []string
	for _, tok := range strings.Fields(cleaned) {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// Overlap is the Jaccard ratio of the token sets of two fingerprints.
func Overlap(a, b string) float64 {
	as := strings.Fields(a)
	bs := strings.Fields(b)
	if len(as) == 0 && len(bs) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(as))
	for _, t := range as {
		set[t] = struct{}{}
	}
	union := len(set)
	inter := 0
	counted := make(map[string]struct{}, len(bs))
	for _, t := range bs {
		if _, dup := counted[t]; dup {
			continue
		}
		counted[t] = struct{}{}
		if _, ok := set[t]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}
