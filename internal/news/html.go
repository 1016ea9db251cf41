package news

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var spaceRe = regexp.MustCompile(`[\n\t\r\s\xA0]+`)

// HTMLToText flattens an HTML fragment to its visible text. Input that does
// not parse is returned with whitespace collapsed.
func HTMLToText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return collapse(fragment)
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return collapse(fragment)
	}

	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(extractText(n))
		sb.WriteByte(' ')
	}
	return collapse(sb.String())
}

func extractText(n *html.Node) string {
	var extract func(*html.Node) string

	extract = func(n *html.Node) string {
		if n.Type == html.TextNode {
			return n.Data
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return ""
		}
		var sb strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			sb.WriteString(extract(c))
			if c.Type == html.ElementNode && isBlock(c.Data) {
				sb.WriteByte(' ')
			}
		}
		return sb.String()
	}

	return extract(n)
}

func isBlock(tag string) bool {
	switch tag {
	case "br", "p", "div", "li", "ol", "ul", "h1", "h2", "h3", "h4", "h5", "h6", "tr", "td":
		return true
	}
	return false
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
