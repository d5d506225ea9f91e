package faults

import (
	"strings"

	"golang.org/x/net/html"
)

// PageText extracts the title and visible body text from an HTML document.
// A document that fails to parse yields the raw source as body text, so the
// marker scan still has something to work with.
func PageText(src string) (title, body string) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", src
	}

	var sb strings.Builder
	var walk func(*html.Node, bool)
	walk = func(n *html.Node, skip bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && title == "" {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			case "script", "style", "noscript":
				skip = true
			}
		}
		if n.Type == html.TextNode && !skip {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
				sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skip)
		}
	}
	walk(doc, false)
	return title, strings.TrimSpace(sb.String())
}
