package ingest

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	tagPattern   = regexp.MustCompile(`(?i)</?[a-z][a-z0-9]*(?:\s[^<>]*)?/?>`)
	blockPattern = regexp.MustCompile(`(?is)<script\b.*?</script\s*>|<style\b.*?</style\s*>`)
)

// StripMarkup removes HTML tags and decodes entities. Text without a
// well-formed tag only has its entities decoded, so a stray '<' in a review
// is kept as text.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	if !tagPattern.MatchString(s) {
		return html.UnescapeString(s)
	}

	stripped := blockPattern.ReplaceAllString(s, " ")
	stripped = strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(stripped, " ")))

	parsed, err := parseText(s)
	// The parser swallows text after a stray '<'; prefer the plain strip
	// whenever it kept more words.
	if err != nil || len(strings.Fields(parsed)) < len(strings.Fields(stripped)) {
		return stripped
	}
	return parsed
}

func parseText(s string) (string, error) {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			case "br", "p", "div", "li":
				buf.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return strings.TrimSpace(buf.String()), nil
}
