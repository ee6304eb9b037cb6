package content

import (
	"strings"

	"golang.org/x/net/html"
)

// headerKeywords are class/id fragments that mark publisher-styled headings
// outside the h1-h6 range.
var headerKeywords = []string{
	"title", "heading", "chapter-head", "ch-title", "section-title",
	"chapter-label", "ch-label", "title-prefix", "chapter-number",
	"label", "title-text",
}

// IsHeader reports whether an element works as a section heading. Beyond
// h1-h6 it accepts role="heading" and class/id naming conventions, provided
// the text stays short enough to plausibly be a title.
func IsHeader(el *html.Node) bool {
	if el == nil || el.Type != html.ElementNode {
		return false
	}

	switch el.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}

	if attr(el, "role") == "heading" {
		return true
	}

	combined := strings.ToLower(attr(el, "class") + " " + attr(el, "id"))
	for _, kw := range headerKeywords {
		if strings.Contains(combined, kw) {
			text := normalizeText(el)
			if len(text) > 0 && len(text) < 200 {
				return true
			}
			return false
		}
	}
	return false
}

// HeaderLevel returns the numeric level of an hN tag, or 0 for other headers.
func HeaderLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}
