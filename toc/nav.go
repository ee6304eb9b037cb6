package toc

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// ParseNav parses an EPUB 3 navigation document (XHTML with a nav element
// carrying epub:type="toc"). baseDir is the directory of the nav document
// relative to the archive root.
func ParseNav(data []byte, baseDir string) (*Tree, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	nav := findTocNav(doc)
	if nav == nil {
		return nil, ErrNoNavEl
	}

	tree := &Tree{Title: findNavTitle(nav)}
	if ol := findChildElement(nav, "ol"); ol != nil {
		tree.Points = parseOLItems(ol, baseDir, 1)
	}
	return tree, nil
}

// findTocNav locates the <nav> element with epub:type containing "toc".
func findTocNav(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "nav" {
		for _, attr := range n.Attr {
			if (attr.Key == "epub:type" || attr.Key == "type") && strings.Contains(attr.Val, "toc") {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTocNav(c); found != nil {
			return found
		}
	}
	return nil
}

// findNavTitle returns the text of the first heading inside the nav element.
func findNavTitle(n *html.Node) string {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			return strings.TrimSpace(textContent(n))
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := findNavTitle(c); title != "" {
			return title
		}
	}
	return ""
}

// findChildElement finds the first descendant element with the given tag.
func findChildElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findChildElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// parseOLItems converts the <li> children of an <ol> into navigation points.
func parseOLItems(ol *html.Node, baseDir string, level int) []*NavigationPoint {
	var points []*NavigationPoint
	for c := ol.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		if p := parseLIItem(c, baseDir, level); p != nil {
			points = append(points, p)
		}
	}
	return points
}

// parseLIItem converts a single <li>: the <a> (or <span>) supplies the label
// and target, a nested <ol> supplies the children.
func parseLIItem(li *html.Node, baseDir string, level int) *NavigationPoint {
	var label, href string
	var children []*NavigationPoint

	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "a":
			label = textContent(c)
			for _, attr := range c.Attr {
				if attr.Key == "href" {
					href = attr.Val
				}
			}
		case "span":
			if label == "" {
				label = textContent(c)
			}
		case "ol":
			children = parseOLItems(c, baseDir, level+1)
		}
	}

	if strings.TrimSpace(label) == "" && href == "" {
		return nil
	}
	point := newPoint(label, href, baseDir, level)
	point.Children = children
	return point
}

// textContent collects the concatenated text of a node's subtree.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
