// Package content parses EPUB spine documents (XHTML) into flat, ordered
// sequences of content blocks: one block per content-level element, carrying
// the element id, tag, plain text, original markup and referenced images.
// Blocks are the unit the structure package slices into sections.
package content

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Block is one HTML element extracted from a spine file, in document order.
// ID is the element's id attribute; when the element itself has none, the id
// of the first descendant carrying one is used so that fragment anchors
// targeting inline markers (<a id="ch1"/> inside a heading) still resolve.
type Block struct {
	ID       string
	Tag      string
	Text     string
	Markup   string
	Images   []string
	IsHeader bool
}

// WordCount returns the number of whitespace-delimited tokens in the block text.
func (b Block) WordCount() int {
	return len(strings.Fields(b.Text))
}

// boilerplate tags stripped from the body before block collection, unless
// they are or contain a header (some publishers wrap chapter titles in
// <header> elements).
var junkTags = map[string]bool{
	"nav": true, "aside": true, "script": true, "style": true,
	"footer": true, "header": true,
}

// ParseBlocks parses an XHTML spine document into its ordered block sequence.
func ParseBlocks(r io.Reader) ([]Block, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	body := findElement(doc, "body")
	if body == nil {
		return nil, nil
	}

	container := descendWrappers(body)
	elements := contentChildren(container)

	blocks := make([]Block, 0, len(elements))
	for _, el := range elements {
		if isJunk(el) {
			continue
		}
		b := buildBlock(el)
		if !b.IsHeader {
			if linkHeavy(el, b.Text) {
				continue
			}
			if b.Text == "" && len(b.Images) == 0 && b.ID == "" {
				continue
			}
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// descendWrappers walks down through single-child wrapper elements until it
// reaches a level with multiple children or actual content. Publishers
// commonly nest the whole chapter in one or more wrapper divs.
func descendWrappers(body *html.Node) *html.Node {
	current := body
	for {
		children := elementChildren(current)
		if len(children) != 1 {
			return current
		}
		current = children[0]
	}
}

// contentChildren returns the elements to treat as blocks. When the current
// level has headers, its direct children are the content. When every child
// is a bare container, the containers' own children are pulled up one level
// so sectioning sees the elements the anchors actually live on.
func contentChildren(container *html.Node) []*html.Node {
	direct := elementChildren(container)

	for _, el := range direct {
		if IsHeader(el) {
			return direct
		}
	}

	var out []*html.Node
	for _, el := range direct {
		if el.Data == "div" || el.Data == "section" || el.Data == "article" {
			inner := elementChildren(el)
			if len(inner) > 0 {
				out = append(out, inner...)
				continue
			}
		}
		out = append(out, el)
	}
	return out
}

// buildBlock converts an element node into a Block.
func buildBlock(el *html.Node) Block {
	b := Block{
		ID:       blockID(el),
		Tag:      el.Data,
		Text:     normalizeText(el),
		Images:   elementImages(el),
		IsHeader: IsHeader(el),
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, el); err == nil {
		b.Markup = buf.String()
	}
	return b
}

// blockID returns the element's own id, or the first descendant id when the
// element has none.
func blockID(el *html.Node) string {
	if id := attr(el, "id"); id != "" {
		return id
	}
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if id := blockID(c); id != "" {
			return id
		}
	}
	return ""
}

// isJunk reports whether el is boilerplate to drop. Junk containers holding
// a header are kept so chapter titles in <header> blocks survive.
func isJunk(el *html.Node) bool {
	if !junkTags[el.Data] {
		return false
	}
	if IsHeader(el) {
		return false
	}
	return !containsHeader(el)
}

func containsHeader(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (IsHeader(c) || containsHeader(c)) {
			return true
		}
	}
	return false
}

// linkHeavy reports whether a significant block is mostly link text, which
// marks leftover menus and breadcrumb rows.
func linkHeavy(el *html.Node, text string) bool {
	if len(text) <= 40 {
		return false
	}
	var linkLen int
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			linkLen += len(normalizeText(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(el)
	return float64(linkLen)/float64(len(text)) > 0.70
}

// elementImages collects image references from el and its subtree: <img src>
// and SVG <image href>/<image xlink:href>.
func elementImages(el *html.Node) []string {
	var images []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "img":
				if src := attr(n, "src"); src != "" {
					images = append(images, src)
				}
			case "image":
				href := attr(n, "href")
				if href == "" {
					href = attr(n, "xlink:href")
				}
				if href != "" {
					images = append(images, href)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(el)
	return images
}

// normalizeText returns the subtree's text with whitespace collapsed.
func normalizeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// elementChildren returns the element-node children of n.
func elementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// findElement finds the first element with the given tag in the subtree.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
