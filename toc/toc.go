// Package toc parses EPUB navigation documents (EPUB 2 NCX and EPUB 3 nav)
// into a tree of navigation points with hrefs already split into a content
// file path and a URL-decoded fragment anchor.
package toc

import (
	"errors"
	"net/url"
	"strings"
)

// Parsing errors.
var (
	ErrInvalidNCX = errors.New("toc: invalid NCX document")
	ErrNoNavEl    = errors.New("toc: no toc nav element found")
)

// NavigationPoint is one entry in the parsed table of contents. The tree is
// recursive: Children holds the entries nested under this one, in document
// order. Level is 1 for top-level entries and parent level + 1 below that;
// it is descriptive only and never drives structural decisions.
type NavigationPoint struct {
	Label    string
	Href     string // raw target, e.g. "ch01.xhtml#p12"
	FilePath string // Href with the fragment stripped
	Anchor   string // fragment identifier; empty means the whole file
	Level    int
	Children []*NavigationPoint
}

// Tree is a parsed table of contents.
type Tree struct {
	Title  string
	Points []*NavigationPoint
}

// Flatten returns the tree in depth-first pre-order: a parent precedes its
// children, matching the document order implied by TOC semantics. The
// returned slice shares the tree's nodes.
func (t *Tree) Flatten() []*NavigationPoint {
	if t == nil {
		return nil
	}
	return flattenPoints(t.Points, nil)
}

func flattenPoints(points []*NavigationPoint, out []*NavigationPoint) []*NavigationPoint {
	for _, p := range points {
		out = append(out, p)
		out = flattenPoints(p.Children, out)
	}
	return out
}

// MaxDepth returns the deepest level present in the tree, 0 for an empty tree.
func (t *Tree) MaxDepth() int {
	max := 0
	for _, p := range t.Flatten() {
		if p.Level > max {
			max = p.Level
		}
	}
	return max
}

// SplitHref splits a TOC target into a file path and a fragment anchor,
// resolving percent-escapes in both parts. A missing fragment yields an
// empty anchor, meaning the point targets the whole file.
func SplitHref(href string) (filePath, anchor string) {
	filePath = href
	if i := strings.IndexByte(href, '#'); i >= 0 {
		filePath, anchor = href[:i], href[i+1:]
	}
	if decoded, err := url.PathUnescape(filePath); err == nil {
		filePath = decoded
	}
	if decoded, err := url.PathUnescape(anchor); err == nil {
		anchor = decoded
	}
	return filePath, anchor
}

// newPoint builds a NavigationPoint from a label and raw href, resolving a
// relative href against the directory of the navigation document.
func newPoint(label, href, baseDir string, level int) *NavigationPoint {
	filePath, anchor := SplitHref(href)
	if baseDir != "" && filePath != "" && !strings.HasPrefix(filePath, "/") {
		filePath = joinPath(baseDir, filePath)
	}
	return &NavigationPoint{
		Label:    strings.TrimSpace(label),
		Href:     href,
		FilePath: filePath,
		Anchor:   anchor,
		Level:    level,
	}
}

// joinPath joins and lexically cleans a slash-separated path without going
// through path.Join's empty-segment handling surprises for "./" prefixes.
func joinPath(dir, rel string) string {
	segs := strings.Split(dir+"/"+rel, "/")
	out := make([]string, 0, len(segs))
	for _, s := range segs {
		switch s {
		case "", ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, s)
		}
	}
	return strings.Join(out, "/")
}
