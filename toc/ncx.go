package toc

import (
	"github.com/beevik/etree"
)

// ParseNCX parses an EPUB 2 NCX navigation document. baseDir is the
// directory of the NCX file relative to the archive root; hrefs inside the
// document are resolved against it.
func ParseNCX(data []byte, baseDir string) (*Tree, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}

	root := doc.Root()
	if root == nil || root.Tag != "ncx" {
		return nil, ErrInvalidNCX
	}

	tree := &Tree{}
	if title := root.FindElement("docTitle/text"); title != nil {
		tree.Title = title.Text()
	}

	navMap := root.SelectElement("navMap")
	if navMap == nil {
		return nil, ErrInvalidNCX
	}

	for _, np := range navMap.ChildElements() {
		if np.Tag != "navPoint" {
			continue
		}
		if point := parseNavPoint(np, baseDir, 1); point != nil {
			tree.Points = append(tree.Points, point)
		}
	}
	return tree, nil
}

// parseNavPoint converts one navPoint element, recursing into nested ones.
func parseNavPoint(el *etree.Element, baseDir string, level int) *NavigationPoint {
	var label, src string
	var children []*etree.Element

	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "navLabel":
			if text := child.SelectElement("text"); text != nil {
				label = text.Text()
			}
		case "content":
			src = child.SelectAttrValue("src", "")
		case "navPoint":
			children = append(children, child)
		}
	}

	if label == "" && src == "" {
		return nil
	}

	point := newPoint(label, src, baseDir, level)
	for _, child := range children {
		if cp := parseNavPoint(child, baseDir, level+1); cp != nil {
			point.Children = append(point.Children, cp)
		}
	}
	return point
}
