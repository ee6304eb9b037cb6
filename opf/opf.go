// Package opf parses the EPUB package document (OPF): Dublin Core
// metadata, the manifest, and the spine reading order.
package opf

import (
	"errors"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

// Parsing errors.
var (
	ErrInvalidOPF = errors.New("opf: invalid package document")
	ErrEmptySpine = errors.New("opf: no content in spine")
)

// Package is the parsed OPF document.
type Package struct {
	Version  string
	Metadata Metadata
	Manifest []Item
	Spine    []SpineItem
	TocID    string // spine toc attribute (NCX manifest id, EPUB 2)

	byID        map[string]int
	generatedID bool // identifier was derived, not declared
}

// Item is one manifest entry.
type Item struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string // "nav", "cover-image", ...
}

// HasProperty reports whether the item carries the given property.
func (it Item) HasProperty(prop string) bool {
	for _, p := range it.Properties {
		if p == prop {
			return true
		}
	}
	return false
}

// SpineItem is one itemref in reading order.
type SpineItem struct {
	IDRef  string
	Linear bool
}

// Creator is a dc:creator with its MARC relator role, when declared.
type Creator struct {
	Name   string
	Role   string // "aut", "edt", "trl", ...
	FileAs string
}

// Identifier is a dc:identifier with its scheme, when declared.
type Identifier struct {
	ID     string
	Value  string
	Scheme string
}

// Date is a dc:date with its event qualifier, when declared.
type Date struct {
	Value string
	Event string // "publication", "modification", ...
}

// Metadata holds the Dublin Core record of the package document.
type Metadata struct {
	Title       string
	Creators    []Creator
	Language    string
	Identifiers []Identifier
	Publisher   string
	Description string
	Subjects    []string
	Dates       []Date
	Rights      string
	Modified    time.Time // dcterms:modified (EPUB 3)

	coverRef string // EPUB 2 <meta name="cover" content="..."/> manifest id
}

// PrimaryAuthor returns the first creator with an author role, falling back
// to the first creator of any role.
func (m Metadata) PrimaryAuthor() string {
	for _, c := range m.Creators {
		if c.Role == "aut" || c.Role == "" {
			return c.Name
		}
	}
	if len(m.Creators) > 0 {
		return m.Creators[0].Name
	}
	return ""
}

// ISBN returns the first ISBN-schemed identifier, stripped of urn prefixes.
func (m Metadata) ISBN() string {
	for _, id := range m.Identifiers {
		if strings.HasPrefix(id.Value, "urn:isbn:") {
			return id.Value[len("urn:isbn:"):]
		}
		if strings.EqualFold(id.Scheme, "isbn") {
			return id.Value
		}
	}
	return ""
}

// Parse parses an OPF package document.
func Parse(data []byte) (*Package, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, ErrInvalidOPF
	}

	root := doc.Root()
	if root == nil || root.Tag != "package" {
		return nil, ErrInvalidOPF
	}

	pkg := &Package{
		Version: attrValue(root, "version"),
		byID:    make(map[string]int),
	}

	for _, child := range root.ChildElements() {
		switch child.Tag {
		case "metadata":
			pkg.Metadata = parseMetadata(child)
		case "manifest":
			for _, el := range child.ChildElements() {
				if el.Tag != "item" {
					continue
				}
				item := Item{
					ID:        attrValue(el, "id"),
					Href:      attrValue(el, "href"),
					MediaType: attrValue(el, "media-type"),
				}
				if props := attrValue(el, "properties"); props != "" {
					item.Properties = strings.Fields(props)
				}
				pkg.byID[item.ID] = len(pkg.Manifest)
				pkg.Manifest = append(pkg.Manifest, item)
			}
		case "spine":
			pkg.TocID = attrValue(child, "toc")
			for _, el := range child.ChildElements() {
				if el.Tag != "itemref" {
					continue
				}
				pkg.Spine = append(pkg.Spine, SpineItem{
					IDRef:  attrValue(el, "idref"),
					Linear: attrValue(el, "linear") != "no",
				})
			}
		}
	}

	if len(pkg.Spine) == 0 {
		return nil, ErrEmptySpine
	}

	// Books without any identifier still need a stable one downstream;
	// derive it from the title so repeated runs agree.
	if len(pkg.Metadata.Identifiers) == 0 {
		derived := uuid.NewSHA1(uuid.NameSpaceURL, []byte(pkg.Metadata.Title))
		pkg.Metadata.Identifiers = []Identifier{{
			Value:  "urn:uuid:" + derived.String(),
			Scheme: "uuid",
		}}
		pkg.generatedID = true
	}
	return pkg, nil
}

// parseMetadata walks the metadata element's children by local tag name, so
// namespace prefix spelling (dc:, opf:) never matters.
func parseMetadata(meta *etree.Element) Metadata {
	m := Metadata{}
	roleByRefine := make(map[string]string)
	fileAsByRefine := make(map[string]string)

	for _, el := range meta.ChildElements() {
		text := strings.TrimSpace(el.Text())
		switch el.Tag {
		case "title":
			if m.Title == "" {
				m.Title = text
			}
		case "creator":
			if text != "" {
				m.Creators = append(m.Creators, Creator{
					Name:   text,
					Role:   attrValue(el, "role"),
					FileAs: attrValue(el, "file-as"),
				})
			}
		case "language":
			if m.Language == "" {
				m.Language = text
			}
		case "identifier":
			if text != "" {
				m.Identifiers = append(m.Identifiers, Identifier{
					ID:     attrValue(el, "id"),
					Value:  text,
					Scheme: attrValue(el, "scheme"),
				})
			}
		case "publisher":
			if m.Publisher == "" {
				m.Publisher = text
			}
		case "description":
			if m.Description == "" {
				m.Description = text
			}
		case "subject":
			if text != "" {
				m.Subjects = append(m.Subjects, text)
			}
		case "date":
			if text != "" {
				m.Dates = append(m.Dates, Date{Value: text, Event: attrValue(el, "event")})
			}
		case "rights":
			if m.Rights == "" {
				m.Rights = text
			}
		case "meta":
			property := attrValue(el, "property")
			refines := strings.TrimPrefix(attrValue(el, "refines"), "#")
			switch {
			case property == "dcterms:modified":
				if ts, err := time.Parse(time.RFC3339, text); err == nil {
					m.Modified = ts
				}
			case property == "role" && refines != "":
				roleByRefine[refines] = text
			case property == "file-as" && refines != "":
				fileAsByRefine[refines] = text
			case attrValue(el, "name") == "cover":
				m.coverRef = attrValue(el, "content")
			}
		}
	}

	// EPUB 3 expresses roles as refining meta elements keyed by element id.
	if len(roleByRefine) > 0 || len(fileAsByRefine) > 0 {
		applyRefinements(meta, &m, roleByRefine, fileAsByRefine)
	}
	return m
}

// applyRefinements attaches refined role/file-as values to creators by id.
func applyRefinements(meta *etree.Element, m *Metadata, roles, fileAs map[string]string) {
	i := 0
	for _, el := range meta.ChildElements() {
		if el.Tag != "creator" || strings.TrimSpace(el.Text()) == "" {
			continue
		}
		id := attrValue(el, "id")
		if id != "" {
			if role, ok := roles[id]; ok && m.Creators[i].Role == "" {
				m.Creators[i].Role = role
			}
			if fa, ok := fileAs[id]; ok && m.Creators[i].FileAs == "" {
				m.Creators[i].FileAs = fa
			}
		}
		i++
	}
}

// ItemByID looks up a manifest item.
func (p *Package) ItemByID(id string) (Item, bool) {
	i, ok := p.byID[id]
	if !ok {
		return Item{}, false
	}
	return p.Manifest[i], true
}

// NavItem returns the EPUB 3 navigation document item, if declared.
func (p *Package) NavItem() (Item, bool) {
	for _, item := range p.Manifest {
		if item.HasProperty("nav") {
			return item, true
		}
	}
	return Item{}, false
}

// NCXItem returns the EPUB 2 NCX item: the spine's toc reference when
// present, otherwise the first item with the NCX media type.
func (p *Package) NCXItem() (Item, bool) {
	if p.TocID != "" {
		if item, ok := p.ItemByID(p.TocID); ok {
			return item, true
		}
	}
	for _, item := range p.Manifest {
		if item.MediaType == "application/x-dtbncx+xml" {
			return item, true
		}
	}
	return Item{}, false
}

// CoverItem returns the cover image item: EPUB 3 cover-image property
// first, then the EPUB 2 meta name="cover" reference, then any image item
// whose id or href names a cover.
func (p *Package) CoverItem() (Item, bool) {
	for _, item := range p.Manifest {
		if item.HasProperty("cover-image") {
			return item, true
		}
	}
	if p.Metadata.coverRef != "" {
		if item, ok := p.ItemByID(p.Metadata.coverRef); ok {
			return item, true
		}
	}
	for _, item := range p.Manifest {
		if !strings.HasPrefix(item.MediaType, "image/") {
			continue
		}
		if strings.Contains(strings.ToLower(item.ID), "cover") ||
			strings.Contains(strings.ToLower(item.Href), "cover") {
			return item, true
		}
	}
	return Item{}, false
}

// attrValue returns the value of the attribute with the given local key,
// whatever its namespace prefix.
func attrValue(el *etree.Element, key string) string {
	for _, a := range el.Attr {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}
