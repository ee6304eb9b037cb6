// Package classify types spine content by manifest id and file name:
// chapters, parts, front matter, back matter. Publishers encode structure
// in wildly different naming schemes; the patterns here cover the common
// ones (simple part-N, O'Reilly part-idNNN, numbered file names).
package classify

import (
	"regexp"
	"strings"
)

// ContentType is the structural role of one spine document.
type ContentType string

const (
	Chapter     ContentType = "chapter"
	Part        ContentType = "part"
	FrontMatter ContentType = "front_matter"
	BackMatter  ContentType = "back_matter"
)

var (
	partRe    = regexp.MustCompile(`(?i)(?:^|[^a-z])part[-_]?(?:id)?0*(\d+)`)
	chapterRe = regexp.MustCompile(`(?i)(?:^|[^a-z])ch(?:apter)?[-_]?(?:id)?0*(\d+)`)
)

var frontMatterKeywords = []string{
	"cover", "titlepage", "title-page", "halftitle", "copyright",
	"dedication", "preface", "foreword", "epigraph", "acknowledg",
	"frontmatter", "toc", "contents",
}

var backMatterKeywords = []string{
	"appendix", "afterword", "colophon", "glossary", "bibliography",
	"index", "notes", "backmatter", "about-the-author", "abouttheauthor",
}

// Classify determines the content type of a spine document from its
// manifest id and href. Part patterns in either the id or the file name
// win over everything; unmatched documents default to Chapter.
func Classify(id, href string) ContentType {
	lowered := strings.ToLower(id + " " + baseName(href))

	if partRe.MatchString(lowered) {
		return Part
	}
	for _, kw := range frontMatterKeywords {
		if strings.Contains(lowered, kw) {
			return FrontMatter
		}
	}
	for _, kw := range backMatterKeywords {
		if strings.Contains(lowered, kw) {
			return BackMatter
		}
	}
	return Chapter
}

// PartNumber extracts the part number, preferring the manifest id over the
// file name when both match. Returns false for non-part documents.
func PartNumber(id, href string) (int, bool) {
	if Classify(id, href) != Part {
		return 0, false
	}
	if n, ok := matchNumber(partRe, id); ok {
		return n, true
	}
	return matchNumber(partRe, baseName(href))
}

// ChapterNumber extracts the chapter number from the id or file name.
func ChapterNumber(id, href string) (int, bool) {
	if n, ok := matchNumber(chapterRe, id); ok {
		return n, true
	}
	return matchNumber(chapterRe, baseName(href))
}

func matchNumber(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0, false
	}
	n := 0
	for _, c := range m[1] {
		n = n*10 + int(c-'0')
	}
	return n, true
}

func baseName(href string) string {
	if i := strings.LastIndexByte(href, '/'); i >= 0 {
		return href[i+1:]
	}
	return href
}
