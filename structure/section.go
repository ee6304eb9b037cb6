package structure

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"

	"github.com/Abdullah-Wex/epubsage/content"
)

// Section is the extracted content scoped to one TOC entry. Content holds
// the blocks between this entry's boundary and the next; Subsections mirror
// the navigation tree's children, in order. WordCount covers only this
// section's own blocks, never its subsections': a parent whose text lives
// entirely in nested sections legitimately counts zero words.
type Section struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Level       int             `json:"level"`
	Content     []content.Block `json:"content"`
	Images      []string        `json:"images,omitempty"`
	WordCount   int             `json:"word_count"`
	Subsections []*Section      `json:"subsections,omitempty"`
}

// TotalWords returns the word count of the section including all nested
// subsections.
func (s *Section) TotalWords() int {
	total := s.WordCount
	for _, sub := range s.Subsections {
		total += sub.TotalWords()
	}
	return total
}

// Text returns the section's own plain text, blocks joined by blank
// lines. Subsection text is not included.
func (s *Section) Text() string {
	parts := make([]string, 0, len(s.Content))
	for _, blk := range s.Content {
		if blk.Text != "" {
			parts = append(parts, blk.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// AllImages returns the section's images followed by its subsections',
// deduplicated in encounter order.
func (s *Section) AllImages() []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(*Section)
	walk = func(sec *Section) {
		for _, img := range sec.Images {
			if !seen[img] {
				seen[img] = true
				out = append(out, img)
			}
		}
		for _, sub := range sec.Subsections {
			walk(sub)
		}
	}
	walk(s)
	return out
}

// ExtractSection slices the boundary's block range out of the file's block
// sequence and derives the section's word count and image list. Subsections
// stay empty here; the assembler attaches them from the navigation tree.
// ordinal is the point's 1-based position in the flattened TOC, used for the
// generated id fallback.
func ExtractSection(b Boundary, blocks []content.Block, ordinal int) *Section {
	sec := &Section{
		ID:    sectionID(b.Point.Anchor, b.Point.Label, ordinal),
		Title: b.Point.Label,
		Level: b.Point.Level,
	}

	if b.Start < b.End && b.Start >= 0 && b.End <= len(blocks) {
		sec.Content = blocks[b.Start:b.End]
	}

	var images []string
	for _, blk := range sec.Content {
		sec.WordCount += blk.WordCount()
		images = append(images, blk.Images...)
	}
	sec.Images = dedupeImages(images)
	return sec
}

// sectionID picks the section identifier: the TOC anchor when present, a
// slug of the title otherwise, and a positional fallback when neither
// yields anything usable.
func sectionID(anchor, title string, ordinal int) string {
	if anchor != "" {
		return anchor
	}
	if s := slug.Make(title); s != "" {
		return s
	}
	return fmt.Sprintf("section-%d", ordinal)
}

func dedupeImages(images []string) []string {
	if len(images) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(images))
	out := make([]string, 0, len(images))
	for _, img := range images {
		if img = strings.TrimSpace(img); img == "" || seen[img] {
			continue
		}
		seen[img] = true
		out = append(out, img)
	}
	return out
}
