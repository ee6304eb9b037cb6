// Package export renders a parsed book as JSON for downstream pipelines.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Abdullah-Wex/epubsage"
	"github.com/Abdullah-Wex/epubsage/structure"
)

// Mode selects how much of the book the export includes.
type Mode string

const (
	// Full includes metadata, statistics, and every section's text.
	Full Mode = "full"
	// MetadataOnly includes metadata and statistics but no chapters.
	MetadataOnly Mode = "metadata"
	// Compact includes the chapter and section structure without text,
	// useful for outlines and indexing.
	Compact Mode = "compact"
)

// Document is the top-level JSON shape.
type Document struct {
	Metadata   Metadata    `json:"metadata"`
	Statistics *Statistics `json:"statistics,omitempty"`
	Chapters   []Chapter   `json:"chapters,omitempty"`
	Warnings   []string    `json:"warnings,omitempty"`
}

// Metadata is the book's descriptive metadata.
type Metadata struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors,omitempty"`
	Language    string   `json:"language,omitempty"`
	Identifier  string   `json:"identifier,omitempty"`
	ISBN        string   `json:"isbn,omitempty"`
	Publisher   string   `json:"publisher,omitempty"`
	Description string   `json:"description,omitempty"`
	Subjects    []string `json:"subjects,omitempty"`
	Version     string   `json:"epub_version,omitempty"`
}

// Statistics summarizes the extracted content.
type Statistics struct {
	Chapters           int     `json:"chapters"`
	Sections           int     `json:"sections"`
	Words              int     `json:"words"`
	Images             int     `json:"images"`
	ReadingTimeMinutes float64 `json:"reading_time_minutes"`
}

// Chapter is one spine document in the export.
type Chapter struct {
	ID        string    `json:"id"`
	File      string    `json:"file"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Order     int       `json:"order"`
	WordCount int       `json:"word_count"`
	Sections  []Section `json:"sections,omitempty"`
}

// Section is one TOC-derived section, possibly nested.
type Section struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Level       int       `json:"level"`
	Text        string    `json:"text,omitempty"`
	Images      []string  `json:"images,omitempty"`
	WordCount   int       `json:"word_count"`
	Subsections []Section `json:"subsections,omitempty"`
}

// Build converts a book into an export Document. wordsPerMinute feeds the
// reading time estimate in the statistics block.
func Build(book *epubsage.Book, mode Mode, wordsPerMinute int) *Document {
	doc := &Document{Metadata: buildMetadata(book)}

	stats := book.Stats(wordsPerMinute)
	doc.Statistics = &Statistics{
		Chapters:           stats.Chapters,
		Sections:           stats.Sections,
		Words:              stats.Words,
		Images:             stats.Images,
		ReadingTimeMinutes: stats.ReadingTime.Minutes(),
	}
	for _, w := range book.Warnings {
		doc.Warnings = append(doc.Warnings, w.String())
	}

	if mode == MetadataOnly {
		return doc
	}

	withText := mode == Full
	for _, ch := range book.Chapters {
		ec := Chapter{
			ID:        ch.ID,
			File:      ch.File,
			Title:     ch.Title,
			Type:      string(ch.Type),
			Order:     ch.Order,
			WordCount: ch.WordCount,
		}
		for _, sec := range ch.Sections {
			ec.Sections = append(ec.Sections, buildSection(sec, withText))
		}
		doc.Chapters = append(doc.Chapters, ec)
	}
	return doc
}

func buildMetadata(book *epubsage.Book) Metadata {
	m := book.Metadata
	md := Metadata{
		Title:       m.Title,
		Language:    m.Language,
		ISBN:        m.ISBN(),
		Publisher:   m.Publisher,
		Description: m.Description,
		Subjects:    m.Subjects,
		Version:     book.Version,
	}
	for _, c := range m.Creators {
		md.Authors = append(md.Authors, c.Name)
	}
	if len(m.Identifiers) > 0 {
		md.Identifier = m.Identifiers[0].Value
	}
	return md
}

func buildSection(sec *structure.Section, withText bool) Section {
	es := Section{
		ID:        sec.ID,
		Title:     sec.Title,
		Level:     sec.Level,
		Images:    sec.Images,
		WordCount: sec.WordCount,
	}
	if withText {
		es.Text = sec.Text()
	}
	for _, sub := range sec.Subsections {
		es.Subsections = append(es.Subsections, buildSection(sub, withText))
	}
	return es
}

// Write encodes the document as indented JSON.
func (d *Document) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(d)
}

// Save writes the document to a file.
func (d *Document) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := d.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
