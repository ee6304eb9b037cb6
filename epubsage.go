// Package epubsage extracts structured content from EPUB files.
//
// It parses the package document and the navigation document (EPUB 3 NAV
// or EPUB 2 NCX), slices each spine document into content blocks, and maps
// the navigation tree onto those blocks so every TOC entry becomes a
// Section with exactly the content between its anchor and the next one.
//
// Basic usage:
//
//	book, err := epubsage.Open("book.epub")
//	if err != nil {
//	    // handle error
//	}
//	defer book.Close()
//	for _, ch := range book.Chapters {
//	    fmt.Println(ch.Title, ch.WordCount)
//	}
//	if len(book.Warnings) > 0 {
//	    log.Println(epubsage.FormatWarnings(book.Warnings))
//	}
//
// Malformed navigation data never fails the whole book: unresolved
// anchors, missing files, and out-of-order entries are reported as
// Warnings while extraction continues with the content that is usable.
package epubsage

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/Abdullah-Wex/epubsage/archive"
	"github.com/Abdullah-Wex/epubsage/classify"
	"github.com/Abdullah-Wex/epubsage/content"
	"github.com/Abdullah-Wex/epubsage/opf"
	"github.com/Abdullah-Wex/epubsage/structure"
	"github.com/Abdullah-Wex/epubsage/toc"
)

// Book is a fully parsed EPUB: metadata, the navigation tree, and one
// Chapter per spine document with its extracted sections.
type Book struct {
	Metadata   *opf.Metadata
	Version    string
	Package    *opf.Package
	Navigation *toc.Tree // nil when the book has no usable TOC
	Chapters   []*Chapter
	Warnings   []Warning

	arc *archive.Archive
}

// Chapter is one spine document and the sections extracted from it.
type Chapter struct {
	ID        string               `json:"id"`
	File      string               `json:"file"`
	Title     string               `json:"title"`
	Type      classify.ContentType `json:"type"`
	Order     int                  `json:"order"`
	Linear    bool                 `json:"linear"`
	Sections  []*structure.Section `json:"sections,omitempty"`
	Images    []string             `json:"images,omitempty"`
	WordCount int                  `json:"word_count"`
}

// Stats summarizes a book's extracted content.
type Stats struct {
	Chapters    int
	Sections    int
	Words       int
	Images      int
	ReadingTime time.Duration
}

// Open opens and fully parses an EPUB file. The returned Book must be
// closed when done.
func Open(filePath string, opts ...Option) (*Book, error) {
	arc, err := archive.Open(filePath)
	if err != nil {
		return nil, err
	}
	b, err := build(arc, newOptions(opts))
	if err != nil {
		arc.Close()
		return nil, err
	}
	return b, nil
}

// OpenReader opens an EPUB from an io.ReaderAt, such as an in-memory
// buffer or a file inside another archive.
func OpenReader(ra io.ReaderAt, size int64, opts ...Option) (*Book, error) {
	arc, err := archive.OpenReader(ra, size)
	if err != nil {
		return nil, err
	}
	b, err := build(arc, newOptions(opts))
	if err != nil {
		arc.Close()
		return nil, err
	}
	return b, nil
}

func build(arc *archive.Archive, o options) (*Book, error) {
	log := o.logger

	opfData, err := arc.ReadFile(arc.OPFPath())
	if err != nil {
		return nil, fmt.Errorf("read package document: %w", err)
	}
	pkg, err := opf.Parse(opfData)
	if err != nil {
		return nil, err
	}

	b := &Book{
		Metadata: &pkg.Metadata,
		Version:  pkg.Version,
		Package:  pkg,
		arc:      arc,
	}

	b.Navigation = b.loadNavigation(arc, pkg, log)

	files := make(map[string][]content.Block)
	var spineFiles []string
	for i, si := range pkg.Spine {
		item, ok := pkg.ItemByID(si.IDRef)
		if !ok {
			b.warn(WarnMissingSpineItem, "", "", fmt.Sprintf("spine idref %q not in manifest", si.IDRef))
			continue
		}
		if !isDocumentType(item.MediaType) {
			continue
		}
		file := arc.Resolve(item.Href)
		data, err := arc.ReadFile(file)
		if err != nil {
			b.warn(structure.WarnMissingFile, file, "", "spine document not in archive")
			continue
		}
		blocks, err := content.ParseBlocks(bytes.NewReader(data))
		if err != nil {
			b.warn(WarnUnparsableDocument, file, "", err.Error())
			continue
		}
		log.Debug("parsed spine document",
			zap.String("file", file),
			zap.Int("blocks", len(blocks)))

		files[file] = blocks
		spineFiles = append(spineFiles, file)
		b.Chapters = append(b.Chapters, &Chapter{
			ID:     item.ID,
			File:   file,
			Type:   classify.Classify(item.ID, item.Href),
			Order:  i,
			Linear: si.Linear,
		})
	}

	if b.Navigation != nil && len(b.Navigation.Points) > 0 {
		res, err := structure.Assemble(b.Navigation, files, spineFiles)
		if err != nil {
			return nil, err
		}
		b.Warnings = append(b.Warnings, res.Warnings...)
		for _, ch := range b.Chapters {
			ch.Sections = res.Sections[ch.File]
		}
	} else {
		for _, ch := range b.Chapters {
			ch.Sections = fallbackSections(files[ch.File], titleFromFile(ch.File))
		}
	}

	b.finishChapters(arc.ImageSet())

	log.Info("opened book",
		zap.String("title", pkg.Metadata.Title),
		zap.String("version", pkg.Version),
		zap.Int("chapters", len(b.Chapters)),
		zap.Int("warnings", len(b.Warnings)))

	return b, nil
}

// loadNavigation prefers the EPUB 3 NAV document and falls back to the
// EPUB 2 NCX. A book with neither yields nil and a warning; extraction
// then falls back to header-based sectioning.
func (b *Book) loadNavigation(arc *archive.Archive, pkg *opf.Package, log *zap.Logger) *toc.Tree {
	if item, ok := pkg.NavItem(); ok {
		file := arc.Resolve(item.Href)
		if data, err := arc.ReadFile(file); err == nil {
			tree, err := toc.ParseNav(data, path.Dir(file))
			if err == nil {
				log.Debug("loaded navigation", zap.String("source", "nav"), zap.Int("points", len(tree.Flatten())))
				return tree
			}
			b.warn(WarnInvalidNavigation, file, "", err.Error())
		}
	}
	if item, ok := pkg.NCXItem(); ok {
		file := arc.Resolve(item.Href)
		if data, err := arc.ReadFile(file); err == nil {
			tree, err := toc.ParseNCX(data, path.Dir(file))
			if err == nil {
				log.Debug("loaded navigation", zap.String("source", "ncx"), zap.Int("points", len(tree.Flatten())))
				return tree
			}
			b.warn(WarnInvalidNavigation, file, "", err.Error())
		}
	}
	b.warn(WarnNoNavigation, "", "", "no usable NAV or NCX document")
	return nil
}

// finishChapters resolves image references against the archive, fills in
// chapter titles and word counts, and drops references to images that do
// not exist in the container.
func (b *Book) finishChapters(images map[string]bool) {
	for _, ch := range b.Chapters {
		dir := path.Dir(ch.File)
		for _, sec := range ch.Sections {
			resolveSectionImages(sec, dir, images)
		}
		for _, sec := range ch.Sections {
			ch.WordCount += sec.TotalWords()
			ch.Images = appendUnique(ch.Images, sec.AllImages())
		}
		ch.Title = chapterTitle(ch)
	}
}

func resolveSectionImages(sec *structure.Section, dir string, valid map[string]bool) {
	sec.Images = content.ResolveImages(sec.Images, dir, valid)
	for _, sub := range sec.Subsections {
		resolveSectionImages(sub, dir, valid)
	}
}

// fallbackSections groups a document's blocks by its headers when the
// book has no navigation document at all.
func fallbackSections(blocks []content.Block, title string) []*structure.Section {
	var sections []*structure.Section
	for i, g := range content.GroupByHeaders(blocks, title) {
		words := 0
		for _, bl := range g.Blocks {
			words += bl.WordCount()
		}
		id := slug.Make(g.Title)
		if id == "" {
			id = fmt.Sprintf("section-%d", i)
		}
		sections = append(sections, &structure.Section{
			ID:        id,
			Title:     g.Title,
			Level:     1,
			Content:   g.Blocks,
			Images:    g.Images,
			WordCount: words,
		})
	}
	return sections
}

func chapterTitle(ch *Chapter) string {
	for _, sec := range ch.Sections {
		if sec.Title != "" {
			return sec.Title
		}
	}
	return titleFromFile(ch.File)
}

func titleFromFile(file string) string {
	base := path.Base(file)
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return strings.TrimSpace(base)
}

func isDocumentType(mediaType string) bool {
	switch mediaType {
	case "application/xhtml+xml", "text/html", "application/x-dtbook+xml":
		return true
	}
	return false
}

func appendUnique(dst []string, src []string) []string {
	for _, s := range src {
		found := false
		for _, d := range dst {
			if d == s {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}

func (b *Book) warn(code structure.WarningCode, file, anchor, detail string) {
	b.Warnings = append(b.Warnings, Warning{Code: code, File: file, Anchor: anchor, Detail: detail})
}

// Close releases the underlying archive.
func (b *Book) Close() error {
	if b.arc == nil {
		return nil
	}
	return b.arc.Close()
}

// TotalWords returns the word count across all chapters.
func (b *Book) TotalWords() int {
	total := 0
	for _, ch := range b.Chapters {
		total += ch.WordCount
	}
	return total
}

// Stats computes summary statistics. wordsPerMinute controls the reading
// time estimate; values <= 0 use a default of 250.
func (b *Book) Stats(wordsPerMinute int) Stats {
	if wordsPerMinute <= 0 {
		wordsPerMinute = 250
	}
	s := Stats{Chapters: len(b.Chapters)}
	seen := make(map[string]bool)
	for _, ch := range b.Chapters {
		s.Words += ch.WordCount
		for _, sec := range ch.Sections {
			s.Sections += countSections(sec)
		}
		for _, img := range ch.Images {
			if !seen[img] {
				seen[img] = true
				s.Images++
			}
		}
	}
	minutes := float64(s.Words) / float64(wordsPerMinute)
	s.ReadingTime = time.Duration(minutes * float64(time.Minute)).Round(time.Second)
	return s
}

func countSections(sec *structure.Section) int {
	n := 1
	for _, sub := range sec.Subsections {
		n += countSections(sub)
	}
	return n
}

// Cover returns the archive path and bytes of the cover image, if the
// package declares one.
func (b *Book) Cover() (string, []byte, error) {
	item, ok := b.Package.CoverItem()
	if !ok {
		return "", nil, fmt.Errorf("no cover image declared")
	}
	file := b.arc.Resolve(item.Href)
	data, err := b.arc.ReadFile(file)
	if err != nil {
		return "", nil, err
	}
	return file, data, nil
}

// Images lists the image files present in the container.
func (b *Book) Images() []string {
	return b.arc.Images()
}

// Files lists every file in the container.
func (b *Book) Files() []string {
	return b.arc.List()
}

// ReadFile returns the contents of one file from the container.
func (b *Book) ReadFile(name string) ([]byte, error) {
	return b.arc.ReadFile(name)
}

// TotalSize returns the uncompressed size of the container's files.
func (b *Book) TotalSize() int64 {
	return b.arc.TotalSize()
}

// ExtractAll writes every file in the container into dir, preserving
// archive paths.
func (b *Book) ExtractAll(dir string) error {
	return b.arc.ExtractTo(dir)
}

// ExtractImages writes the book's images into dir, preserving their
// archive paths, and returns the paths written.
func (b *Book) ExtractImages(dir string) ([]string, error) {
	images := b.arc.Images()
	for _, img := range images {
		dest := filepath.Join(dir, filepath.FromSlash(img))
		if err := b.arc.ExtractFile(img, dest); err != nil {
			return nil, err
		}
	}
	return images, nil
}

// Validate checks the package document for required metadata and a
// consistent manifest and spine.
func (b *Book) Validate() opf.Validation {
	return b.Package.Validate()
}

// FindSection looks up a section anywhere in the book by its id.
func (b *Book) FindSection(id string) (*structure.Section, *Chapter) {
	for _, ch := range b.Chapters {
		for _, sec := range ch.Sections {
			if found := findSection(sec, id); found != nil {
				return found, ch
			}
		}
	}
	return nil, nil
}

func findSection(sec *structure.Section, id string) *structure.Section {
	if sec.ID == id {
		return sec
	}
	for _, sub := range sec.Subsections {
		if found := findSection(sub, id); found != nil {
			return found
		}
	}
	return nil
}
