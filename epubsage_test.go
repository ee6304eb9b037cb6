package epubsage

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

type zipEntry struct {
	name string
	data string
}

// writeTestEPUB creates an EPUB on disk from the given entries, writing
// the mimetype entry first and uncompressed as the format requires.
func writeTestEPUB(t *testing.T, entries []zipEntry) string {
	t.Helper()

	epubPath := filepath.Join(t.TempDir(), "test.epub")
	f, err := os.Create(epubPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	mimeWriter, err := w.CreateHeader(&zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	})
	if err != nil {
		t.Fatal(err)
	}
	mimeWriter.Write([]byte("application/epub+zip"))

	for _, e := range entries {
		ew, err := w.Create(e.name)
		if err != nil {
			t.Fatal(err)
		}
		ew.Write([]byte(e.data))
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return epubPath
}

const testContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testChapter1 = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter One</title></head>
<body>
<h1>Chapter One</h1>
<p>Opening words of the book.</p>
<h1 id="part-two">Part Two</h1>
<p>More words follow the heading.</p>
</body>
</html>`

const testChapter2 = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter Two</title></head>
<body>
<h1>Chapter Two</h1>
<p>The second chapter has a picture.</p>
<p><img src="images/pic.png" alt="a picture"/></p>
</body>
</html>`

// Minimal PNG header so image sniffing recognizes the file.
const testPNG = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

func fullBookEntries() []zipEntry {
	opf := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Test Book</dc:title>
    <dc:creator>Test Author</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier id="bookid">urn:isbn:9780000000001</dc:identifier>
  </metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="chapter1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
    <item id="chapter2" href="chapter2.xhtml" media-type="application/xhtml+xml"/>
    <item id="pic" href="images/pic.png" media-type="image/png"/>
    <item id="cover-img" href="images/cover.png" media-type="image/png" properties="cover-image"/>
  </manifest>
  <spine>
    <itemref idref="chapter1"/>
    <itemref idref="chapter2"/>
  </spine>
</package>`

	nav := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head><title>Contents</title></head>
<body>
<nav epub:type="toc">
<h1>Contents</h1>
<ol>
  <li><a href="chapter1.xhtml">Chapter One</a>
    <ol><li><a href="chapter1.xhtml#part-two">Part Two</a></li></ol>
  </li>
  <li><a href="chapter2.xhtml">Chapter Two</a></li>
</ol>
</nav>
</body>
</html>`

	return []zipEntry{
		{"META-INF/container.xml", testContainerXML},
		{"OEBPS/content.opf", opf},
		{"OEBPS/nav.xhtml", nav},
		{"OEBPS/chapter1.xhtml", testChapter1},
		{"OEBPS/chapter2.xhtml", testChapter2},
		{"OEBPS/images/pic.png", testPNG},
		{"OEBPS/images/cover.png", testPNG},
	}
}

func openFullBook(t *testing.T) *Book {
	t.Helper()
	book, err := Open(writeTestEPUB(t, fullBookEntries()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { book.Close() })
	return book
}

func TestOpen(t *testing.T) {
	book := openFullBook(t)

	if book.Metadata.Title != "Test Book" {
		t.Errorf("title = %q", book.Metadata.Title)
	}
	if book.Metadata.PrimaryAuthor() != "Test Author" {
		t.Errorf("author = %q", book.Metadata.PrimaryAuthor())
	}
	if book.Version != "3.0" {
		t.Errorf("version = %q", book.Version)
	}
	if len(book.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", book.Warnings)
	}
	if book.Navigation == nil {
		t.Fatal("navigation not loaded")
	}
	if len(book.Chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(book.Chapters))
	}
}

func TestOpenSections(t *testing.T) {
	book := openFullBook(t)

	ch1 := book.Chapters[0]
	if len(ch1.Sections) != 1 {
		t.Fatalf("chapter 1 has %d top-level sections, want 1", len(ch1.Sections))
	}
	sec := ch1.Sections[0]
	if sec.Title != "Chapter One" {
		t.Errorf("section title = %q", sec.Title)
	}
	if len(sec.Subsections) != 1 || sec.Subsections[0].ID != "part-two" {
		t.Fatalf("subsections = %+v", sec.Subsections)
	}
	// The anchor splits the file: heading and opening paragraph belong to
	// the parent, everything from the anchored heading on to the subsection.
	if sec.WordCount == 0 || sec.Subsections[0].WordCount == 0 {
		t.Errorf("word counts not split: parent=%d sub=%d", sec.WordCount, sec.Subsections[0].WordCount)
	}
	if ch1.Title != "Chapter One" {
		t.Errorf("chapter title = %q", ch1.Title)
	}
}

func TestOpenResolvesImages(t *testing.T) {
	book := openFullBook(t)

	ch2 := book.Chapters[1]
	want := "OEBPS/images/pic.png"
	if len(ch2.Images) != 1 || ch2.Images[0] != want {
		t.Errorf("chapter 2 images = %v, want [%s]", ch2.Images, want)
	}
}

func TestOpenReader(t *testing.T) {
	path := writeTestEPUB(t, fullBookEntries())
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	book, err := OpenReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer book.Close()

	if len(book.Chapters) != 2 {
		t.Errorf("got %d chapters, want 2", len(book.Chapters))
	}
}

func TestOpenNotAnArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.epub")
	if err := os.WriteFile(path, []byte("plain text"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("expected error for non-zip input")
	}
}

func TestOpenWithoutNavigation(t *testing.T) {
	opf := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Bare Book</dc:title>
    <dc:language>en</dc:language>
    <dc:identifier>bare-1</dc:identifier>
  </metadata>
  <manifest>
    <item id="chapter1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="chapter1"/>
  </spine>
</package>`

	book, err := Open(writeTestEPUB(t, []zipEntry{
		{"META-INF/container.xml", testContainerXML},
		{"OEBPS/content.opf", opf},
		{"OEBPS/chapter1.xhtml", testChapter1},
	}))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer book.Close()

	if book.Navigation != nil {
		t.Error("navigation should be nil")
	}
	found := false
	for _, w := range book.Warnings {
		if w.Code == WarnNoNavigation {
			found = true
		}
	}
	if !found {
		t.Errorf("missing no_navigation warning, got %v", book.Warnings)
	}

	// Header-based fallback still splits the document.
	ch := book.Chapters[0]
	if len(ch.Sections) != 2 {
		t.Fatalf("fallback produced %d sections, want 2", len(ch.Sections))
	}
	if ch.Sections[0].Title != "Chapter One" || ch.Sections[1].Title != "Part Two" {
		t.Errorf("fallback titles: %q, %q", ch.Sections[0].Title, ch.Sections[1].Title)
	}
}

func TestCover(t *testing.T) {
	book := openFullBook(t)

	name, data, err := book.Cover()
	if err != nil {
		t.Fatalf("Cover: %v", err)
	}
	if name != "OEBPS/images/cover.png" {
		t.Errorf("cover name = %q", name)
	}
	if len(data) != len(testPNG) {
		t.Errorf("cover size = %d, want %d", len(data), len(testPNG))
	}
}

func TestExtractImages(t *testing.T) {
	book := openFullBook(t)

	// The destination exists up front; written files must land inside it
	// under their archive paths, not on the directory path itself.
	dir := t.TempDir()
	written, err := book.ExtractImages(dir)
	if err != nil {
		t.Fatalf("ExtractImages: %v", err)
	}
	if len(written) == 0 {
		t.Fatal("no images written")
	}
	for _, name := range written {
		dest := filepath.Join(dir, filepath.FromSlash(name))
		info, err := os.Stat(dest)
		if err != nil {
			t.Fatalf("stat %s: %v", dest, err)
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", dest)
		}
	}
}

func TestStats(t *testing.T) {
	book := openFullBook(t)

	stats := book.Stats(250)
	if stats.Chapters != 2 {
		t.Errorf("chapters = %d", stats.Chapters)
	}
	if stats.Sections != 3 {
		t.Errorf("sections = %d, want 3", stats.Sections)
	}
	if stats.Words != book.TotalWords() || stats.Words == 0 {
		t.Errorf("words = %d, total = %d", stats.Words, book.TotalWords())
	}
	if stats.Images != 1 {
		t.Errorf("images = %d, want 1", stats.Images)
	}
}

func TestFindSection(t *testing.T) {
	book := openFullBook(t)

	sec, ch := book.FindSection("part-two")
	if sec == nil {
		t.Fatal("part-two not found")
	}
	if sec.Title != "Part Two" {
		t.Errorf("title = %q", sec.Title)
	}
	if ch == nil || ch.File != "OEBPS/chapter1.xhtml" {
		t.Errorf("chapter = %+v", ch)
	}

	if sec, _ := book.FindSection("missing"); sec != nil {
		t.Errorf("found unexpected section %+v", sec)
	}
}
