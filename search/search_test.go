package search

import (
	"strings"
	"testing"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { ix.Close() })

	docs := []struct{ file, id, title, body string }{
		{"ch1.xhtml", "chapter-one", "The Voyage", "The ship left the harbor at dawn under a grey sky."},
		{"ch1.xhtml", "the-storm", "The Storm", "By nightfall the storm had swallowed the horizon."},
		{"ch2.xhtml", "landfall", "Landfall", "They sighted land three days after the storm passed."},
	}
	for _, d := range docs {
		if err := ix.Add(d.file, d.id, d.title, d.body); err != nil {
			t.Fatalf("Add(%s): %v", d.id, err)
		}
	}
	return ix
}

func TestSearch(t *testing.T) {
	ix := newTestIndex(t)

	hits, err := ix.Search("storm", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	for _, h := range hits {
		if !strings.Contains(h.Snippet, "[storm]") && !strings.Contains(h.Snippet, "[Storm]") {
			t.Errorf("snippet %q does not highlight the match", h.Snippet)
		}
	}
	// The section with "storm" in both title and body should rank first.
	if hits[0].SectionID != "the-storm" {
		t.Errorf("top hit = %s, want the-storm", hits[0].SectionID)
	}
}

func TestSearchNoMatch(t *testing.T) {
	ix := newTestIndex(t)

	hits, err := ix.Search("volcano", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits, want 0", len(hits))
	}
}

func TestSearchLimit(t *testing.T) {
	ix := newTestIndex(t)

	hits, err := ix.Search("the", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("got %d hits, want 1", len(hits))
	}
}

func TestLen(t *testing.T) {
	ix := newTestIndex(t)

	n, err := ix.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 3 {
		t.Errorf("Len = %d, want 3", n)
	}
}
