package content

import (
	"reflect"
	"testing"
)

func TestResolveImagePath(t *testing.T) {
	tests := []struct {
		src     string
		htmlDir string
		want    string
	}{
		{"images/fig1.png", "OEBPS", "OEBPS/images/fig1.png"},
		{"../images/fig1.png", "OEBPS/text", "OEBPS/images/fig1.png"},
		{"fig1.png", "", "fig1.png"},
		{"./fig1.png", "OEBPS", "OEBPS/fig1.png"},
		{"images\\fig1.png", "OEBPS", "OEBPS/images/fig1.png"},
		{"fig1.png#frag", "OEBPS", "OEBPS/fig1.png"},
		{"fig1.png?v=2", "OEBPS", "OEBPS/fig1.png"},
		{"https://example.com/fig1.png", "OEBPS", "https://example.com/fig1.png"},
		{"#frag", "OEBPS", ""},
		{"../../escape.png", "OEBPS", "escape.png"},
	}
	for _, tt := range tests {
		if got := ResolveImagePath(tt.src, tt.htmlDir); got != tt.want {
			t.Errorf("ResolveImagePath(%q, %q) = %q, want %q", tt.src, tt.htmlDir, got, tt.want)
		}
	}
}

func TestResolveImages(t *testing.T) {
	valid := map[string]bool{
		"OEBPS/images/a.png": true,
		"OEBPS/images/b.png": true,
	}
	srcs := []string{
		"images/a.png",
		"images/a.png", // duplicate
		"images/b.png",
		"images/missing.png",
		"https://example.com/ext.png",
	}
	got := ResolveImages(srcs, "OEBPS", valid)
	want := []string{
		"OEBPS/images/a.png",
		"OEBPS/images/b.png",
		"https://example.com/ext.png",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveImages = %v, want %v", got, want)
	}
}

func TestResolveImagesNilValid(t *testing.T) {
	got := ResolveImages([]string{"images/a.png"}, "OEBPS", nil)
	if len(got) != 1 || got[0] != "OEBPS/images/a.png" {
		t.Errorf("ResolveImages = %v", got)
	}
}

func TestHasImageExtension(t *testing.T) {
	for _, name := range []string{"a.png", "b.JPG", "c.jpeg", "d.svg", "e.webp", "f.gif"} {
		if !HasImageExtension(name) {
			t.Errorf("HasImageExtension(%q) = false", name)
		}
	}
	for _, name := range []string{"a.css", "b.xhtml", "noext"} {
		if HasImageExtension(name) {
			t.Errorf("HasImageExtension(%q) = true", name)
		}
	}
}

func TestIsExternalURL(t *testing.T) {
	if !IsExternalURL("https://example.com/x.png") || !IsExternalURL("data:image/png;base64,xx") {
		t.Error("external URL not detected")
	}
	if IsExternalURL("images/x.png") {
		t.Error("relative path flagged external")
	}
}
