package content

import (
	"strings"
)

// ImageExtensions are image file suffixes recognized inside EPUB archives.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp"}

var externalPrefixes = []string{"http://", "https://", "data:"}

// IsExternalURL reports whether an image source points outside the archive.
func IsExternalURL(src string) bool {
	for _, p := range externalPrefixes {
		if strings.HasPrefix(src, p) {
			return true
		}
	}
	return false
}

// HasImageExtension reports whether name ends in a known image suffix.
func HasImageExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range ImageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ResolveImagePath resolves an image src from an HTML file against that
// file's directory, producing an archive-root-relative path. External URLs
// pass through untouched. An empty result means the src was unusable.
func ResolveImagePath(src, htmlDir string) string {
	if IsExternalURL(src) {
		return src
	}

	// Drop fragment and query parts.
	if i := strings.IndexByte(src, '#'); i >= 0 {
		src = src[:i]
	}
	if i := strings.IndexByte(src, '?'); i >= 0 {
		src = src[:i]
	}
	if src == "" {
		return ""
	}

	src = strings.ReplaceAll(src, "\\", "/")
	segs := strings.Split(src, "/")
	var out []string
	if htmlDir != "" {
		out = strings.Split(strings.ReplaceAll(htmlDir, "\\", "/"), "/")
	}
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

// ResolveImages resolves and deduplicates image srcs against htmlDir,
// keeping encounter order. When valid is non-nil, archive-internal paths not
// present in it are dropped; external URLs always pass.
func ResolveImages(srcs []string, htmlDir string, valid map[string]bool) []string {
	seen := make(map[string]bool, len(srcs))
	var out []string
	for _, src := range srcs {
		resolved := ResolveImagePath(src, htmlDir)
		if resolved == "" || seen[resolved] {
			continue
		}
		if !IsExternalURL(resolved) && valid != nil && !valid[resolved] {
			continue
		}
		seen[resolved] = true
		out = append(out, resolved)
	}
	return out
}
