package structure

import (
	"github.com/Abdullah-Wex/epubsage/content"
	"github.com/Abdullah-Wex/epubsage/toc"
)

// Result is the assembled section forest for a whole book. Sections maps
// each content file path to its top-level sections in TOC order; Files
// lists the map keys in deterministic order (spine order first, then
// TOC-only files in TOC order). Warnings aggregates every recovered
// anomaly across the book.
type Result struct {
	Sections map[string][]*Section
	Files    []string
	Warnings []Warning
}

// Assemble builds the full section forest: it flattens the navigation tree,
// groups points by target file, computes boundaries and extracts sections
// per file, then re-walks the tree to attach subsections in child order.
//
// files maps each content file path to its parsed block sequence; spine is
// the reading order and may be nil. A file referenced by the TOC but absent
// from files yields empty sections for its points plus a warning, never an
// error. An empty tree yields an empty forest for every spine file, which
// is the expected shape for books without a NAV/NCX document. Identical
// input always produces identical output; no map iteration order leaks into
// the result.
func Assemble(tree *toc.Tree, files map[string][]content.Block, spine []string) (*Result, error) {
	if tree == nil {
		return nil, ErrNilNavigation
	}

	res := &Result{Sections: make(map[string][]*Section)}

	flat := tree.Flatten()
	ordinals := make(map[*toc.NavigationPoint]int, len(flat))
	for i, p := range flat {
		ordinals[p] = i + 1
	}

	// Group points by file in first-appearance order.
	var fileOrder []string
	grouped := make(map[string][]*toc.NavigationPoint)
	for _, p := range flat {
		if _, ok := grouped[p.FilePath]; !ok {
			fileOrder = append(fileOrder, p.FilePath)
		}
		grouped[p.FilePath] = append(grouped[p.FilePath], p)
	}

	res.Warnings = append(res.Warnings, spineMismatch(fileOrder, spine)...)

	// Per-file boundary building and extraction.
	byPoint := make(map[*toc.NavigationPoint]*Section, len(flat))
	for _, fp := range fileOrder {
		points := grouped[fp]
		blocks, ok := files[fp]
		if !ok {
			for _, p := range points {
				byPoint[p] = ExtractSection(Boundary{Point: p}, nil, ordinals[p])
				res.Warnings = append(res.Warnings, Warning{
					Code:   WarnMissingFile,
					File:   fp,
					Anchor: p.Anchor,
					Detail: "file not present in content map; section is empty",
				})
			}
			continue
		}

		boundaries, warns := BuildBoundaries(points, blocks)
		res.Warnings = append(res.Warnings, warns...)
		for _, b := range boundaries {
			byPoint[b.Point] = ExtractSection(b, blocks, ordinals[b.Point])
		}
	}

	// Re-walk the original tree to attach subsections in child order.
	var attach func(points []*toc.NavigationPoint) []*Section
	attach = func(points []*toc.NavigationPoint) []*Section {
		out := make([]*Section, 0, len(points))
		for _, p := range points {
			sec := byPoint[p]
			sec.Subsections = attach(p.Children)
			if len(sec.Subsections) == 0 {
				sec.Subsections = nil
			}
			out = append(out, sec)
		}
		return out
	}
	for i, sec := range attach(tree.Points) {
		fp := tree.Points[i].FilePath
		res.Sections[fp] = append(res.Sections[fp], sec)
	}

	res.Files = orderFiles(fileOrder, spine)
	return res, nil
}

// spineMismatch reports when the TOC visits spine files in a different
// relative order than the spine itself.
func spineMismatch(tocOrder, spine []string) []Warning {
	if len(spine) == 0 {
		return nil
	}
	pos := make(map[string]int, len(spine))
	for i, fp := range spine {
		pos[fp] = i
	}
	last := -1
	for _, fp := range tocOrder {
		i, ok := pos[fp]
		if !ok {
			continue
		}
		if i < last {
			return []Warning{{
				Code:   WarnSpineOrderMismatch,
				File:   fp,
				Detail: "TOC references files out of spine order; content not reordered",
			}}
		}
		last = i
	}
	return nil
}

// orderFiles merges spine order with TOC-only files: spine files first in
// spine order, then files the TOC references outside the spine, in TOC
// order.
func orderFiles(tocOrder, spine []string) []string {
	seen := make(map[string]bool, len(spine)+len(tocOrder))
	out := make([]string, 0, len(spine)+len(tocOrder))
	for _, fp := range spine {
		if !seen[fp] {
			seen[fp] = true
			out = append(out, fp)
		}
	}
	for _, fp := range tocOrder {
		if !seen[fp] {
			seen[fp] = true
			out = append(out, fp)
		}
	}
	return out
}
