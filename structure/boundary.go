package structure

import (
	"github.com/Abdullah-Wex/epubsage/content"
	"github.com/Abdullah-Wex/epubsage/toc"
)

// Boundary is the computed extent of one navigation point within one file.
// Start and End are block indexes forming the half-open range [Start, End).
// An empty StartAnchor on the first boundary means "from the start of the
// file"; an empty EndAnchor on the last means "to the end of the file".
type Boundary struct {
	Point       *toc.NavigationPoint
	StartAnchor string
	EndAnchor   string
	Start       int
	End         int
}

// ResolveAnchor returns the index of the first block whose element id equals
// anchor, or -1 when no block matches. Comparison is exact: no case folding
// and no decoding, since hrefs are already URL-decoded upstream and block
// ids carry the HTML id attribute verbatim.
func ResolveAnchor(blocks []content.Block, anchor string) int {
	if anchor == "" {
		return -1
	}
	for i, b := range blocks {
		if b.ID == anchor {
			return i
		}
	}
	return -1
}

// BuildBoundaries computes a boundary for every navigation point that lands
// in one file. points must be the in-file points in flattened document
// order; blocks is that file's full block sequence.
//
// Each point's boundary starts at its resolved anchor and ends where the
// next in-file point's boundary starts; the last boundary runs to the end
// of the file. The first boundary always starts at block 0, so file
// preamble preceding the first anchor is owned by the first section rather
// than dropped. A point whose anchor cannot be resolved (or that has no
// anchor and is not first) collapses onto the following boundary's start,
// yielding an empty section; both cases are reported.
func BuildBoundaries(points []*toc.NavigationPoint, blocks []content.Block) ([]Boundary, []Warning) {
	if len(points) == 0 {
		return nil, nil
	}

	var warnings []Warning
	const unresolved = -1

	starts := make([]int, len(points))
	for i, p := range points {
		if p.Anchor == "" {
			starts[i] = unresolved
			if i > 0 {
				warnings = append(warnings, Warning{
					Code:   WarnUnresolvedAnchor,
					File:   p.FilePath,
					Detail: "entry has no anchor; section will be empty",
				})
			}
			continue
		}
		starts[i] = ResolveAnchor(blocks, p.Anchor)
		if starts[i] == unresolved {
			warnings = append(warnings, Warning{
				Code:   WarnUnresolvedAnchor,
				File:   p.FilePath,
				Anchor: p.Anchor,
				Detail: "anchor not found; section will be empty",
			})
		}
	}

	// The first boundary claims leading content regardless of where its
	// anchor sits.
	starts[0] = 0

	// Unresolved starts collapse onto the next resolved start, making the
	// affected section empty instead of stealing the gap from a neighbor.
	next := len(blocks)
	for i := len(points) - 1; i >= 1; i-- {
		if starts[i] == unresolved {
			starts[i] = next
		} else {
			next = starts[i]
		}
	}

	// Clamp to keep ranges disjoint and in document order when the TOC
	// lists anchors out of order.
	for i := 1; i < len(points); i++ {
		if starts[i] < starts[i-1] {
			warnings = append(warnings, Warning{
				Code:   WarnAnchorOutOfOrder,
				File:   points[i].FilePath,
				Anchor: points[i].Anchor,
				Detail: "anchor precedes previous entry; boundary clamped",
			})
			starts[i] = starts[i-1]
		}
	}

	boundaries := make([]Boundary, len(points))
	for i, p := range points {
		b := Boundary{Point: p, Start: starts[i]}
		if i > 0 {
			b.StartAnchor = p.Anchor
		}
		if i+1 < len(points) {
			b.End = starts[i+1]
			b.EndAnchor = points[i+1].Anchor
		} else {
			b.End = len(blocks)
		}
		boundaries[i] = b
	}
	return boundaries, warnings
}
