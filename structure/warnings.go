// Package structure maps flat content-block sequences onto the hierarchical
// table of contents, producing nested sections with exact boundaries and
// accumulated word counts. It is pure: no I/O, no shared state, and every
// anomaly in the navigation data degrades to a recorded warning instead of
// an error, because real-world EPUBs routinely ship inconsistent TOCs.
package structure

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNilNavigation is returned when Assemble is handed a nil navigation tree.
// An empty tree is valid input; a nil one is a caller bug.
var ErrNilNavigation = errors.New("structure: nil navigation tree")

// WarningCode classifies a non-fatal extraction anomaly.
type WarningCode string

const (
	// WarnUnresolvedAnchor marks a TOC anchor with no matching block id.
	WarnUnresolvedAnchor WarningCode = "unresolved_anchor"
	// WarnMissingFile marks a TOC entry targeting a file absent from the
	// supplied content map.
	WarnMissingFile WarningCode = "missing_file"
	// WarnAnchorOutOfOrder marks an anchor resolving before the previous
	// entry's position; the boundary is clamped to keep ranges disjoint.
	WarnAnchorOutOfOrder WarningCode = "anchor_out_of_order"
	// WarnSpineOrderMismatch marks a TOC whose file order disagrees with
	// the spine reading order. Content is not reordered.
	WarnSpineOrderMismatch WarningCode = "spine_order_mismatch"
)

// Warning records one recovered anomaly. Warnings accompany results instead
// of aborting them.
type Warning struct {
	Code   WarningCode
	File   string
	Anchor string
	Detail string
}

func (w Warning) String() string {
	var sb strings.Builder
	sb.WriteString(string(w.Code))
	if w.File != "" {
		fmt.Fprintf(&sb, " file=%s", w.File)
	}
	if w.Anchor != "" {
		fmt.Fprintf(&sb, " anchor=%s", w.Anchor)
	}
	if w.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(w.Detail)
	}
	return sb.String()
}

// FormatWarnings renders warnings one per line for display.
func FormatWarnings(warnings []Warning) string {
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}
