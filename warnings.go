package epubsage

import "github.com/Abdullah-Wex/epubsage/structure"

// Warning is a non-fatal problem found while parsing a book. Extraction
// continues past warnings; callers decide whether to surface them.
type Warning = structure.Warning

// Warning codes raised at the book level, in addition to the codes the
// structure package raises during section extraction.
const (
	WarnNoNavigation       = structure.WarningCode("no_navigation")
	WarnInvalidNavigation  = structure.WarningCode("invalid_navigation")
	WarnMissingSpineItem   = structure.WarningCode("missing_spine_item")
	WarnUnparsableDocument = structure.WarningCode("unparsable_document")
)

// FormatWarnings renders warnings one per line for logging.
func FormatWarnings(warnings []Warning) string {
	return structure.FormatWarnings(warnings)
}

// Must wraps a call returning (T, error) and panics on error. Intended
// for scripts and tests where error handling would be cumbersome.
//
//	book := epubsage.Must(epubsage.Open("book.epub"))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
