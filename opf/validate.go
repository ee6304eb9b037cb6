package opf

import (
	"fmt"

	"golang.org/x/text/language"
)

// Validation is the outcome of checking a package document against the
// metadata fields EPUB requires and recommends.
type Validation struct {
	Valid          bool
	QualityScore   float64 // fraction of scored fields present, 0..1
	RequiredFields map[string]bool
	ManifestItems  int
	SpineItems     int
	Warnings       []string
}

// Validate checks required Dublin Core fields (title, creator, identifier,
// language), scores recommended ones, and sanity-checks the language tag.
// Missing fields make the package invalid but never unparseable; callers
// surface the result, they don't abort on it.
func (p *Package) Validate() Validation {
	m := p.Metadata
	v := Validation{
		RequiredFields: map[string]bool{
			"title":      m.Title != "",
			"creator":    len(m.Creators) > 0,
			"identifier": len(m.Identifiers) > 0 && !p.generatedID,
			"language":   m.Language != "",
		},
		ManifestItems: len(p.Manifest),
		SpineItems:    len(p.Spine),
	}

	v.Valid = true
	for _, field := range []string{"title", "creator", "identifier", "language"} {
		if !v.RequiredFields[field] {
			v.Valid = false
			v.Warnings = append(v.Warnings, fmt.Sprintf("missing required field: %s", field))
		}
	}

	scored := []bool{
		m.Title != "",
		len(m.Creators) > 0,
		len(m.Identifiers) > 0 && !p.generatedID,
		m.Language != "",
		m.Publisher != "",
		m.Description != "",
		len(m.Subjects) > 0,
		len(m.Dates) > 0,
	}
	present := 0
	for _, ok := range scored {
		if ok {
			present++
		}
	}
	v.QualityScore = float64(present) / float64(len(scored))

	if m.Language != "" {
		if _, err := language.Parse(m.Language); err != nil {
			v.Warnings = append(v.Warnings, fmt.Sprintf("language tag %q is not a valid BCP 47 tag", m.Language))
		}
	}
	if v.SpineItems == 0 {
		v.Valid = false
		v.Warnings = append(v.Warnings, "spine is empty")
	}
	return v
}
