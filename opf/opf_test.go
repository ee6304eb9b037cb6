package opf

import (
	"testing"
	"time"
)

const sampleOPF3 = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="pub-id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>The Example</dc:title>
    <dc:creator id="creator01">Jane Author</dc:creator>
    <meta refines="#creator01" property="role" scheme="marc:relators">aut</meta>
    <meta refines="#creator01" property="file-as">Author, Jane</meta>
    <dc:creator id="creator02">Ed Itor</dc:creator>
    <meta refines="#creator02" property="role" scheme="marc:relators">edt</meta>
    <dc:language>en-US</dc:language>
    <dc:identifier id="pub-id">urn:isbn:9780306406157</dc:identifier>
    <dc:publisher>Example Press</dc:publisher>
    <dc:description>A book about examples.</dc:description>
    <dc:subject>Testing</dc:subject>
    <dc:date>2021-03-04</dc:date>
    <meta property="dcterms:modified">2023-01-02T03:04:05Z</meta>
  </metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="c1" href="text/c1.xhtml" media-type="application/xhtml+xml"/>
    <item id="c2" href="text/c2.xhtml" media-type="application/xhtml+xml"/>
    <item id="cover-img" href="images/cover.jpg" media-type="image/jpeg" properties="cover-image"/>
  </manifest>
  <spine>
    <itemref idref="c1"/>
    <itemref idref="c2" linear="no"/>
  </spine>
</package>`

func parseSample(t *testing.T, data string) *Package {
	t.Helper()
	pkg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return pkg
}

func TestParseEPUB3(t *testing.T) {
	pkg := parseSample(t, sampleOPF3)

	if pkg.Version != "3.0" {
		t.Errorf("version = %q", pkg.Version)
	}
	m := pkg.Metadata
	if m.Title != "The Example" {
		t.Errorf("title = %q", m.Title)
	}
	if len(m.Creators) != 2 {
		t.Fatalf("got %d creators, want 2", len(m.Creators))
	}
	if m.Creators[0].Role != "aut" || m.Creators[0].FileAs != "Author, Jane" {
		t.Errorf("creator 0 = %+v", m.Creators[0])
	}
	if m.Creators[1].Role != "edt" {
		t.Errorf("creator 1 = %+v", m.Creators[1])
	}
	if m.PrimaryAuthor() != "Jane Author" {
		t.Errorf("primary author = %q", m.PrimaryAuthor())
	}
	if m.ISBN() != "9780306406157" {
		t.Errorf("isbn = %q", m.ISBN())
	}
	want := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	if !m.Modified.Equal(want) {
		t.Errorf("modified = %v", m.Modified)
	}
	if len(pkg.Manifest) != 4 {
		t.Errorf("manifest = %d items", len(pkg.Manifest))
	}
	if len(pkg.Spine) != 2 || !pkg.Spine[0].Linear || pkg.Spine[1].Linear {
		t.Errorf("spine = %+v", pkg.Spine)
	}
}

func TestManifestLookups(t *testing.T) {
	pkg := parseSample(t, sampleOPF3)

	if item, ok := pkg.ItemByID("c1"); !ok || item.Href != "text/c1.xhtml" {
		t.Errorf("ItemByID(c1) = %+v, %v", item, ok)
	}
	if _, ok := pkg.ItemByID("missing"); ok {
		t.Error("found nonexistent item")
	}
	if item, ok := pkg.NavItem(); !ok || item.ID != "nav" {
		t.Errorf("NavItem = %+v, %v", item, ok)
	}
	if _, ok := pkg.NCXItem(); ok {
		t.Error("found NCX in an EPUB 3 only package")
	}
	if item, ok := pkg.CoverItem(); !ok || item.ID != "cover-img" {
		t.Errorf("CoverItem = %+v, %v", item, ok)
	}
}

const sampleOPF2 = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>Old Style</dc:title>
    <dc:creator opf:role="aut" opf:file-as="Writer, W.">W. Writer</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier id="bookid" opf:scheme="ISBN">9780306406157</dc:identifier>
    <dc:date opf:event="publication">2001-01-01</dc:date>
    <meta name="cover" content="my-cover"/>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="c1" href="c1.html" media-type="application/xhtml+xml"/>
    <item id="my-cover" href="cover.jpg" media-type="image/jpeg"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="c1"/>
  </spine>
</package>`

func TestParseEPUB2(t *testing.T) {
	pkg := parseSample(t, sampleOPF2)

	m := pkg.Metadata
	if m.Creators[0].Role != "aut" || m.Creators[0].FileAs != "Writer, W." {
		t.Errorf("creator = %+v", m.Creators[0])
	}
	if m.ISBN() != "9780306406157" {
		t.Errorf("isbn = %q", m.ISBN())
	}
	if len(m.Dates) != 1 || m.Dates[0].Event != "publication" {
		t.Errorf("dates = %+v", m.Dates)
	}
	if item, ok := pkg.NCXItem(); !ok || item.Href != "toc.ncx" {
		t.Errorf("NCXItem = %+v, %v", item, ok)
	}
	// Cover comes from the meta name="cover" reference.
	if item, ok := pkg.CoverItem(); !ok || item.Href != "cover.jpg" {
		t.Errorf("CoverItem = %+v, %v", item, ok)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"garbage", "not xml at all <><"},
		{"wrong root", `<?xml version="1.0"?><html/>`},
		{"empty spine", `<?xml version="1.0"?><package version="3.0"><metadata/><manifest/><spine/></package>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGeneratedIdentifier(t *testing.T) {
	data := `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>No Identifier</dc:title>
  </metadata>
  <manifest><item id="c1" href="c1.html" media-type="application/xhtml+xml"/></manifest>
  <spine><itemref idref="c1"/></spine>
</package>`
	pkg := parseSample(t, data)

	if len(pkg.Metadata.Identifiers) != 1 {
		t.Fatalf("identifiers = %+v", pkg.Metadata.Identifiers)
	}
	first := pkg.Metadata.Identifiers[0].Value

	// Derived identifiers are stable across runs.
	again := parseSample(t, data)
	if again.Metadata.Identifiers[0].Value != first {
		t.Errorf("derived identifier not stable: %q vs %q", first, again.Metadata.Identifiers[0].Value)
	}

	// A derived identifier does not satisfy the required field.
	v := pkg.Validate()
	if v.RequiredFields["identifier"] {
		t.Error("derived identifier counted as declared")
	}
	if v.Valid {
		t.Error("package with no declared identifier reported valid")
	}
}

func TestValidate(t *testing.T) {
	v := parseSample(t, sampleOPF3).Validate()

	if !v.Valid {
		t.Errorf("valid = false, warnings: %v", v.Warnings)
	}
	if v.QualityScore != 1.0 {
		t.Errorf("quality = %v, want 1.0", v.QualityScore)
	}
	if v.ManifestItems != 4 || v.SpineItems != 2 {
		t.Errorf("counts = %d manifest, %d spine", v.ManifestItems, v.SpineItems)
	}
}

func TestValidateBadLanguage(t *testing.T) {
	data := `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>T</dc:title>
    <dc:creator>C</dc:creator>
    <dc:identifier>id-1</dc:identifier>
    <dc:language>not a language tag</dc:language>
  </metadata>
  <manifest><item id="c1" href="c1.html" media-type="application/xhtml+xml"/></manifest>
  <spine><itemref idref="c1"/></spine>
</package>`
	v := parseSample(t, data).Validate()

	if !v.Valid {
		t.Error("bad language tag should warn, not invalidate")
	}
	if len(v.Warnings) == 0 {
		t.Error("missing language tag warning")
	}
}
