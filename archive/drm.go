package archive

import (
	"strings"

	"github.com/beevik/etree"
)

// checkDRM rejects archives with DRM protection. META-INF/rights.xml marks
// Adobe ADEPT and is always rejected. encryption.xml needs a closer look:
// font obfuscation is harmless, content encryption is not.
func (a *Archive) checkDRM() error {
	for _, f := range a.zr.File {
		switch f.Name {
		case "META-INF/rights.xml":
			return ErrDRMProtected
		case "META-INF/encryption.xml":
			data, err := a.ReadFile(f.Name)
			if err != nil {
				return ErrDRMProtected
			}
			if hasEncryptedContent(data) {
				return ErrDRMProtected
			}
		}
	}
	return nil
}

// hasEncryptedContent reports whether encryption.xml covers content
// documents rather than just obfuscated fonts. An unparseable file is
// treated as encrypted.
func hasEncryptedContent(data []byte) bool {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return true
	}
	for _, ref := range doc.FindElements("//CipherReference") {
		uri := strings.ToLower(ref.SelectAttrValue("URI", ""))
		switch {
		case strings.HasSuffix(uri, ".ttf"), strings.HasSuffix(uri, ".otf"),
			strings.HasSuffix(uri, ".woff"), strings.HasSuffix(uri, ".woff2"):
			// Font obfuscation only.
		default:
			return true
		}
	}
	return false
}
