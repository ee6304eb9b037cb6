package archive

import (
	"io"

	"github.com/h2non/filetype"

	"github.com/Abdullah-Wex/epubsage/content"
)

// Images returns the archive paths of all image files, in archive order.
// Files with a known image extension are taken as-is; everything else is
// sniffed by content so publisher quirks (extensionless covers, misnamed
// assets) are still found.
func (a *Archive) Images() []string {
	var images []string
	for _, f := range a.zr.File {
		name := f.Name
		if content.HasImageExtension(name) {
			images = append(images, name)
			continue
		}
		if f.UncompressedSize64 == 0 || f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		head := make([]byte, 262)
		n, _ := io.ReadFull(rc, head)
		rc.Close()
		if filetype.IsImage(head[:n]) {
			images = append(images, name)
		}
	}
	return images
}

// ImageSet returns the image paths as a membership set, for validating
// in-content image references.
func (a *Archive) ImageSet() map[string]bool {
	set := make(map[string]bool)
	for _, img := range a.Images() {
		set[img] = true
	}
	return set
}
