// Package archive opens EPUB containers: ZIP access, mimetype and DRM
// checks, container.xml resolution, file listing and extraction to disk.
package archive

import (
	"archive/zip"
	"errors"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/multierr"
)

// Archive-level errors.
var (
	ErrInvalidArchive  = errors.New("archive: invalid or corrupted archive")
	ErrInvalidMimetype = errors.New("archive: invalid mimetype (not an EPUB)")
	ErrNoContainer     = errors.New("archive: missing META-INF/container.xml")
	ErrNoRootfile      = errors.New("archive: no rootfile found in container.xml")
	ErrDRMProtected    = errors.New("archive: DRM-protected content cannot be processed")
	ErrMissingFile     = errors.New("archive: file not found in archive")
)

// Archive provides read access to an EPUB container.
type Archive struct {
	zrc     *zip.ReadCloser
	zr      *zip.Reader
	opfPath string
}

// Open opens an EPUB archive from a path.
func Open(path string) (*Archive, error) {
	zrc, err := zip.OpenReader(path)
	if err != nil {
		return nil, ErrInvalidArchive
	}
	a := &Archive{zrc: zrc, zr: &zrc.Reader}
	if err := a.init(); err != nil {
		zrc.Close()
		return nil, err
	}
	return a, nil
}

// OpenReader opens an EPUB archive from an io.ReaderAt.
func OpenReader(ra io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, ErrInvalidArchive
	}
	a := &Archive{zr: zr}
	if err := a.init(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Archive) init() error {
	// A wrong mimetype file means this is not an EPUB; a missing one is
	// tolerated because plenty of real books omit it.
	if data, err := a.ReadFile("mimetype"); err == nil {
		if strings.TrimSpace(string(data)) != "application/epub+zip" {
			return ErrInvalidMimetype
		}
	}

	// Encrypted books are rejected up front; decryption is out of scope.
	if err := a.checkDRM(); err != nil {
		return err
	}

	opfPath, err := a.parseContainer()
	if err != nil {
		return err
	}
	a.opfPath = opfPath
	return nil
}

// parseContainer reads META-INF/container.xml and returns the OPF path.
func (a *Archive) parseContainer() (string, error) {
	data, err := a.ReadFile("META-INF/container.xml")
	if err != nil {
		return "", ErrNoContainer
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return "", ErrNoContainer
	}
	root := doc.Root()
	if root == nil {
		return "", ErrNoContainer
	}

	var first string
	for _, rf := range root.FindElements("//rootfile") {
		full := rf.SelectAttrValue("full-path", "")
		if full == "" {
			continue
		}
		if first == "" {
			first = full
		}
		media := rf.SelectAttrValue("media-type", "")
		if media == "application/oebps-package+xml" || media == "" {
			return full, nil
		}
	}
	if first != "" {
		return first, nil
	}
	return "", ErrNoRootfile
}

// Close releases the underlying file handle, if any.
func (a *Archive) Close() error {
	if a.zrc != nil {
		return a.zrc.Close()
	}
	return nil
}

// OPFPath returns the package document path inside the archive.
func (a *Archive) OPFPath() string { return a.opfPath }

// BaseDir returns the directory containing the OPF, against which manifest
// hrefs resolve. Empty for a root-level OPF.
func (a *Archive) BaseDir() string {
	dir := path.Dir(a.opfPath)
	if dir == "." {
		return ""
	}
	return dir
}

// Resolve resolves a manifest href against the OPF base directory,
// decoding percent-escapes.
func (a *Archive) Resolve(href string) string {
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}
	if a.BaseDir() == "" {
		return href
	}
	return path.Join(a.BaseDir(), href)
}

// List returns the names of all files in the archive, in archive order.
func (a *Archive) List() []string {
	names := make([]string, 0, len(a.zr.File))
	for _, f := range a.zr.File {
		names = append(names, f.Name)
	}
	return names
}

// TotalSize returns the sum of uncompressed file sizes.
func (a *Archive) TotalSize() int64 {
	var total int64
	for _, f := range a.zr.File {
		total += int64(f.UncompressedSize64)
	}
	return total
}

// ReadFile reads one file from the archive by exact name.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	for _, f := range a.zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, ErrMissingFile
}

// ExtractTo writes every archive file under dir, preserving archive paths.
// Per-file failures are aggregated; extraction continues past them.
func (a *Archive) ExtractTo(dir string) (err error) {
	for _, f := range a.zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		if er := a.extractOne(f, filepath.Join(dir, filepath.FromSlash(f.Name))); er != nil {
			err = multierr.Append(err, er)
		}
	}
	return err
}

// ExtractFile writes a single archive file to dest.
func (a *Archive) ExtractFile(name, dest string) error {
	for _, f := range a.zr.File {
		if f.Name == name {
			return a.extractOne(f, dest)
		}
	}
	return ErrMissingFile
}

func (a *Archive) extractOne(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
