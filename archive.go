package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/zap"
)

// Archive is a read-only view of the ZIP container of an ePub. The set of
// entry names is computed once when the archive is opened and never changes
// afterwards, so all lookups are map lookups and concurrent reads are safe.
type Archive struct {
	zip    *zip.Reader
	closer io.Closer            // non-nil only when created via OpenArchive()
	exact  map[string]*zip.File // exact-match namespace
	lower  map[string]*zip.File // lowercase namespace
	limit  int64
	log    *zap.Logger
}

// OpenArchive opens the ZIP file at path. It fails with ErrNotFound when the
// file does not exist or is not a regular file, and with ErrCorruptArchive
// when it cannot be read as a ZIP archive.
func OpenArchive(name string, opts ...Option) (*Archive, error) {
	fi, err := os.Stat(name)
	if err != nil {
		return nil, fmt.Errorf("epub: open %s: %w: %w", name, ErrNotFound, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("epub: open %s: is a directory: %w", name, ErrNotFound)
	}

	zrc, err := zip.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("epub: open %s: %w: %w", name, ErrCorruptArchive, err)
	}
	return newArchive(&zrc.Reader, zrc, newOptions(opts)), nil
}

// NewArchive creates an Archive from an io.ReaderAt with the given size.
// The caller is responsible for the lifetime of r.
func NewArchive(r io.ReaderAt, size int64, opts ...Option) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("epub: open zip: %w: %w", ErrCorruptArchive, err)
	}
	return newArchive(zr, nil, newOptions(opts)), nil
}

func newArchive(zr *zip.Reader, closer io.Closer, o options) *Archive {
	a := &Archive{
		zip:    zr,
		closer: closer,
		exact:  make(map[string]*zip.File, len(zr.File)),
		lower:  make(map[string]*zip.File, len(zr.File)),
		limit:  o.maxEntrySize,
		log:    o.log.Named("archive"),
	}
	skipped := 0
	for _, f := range zr.File {
		if !isSafePath(f.Name) || f.FileInfo().IsDir() {
			skipped++
			continue
		}
		if _, exists := a.exact[f.Name]; !exists {
			a.exact[f.Name] = f // first match wins for exact
		}
		lower := strings.ToLower(f.Name)
		if _, exists := a.lower[lower]; !exists {
			a.lower[lower] = f // first match wins for case-insensitive
		}
	}
	a.log.Debug("Archive indexed", zap.Int("entries", len(a.exact)), zap.Int("skipped", skipped))
	return a
}

// Close releases the underlying file when the archive was created via
// OpenArchive. Close is idempotent.
func (a *Archive) Close() error {
	if a.closer != nil {
		err := a.closer.Close()
		a.closer = nil
		return err
	}
	return nil
}

// Contains reports whether name is an entry of the archive. An exact match is
// tried first, then a case-insensitive one.
func (a *Archive) Contains(name string) bool {
	return a.lookup(name) != nil
}

// Read returns the decompressed content of the named entry. It fails with
// ErrEntryMissing when the entry is not part of the namespace.
func (a *Archive) Read(name string) ([]byte, error) {
	f := a.lookup(name)
	if f == nil {
		return nil, fmt.Errorf("epub: %s: %w", name, ErrEntryMissing)
	}
	return readZipFileWithLimit(f, a.limit)
}

// Names returns all entry names in natural order.
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.exact))
	for name := range a.exact {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))
	return names
}

func (a *Archive) lookup(name string) *zip.File {
	if f, ok := a.exact[name]; ok {
		return f
	}
	if f, ok := a.lower[strings.ToLower(name)]; ok {
		return f
	}
	return nil
}

// first returns the first entry of the central directory, which for a
// conforming ePub is "mimetype".
func (a *Archive) first() *zip.File {
	if len(a.zip.File) == 0 {
		return nil
	}
	return a.zip.File[0]
}

// isSafePath checks whether p is a safe ZIP-internal path that does not
// escape the archive root via path traversal (e.g., "../../../etc/passwd").
func isSafePath(p string) bool {
	if p == "" {
		return false
	}
	cleaned := path.Clean(strings.ReplaceAll(p, `\`, "/"))
	if strings.HasPrefix(cleaned, "/") {
		return false
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return false
	}
	return true
}

// stripBOM removes a leading UTF-8 BOM (0xEF 0xBB 0xBF) from data, if present.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// readZipFileWithLimit reads the full contents of a ZIP entry, refusing
// entries whose decompressed size exceeds limit.
func readZipFileWithLimit(f *zip.File, limit int64) ([]byte, error) {
	if f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("epub: zip entry %s too large: %d bytes (max %d)", f.Name, f.UncompressedSize64, limit)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("epub: open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	// Read up to limit+1 to detect if the actual decompressed data
	// exceeds the limit (the declared size might be wrong/forged).
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("epub: read zip entry %s: %w", f.Name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("epub: zip entry %s decompressed size exceeds limit (%d bytes)", f.Name, limit)
	}

	return data, nil
}
