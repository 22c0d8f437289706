package epub

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// expectedMimetype is the required content of the "mimetype" file in a valid ePub.
const expectedMimetype = "application/epub+zip"

// Document is an opened ePub: its archive, the located package and
// navigation documents, and the metadata extracted from them. Everything is
// computed once by Open or NewReader and never changes afterwards.
//
// A Document is safe for concurrent use by multiple goroutines; chapter
// content is produced fresh on every call.
type Document struct {
	archive  *Archive
	info     packageInfo
	metadata Metadata
	warnings []string
	log      *zap.Logger
}

// Open opens the ePub file at path. It fails with ErrNotFound,
// ErrCorruptArchive, ErrMalformedPackage or ErrDRMProtected.
// The caller must call Close when done reading from the document.
func Open(path string, opts ...Option) (*Document, error) {
	a, err := OpenArchive(path, opts...)
	if err != nil {
		return nil, err
	}
	d, err := newDocument(a, newOptions(opts))
	if err != nil {
		return nil, multierr.Append(err, a.Close())
	}
	return d, nil
}

// NewReader creates a Document from an io.ReaderAt with the given size.
// The caller is responsible for the lifetime of r; Close only cleans
// up internal state.
func NewReader(r io.ReaderAt, size int64, opts ...Option) (*Document, error) {
	a, err := NewArchive(r, size, opts...)
	if err != nil {
		return nil, err
	}
	return newDocument(a, newOptions(opts))
}

func newDocument(a *Archive, o options) (*Document, error) {
	d := &Document{
		archive: a,
		log:     o.log.Named("document"),
	}
	d.validateMimetype()

	obfuscated, err := checkDRM(a)
	switch {
	case errors.Is(err, errUnreadableEncryption):
		d.log.Warn("Ignoring unreadable encryption.xml", zap.Error(err))
		d.warnings = append(d.warnings, "encryption.xml is not well-formed and was ignored")
	case err != nil:
		return nil, err
	}
	if len(obfuscated) > 0 {
		d.log.Warn("Font obfuscation detected", zap.Strings("resources", obfuscated))
		d.warnings = append(d.warnings, "font obfuscation detected; obfuscated fonts may not render correctly")
	}

	if d.info, err = locate(a, d.log); err != nil {
		return nil, err
	}
	d.metadata = extractMetadata(d.info.Package)

	d.log.Info("Document opened",
		zap.String("title", d.info.Title),
		zap.Int("chapters", len(d.info.Entries)),
		zap.Int("warnings", len(d.warnings)))
	return d, nil
}

// validateMimetype checks that the first ZIP entry is named "mimetype" and
// contains "application/epub+zip". Deviations are recorded as warnings.
func (d *Document) validateMimetype() {
	warn := func(msg string) {
		d.log.Warn("Mimetype check failed", zap.String("reason", msg))
		d.warnings = append(d.warnings, msg)
	}

	first := d.archive.first()
	if first == nil {
		warn("empty ZIP archive; mimetype entry missing")
		return
	}
	if first.Name != "mimetype" {
		warn(`first ZIP entry is not "mimetype"`)
		return
	}

	data, err := readZipFileWithLimit(first, d.archive.limit)
	if err != nil {
		warn(fmt.Sprintf("cannot read mimetype entry: %v", err))
		return
	}
	if string(data) != expectedMimetype {
		warn(fmt.Sprintf("unexpected mimetype: %q", string(data)))
	}
}

// Close releases resources held by the Document. When the Document was
// created via Open, Close closes the underlying file. Close is idempotent.
func (d *Document) Close() error {
	return d.archive.Close()
}

// Title is the trimmed docTitle text of the navigation document, or "".
func (d *Document) Title() string { return d.info.Title }

// Author is the trimmed docAuthor text of the navigation document, or "".
func (d *Document) Author() string { return d.info.Author }

// Navigation returns the top-level navigation entries in document order.
// Entry i has Index i.
func (d *Document) Navigation() []NavEntry {
	return append([]NavEntry{}, d.info.Entries...)
}

// PackageDir returns the archive directory of the package document ("" at
// the archive root).
func (d *Document) PackageDir() string { return d.info.PackageDir }

// ReadEntry returns the bytes of the archive entry at path, as found in
// ImageRef.Path. It fails with ErrEntryMissing when no such entry exists.
func (d *Document) ReadEntry(path string) ([]byte, error) {
	return d.archive.Read(path)
}

// Entries returns the names of all archive entries in natural order.
func (d *Document) Entries() []string {
	return d.archive.Names()
}

// Metadata returns the extracted metadata from the package document.
func (d *Document) Metadata() Metadata {
	return copyMetadata(d.metadata)
}

// Warnings returns the list of non-fatal warnings accumulated while opening.
func (d *Document) Warnings() []string {
	return append([]string(nil), d.warnings...)
}
