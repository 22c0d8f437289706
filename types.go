package epub

import "fmt"

// Metadata holds the Dublin Core and other metadata extracted from the OPF file.
type Metadata struct {
	// Version is the ePub specification version (e.g., "2.0", "3.0").
	Version string

	// Titles contains all dc:title values. The first entry is the primary title.
	Titles []string

	// Authors contains all dc:creator entries with their roles and file-as values.
	Authors []Author

	// Language contains all dc:language values (BCP 47 tags, e.g., "en", "zh-CN").
	Language []string

	// Identifiers contains all dc:identifier entries (ISBN, UUID, URI, etc.).
	Identifiers []Identifier

	// Publisher is the dc:publisher value.
	Publisher string

	// Date is the dc:date value (publication date as raw string).
	Date string

	// Description is the dc:description value.
	Description string

	// Subjects contains all dc:subject values.
	Subjects []string

	// Rights is the dc:rights value.
	Rights string

	// Source is the dc:source value.
	Source string
}

// Author represents a dc:creator entry with optional file-as and role attributes.
type Author struct {
	Name   string
	FileAs string
	Role   string
}

// Identifier represents a dc:identifier entry.
type Identifier struct {
	Value  string
	Scheme string
	ID     string
}

// NavEntry is one top-level entry of the NCX navigation map.
type NavEntry struct {
	// Index is the position of the entry in Document.Navigation. It is the
	// key passed to Document.ChapterContent.
	Index int

	// Label is the trimmed navLabel text.
	Label string

	// Target is the raw content src attribute, relative to the package
	// document directory and possibly carrying a fragment.
	Target string
}

// ContentItem is a renderable piece of chapter content: a TextRun or an
// ImageRef. Consumers switch on the concrete type.
type ContentItem interface {
	contentItem()
}

// HeaderLevel is the heading level of a TextRun.
type HeaderLevel int

const (
	HeaderNone HeaderLevel = iota
	Header1
	Header2
	Header3
)

// Alignment is the horizontal alignment of a TextRun.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

func (a Alignment) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

// provenance records which traversal branch produced a TextRun. It is only
// consulted by the deduplication pass.
type provenance int

const (
	fromRawText provenance = iota
	fromElement
	fromDiagnostic
)

// TextRun is a trimmed run of text with its presentation attributes.
type TextRun struct {
	Text    string
	Heading HeaderLevel
	Strong  bool
	Align   Alignment
	// Color is the CSS color value from the inline style, or "".
	Color string

	origin provenance
}

// Diagnostic reports whether the run was synthesised to describe a problem
// with the source document (missing entry, unsupported node, broken image)
// rather than taken from its text.
func (t TextRun) Diagnostic() bool { return t.origin == fromDiagnostic }

func (t TextRun) String() string {
	return fmt.Sprintf("Text(text=%s)", t.Text)
}

// ImageRef references an image by its resolved archive path. Remote
// references (http, data URIs) are kept verbatim.
type ImageRef struct {
	Path string
}

// Remote reports whether the reference points outside the archive.
func (r ImageRef) Remote() bool { return isRemoteRef(r.Path) }

func (r ImageRef) String() string {
	return fmt.Sprintf("Image(src=%s)", r.Path)
}

func (TextRun) contentItem()  {}
func (ImageRef) contentItem() {}

// diagnostic builds a TextRun describing a problem found while extracting
// content.
func diagnostic(format string, args ...any) TextRun {
	return TextRun{Text: fmt.Sprintf(format, args...), origin: fromDiagnostic}
}

// Image holds the bytes of an archive image together with its sniffed type
// and dimensions.
type Image struct {
	// Path is the ZIP-internal path of the image.
	Path string

	// MediaType is the sniffed MIME type (e.g., "image/jpeg").
	MediaType string

	// Width and Height are the pixel dimensions, or 0 when the format has
	// no registered decoder (e.g., SVG).
	Width, Height int

	// Data is the raw image bytes.
	Data []byte
}

// manifestItem represents an entry in the OPF <manifest> element.
type manifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties string
}
