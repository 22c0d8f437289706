// Package epub opens ePub files and turns their chapters into flat,
// renderable content.
//
// Opening a document locates the package document through
// META-INF/container.xml, finds the NCX navigation document in its manifest
// and reads the top-level navigation points. Chapter content is produced on
// demand, one navigation entry at a time. DRM-protected files are detected and
// rejected with [ErrDRMProtected].
//
// # Opening an ePub
//
// Use [Open] to open a file by path, or [NewReader] to read from an [io.ReaderAt]:
//
//	doc, err := epub.Open("book.epub", epub.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer doc.Close()
//
// # Navigation
//
// [Document.Navigation] returns the navigation entries in order. An entry's
// Index is the key for [Document.ChapterContent]:
//
//	for _, e := range doc.Navigation() {
//	    fmt.Println(e.Index, e.Label)
//	}
//
// # Chapter content
//
// [Document.ChapterContent] flattens a chapter's <body> into a sequence of
// [ContentItem] values, each a [TextRun] or an [ImageRef], in document order.
// Image bytes are fetched with [Document.ReadEntry] or [Document.Image]:
//
//	for _, item := range doc.ChapterContent(0) {
//	    switch v := item.(type) {
//	    case epub.TextRun:
//	        fmt.Println(v.Text)
//	    case epub.ImageRef:
//	        data, err := doc.ReadEntry(v.Path)
//	        ...
//	    }
//	}
//
// Problems local to one chapter never fail the call: a missing chapter file
// or an unsupported node becomes a TextRun for which Diagnostic reports true.
//
// # Error Handling
//
// The package defines sentinel errors for common failure cases:
//   - [ErrNotFound] – the file does not exist
//   - [ErrCorruptArchive] – the file is not a ZIP archive
//   - [ErrMalformedPackage] – container, package or navigation document is unusable
//   - [ErrDRMProtected] – the file is DRM encrypted
//   - [ErrEntryMissing] – a requested entry is not in the archive
//   - [ErrNotImage] – an entry is not a recognised image
//   - [ErrNoCover] – no cover image could be detected
package epub
