package epub

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// buildTestZipBytes creates an in-memory ZIP archive from the provided files
// map (path → content). A "mimetype" entry is always written first; the
// others follow in sorted order so that archive layout is deterministic.
// It calls t.Fatal on any error.
func buildTestZipBytes(t testing.TB, files map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		if name != "mimetype" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := files["mimetype"]; ok {
		names = append([]string{"mimetype"}, names...)
	}

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, name := range names {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("buildTestZipBytes: create %s: %v", name, err)
		}
		if _, err := io.WriteString(fw, files[name]); err != nil {
			t.Fatalf("buildTestZipBytes: write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("buildTestZipBytes: close writer: %v", err)
	}
	return buf.Bytes()
}

// buildTestArchive returns an Archive over an in-memory ZIP of files.
func buildTestArchive(t testing.TB, files map[string]string, opts ...Option) *Archive {
	t.Helper()
	data := buildTestZipBytes(t, files)
	a, err := NewArchive(bytes.NewReader(data), int64(len(data)), opts...)
	if err != nil {
		t.Fatalf("buildTestArchive: %v", err)
	}
	return a
}

// buildTestEPubFile writes an ePub (ZIP) archive to a temporary file and returns
// the file path. This variant is useful for testing Open() which requires a file path.
func buildTestEPubFile(t testing.TB, files map[string]string) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), "test.epub")
	if err := os.WriteFile(fp, buildTestZipBytes(t, files), 0644); err != nil {
		t.Fatalf("buildTestEPubFile: write file: %v", err)
	}
	return fp
}

// openTestDocument opens files as a Document through NewReader.
func openTestDocument(t testing.TB, files map[string]string) *Document {
	t.Helper()
	data := buildTestZipBytes(t, files)
	d, err := NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// validContainerXML is a well-formed META-INF/container.xml pointing to an OPF.
const validContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

// testOPF is an ePub 2 package document with an NCX and two chapters.
const testOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package version="2.0" xmlns="http://www.idpf.org/2007/opf" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>Package Title</dc:title>
    <dc:creator opf:role="aut">Jane Doe</dc:creator>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="ch1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="text/ch2.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
  </spine>
</package>`

// testNCX has two top-level navPoints, the first with a nested child.
const testNCX = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <docTitle><text>  A Test Book </text></docTitle>
  <docAuthor><text>Jane Doe</text></docAuthor>
  <navMap>
    <navPoint id="np1" playOrder="1">
      <navLabel><text> Chapter One </text></navLabel>
      <content src="text/ch1.xhtml"/>
      <navPoint id="np1-1" playOrder="2">
        <navLabel><text>Section</text></navLabel>
        <content src="text/ch1.xhtml#s1"/>
      </navPoint>
    </navPoint>
    <navPoint id="np2" playOrder="3">
      <navLabel><text>Chapter Two</text></navLabel>
      <content src="text/ch2.xhtml#start"/>
    </navPoint>
  </navMap>
</ncx>`

const testChapter1 = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>One</title><link rel="stylesheet" href="../style.css"/></head>
<body>
<h1>Chapter One</h1>
<p>Hello <b>world</b></p>
<p><img src="../images/fig1.png" alt="figure"/></p>
</body>
</html>`

const testChapter2 = `<html><body><p style="text-align: center; color: #333">Centered</p></body></html>`

// testBookFiles returns a complete ePub file set. Entries in extra override
// or add to the defaults; an empty value deletes the entry.
func testBookFiles(extra map[string]string) map[string]string {
	files := map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": validContainerXML,
		"OEBPS/content.opf":      testOPF,
		"OEBPS/toc.ncx":          testNCX,
		"OEBPS/text/ch1.xhtml":   testChapter1,
		"OEBPS/text/ch2.xhtml":   testChapter2,
	}
	for k, v := range extra {
		if v == "" {
			delete(files, k)
			continue
		}
		files[k] = v
	}
	return files
}
