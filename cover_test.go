package epub

import (
	"errors"
	"testing"
)

// coverOPF returns a package document with the NCX item, the two test
// chapters and the given metadata, manifest and guide fragments.
func coverOPF(meta, manifest, guide string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">` + meta + `</metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="ch1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="text/ch2.xhtml" media-type="application/xhtml+xml"/>` + manifest + `
  </manifest>
  <spine toc="ncx"><itemref idref="ch1"/><itemref idref="ch2"/></spine>
  <guide>` + guide + `</guide>
</package>`
}

func TestCover(t *testing.T) {
	png := testPNG(t, 4, 3)
	jpg := testJPEG(t, 6, 9)

	tests := []struct {
		name     string
		opf      string
		files    map[string]string
		wantPath string
		wantType string
	}{
		{
			name: "cover-image property",
			opf: coverOPF("",
				`<item id="c" href="images/cover.png" media-type="image/png" properties="cover-image"/>`, ""),
			files:    map[string]string{"OEBPS/images/cover.png": png},
			wantPath: "OEBPS/images/cover.png",
			wantType: "image/png",
		},
		{
			name: "meta cover naming an image",
			opf: coverOPF(`<meta name="cover" content="front"/>`,
				`<item id="front" href="images/front.jpg" media-type="image/jpeg"/>`, ""),
			files:    map[string]string{"OEBPS/images/front.jpg": jpg},
			wantPath: "OEBPS/images/front.jpg",
			wantType: "image/jpeg",
		},
		{
			name: "meta cover naming a cover page",
			opf: coverOPF(`<meta name="cover" content="page"/>`,
				`<item id="page" href="titlepage.xhtml" media-type="application/xhtml+xml"/>`, ""),
			files: map[string]string{
				"OEBPS/titlepage.xhtml":  `<html><body><div><img src="images/title.png"/></div></body></html>`,
				"OEBPS/images/title.png": png,
			},
			wantPath: "OEBPS/images/title.png",
			wantType: "image/png",
		},
		{
			name: "guide reference to an svg cover page",
			opf: coverOPF("", "",
				`<reference type="Cover" title="Cover" href="text/cover.xhtml#top"/>`),
			files: map[string]string{
				"OEBPS/text/cover.xhtml": `<html><body><svg xmlns:xlink="http://www.w3.org/1999/xlink">
  <image width="600" height="800" xlink:href="../images/g.jpg"/></svg></body></html>`,
				"OEBPS/images/g.jpg": jpg,
			},
			wantPath: "OEBPS/images/g.jpg",
			wantType: "image/jpeg",
		},
		{
			name: "manifest heuristic",
			opf: coverOPF("",
				`<item id="img1" href="images/fig1.png" media-type="image/png"/>
    <item id="img2" href="images/My-Cover.png" media-type="image/png"/>`, ""),
			files:    map[string]string{"OEBPS/images/My-Cover.png": png},
			wantPath: "OEBPS/images/My-Cover.png",
			wantType: "image/png",
		},
		{
			name:     "first image of the first chapter",
			opf:      coverOPF("", "", ""),
			files:    map[string]string{"OEBPS/images/fig1.png": png},
			wantPath: "OEBPS/images/fig1.png",
			wantType: "image/png",
		},
		{
			name: "property wins over heuristic",
			opf: coverOPF("",
				`<item id="cover" href="images/cover.jpg" media-type="image/jpeg"/>
    <item id="art" href="images/art.png" media-type="image/png" properties="svg cover-image"/>`, ""),
			files: map[string]string{
				"OEBPS/images/cover.jpg": jpg,
				"OEBPS/images/art.png":   png,
			},
			wantPath: "OEBPS/images/art.png",
			wantType: "image/png",
		},
		{
			name: "candidate that is not an image is skipped",
			opf: coverOPF("",
				`<item id="c" href="images/cover.png" media-type="image/png" properties="cover-image"/>`, ""),
			files: map[string]string{
				"OEBPS/images/cover.png": "FAKE-PNG-DATA",
				"OEBPS/images/fig1.png":  png,
			},
			wantPath: "OEBPS/images/fig1.png",
			wantType: "image/png",
		},
		{
			name: "missing candidate is skipped",
			opf: coverOPF(`<meta name="cover" content="gone"/>`,
				`<item id="gone" href="images/gone.jpg" media-type="image/jpeg"/>`, ""),
			files:    map[string]string{"OEBPS/images/fig1.png": png},
			wantPath: "OEBPS/images/fig1.png",
			wantType: "image/png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := testBookFiles(tt.files)
			files["OEBPS/content.opf"] = tt.opf
			doc := openTestDocument(t, files)

			img, err := doc.Cover()
			if err != nil {
				t.Fatalf("Cover() error = %v", err)
			}
			if img.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", img.Path, tt.wantPath)
			}
			if img.MediaType != tt.wantType {
				t.Errorf("MediaType = %q, want %q", img.MediaType, tt.wantType)
			}
			if img.Width == 0 || img.Height == 0 {
				t.Errorf("size = %dx%d, want non-zero", img.Width, img.Height)
			}
		})
	}
}

func TestCover_NoCover(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		// The first chapter references images/fig1.png, which is absent.
		{"no candidates", nil},
		{"chapter image is not an image", map[string]string{"OEBPS/images/fig1.png": "plain text"}},
		{"first chapter missing", map[string]string{"OEBPS/text/ch1.xhtml": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := openTestDocument(t, testBookFiles(tt.files))
			if _, err := doc.Cover(); !errors.Is(err, ErrNoCover) {
				t.Errorf("Cover() error = %v, want ErrNoCover", err)
			}
		})
	}
}

func TestCover_RemoteImagesIgnored(t *testing.T) {
	doc := openTestDocument(t, testBookFiles(map[string]string{
		"OEBPS/text/ch1.xhtml": `<html><body><img src="https://example.com/cover.png"/></body></html>`,
	}))

	if _, err := doc.Cover(); !errors.Is(err, ErrNoCover) {
		t.Errorf("Cover() error = %v, want ErrNoCover", err)
	}
}
