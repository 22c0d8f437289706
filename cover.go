package epub

import (
	"slices"
	"strings"

	"go.uber.org/zap"
)

// coverStrategy proposes the archive path of a cover image, or "".
type coverStrategy struct {
	name string
	find func(d *Document) string
}

// coverStrategies are tried in priority order.
var coverStrategies = []coverStrategy{
	{"manifest-property", (*Document).coverFromManifestProperties},
	{"meta-cover", (*Document).coverFromMetaCover},
	{"guide", (*Document).coverFromGuide},
	{"manifest-heuristic", (*Document).coverFromManifestHeuristic},
	{"first-chapter", (*Document).coverFromFirstChapter},
}

// Cover detects and returns the cover image using multiple strategies.
// Strategies are tried in priority order:
//  1. ePub 3 manifest item with properties="cover-image"
//  2. ePub 2 <meta name="cover" content="ID"/> → manifest lookup
//  3. <guide> reference type="cover" → first image of that page
//  4. Manifest item whose ID or href contains "cover" with an image type
//  5. First image of the first navigation chapter
//
// A candidate that is missing from the archive or is not an image is skipped.
// Returns ErrNoCover if no strategy succeeds.
func (d *Document) Cover() (Image, error) {
	for _, s := range coverStrategies {
		p := s.find(d)
		if p == "" {
			continue
		}
		img, err := d.Image(p)
		if err != nil {
			d.log.Debug("Cover candidate rejected", zap.String("strategy", s.name), zap.String("path", p), zap.Error(err))
			continue
		}
		d.log.Debug("Cover found", zap.String("strategy", s.name), zap.String("path", p))
		return img, nil
	}
	return Image{}, ErrNoCover
}

func (d *Document) coverFromManifestProperties() string {
	for _, item := range d.info.Package.Manifest.Items {
		if slices.Contains(strings.Fields(item.Properties), "cover-image") {
			return d.manifestPath(item.Href)
		}
	}
	return ""
}

// coverFromMetaCover resolves <meta name="cover" content="ID"/> through the
// manifest. An item that is not an image is treated as an XHTML cover page.
func (d *Document) coverFromMetaCover() string {
	for _, m := range d.info.Package.Metadata.Metas {
		if !strings.EqualFold(m.Name, "cover") || m.Content == "" {
			continue
		}
		item, ok := d.info.Package.manifestByID(m.Content)
		if !ok {
			continue
		}
		if isImageMediaType(item.MediaType) {
			return d.manifestPath(item.Href)
		}
		if p := d.firstImageIn(d.manifestPath(item.Href)); p != "" {
			return p
		}
	}
	return ""
}

func (d *Document) coverFromGuide() string {
	for _, ref := range d.info.Package.Guide.References {
		if !strings.EqualFold(ref.Type, "cover") {
			continue
		}
		if p := d.firstImageIn(d.manifestPath(ref.Href)); p != "" {
			return p
		}
	}
	return ""
}

func (d *Document) coverFromManifestHeuristic() string {
	for _, item := range d.info.Package.Manifest.Items {
		isImage := isImageMediaType(item.MediaType) || (item.MediaType == "" && hasImageExt(item.Href))
		if !isImage {
			continue
		}
		if containsFold(item.ID, "cover") || containsFold(item.Href, "cover") {
			return d.manifestPath(item.Href)
		}
	}
	return ""
}

func (d *Document) coverFromFirstChapter() string {
	p, ok := d.ChapterPath(0)
	if !ok {
		return ""
	}
	return d.firstImageIn(p)
}

// firstImageIn flattens the XHTML page at p and returns the path of its first
// local image.
func (d *Document) firstImageIn(p string) string {
	if p == "" {
		return ""
	}
	data, err := d.archive.Read(p)
	if err != nil {
		return ""
	}
	root, err := parseChapter(data, d.log)
	if err != nil {
		return ""
	}
	for _, item := range flatten(root, parentDir(p), zap.NewNop()) {
		if ref, ok := item.(ImageRef); ok && !ref.Remote() {
			return ref.Path
		}
	}
	return ""
}

// manifestPath resolves a package document href to an archive path.
func (d *Document) manifestPath(href string) string {
	if strings.TrimSpace(href) == "" {
		return ""
	}
	return Resolve(d.info.PackageDir, href)
}

// containsFold reports whether s contains substr, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
