package epub

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const svgMediaType = "image/svg+xml"

// Image reads the archive entry at p and returns it as an Image. The media
// type is sniffed from the content, not taken from the manifest or the file
// extension; SVG images are recognised by their root element and carry no
// dimensions. It fails with ErrEntryMissing when the entry does not exist and
// with ErrNotImage when the content is not a recognised image format.
func (d *Document) Image(p string) (Image, error) {
	data, err := d.archive.Read(p)
	if err != nil {
		return Image{}, err
	}

	img := Image{Path: p, Data: data}
	if isSVG(data) {
		img.MediaType = svgMediaType
		return img, nil
	}

	kind, err := filetype.Match(data)
	if err != nil || kind.MIME.Type != "image" {
		return Image{}, fmt.Errorf("epub: %s: %w", p, ErrNotImage)
	}
	img.MediaType = kind.MIME.Value

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		d.log.Debug("Image dimensions unavailable", zap.String("path", p), zap.String("type", img.MediaType), zap.Error(err))
		return img, nil
	}
	img.Width, img.Height = cfg.Width, cfg.Height
	d.log.Debug("Image decoded", zap.String("path", p), zap.String("format", format),
		zap.Int("width", img.Width), zap.Int("height", img.Height))
	return img, nil
}

// isSVG reports whether data looks like an SVG document: an <svg root
// element within the first kilobyte, after any XML prolog.
func isSVG(data []byte) bool {
	head := data[:min(len(data), 1024)]
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

// isImageMediaType returns true if the media type starts with "image/".
func isImageMediaType(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}

// hasImageExt reports whether p carries a file extension commonly used for
// images in ePub archives.
func hasImageExt(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".svg", ".tif", ".tiff":
		return true
	}
	return false
}
