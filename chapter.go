package epub

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
)

// ChapterPath returns the archive path of the chapter addressed by the
// navigation entry at index, with any fragment removed.
func (d *Document) ChapterPath(index int) (string, bool) {
	if index < 0 || index >= len(d.info.Entries) {
		return "", false
	}
	return Resolve(d.info.PackageDir, d.info.Entries[index].Target), true
}

// ChapterContent returns the flattened content of the chapter addressed by
// the navigation entry at index.
//
// An index outside [0, len(Navigation())) yields an empty slice. Problems
// local to the chapter (missing entry, undecodable bytes) are reported as a
// single diagnostic TextRun rather than an error, so the rest of the book
// stays readable.
func (d *Document) ChapterContent(index int) []ContentItem {
	p, ok := d.ChapterPath(index)
	if !ok {
		return []ContentItem{}
	}
	log := d.log.With(zap.Int("index", index), zap.String("path", p))

	data, err := d.archive.Read(p)
	if err != nil {
		if errors.Is(err, ErrEntryMissing) {
			log.Warn("Chapter entry missing")
			return []ContentItem{diagnostic("error: cannot find %s in the epub file", p)}
		}
		log.Warn("Unable to read chapter", zap.Error(err))
		return []ContentItem{diagnostic("error: cannot read %s: %v", p, err)}
	}

	root, err := parseChapter(data, log)
	if err != nil {
		log.Warn("Unable to parse chapter", zap.Error(err))
		return []ContentItem{diagnostic("error: cannot parse %s: %v", p, err)}
	}
	items := flatten(root, parentDir(p), log)
	log.Debug("Chapter flattened", zap.Int("items", len(items)))
	return items
}

// parseChapter decodes chapter bytes to UTF-8 and parses them as HTML.
// Content that is already valid UTF-8 is used as is; anything else is
// transcoded with the encoding announced by a BOM or <meta> charset, falling
// back to windows-1252.
func parseChapter(data []byte, log *zap.Logger) (*html.Node, error) {
	data = stripBOM(data)
	if !utf8.Valid(data) {
		enc, name := chapterEncoding(data)
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		log.Debug("Chapter transcoded", zap.String("charset", name))
		data = decoded
	}
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return root, nil
}

func chapterEncoding(data []byte) (encoding.Encoding, string) {
	enc, name, _ := charset.DetermineEncoding(data, "text/html")
	return enc, name
}
