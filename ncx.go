package epub

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// ncxDocument is the part of an NCX navigation document this package uses.
type ncxDocument struct {
	Title   string
	Author  string
	Entries []NavEntry
}

// parseNCX parses NCX data. Element names are matched case-insensitively and
// without regard to namespace prefixes, since authoring tools disagree on
// both. Only top-level navPoints of the navMap become entries; nested
// navPoints are not addressable.
func parseNCX(data []byte) (ncxDocument, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Entity:        entityTable,
		Permissive:    true,
	}
	if err := doc.ReadFromBytes(stripBOM(data)); err != nil {
		return ncxDocument{}, fmt.Errorf("epub: parse NCX: %w: %w", ErrMalformedPackage, err)
	}

	root := doc.Root()
	if root == nil {
		return ncxDocument{}, fmt.Errorf("epub: NCX has no root element: %w", ErrMalformedPackage)
	}
	navMap := childElement(root, "navMap")
	if navMap == nil {
		return ncxDocument{}, fmt.Errorf("epub: NCX has no navMap: %w", ErrMalformedPackage)
	}

	ncx := ncxDocument{
		Title:  strings.TrimSpace(deepText(childElement(root, "docTitle"))),
		Author: strings.TrimSpace(deepText(childElement(root, "docAuthor"))),
	}
	for _, np := range childElements(navMap, "navPoint") {
		ncx.Entries = append(ncx.Entries, NavEntry{
			Index:  len(ncx.Entries),
			Label:  strings.TrimSpace(deepText(childElement(np, "navLabel"))),
			Target: attrValue(childElement(np, "content"), "src"),
		})
	}
	return ncx, nil
}

// childElements returns the direct children of e whose local name equals tag,
// ignoring case.
func childElements(e *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if strings.EqualFold(c.Tag, tag) {
			out = append(out, c)
		}
	}
	return out
}

func childElement(e *etree.Element, tag string) *etree.Element {
	for _, c := range e.ChildElements() {
		if strings.EqualFold(c.Tag, tag) {
			return c
		}
	}
	return nil
}

// deepText concatenates all character data below e. A nil element yields "".
func deepText(e *etree.Element) string {
	if e == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*etree.Element)
	walk = func(el *etree.Element) {
		for _, t := range el.Child {
			switch v := t.(type) {
			case *etree.CharData:
				sb.WriteString(v.Data)
			case *etree.Element:
				walk(v)
			}
		}
	}
	walk(e)
	return sb.String()
}

func attrValue(e *etree.Element, key string) string {
	if e == nil {
		return ""
	}
	for _, a := range e.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Value
		}
	}
	return ""
}
