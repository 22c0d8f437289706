package epub

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// leafKind is the classification of a leaf element by tag.
type leafKind int

const (
	leafOther leafKind = iota
	leafHeading1
	leafHeading2
	leafHeading3
	leafBold
	leafImage
	leafStyle
	leafLink
	leafScript
)

func classifyLeaf(n *html.Node) leafKind {
	a := n.DataAtom
	if a == 0 {
		a = atom.Lookup([]byte(strings.ToLower(n.Data)))
	}
	switch a {
	case atom.H1:
		return leafHeading1
	case atom.H2:
		return leafHeading2
	case atom.H3:
		return leafHeading3
	case atom.B:
		return leafBold
	case atom.Img, atom.Image:
		return leafImage
	case atom.Style:
		return leafStyle
	case atom.Link:
		return leafLink
	case atom.Script:
		return leafScript
	default:
		return leafOther
	}
}

// Flatten walks the tree rooted at root depth-first in document order and
// returns its renderable content. Relative image sources are resolved
// against baseDir, the archive directory of the chapter document. When root
// is a document node its <body> is flattened.
//
// Elements with element children contribute only their children's content.
// Text nodes become TextRuns with default styling; leaf elements become
// styled TextRuns or ImageRefs. Adjacent TextRuns carrying the same text, one
// from a text node and one from a leaf element, are merged into the element's
// run.
func Flatten(root *html.Node, baseDir string) []ContentItem {
	return flatten(root, baseDir, zap.NewNop())
}

func flatten(root *html.Node, baseDir string, log *zap.Logger) []ContentItem {
	if root == nil {
		return []ContentItem{}
	}
	if root.Type == html.DocumentNode {
		if body := findElement(root, atom.Body); body != nil {
			root = body
		}
	}
	f := flattener{baseDir: baseDir, log: log}
	f.visit(root)
	return dedupe(f.items)
}

type flattener struct {
	baseDir string
	log     *zap.Logger
	items   []ContentItem
}

func (f *flattener) visit(n *html.Node) {
	// Text below <style> and <script> is a stylesheet or script block.
	kind := classifyLeaf(n)
	blockText := kind == leafStyle || kind == leafScript

	leaf := true
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			leaf = false
			f.visit(c)
		case html.TextNode:
			if blockText {
				continue
			}
			if text := strings.TrimSpace(c.Data); text != "" {
				f.items = append(f.items, TextRun{Text: text, origin: fromRawText})
			}
		case html.CommentNode:
		default:
			f.log.Warn("Unsupported node kind", zap.String("kind", nodeTypeName(c.Type)), zap.String("value", c.Data))
			f.items = append(f.items, diagnostic("unsupported node kind %s, value %q", nodeTypeName(c.Type), c.Data))
		}
	}

	if leaf && n.Type == html.ElementNode {
		f.leaf(n, kind)
	}
}

func (f *flattener) leaf(n *html.Node, kind leafKind) {
	switch kind {
	case leafStyle, leafLink, leafScript:
		return
	case leafImage:
		f.image(n)
	case leafHeading1, leafHeading2, leafHeading3, leafBold, leafOther:
		text := strings.TrimSpace(textContent(n))
		if text == "" {
			return
		}
		run := TextRun{Text: text, origin: fromElement}
		switch kind {
		case leafHeading1:
			run.Heading = Header1
		case leafHeading2:
			run.Heading = Header2
		case leafHeading3:
			run.Heading = Header3
		case leafBold:
			run.Strong = true
		}
		applyStyle(&run, styleOf(n))
		f.items = append(f.items, run)
	}
}

// image emits an ImageRef for an <img> (or SVG <image>) leaf. A missing
// source is reported inline instead of producing a reference to nothing.
func (f *flattener) image(n *html.Node) {
	src, ok := imageSource(n)
	if !ok || strings.TrimSpace(src) == "" {
		f.log.Warn("Image without source", zap.String("tag", n.Data), zap.String("dir", f.baseDir))
		f.items = append(f.items, diagnostic("image <%s> has no source attribute", n.Data))
		return
	}
	if isRemoteRef(src) {
		f.items = append(f.items, ImageRef{Path: src})
		return
	}
	f.items = append(f.items, ImageRef{Path: Resolve(f.baseDir, strings.TrimSpace(src))})
}

func imageSource(n *html.Node) (string, bool) {
	if n.DataAtom == atom.Img || strings.EqualFold(n.Data, "img") {
		return attr(n, "src")
	}
	for _, a := range n.Attr {
		if a.Key == "href" || a.Key == "xlink:href" {
			return a.Val, true
		}
	}
	return "", false
}

// dedupe merges adjacent TextRuns with identical text where one came from a
// text node and the other from a leaf element, keeping the element's run in
// the earlier position. It needs only the last emitted item.
func dedupe(items []ContentItem) []ContentItem {
	out := make([]ContentItem, 0, len(items))
	for _, cur := range items {
		if n := len(out); n > 0 {
			if kept, ok := merge(out[n-1], cur); ok {
				out[n-1] = kept
				continue
			}
		}
		out = append(out, cur)
	}
	return out
}

func merge(prev, cur ContentItem) (ContentItem, bool) {
	p, ok := prev.(TextRun)
	if !ok {
		return nil, false
	}
	c, ok := cur.(TextRun)
	if !ok || p.Text != c.Text {
		return nil, false
	}
	switch {
	case p.origin == fromRawText && c.origin == fromElement:
		return c, true
	case p.origin == fromElement && c.origin == fromRawText:
		return p, true
	}
	return nil, false
}

// findElement performs a depth-first search for a node with the given atom tag.
func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findElement(c, a); result != nil {
			return result
		}
	}
	return nil
}

// textContent recursively collects all text content within a node.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

// attr returns the value of the un-namespaced attribute key on n.
func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func nodeTypeName(t html.NodeType) string {
	switch t {
	case html.ErrorNode:
		return "error"
	case html.TextNode:
		return "text"
	case html.DocumentNode:
		return "document"
	case html.ElementNode:
		return "element"
	case html.CommentNode:
		return "comment"
	case html.DoctypeNode:
		return "doctype"
	case html.RawNode:
		return "raw"
	default:
		return fmt.Sprintf("NodeType(%d)", t)
	}
}
