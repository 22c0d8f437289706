package epub

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/net/html"
)

// StyleMap holds the declarations of an inline style attribute, keyed by
// property name. No cascade, shorthand expansion or unit handling is done.
type StyleMap map[string]string

// ParseStyle splits an inline style declaration list into a StyleMap.
// Declarations are separated by ";" and split on their first ":"; both sides
// are trimmed, and a declaration with an empty side or without a colon is
// dropped without affecting the others.
func ParseStyle(decl string) StyleMap {
	m := make(StyleMap)
	for seg := range strings.SplitSeq(decl, ";") {
		key, value, ok := strings.Cut(seg, ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		m[key] = value
	}
	return m
}

// styleOf parses the style attribute of n. A missing attribute yields an
// empty map.
func styleOf(n *html.Node) StyleMap {
	if v, ok := attr(n, "style"); ok {
		return ParseStyle(v)
	}
	return StyleMap{}
}

// keyword returns the first CSS identifier of a declaration value,
// lower-cased, so that "CENTER" and "bold !important" are recognised. Values
// that do not start with an identifier yield "".
func keyword(value string) string {
	l := css.NewLexer(parse.NewInputString(value))
	for {
		tt, data := l.Next()
		switch tt {
		case css.WhitespaceToken, css.CommentToken:
			continue
		case css.IdentToken:
			return strings.ToLower(string(data))
		default:
			return ""
		}
	}
}

// applyStyle refines run with the text-align, color and font-weight
// declarations of style.
func applyStyle(run *TextRun, style StyleMap) {
	switch keyword(style["text-align"]) {
	case "left":
		run.Align = AlignLeft
	case "center":
		run.Align = AlignCenter
	case "right":
		run.Align = AlignRight
	}
	if c, ok := style["color"]; ok {
		run.Color = c
	}
	if keyword(style["font-weight"]) == "bold" {
		run.Strong = true
	}
}
