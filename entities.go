package epub

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// namedEntities maps lowercase HTML entity names commonly found in OPF and
// NCX files to their code points. encoding/xml does not recognise HTML named
// entities, so they are translated before parsing.
var namedEntities = map[string]rune{
	"nbsp": 160, "mdash": 8212, "ndash": 8211, "hellip": 8230,
	"lsquo": 8216, "rsquo": 8217, "ldquo": 8220, "rdquo": 8221,
	"copy": 169, "reg": 174, "trade": 8482,
	"bull": 8226, "middot": 183,
	"eacute": 233, "egrave": 232, "ecirc": 234, "euml": 235,
	"aacute": 225, "agrave": 224, "acirc": 226, "auml": 228,
	"iacute": 237, "igrave": 236, "icirc": 238, "iuml": 239,
	"oacute": 243, "ograve": 242, "ocirc": 244, "ouml": 246,
	"uacute": 250, "ugrave": 249, "ucirc": 251, "uuml": 252,
	"ntilde": 241, "ccedil": 231,
	"times": 215, "divide": 247,
	"deg": 176, "para": 182, "sect": 167,
	"laquo": 171, "raquo": 187,
	"iexcl": 161, "iquest": 191,
}

// htmlEntityPattern matches the entities of namedEntities case-insensitively.
var htmlEntityPattern = func() *regexp.Regexp {
	names := make([]string, 0, len(namedEntities))
	for name := range namedEntities {
		names = append(names, name)
	}
	sort.Strings(names)
	return regexp.MustCompile(`(?i)&(` + strings.Join(names, "|") + `);`)
}()

// entityTable is namedEntities in the form accepted by xml.Decoder.Entity.
var entityTable = func() map[string]string {
	m := make(map[string]string, len(namedEntities))
	for name, r := range namedEntities {
		m[name] = string(r)
	}
	return m
}()

// preprocessHTMLEntities replaces common HTML named entities with their
// numeric character references so that encoding/xml can parse the data.
// The matching is case-insensitive to handle non-standard ePub content.
func preprocessHTMLEntities(data []byte) []byte {
	return htmlEntityPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := strings.ToLower(string(match[1 : len(match)-1]))
		if r, ok := namedEntities[name]; ok {
			return []byte("&#" + strconv.Itoa(int(r)) + ";")
		}
		return match
	})
}
