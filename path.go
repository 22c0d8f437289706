package epub

import (
	"path"
	"strings"
)

// Resolve resolves ref against the archive directory baseDir and returns an
// archive entry name. The steps are applied in a fixed order:
//
//  1. A single leading "../" is stripped and baseDir is replaced by its
//     parent. Deeper escapes are left to the join.
//  2. baseDir and ref are joined with forward-slash semantics. Backslashes
//     are normalised to "/" after the join.
//  3. The result is truncated at the first "#", then cleaned of dot
//     segments.
//  4. The remainder is percent-decoded. Malformed escapes are kept
//     literally.
//
// Fragment truncation happens before decoding, so an encoded "%23" survives as
// a literal "#" in the entry name. A ref starting with "/" is taken relative
// to the archive root. Resolve never consults the archive; callers check
// membership separately.
func Resolve(baseDir, ref string) string {
	if strings.HasPrefix(ref, "../") {
		ref = ref[len("../"):]
		baseDir = parentDir(baseDir)
	}

	// Dot segments are cleaned only after the fragment is gone, so a
	// fragment like "#x/../y" cannot climb out of the entry name.
	joined := ref
	if strings.HasPrefix(ref, "/") {
		joined = strings.TrimLeft(ref, "/")
	} else if baseDir != "" {
		joined = baseDir + "/" + ref
	}
	joined = strings.ReplaceAll(joined, `\`, "/")

	if idx := strings.IndexByte(joined, '#'); idx >= 0 {
		joined = joined[:idx]
	}
	if joined = path.Clean(joined); joined == "." {
		joined = ""
	}

	return percentDecode(joined)
}

// percentDecode replaces every well-formed %XX triplet with its byte. A "%"
// not followed by two hex digits is kept as is, and the valid escapes around
// it are still decoded.
func percentDecode(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// parentDir returns everything before the last "/" of p, or "" when p has no
// directory component. Unlike path.Dir it never returns ".".
func parentDir(p string) string {
	if idx := strings.LastIndexByte(p, '/'); idx >= 0 {
		return p[:idx]
	}
	return ""
}

// isRemoteRef reports whether ref points outside the archive: an http(s)
// URL, a protocol-relative URL or a data URI. The scheme test is
// case-insensitive.
func isRemoteRef(ref string) bool {
	v := strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(v, "http://") ||
		strings.HasPrefix(v, "https://") ||
		strings.HasPrefix(v, "//") ||
		strings.HasPrefix(v, "data:")
}
