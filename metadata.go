package epub

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// refinements indexes EPUB 3 <meta refines="#id" property="..."> elements by
// the id they refine.
type refinements map[string][]opfMeta

func newRefinements(metas []opfMeta) refinements {
	r := make(refinements)
	for _, m := range metas {
		if id, ok := strings.CutPrefix(m.Refines, "#"); ok && id != "" {
			r[id] = append(r[id], m)
		}
	}
	return r
}

// lookup returns the first non-empty value of property refining id.
func (r refinements) lookup(id, property string) string {
	if id == "" {
		return ""
	}
	for _, m := range r[id] {
		if m.Property == property {
			if v := strings.TrimSpace(m.Value); v != "" {
				return v
			}
		}
	}
	return ""
}

// extractMetadata converts the raw OPF metadata into the public Metadata struct.
func extractMetadata(pkg *opfPackage) Metadata {
	om := &pkg.Metadata
	refs := newRefinements(om.Metas)

	md := Metadata{
		Version:     pkg.Version,
		Titles:      orderedTitles(om.Titles, refs),
		Language:    allValues(om.Languages),
		Publisher:   firstValue(om.Publishers),
		Date:        firstValue(om.Dates),
		Description: firstValue(om.Descriptions),
		Subjects:    allValues(om.Subjects),
		Rights:      firstValue(om.Rights),
		Source:      firstValue(om.Sources),
	}

	for _, c := range om.Creators {
		name := strings.TrimSpace(c.Value)
		if name == "" {
			continue
		}
		a := Author{Name: name, FileAs: c.FileAs, Role: c.Role}
		if a.FileAs == "" {
			a.FileAs = refs.lookup(c.ID, "file-as")
		}
		if a.Role == "" {
			a.Role = refs.lookup(c.ID, "role")
		}
		md.Authors = append(md.Authors, a)
	}

	for _, id := range om.Identifiers {
		v := strings.TrimSpace(id.Value)
		if v == "" {
			continue
		}
		ident := Identifier{Value: v, Scheme: id.Scheme, ID: id.ID}
		if ident.Scheme == "" {
			ident.Scheme = refs.lookup(id.ID, "identifier-type")
		}
		md.Identifiers = append(md.Identifiers, ident)
	}

	return md
}

// orderedTitles returns the non-empty titles. When any title carries an
// EPUB 3 display-seq refinement, titles are ordered by it and titles without
// one follow in document order.
func orderedTitles(titles []opfDCElement, refs refinements) []string {
	type entry struct {
		value string
		seq   int // 0 means no display-seq
	}

	entries := make([]entry, 0, len(titles))
	for _, t := range titles {
		v := strings.TrimSpace(t.Value)
		if v == "" {
			continue
		}
		seq, _ := strconv.Atoi(refs.lookup(t.ID, "display-seq"))
		entries = append(entries, entry{value: v, seq: max(seq, 0)})
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		switch {
		case a.seq == b.seq:
			return 0
		case a.seq == 0:
			return 1
		case b.seq == 0:
			return -1
		default:
			return cmp.Compare(a.seq, b.seq)
		}
	})

	if len(entries) == 0 {
		return nil
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.value
	}
	return out
}

func firstValue(elems []opfDCElement) string {
	for _, e := range elems {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}

func allValues(elems []opfDCElement) []string {
	var out []string
	for _, e := range elems {
		if v := strings.TrimSpace(e.Value); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func copyMetadata(in Metadata) Metadata {
	out := in
	out.Titles = slices.Clone(in.Titles)
	out.Authors = slices.Clone(in.Authors)
	out.Language = slices.Clone(in.Language)
	out.Identifiers = slices.Clone(in.Identifiers)
	out.Subjects = slices.Clone(in.Subjects)
	return out
}
