package epub

import (
	"encoding/xml"
	"fmt"
)

// ncxID is the manifest identifier reserved for the NCX navigation document.
const ncxID = "ncx"

// opfPackage represents the root <package> element of an OPF file.
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
	Guide    opfGuide    `xml:"guide"`
}

// opfMetadata holds the raw metadata elements from the OPF file.
type opfMetadata struct {
	Titles       []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creators     []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Languages    []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ language"`
	Identifiers  []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ identifier"`
	Publishers   []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ publisher"`
	Dates        []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ date"`
	Descriptions []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ description"`
	Subjects     []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ subject"`
	Rights       []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ rights"`
	Sources      []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ source"`
	Metas        []opfMeta      `xml:"meta"`
}

// opfDCElement holds a Dublin Core element with optional OPF attributes.
// ePub 2 uses opf:file-as, opf:role, opf:scheme attributes directly.
// ePub 3 uses <meta refines="..."> elements to express the same information.
type opfDCElement struct {
	Value  string `xml:",chardata"`
	ID     string `xml:"id,attr"`
	FileAs string `xml:"file-as,attr"`
	Role   string `xml:"role,attr"`
	Scheme string `xml:"scheme,attr"`
}

// opfMeta represents a <meta> element in the OPF metadata.
// ePub 2: <meta name="..." content="..."/>
// ePub 3: <meta property="..." refines="...">value</meta>
type opfMeta struct {
	Name     string `xml:"name,attr"`
	Content  string `xml:"content,attr"`
	Property string `xml:"property,attr"`
	Refines  string `xml:"refines,attr"`
	Value    string `xml:",chardata"`
}

type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

type opfManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type opfSpine struct {
	Toc string `xml:"toc,attr"`
}

type opfGuide struct {
	References []opfGuideReference `xml:"reference"`
}

type opfGuideReference struct {
	Type string `xml:"type,attr"`
	Href string `xml:"href,attr"`
}

// parseOPF parses the OPF file content and returns the parsed package structure.
func parseOPF(data []byte) (*opfPackage, error) {
	data = preprocessHTMLEntities(stripBOM(data))

	var pkg opfPackage
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("epub: parse OPF: %w: %w", ErrMalformedPackage, err)
	}

	if pkg.Version == "" {
		// Default to 2.0 if version attribute is missing.
		pkg.Version = "2.0"
	}

	return &pkg, nil
}

// manifestByID returns the first manifest item carrying id.
func (p *opfPackage) manifestByID(id string) (manifestItem, bool) {
	for _, item := range p.Manifest.Items {
		if item.ID == id {
			return manifestItem(item), true
		}
	}
	return manifestItem{}, false
}

// ncxItem returns the manifest item of the NCX navigation document: the item
// with the reserved "ncx" identifier, or failing that the item named by the
// spine's toc attribute.
func (p *opfPackage) ncxItem() (manifestItem, error) {
	if item, ok := p.manifestByID(ncxID); ok && item.Href != "" {
		return item, nil
	}
	if p.Spine.Toc != "" {
		if item, ok := p.manifestByID(p.Spine.Toc); ok && item.Href != "" {
			return item, nil
		}
	}
	return manifestItem{}, fmt.Errorf("epub: OPF manifest has no %q item: %w", ncxID, ErrMalformedPackage)
}
