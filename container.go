package epub

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// containerXML models the META-INF/container.xml file used to locate the OPF.
type containerXML struct {
	XMLName   xml.Name   `xml:"container"`
	RootFiles []rootFile `xml:"rootfiles>rootfile"`
}

// rootFile represents a single <rootfile> element inside container.xml.
type rootFile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

// containerPath is the well-known location of container.xml in an ePub archive.
const containerPath = "META-INF/container.xml"

// parseContainer reads META-INF/container.xml and returns the full-path of
// its first rootfile. Later rootfiles (renditions) are ignored.
func parseContainer(a *Archive) (string, error) {
	data, err := a.Read(containerPath)
	if err != nil {
		if errors.Is(err, ErrEntryMissing) {
			return "", fmt.Errorf("epub: %s missing: %w", containerPath, ErrMalformedPackage)
		}
		return "", fmt.Errorf("epub: read container.xml: %w", err)
	}

	var c containerXML
	if err := xml.Unmarshal(stripBOM(data), &c); err != nil {
		return "", fmt.Errorf("epub: parse container.xml: %w: %w", ErrMalformedPackage, err)
	}

	if len(c.RootFiles) == 0 {
		return "", fmt.Errorf("epub: container.xml has no rootfile entries: %w", ErrMalformedPackage)
	}

	fullPath := strings.TrimSpace(c.RootFiles[0].FullPath)
	if fullPath == "" {
		return "", fmt.Errorf("epub: container.xml rootfile has empty full-path: %w", ErrMalformedPackage)
	}
	return fullPath, nil
}
