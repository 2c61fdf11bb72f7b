package epubtext

import (
	"encoding/xml"
	"os"
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

const (
	// containerPath is the well-known location of container.xml in an ePub archive.
	containerPath = "META-INF/container.xml"

	// packageMediaType is the media type of an OPF package document.
	packageMediaType = "application/oebps-package+xml"
)

// LocatePackage reads META-INF/container.xml (case-insensitive lookup) and
// returns the archive-internal path of the first rootfile declared with the
// OPF package media type.
//
// A missing or unparsable descriptor, or one without a matching rootfile,
// is an expected condition: LocatePackage returns ("", false) and callers
// fall back to heuristic ordering.
func LocatePackage(t *WorkTree) (string, bool) {
	p, ok := t.Lookup(containerPath)
	if !ok {
		return "", false
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", false
	}
	return parseContainerXML(data)
}

// parseContainerXML decodes container.xml data and picks the package rootfile.
func parseContainerXML(data []byte) (string, bool) {
	var c containerXML
	if err := xml.Unmarshal(stripBOM(data), &c); err != nil {
		return "", false
	}

	for _, rf := range c.RootFiles {
		fullPath := strings.TrimSpace(rf.FullPath)
		if fullPath == "" || !isSafePath(fullPath) {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(rf.MediaType), packageMediaType) {
			return fullPath, true
		}
	}
	return "", false
}
