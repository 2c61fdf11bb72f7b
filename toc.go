package epubtext

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// tocEntry is one flattened table of contents entry.
type tocEntry struct {
	Title string
	Href  string // archive-internal path, fragment removed
}

// tocTitles maps absolute content document paths to their table of contents
// title. ePub 3 packages prefer the nav document and fall back to the NCX;
// ePub 2 packages use the NCX only. The first entry pointing at a document
// wins. Problems are returned as warnings; a missing TOC yields an empty map.
func tocTitles(t *WorkTree, opfPath string, pkg *opfPackage) (map[string]string, []string) {
	var warnings []string
	var entries []tocEntry

	if strings.HasPrefix(pkg.Version, "3") {
		if navPath := navDocumentPath(opfPath, pkg); navPath != "" {
			e, err := readTOC(t, navPath, parseNavDocument)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("nav document: %v", err))
			}
			entries = e
		}
	}
	if len(entries) == 0 {
		if ncxPath := ncxDocumentPath(opfPath, pkg); ncxPath != "" {
			e, err := readTOC(t, ncxPath, parseNCX)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("NCX: %v", err))
			}
			entries = e
		}
	}

	titles := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Href == "" || e.Title == "" {
			continue
		}
		p := t.Path(e.Href)
		if _, exists := titles[p]; !exists {
			titles[p] = e.Title
		}
	}
	return titles, warnings
}

// navDocumentPath returns the archive-internal path of the manifest item
// with the "nav" property, in manifest order.
func navDocumentPath(opfPath string, pkg *opfPackage) string {
	for _, item := range pkg.Manifest.Items {
		if item.isNav() {
			return resolveRelativePath(opfPath, item.Href)
		}
	}
	return ""
}

// ncxDocumentPath returns the archive-internal path of the NCX named by the
// spine's toc attribute.
func ncxDocumentPath(opfPath string, pkg *opfPackage) string {
	id := pkg.Spine.Toc
	if id == "" {
		return ""
	}
	for _, item := range pkg.Manifest.Items {
		if item.ID == id {
			return resolveRelativePath(opfPath, item.Href)
		}
	}
	return ""
}

func readTOC(t *WorkTree, name string, parse func([]byte, string) ([]tocEntry, error)) ([]tocEntry, error) {
	p, ok := t.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, os.ErrNotExist)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return parse(data, name)
}

// --- NCX XML decoding structs (ePub 2) ---

// ncxDocument represents the root <ncx> element of an NCX file.
type ncxDocument struct {
	XMLName xml.Name  `xml:"ncx"`
	NavMap  ncxNavMap `xml:"navMap"`
}

// ncxNavMap represents the <navMap> element containing top-level navPoints.
type ncxNavMap struct {
	NavPoints []ncxNavPoint `xml:"navPoint"`
}

// ncxNavPoint represents a <navPoint> element which may contain nested navPoints.
type ncxNavPoint struct {
	Label    ncxNavLabel   `xml:"navLabel"`
	Content  ncxContent    `xml:"content"`
	Children []ncxNavPoint `xml:"navPoint"`
}

// ncxNavLabel represents the <navLabel> element containing the display text.
type ncxNavLabel struct {
	Text string `xml:"text"`
}

// ncxContent represents the <content> element with its src attribute.
type ncxContent struct {
	Src string `xml:"src,attr"`
}

// parseNCX parses NCX (ePub 2) data into flattened entries in document order.
// ncxPath is the archive-internal path of the NCX file, used to resolve
// relative hrefs.
func parseNCX(data []byte, ncxPath string) ([]tocEntry, error) {
	data = preprocessHTMLEntities(stripBOM(data))

	var doc ncxDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse NCX: %w", err)
	}

	var entries []tocEntry
	var walk func([]ncxNavPoint)
	walk = func(points []ncxNavPoint) {
		for _, np := range points {
			entries = append(entries, tocEntry{
				Title: NormalizeText(np.Label.Text),
				Href:  resolveRelativePath(ncxPath, np.Content.Src),
			})
			walk(np.Children)
		}
	}
	walk(doc.NavMap.NavPoints)
	return entries, nil
}

// --- Nav Document parsing (ePub 3) ---

// parseNavDocument parses the <nav epub:type="toc"> of an ePub 3 nav
// document into flattened entries in document order.
func parseNavDocument(data []byte, navPath string) ([]tocEntry, error) {
	doc, err := html.Parse(bytes.NewReader(stripBOM(data)))
	if err != nil {
		return nil, fmt.Errorf("parse nav document: %w", err)
	}

	nav := findFirst(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Nav && hasEpubType(n, "toc")
	})
	if nav == nil {
		return nil, nil
	}

	var entries []tocEntry
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			entries = append(entries, tocEntry{
				Title: NormalizeText(nodeTextContent(n)),
				Href:  resolveRelativePath(navPath, getAttr(n, "href")),
			})
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(nav)
	return entries, nil
}

// hasEpubType checks whether n has an epub:type attribute containing the given token
// (space-separated token matching).
func hasEpubType(n *html.Node, typeName string) bool {
	for _, t := range strings.Fields(getAttr(n, "epub:type")) {
		if t == typeName {
			return true
		}
	}
	return false
}
