package epubtext

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strings"
)

// opfPackage represents the root <package> element of an OPF file.
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
}

// opfMetadata holds the Dublin Core elements reported in BookInfo.
type opfMetadata struct {
	Titles    []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creators  []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Languages []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ language"`
	Metas     []opfMeta      `xml:"meta"`
}

// opfDCElement holds a Dublin Core element with optional OPF attributes.
type opfDCElement struct {
	Value string `xml:",chardata"`
	ID    string `xml:"id,attr"`
	Role  string `xml:"role,attr"`
}

// opfMeta represents an ePub 3 <meta property="..." refines="..."> element.
type opfMeta struct {
	Property string `xml:"property,attr"`
	Refines  string `xml:"refines,attr"`
	Value    string `xml:",chardata"`
}

// opfManifest wraps the <manifest> element.
type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

// opfManifestItem represents a single <item> in the manifest.
type opfManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

// isNav reports whether the item is an ePub 3 navigation document.
func (it opfManifestItem) isNav() bool {
	for _, prop := range strings.Fields(it.Properties) {
		if prop == "nav" {
			return true
		}
	}
	return false
}

// opfSpine wraps the <spine> element.
type opfSpine struct {
	Toc      string            `xml:"toc,attr"`
	ItemRefs []opfSpineItemRef `xml:"itemref"`
}

// opfSpineItemRef represents a single <itemref> in the spine.
type opfSpineItemRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr"`
}

// nonLinear reports whether the reference is explicitly marked linear="no".
func (r opfSpineItemRef) nonLinear() bool {
	return strings.EqualFold(strings.TrimSpace(r.Linear), "no")
}

var (
	errPackageMissing = errors.New("package document not found in archive")
	errEmptySpine     = errors.New("spine yielded no content documents")
)

// parseOPF parses the OPF file content and returns the parsed package structure.
func parseOPF(data []byte) (*opfPackage, error) {
	data = preprocessHTMLEntities(stripBOM(data))

	var pkg opfPackage
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parse package document: %w", err)
	}

	if pkg.Version == "" {
		// Default to 2.0 if version attribute is missing.
		pkg.Version = "2.0"
	}

	return &pkg, nil
}

// loadPackage reads and parses the package document at the archive-internal
// path opfPath.
func loadPackage(t *WorkTree, opfPath string) (*opfPackage, error) {
	p, ok := t.Lookup(opfPath)
	if !ok {
		return nil, fmt.Errorf("%s: %w", opfPath, errPackageMissing)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read package document: %w", err)
	}
	return parseOPF(data)
}

// contentManifest builds the id → item map used to resolve spine references.
// Navigation documents are left out, and the first item wins on duplicate ids.
func contentManifest(manifest opfManifest) map[string]opfManifestItem {
	byID := make(map[string]opfManifestItem, len(manifest.Items))
	for _, item := range manifest.Items {
		if item.isNav() {
			continue
		}
		if _, dup := byID[item.ID]; dup {
			continue
		}
		byID[item.ID] = item
	}
	return byID
}

// SpineOrder orders content documents by the package document's spine.
// It is the authoritative strategy whenever the package is usable.
type SpineOrder struct {
	// PackagePath is the archive-internal path of the OPF file.
	PackagePath string
}

// Resolve returns absolute document paths in spine order. Non-linear
// references are left out silently; references that cannot be resolved are
// reported as skips. An unreadable package, or a spine that yields no paths,
// is returned as an error so that the caller can fall back.
func (s SpineOrder) Resolve(t *WorkTree) ([]string, []Skip, error) {
	pkg, err := loadPackage(t, s.PackagePath)
	if err != nil {
		return nil, nil, err
	}
	paths, skipped := spinePaths(t, s.PackagePath, pkg)
	if len(paths) == 0 {
		return nil, skipped, errEmptySpine
	}
	return paths, skipped, nil
}

// spinePaths walks the spine and resolves every linear reference through the
// manifest, deduplicating while preserving first-occurrence order.
func spinePaths(t *WorkTree, opfPath string, pkg *opfPackage) ([]string, []Skip) {
	manifest := contentManifest(pkg.Manifest)
	nav := make(map[string]bool)
	for _, item := range pkg.Manifest.Items {
		if item.isNav() {
			nav[item.ID] = true
		}
	}
	seen := make(map[string]bool, len(pkg.Spine.ItemRefs))

	var paths []string
	var skipped []Skip
	for _, ref := range pkg.Spine.ItemRefs {
		if ref.nonLinear() {
			continue
		}
		item, ok := manifest[ref.IDRef]
		if !ok {
			if nav[ref.IDRef] {
				continue
			}
			skipped = append(skipped, Skip{Path: ref.IDRef, Reason: SkipUnresolvedRef})
			continue
		}
		name := resolveRelativePath(opfPath, item.Href)
		if name == "" {
			skipped = append(skipped, Skip{Path: item.Href, Reason: SkipUnsafeHref, Err: ErrUnsafePath})
			continue
		}
		p := t.Path(name)
		if seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	return paths, skipped
}
