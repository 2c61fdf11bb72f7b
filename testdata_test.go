package epubtext

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// validContainerXML is a well-formed META-INF/container.xml pointing to an OPF.
const validContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

// chapterXHTML returns a minimal XHTML content document.
func chapterXHTML(heading, body string) string {
	h := ""
	if heading != "" {
		h = "<h1>" + heading + "</h1>"
	}
	return `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title></title></head>
<body>` + h + `<p>` + body + `</p></body></html>`
}

// buildTestZipBytes creates an in-memory ZIP archive from the provided files
// map (path → content). The "mimetype" entry, if present, is written first
// and the rest in sorted order so archives are deterministic.
func buildTestZipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	names := make([]string, 0, len(files))
	for name := range files {
		if name != "mimetype" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := files["mimetype"]; ok {
		names = append([]string{"mimetype"}, names...)
	}

	for _, name := range names {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("buildTestZipBytes: create %s: %v", name, err)
		}
		if _, err := io.WriteString(fw, files[name]); err != nil {
			t.Fatalf("buildTestZipBytes: write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("buildTestZipBytes: close writer: %v", err)
	}
	return buf.Bytes()
}

// buildTestEPubFile writes an ePub (ZIP) archive to a temporary file and
// returns the file path.
func buildTestEPubFile(t *testing.T, files map[string]string) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), "test.epub")
	if err := os.WriteFile(fp, buildTestZipBytes(t, files), 0o644); err != nil {
		t.Fatalf("buildTestEPubFile: write file: %v", err)
	}
	return fp
}

// buildTestTree unpacks files into a working tree under a temporary
// directory and releases it when the test ends.
func buildTestTree(t *testing.T, files map[string]string) *WorkTree {
	t.Helper()
	fp := buildTestEPubFile(t, files)
	opts := DefaultOptions()
	opts.TempDir = t.TempDir()
	tree, err := Unpack(fp, opts)
	if err != nil {
		t.Fatalf("buildTestTree: unpack: %v", err)
	}
	t.Cleanup(func() { _ = tree.Release() })
	return tree
}

// relPaths maps absolute tree paths to tree-relative ones for comparison.
func relPaths(tree *WorkTree, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = tree.Rel(p)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
