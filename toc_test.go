package epubtext

import (
	"testing"
)

const testNCX = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
    <navPoint id="p1">
      <navLabel><text>Chapter   One</text></navLabel>
      <content src="Text/ch1.xhtml#start"/>
      <navPoint id="p1a">
        <navLabel><text>Section</text></navLabel>
        <content src="Text/ch1.xhtml#sec"/>
      </navPoint>
    </navPoint>
    <navPoint id="p2">
      <navLabel><text>Caf&eacute;</text></navLabel>
      <content src="Text/ch2.xhtml"/>
    </navPoint>
  </navMap>
</ncx>`

const testNav = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<body>
  <nav epub:type="landmarks"><ol><li><a href="Text/ch2.xhtml">Landmark</a></li></ol></nav>
  <nav epub:type="toc">
    <ol>
      <li><a href="Text/ch1.xhtml">Opening</a>
        <ol><li><a href="Text/ch1.xhtml#s1">Inner</a></li></ol>
      </li>
      <li><a href="Text/ch2.xhtml"><span>Second</span> Part</a></li>
    </ol>
  </nav>
</body>
</html>`

func TestParseNCX(t *testing.T) {
	entries, err := parseNCX([]byte(testNCX), "OEBPS/toc.ncx")
	if err != nil {
		t.Fatalf("parseNCX() error = %v", err)
	}
	want := []tocEntry{
		{Title: "Chapter One", Href: "OEBPS/Text/ch1.xhtml"},
		{Title: "Section", Href: "OEBPS/Text/ch1.xhtml"},
		{Title: "Café", Href: "OEBPS/Text/ch2.xhtml"},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entries[%d] = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestParseNCX_Malformed(t *testing.T) {
	if _, err := parseNCX([]byte("<ncx><navMap>"), "toc.ncx"); err == nil {
		t.Error("parseNCX() error = nil, want error")
	}
}

func TestParseNavDocument(t *testing.T) {
	entries, err := parseNavDocument([]byte(testNav), "OEBPS/nav.xhtml")
	if err != nil {
		t.Fatalf("parseNavDocument() error = %v", err)
	}
	want := []tocEntry{
		{Title: "Opening", Href: "OEBPS/Text/ch1.xhtml"},
		{Title: "Inner", Href: "OEBPS/Text/ch1.xhtml"},
		{Title: "Second Part", Href: "OEBPS/Text/ch2.xhtml"},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entries[%d] = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestParseNavDocument_NoTOC(t *testing.T) {
	entries, err := parseNavDocument([]byte(`<html><body><nav><a href="x.xhtml">x</a></nav></body></html>`), "nav.xhtml")
	if err != nil {
		t.Fatalf("parseNavDocument() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %+v, want none", entries)
	}
}

func TestTOCTitles(t *testing.T) {
	manifest := `<item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
		<item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
		<item id="c1" href="Text/ch1.xhtml" media-type="application/xhtml+xml"/>
		<item id="c2" href="Text/ch2.xhtml" media-type="application/xhtml+xml"/>`
	spine := `<itemref idref="c1"/><itemref idref="c2"/>`

	tests := []struct {
		name    string
		version string
		files   map[string]string
		want    map[string]string // tree-relative path → title
	}{
		{
			name:    "epub 3 prefers nav document",
			version: "3.0",
			files:   map[string]string{"OEBPS/nav.xhtml": testNav, "OEBPS/toc.ncx": testNCX},
			want:    map[string]string{"OEBPS/Text/ch1.xhtml": "Opening", "OEBPS/Text/ch2.xhtml": "Second Part"},
		},
		{
			name:    "epub 3 falls back to NCX",
			version: "3.0",
			files:   map[string]string{"OEBPS/toc.ncx": testNCX},
			want:    map[string]string{"OEBPS/Text/ch1.xhtml": "Chapter One", "OEBPS/Text/ch2.xhtml": "Café"},
		},
		{
			name:    "epub 2 uses NCX",
			version: "2.0",
			files:   map[string]string{"OEBPS/nav.xhtml": testNav, "OEBPS/toc.ncx": testNCX},
			want:    map[string]string{"OEBPS/Text/ch1.xhtml": "Chapter One", "OEBPS/Text/ch2.xhtml": "Café"},
		},
		{
			name:    "no table of contents",
			version: "2.0",
			files:   map[string]string{},
			want:    map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opf := testOPF(tt.version, manifest, spine)
			files := map[string]string{"OEBPS/content.opf": opf}
			for k, v := range tt.files {
				files[k] = v
			}
			tree := buildTestTree(t, files)
			pkg, err := parseOPF([]byte(opf))
			if err != nil {
				t.Fatal(err)
			}

			titles, _ := tocTitles(tree, "OEBPS/content.opf", pkg)
			if len(titles) != len(tt.want) {
				t.Fatalf("titles = %v, want %v", titles, tt.want)
			}
			for rel, title := range tt.want {
				if got := titles[tree.Path(rel)]; got != title {
					t.Errorf("titles[%s] = %q, want %q", rel, got, title)
				}
			}
		})
	}
}
