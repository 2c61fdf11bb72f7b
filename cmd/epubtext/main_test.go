package main

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

const testContainer = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`

const testPackage = `<?xml version="1.0"?>
<package version="2.0" xmlns="http://www.idpf.org/2007/opf">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Sample</dc:title></metadata>
  <manifest>
    <item id="one" href="one.xhtml" media-type="application/xhtml+xml"/>
    <item id="two" href="two.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine><itemref idref="two"/><itemref idref="one"/></spine>
</package>`

// writeTestEPub writes a two-chapter ePub to path.
func writeTestEPub(t *testing.T, path string) {
	t.Helper()
	files := []struct{ name, body string }{
		{"mimetype", "application/epub+zip"},
		{"META-INF/container.xml", testContainer},
		{"OEBPS/content.opf", testPackage},
		{"OEBPS/one.xhtml", `<html><body><h1>One</h1><p>Later text.</p></body></html>`},
		{"OEBPS/two.xhtml", `<html><body><h1>Two</h1><p>Earlier text.</p></body></html>`},
	}
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, f := range files {
		fw, err := zw.Create(f.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(fw, f.body); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

// isolate points config lookup and working trees at fresh directories and
// returns the working tree parent.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	work := t.TempDir()
	t.Setenv("EPUBTEXT_TEMP_DIR", work)
	return work
}

func runCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestExtractCommand(t *testing.T) {
	work := isolate(t)
	src := t.TempDir()
	archive := filepath.Join(src, "sample.epub")
	writeTestEPub(t, archive)
	out := t.TempDir()

	stdout, stderr, err := runCommand(t, "extract", "-o", out, archive)
	if err != nil {
		t.Fatalf("extract error = %v\nstderr: %s", err, stderr)
	}

	data, err := os.ReadFile(filepath.Join(out, "sample.txt"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	want := "TWO\n\nEarlier text.\n\n\n\nONE\n\nLater text."
	if string(data) != want {
		t.Errorf("artifact = %q, want %q", data, want)
	}
	if !strings.Contains(stdout, "1 converted") {
		t.Errorf("stdout = %q, want summary", stdout)
	}
	if !strings.Contains(stderr, "spine reading order") {
		t.Errorf("stderr = %q, want ordering method logged", stderr)
	}
	assertEmpty(t, work)
}

func TestExtractCommand_DefaultsToArchiveDirectory(t *testing.T) {
	isolate(t)
	src := t.TempDir()
	archive := filepath.Join(src, "book.epub")
	writeTestEPub(t, archive)

	if _, stderr, err := runCommand(t, "extract", archive); err != nil {
		t.Fatalf("extract error = %v\nstderr: %s", err, stderr)
	}
	if _, err := os.Stat(filepath.Join(src, "book.txt")); err != nil {
		t.Errorf("artifact not written next to archive: %v", err)
	}
}

func TestExtractCommand_BatchContinuesAfterFailure(t *testing.T) {
	work := isolate(t)
	src := t.TempDir()
	writeTestEPub(t, filepath.Join(src, "good.epub"))
	if err := os.WriteFile(filepath.Join(src, "bad.epub"), []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := t.TempDir()

	stdout, _, err := runCommand(t, "extract", "-o", out, src)
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("extract error = %v, want ExitError with code 1", err)
	}
	if _, statErr := os.Stat(filepath.Join(out, "good.txt")); statErr != nil {
		t.Errorf("good archive not converted: %v", statErr)
	}
	if _, statErr := os.Stat(filepath.Join(out, "bad.txt")); !os.IsNotExist(statErr) {
		t.Error("artifact written for failed archive")
	}
	if !strings.Contains(stdout, "1 converted") || !strings.Contains(stdout, "1 failed") {
		t.Errorf("stdout = %q", stdout)
	}
	assertEmpty(t, work)
}

func TestCollectArchives(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"vol10.epub", "vol2.EPUB", "vol1.epub", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.epub"), 0o755); err != nil {
		t.Fatal(err)
	}
	single := filepath.Join(t.TempDir(), "single.epub")
	if err := os.WriteFile(single, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	logger := log.New(io.Discard)

	archives, failed := collectArchives(logger, []string{single, dir, filepath.Join(dir, "missing.epub")})
	want := []string{
		single,
		filepath.Join(dir, "vol1.epub"),
		filepath.Join(dir, "vol2.EPUB"),
		filepath.Join(dir, "vol10.epub"),
	}
	if strings.Join(archives, "\n") != strings.Join(want, "\n") {
		t.Errorf("archives = %v, want %v", archives, want)
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
}

func TestOrderCommand(t *testing.T) {
	work := isolate(t)
	archive := filepath.Join(t.TempDir(), "sample.epub")
	writeTestEPub(t, archive)

	stdout, _, err := runCommand(t, "order", archive)
	if err != nil {
		t.Fatalf("order error = %v", err)
	}
	two := strings.Index(stdout, "OEBPS/two.xhtml")
	one := strings.Index(stdout, "OEBPS/one.xhtml")
	if two < 0 || one < 0 || two > one {
		t.Errorf("stdout = %q, want two.xhtml listed before one.xhtml", stdout)
	}
	if !strings.Contains(stdout, "spine of OEBPS/content.opf") {
		t.Errorf("stdout = %q, want spine method", stdout)
	}
	assertEmpty(t, work)
}

func TestConfigCommands(t *testing.T) {
	isolate(t)
	cfgPath := filepath.Join(t.TempDir(), "epubtext.toml")

	stdout, _, err := runCommand(t, "config", "init", "--config", cfgPath)
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if !strings.Contains(stdout, cfgPath) {
		t.Errorf("stdout = %q, want created path", stdout)
	}
	if _, _, err := runCommand(t, "config", "init", "--config", cfgPath); err == nil {
		t.Error("second config init succeeded, want refusal to overwrite")
	}

	stdout, _, err = runCommand(t, "config", "show", "--config", cfgPath)
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{cfgPath, "toc_headings = true", "[filter]"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("config show output missing %q:\n%s", want, stdout)
		}
	}

	stdout, _, err = runCommand(t, "config", "path")
	if err != nil {
		t.Fatalf("config path error = %v", err)
	}
	if !strings.Contains(stdout, filepath.Join("epubtext", "config.toml")) {
		t.Errorf("config path output = %q", stdout)
	}
}

func TestExitError(t *testing.T) {
	inner := errors.New("boom")
	err := &ExitError{Code: 2, Err: inner}
	if err.Error() != "boom" || !errors.Is(err, inner) {
		t.Errorf("ExitError = %v", err)
	}
	if got := (&ExitError{Code: 3}).Error(); got != "exit status 3" {
		t.Errorf("Error() = %q", got)
	}
}

func assertEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		t.Errorf("leftover working tree: %s", e.Name())
	}
}
