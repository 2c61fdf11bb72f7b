package epubtext

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// WorkTree is a temporary directory holding the unpacked contents of one
// archive. It is owned by a single extraction run; call Release when the run
// ends, on every exit path.
//
// A WorkTree is not safe for concurrent use by multiple goroutines.
type WorkTree struct {
	// Dir is the absolute path of the working directory.
	Dir string

	entries []string          // archive-internal names, in archive order
	exact   map[string]string // exact-match name index
	lower   map[string]string // lowercase name index
}

// Unpack materializes the archive at archivePath into a fresh working tree
// under opts.TempDir. The archive itself is never modified.
//
// If unpacking fails the partially written tree is removed before returning.
// Errors caused by the archive wrap ErrInvalidArchive.
func Unpack(archivePath string, opts Options) (*WorkTree, error) {
	zrc, err := zip.OpenReader(archivePath)
	if err != nil {
		if zrc != nil {
			zrc.Close() // returned alongside zip.ErrInsecurePath
		}
		return nil, fmt.Errorf("epubtext: open %s: %w: %w", archivePath, ErrInvalidArchive, err)
	}
	defer zrc.Close()

	dir, err := os.MkdirTemp(opts.TempDir, "epubtext-")
	if err != nil {
		return nil, fmt.Errorf("epubtext: create working tree: %w", err)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	t := &WorkTree{
		Dir:   dir,
		exact: make(map[string]string, len(zrc.File)),
		lower: make(map[string]string, len(zrc.File)),
	}
	if err := t.fill(&zrc.Reader, entryLimit(opts)); err != nil {
		_ = t.Release()
		return nil, err
	}
	return t, nil
}

func entryLimit(opts Options) int64 {
	if opts.MaxEntrySize > 0 {
		return opts.MaxEntrySize
	}
	return defaultMaxEntrySize
}

// fill extracts every entry of zr into the tree and indexes its name.
func (t *WorkTree) fill(zr *zip.Reader, limit int64) error {
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, `\`, "/")
		if !isSafePath(name) {
			return fmt.Errorf("epubtext: zip entry %q: %w: %w", f.Name, ErrInvalidArchive, ErrUnsafePath)
		}
		name = path.Clean(name)
		if name == "." {
			continue
		}
		dest := filepath.Join(t.Dir, filepath.FromSlash(name))

		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			if err := os.MkdirAll(dest, 0o700); err != nil {
				return fmt.Errorf("epubtext: create %s: %w", dest, err)
			}
			continue
		}
		if _, dup := t.exact[name]; dup {
			// First entry wins, matching zip.Reader lookups.
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o700); err != nil {
			return fmt.Errorf("epubtext: create %s: %w", filepath.Dir(dest), err)
		}
		if err := extractZipFile(f, dest, limit); err != nil {
			if errors.Is(err, ErrEntryTooLarge) || isZipFormatError(err) {
				return fmt.Errorf("%w: %w", ErrInvalidArchive, err)
			}
			return err
		}
		t.add(name)
	}
	return nil
}

func isZipFormatError(err error) bool {
	return errors.Is(err, zip.ErrFormat) || errors.Is(err, zip.ErrChecksum) || errors.Is(err, zip.ErrAlgorithm)
}

// add records an extracted entry in the name indexes.
func (t *WorkTree) add(name string) {
	t.entries = append(t.entries, name)
	t.exact[name] = name
	if lower := strings.ToLower(name); t.lower[lower] == "" {
		t.lower[lower] = name // first match wins for case-insensitive
	}
}

// expectedMimetype is the content of the "mimetype" entry of an ePub.
const expectedMimetype = "application/epub+zip"

// checkMimetype verifies that the first entry is "mimetype" holding
// "application/epub+zip". A deviation is returned as a warning message,
// an archive that conforms yields "".
func (t *WorkTree) checkMimetype() string {
	if len(t.entries) == 0 {
		return "empty archive; mimetype entry missing"
	}
	if t.entries[0] != "mimetype" {
		return `first archive entry is not "mimetype"`
	}
	data, err := os.ReadFile(t.abs("mimetype"))
	if err != nil {
		return fmt.Sprintf("cannot read mimetype entry: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != expectedMimetype {
		return fmt.Sprintf("unexpected mimetype: %q", got)
	}
	return ""
}

// Entries returns the archive-internal names of all extracted files,
// in archive order.
func (t *WorkTree) Entries() []string {
	return append([]string(nil), t.entries...)
}

// Lookup resolves an archive-internal name to its on-disk path. It tries an
// exact match first, then falls back to a case-insensitive match.
func (t *WorkTree) Lookup(name string) (string, bool) {
	if n, ok := t.exact[name]; ok {
		return t.abs(n), true
	}
	if n, ok := t.lower[strings.ToLower(name)]; ok {
		return t.abs(n), true
	}
	return "", false
}

// Path returns the on-disk path for an archive-internal name, preferring an
// existing entry through Lookup and otherwise joining name onto Dir.
func (t *WorkTree) Path(name string) string {
	if p, ok := t.Lookup(name); ok {
		return p
	}
	return t.abs(name)
}

// Rel returns p relative to the tree root in forward-slash form.
func (t *WorkTree) Rel(p string) string {
	rel, err := filepath.Rel(t.Dir, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func (t *WorkTree) abs(name string) string {
	return filepath.Join(t.Dir, filepath.FromSlash(name))
}

// Release removes the working tree recursively. Release is idempotent.
func (t *WorkTree) Release() error {
	if t == nil || t.Dir == "" {
		return nil
	}
	err := os.RemoveAll(t.Dir)
	t.Dir = ""
	if err != nil {
		return fmt.Errorf("epubtext: remove working tree: %w", err)
	}
	return nil
}
