package epubtext

import (
	"archive/zip"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// defaultMaxEntrySize is the maximum allowed decompressed size for a single ZIP entry.
// This guards against zip bomb attacks. Defaults to 256 MB.
const defaultMaxEntrySize int64 = 256 * 1024 * 1024

// resolveRelativePath resolves href relative to the directory of basePath.
// Both basePath and href are archive-internal paths (forward-slash separated).
// Percent-encoding and any fragment are removed from href first.
// If the resolved path escapes root or is absolute, an empty string is returned.
func resolveRelativePath(basePath, href string) string {
	href = hrefWithoutFragment(strings.TrimSpace(href))
	if href == "" || strings.HasPrefix(href, "/") {
		return ""
	}
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}
	cleaned := path.Clean(path.Join(path.Dir(basePath), href))
	if !isSafePath(cleaned) {
		return ""
	}
	return cleaned
}

// hrefWithoutFragment returns the href with the fragment (#...) removed.
func hrefWithoutFragment(href string) string {
	if idx := strings.IndexByte(href, '#'); idx >= 0 {
		return href[:idx]
	}
	return href
}

// isSafePath checks whether p is a safe archive-internal path that does not
// escape the archive root via path traversal (e.g., "../../../etc/passwd").
func isSafePath(p string) bool {
	cleaned := path.Clean(strings.ReplaceAll(p, `\`, "/"))
	if strings.HasPrefix(cleaned, "/") || filepath.IsAbs(p) || filepath.VolumeName(p) != "" {
		return false
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return false
	}
	return true
}

// stripBOM removes a leading UTF-8 BOM (0xEF 0xBB 0xBF) from data, if present.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// extractZipFile writes the contents of a ZIP entry to dest, which must not exist.
// It enforces limit to guard against zip bombs; the declared size is checked first
// and the actual decompressed size is checked while copying.
func extractZipFile(f *zip.File, dest string, limit int64) error {
	if f.UncompressedSize64 > uint64(limit) {
		return fmt.Errorf("epubtext: zip entry %s: %d bytes (max %d): %w", f.Name, f.UncompressedSize64, limit, ErrEntryTooLarge)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("epubtext: open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("epubtext: create %s: %w", dest, err)
	}

	// Copy up to limit+1 to detect if the actual decompressed data
	// exceeds the limit (the declared size might be wrong/forged).
	n, err := io.Copy(out, io.LimitReader(rc, limit+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("epubtext: extract zip entry %s: %w", f.Name, err)
	}
	if n > limit {
		return fmt.Errorf("epubtext: zip entry %s decompressed size exceeds %d bytes: %w", f.Name, limit, ErrEntryTooLarge)
	}
	return nil
}
