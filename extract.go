package epubtext

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// outputExt is the extension of written artifacts.
const outputExt = ".txt"

// Extractor runs the extraction pipeline over one archive at a time:
// unpack, locate the package, resolve the reading order, filter each
// document and assemble the artifact.
//
// An Extractor holds no per-run state and may be reused for a batch.
type Extractor struct {
	opts    Options
	matcher Matcher
}

// New returns an Extractor configured by opts.
func New(opts Options) *Extractor {
	return &Extractor{opts: opts, matcher: opts.Filter.Matcher()}
}

// Extract produces the text artifact for the archive at archivePath without
// writing it. The working tree is removed before Extract returns, whatever
// the outcome.
//
// A non-nil Result is returned even on failure so that callers can report
// the warnings and skips collected before the failure. The error wraps
// ErrInvalidArchive, ErrDRMProtected or ErrNoContentFound.
func (e *Extractor) Extract(archivePath string) (res *Result, err error) {
	res = &Result{Archive: archivePath}

	tree, err := Unpack(archivePath, e.opts)
	if err != nil {
		return res, err
	}
	defer func() {
		if rerr := tree.Release(); rerr != nil {
			res.Warnings = append(res.Warnings, rerr.Error())
		}
	}()

	if w := tree.checkMimetype(); w != "" {
		res.Warnings = append(res.Warnings, w)
	}

	fontObfuscation, err := checkDRM(tree)
	if err != nil {
		return res, fmt.Errorf("epubtext: %s: %w", archivePath, err)
	}
	if fontObfuscation {
		res.Warnings = append(res.Warnings, "font obfuscation detected; fonts are ignored")
	}

	opfPath, _ := LocatePackage(tree)
	order := ResolveOrder(tree, opfPath, HeuristicOrder{Rules: e.opts.Fallback})
	res.Warnings = append(res.Warnings, order.Warnings...)

	var titles map[string]string
	if opfPath != "" {
		if pkg, err := loadPackage(tree, opfPath); err == nil {
			res.Book = extractBookInfo(pkg)
			if e.opts.TOCHeadings && !order.UsedFallback {
				var warnings []string
				titles, warnings = tocTitles(tree, opfPath, pkg)
				res.Warnings = append(res.Warnings, warnings...)
			}
		}
	}

	for _, p := range order.Paths {
		block, skip := e.document(tree, p, titles)
		if skip != nil {
			res.Skipped = append(res.Skipped, *skip)
			continue
		}
		res.Blocks = append(res.Blocks, *block)
	}

	res.Order = relativeOrder(tree, order)

	res.Text, err = Assemble(res.Blocks)
	if err != nil {
		return res, fmt.Errorf("epubtext: %s: %w", archivePath, err)
	}
	return res, nil
}

// document turns one resolved path into a block, or explains why it could not.
func (e *Extractor) document(tree *WorkTree, p string, titles map[string]string) (*TextBlock, *Skip) {
	rel := tree.Rel(p)

	block, err := FilterDocument(p, e.matcher)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, &Skip{Path: rel, Reason: SkipMissing, Err: err}
	case err != nil:
		return nil, &Skip{Path: rel, Reason: SkipUnreadable, Err: err}
	case block == nil:
		return nil, &Skip{Path: rel, Reason: SkipEmpty}
	}

	block.Path = rel
	if block.Heading == "" && block.Body != "" {
		if title := titles[p]; title != "" {
			block.Heading = cases.Upper(language.Und).String(title)
		}
	}
	if e.opts.SkipLicensePages && isGutenbergLicense(*block) {
		return nil, &Skip{Path: rel, Reason: SkipLicense}
	}
	return block, nil
}

// relativeOrder rewrites the order's paths relative to the tree root so the
// result stays meaningful after the tree is released.
func relativeOrder(tree *WorkTree, order ReadingOrder) ReadingOrder {
	paths := make([]string, len(order.Paths))
	for i, p := range order.Paths {
		paths[i] = tree.Rel(p)
	}
	order.Paths = paths
	return order
}

// ExtractToFile runs Extract and writes the artifact into outDir under the
// name returned by OutputPath. Nothing is written when extraction fails.
func (e *Extractor) ExtractToFile(archivePath, outDir string) (*Result, error) {
	res, err := e.Extract(archivePath)
	if err != nil {
		return res, err
	}

	out := OutputPath(archivePath, outDir)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return res, fmt.Errorf("epubtext: create output directory: %w", err)
	}
	if err := os.WriteFile(out, []byte(res.Text), 0o644); err != nil {
		return res, fmt.Errorf("epubtext: write %s: %w", out, err)
	}
	res.OutputPath = out
	return res, nil
}

// OutputPath returns the artifact path for archivePath inside outDir: the
// archive's base name with its extension replaced by ".txt".
func OutputPath(archivePath, outDir string) string {
	base := filepath.Base(archivePath)
	return filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+outputExt)
}
