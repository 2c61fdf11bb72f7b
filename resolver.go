package epubtext

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// OrderStrategy produces the reading order of a working tree's content documents.
type OrderStrategy interface {
	Resolve(t *WorkTree) ([]string, []Skip, error)
}

// HeuristicOrder orders content documents without a package document: every
// file with a content extension is collected, denylisted paths are dropped,
// and the rest is sorted in natural order.
//
// The denylist is an approximation. A chapter whose path happens to contain
// an excluded substring is lost, and navigation files with unusual names are
// kept.
type HeuristicOrder struct {
	Rules FallbackRules
}

// Resolve walks the tree and returns the matching documents in natural order.
func (h HeuristicOrder) Resolve(t *WorkTree) ([]string, []Skip, error) {
	var rels []string
	err := filepath.WalkDir(t.Dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel := t.Rel(p)
		if h.isContent(rel) && !h.excluded(rel) {
			rels = append(rels, rel)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scan working tree: %w", err)
	}

	SortNatural(rels)
	paths := make([]string, len(rels))
	for i, rel := range rels {
		paths[i] = filepath.Join(t.Dir, filepath.FromSlash(rel))
	}
	return paths, nil, nil
}

// isContent reports whether rel ends in one of the content extensions.
func (h HeuristicOrder) isContent(rel string) bool {
	lower := strings.ToLower(rel)
	for _, ext := range h.Rules.Extensions {
		if ext != "" && strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// excluded reports whether rel contains any denylisted substring.
// Matching is done on the tree-relative path so that the name of the
// temporary directory itself never matters.
func (h HeuristicOrder) excluded(rel string) bool {
	lower := strings.ToLower(rel)
	for _, marker := range h.Rules.Exclude {
		if marker != "" && strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// ResolveOrder determines the reading order of the working tree.
//
// When packagePath is non-empty the spine is authoritative. If the package
// is missing, unparsable, or its spine yields no documents, the fallback
// strategy is used instead and the returned order reports UsedFallback
// together with a warning explaining why.
func ResolveOrder(t *WorkTree, packagePath string, fallback HeuristicOrder) ReadingOrder {
	var order ReadingOrder

	if packagePath == "" {
		order.Warnings = append(order.Warnings, "no package document declared in "+containerPath)
	} else {
		paths, skipped, err := SpineOrder{PackagePath: packagePath}.Resolve(t)
		order.Skipped = skipped
		if err == nil {
			order.Paths = paths
			order.PackagePath = packagePath
			return order
		}
		if errors.Is(err, errEmptySpine) {
			order.Warnings = append(order.Warnings, fmt.Sprintf("%s: %v", packagePath, err))
		} else {
			order.Warnings = append(order.Warnings, fmt.Sprintf("cannot use package document: %v", err))
		}
	}

	order.UsedFallback = true
	paths, _, err := fallback.Resolve(t)
	if err != nil {
		order.Warnings = append(order.Warnings, fmt.Sprintf("fallback ordering: %v", err))
	}
	order.Paths = paths
	return order
}
