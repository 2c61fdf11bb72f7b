package epubtext

import "strings"

// blockSeparator is the four-newline delimiter between consecutive blocks.
const blockSeparator = "\n\n\n\n"

// Assemble joins the rendered blocks in order with blockSeparator.
// It returns ErrNoContentFound when blocks is empty or every block renders
// to the empty string.
func Assemble(blocks []TextBlock) (string, error) {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if s := b.String(); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", ErrNoContentFound
	}
	return strings.Join(parts, blockSeparator), nil
}
