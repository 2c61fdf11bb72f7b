package epubtext

import "strings"

// gutenbergPatterns contains case-insensitive patterns that indicate a
// Project Gutenberg license page.
var gutenbergPatterns = []string{
	"project gutenberg license",
	"gutenberg.org/license",
	"start of the project gutenberg license",
	"end of the project gutenberg license",
}

// gutenbergComboPatterns contains pairs of strings that together indicate a
// Gutenberg license page (both must appear, case-insensitive).
var gutenbergComboPatterns = [][2]string{
	{"project gutenberg", "terms of use"},
	{"full license", "gutenberg"},
}

// isGutenbergLicense reports whether the extracted text of a block looks
// like a Project Gutenberg license page.
func isGutenbergLicense(b TextBlock) bool {
	text := strings.ToLower(b.Heading + " " + b.Body)
	for _, pat := range gutenbergPatterns {
		if strings.Contains(text, pat) {
			return true
		}
	}
	for _, combo := range gutenbergComboPatterns {
		if strings.Contains(text, combo[0]) && strings.Contains(text, combo[1]) {
			return true
		}
	}
	return false
}
