package epubtext

// Options controls how archives are unpacked, ordered and filtered.
// Start from DefaultOptions and override individual fields.
type Options struct {
	// Filter holds the element denylists applied to every content document.
	Filter FilterRules

	// Fallback configures heuristic ordering used when the spine is unusable.
	Fallback FallbackRules

	// TOCHeadings enables using NCX or nav document titles as the heading of
	// a spine-ordered document that has no heading element of its own.
	TOCHeadings bool

	// SkipLicensePages drops Project Gutenberg license documents.
	SkipLicensePages bool

	// TempDir is the parent directory for working trees.
	// Empty means the operating system's default temporary directory.
	TempDir string

	// MaxEntrySize caps the decompressed size of a single archive entry.
	// Zero means defaultMaxEntrySize.
	MaxEntrySize int64
}

// FilterRules lists the elements removed from content documents before
// text extraction. All matching is case-insensitive.
type FilterRules struct {
	// Tags are element names removed together with their subtree.
	Tags []string

	// ClassTokens are matched by substring against the class attribute.
	ClassTokens []string

	// IDTokens are matched by substring against the id attribute.
	IDTokens []string
}

// FallbackRules configures HeuristicOrder.
type FallbackRules struct {
	// Extensions are the file suffixes treated as content documents (e.g., ".xhtml").
	Extensions []string

	// Exclude lists substrings; a file whose tree-relative path contains any
	// of them is dropped. This is a heuristic and can both over- and
	// under-exclude.
	Exclude []string
}

// DefaultOptions returns the options used by the command line tool
// when no configuration overrides them.
func DefaultOptions() Options {
	return Options{
		Filter: FilterRules{
			Tags:        []string{"script", "style", "aside", "footer", "nav", "sup", "header"},
			ClassTokens: []string{"note", "footnote", "sidenote", "marginnote", "endnote", "reference"},
			IDTokens:    []string{"note"},
		},
		Fallback: FallbackRules{
			Extensions: []string{".xhtml", ".html", ".htm"},
			Exclude:    []string{"nav", "toc", "cover", "stylesheet", "images/", "css/", "styles/"},
		},
		TOCHeadings:  true,
		MaxEntrySize: defaultMaxEntrySize,
	}
}

// TextBlock is the normalized text extracted from one content document.
// Body never contains empty lines or runs of two or more whitespace characters.
type TextBlock struct {
	// Path locates the source document. FilterDocument sets the on-disk
	// path; blocks in a Result carry the archive-internal path instead.
	Path string

	// Heading is the uppercased first heading of the document, if any.
	Heading string

	// Body is the normalized narrative text.
	Body string
}

// String renders the block as it appears in the output artifact:
// the heading, a blank line, then the body.
func (b TextBlock) String() string {
	switch {
	case b.Heading != "" && b.Body != "":
		return b.Heading + "\n\n" + b.Body
	case b.Heading != "":
		return b.Heading
	default:
		return b.Body
	}
}

// SkipReason classifies why a spine reference or document was left out.
type SkipReason string

// Skip reasons recorded on ReadingOrder and Result.
const (
	SkipUnresolvedRef SkipReason = "unresolved-ref"
	SkipUnsafeHref    SkipReason = "unsafe-href"
	SkipMissing       SkipReason = "missing"
	SkipUnreadable    SkipReason = "unreadable"
	SkipEmpty         SkipReason = "empty"
	SkipLicense       SkipReason = "license"
)

// Skip records a single item that was passed over without failing the run.
type Skip struct {
	// Path is the document path, or the spine idref for unresolved references.
	Path string

	// Reason classifies the skip.
	Reason SkipReason

	// Err is the underlying error, if any.
	Err error
}

// ReadingOrder is the outcome of ResolveOrder.
type ReadingOrder struct {
	// Paths are absolute content document paths in reading order.
	Paths []string

	// UsedFallback reports whether HeuristicOrder produced Paths.
	UsedFallback bool

	// PackagePath is the package document used for spine ordering, if any.
	PackagePath string

	// Skipped lists spine references that could not be used.
	Skipped []Skip

	// Warnings explains why fallback ordering was used, among other notes.
	Warnings []string
}

// BookInfo is the subset of package metadata reported alongside a result.
type BookInfo struct {
	Title    string
	Authors  []string
	Language string
	Version  string
}

// Result describes one completed extraction run.
type Result struct {
	// Archive is the input archive path.
	Archive string

	// OutputPath is the written artifact, empty when nothing was written.
	OutputPath string

	// Text is the assembled artifact text.
	Text string

	// Blocks are the text blocks in reading order.
	Blocks []TextBlock

	// Order is the resolved reading order. Its paths are archive-internal,
	// since the working tree no longer exists when the run returns.
	Order ReadingOrder

	// Skipped lists documents that produced no block.
	Skipped []Skip

	// Warnings accumulates non-fatal problems for the whole run.
	Warnings []string

	// Book is the package metadata, zero when no package was found.
	Book BookInfo
}
