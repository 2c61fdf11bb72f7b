package epubtext

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Matcher selects element nodes to remove from a content document.
type Matcher interface {
	Match(n *html.Node) bool
}

// MatcherFunc adapts an ordinary function to the Matcher interface.
type MatcherFunc func(n *html.Node) bool

// Match calls f(n).
func (f MatcherFunc) Match(n *html.Node) bool { return f(n) }

// TagIn matches elements whose tag name is in the list (case-insensitive).
type TagIn []string

// Match implements Matcher.
func (m TagIn) Match(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, tag := range m {
		if strings.EqualFold(n.Data, tag) {
			return true
		}
	}
	return false
}

// ClassContainsAny matches elements whose class attribute contains any of
// the tokens as a substring (case-insensitive). "endnotes-list" therefore
// matches the token "note".
type ClassContainsAny []string

// Match implements Matcher.
func (m ClassContainsAny) Match(n *html.Node) bool {
	return n.Type == html.ElementNode && containsAnyFold(getAttr(n, "class"), m)
}

// IDContains matches elements whose id attribute contains any of the
// substrings (case-insensitive).
type IDContains []string

// Match implements Matcher.
func (m IDContains) Match(n *html.Node) bool {
	return n.Type == html.ElementNode && containsAnyFold(getAttr(n, "id"), m)
}

// AnyOf matches a node when at least one of its matchers does.
// An empty AnyOf matches nothing.
type AnyOf []Matcher

// Match implements Matcher.
func (m AnyOf) Match(n *html.Node) bool {
	for _, sub := range m {
		if sub != nil && sub.Match(n) {
			return true
		}
	}
	return false
}

func containsAnyFold(s string, tokens []string) bool {
	if s == "" {
		return false
	}
	s = strings.ToLower(s)
	for _, tok := range tokens {
		if tok != "" && strings.Contains(s, strings.ToLower(tok)) {
			return true
		}
	}
	return false
}

// Matcher composes the rules into a single predicate.
func (r FilterRules) Matcher() Matcher {
	return AnyOf{TagIn(r.Tags), ClassContainsAny(r.ClassTokens), IDContains(r.IDTokens)}
}

// removeMatching deletes every node under root that m matches, together with
// its subtree, in one traversal. Matched nodes are not descended into, so the
// result does not depend on the order in which the predicates are evaluated.
func removeMatching(root *html.Node, m Matcher) {
	if m == nil {
		return
	}
	var next *html.Node
	for c := root.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if m.Match(c) {
			root.RemoveChild(c)
			continue
		}
		removeMatching(c, m)
	}
}

// headingTags are the heading levels considered for a block heading.
var headingTags = map[atom.Atom]bool{
	atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true,
}

// takeHeading finds the first non-empty heading element in document order,
// or the <title> element when the document has no heading, removes it from
// the tree and returns its uppercased text.
func takeHeading(doc *html.Node) string {
	n := findFirst(doc, func(n *html.Node) bool {
		return headingTags[n.DataAtom] && NormalizeText(nodeTextContent(n)) != ""
	})
	if n == nil {
		n = findFirst(doc, func(n *html.Node) bool {
			return n.DataAtom == atom.Title && NormalizeText(nodeTextContent(n)) != ""
		})
	}
	if n == nil {
		return ""
	}
	text := NormalizeText(nodeTextContent(n))
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	return cases.Upper(language.Und).String(text)
}

// findFirst returns the first element node in document order for which pred holds.
func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// inlineTags do not separate the text around them.
var inlineTags = map[atom.Atom]bool{
	atom.A: true, atom.Abbr: true, atom.B: true, atom.Bdi: true, atom.Bdo: true,
	atom.Cite: true, atom.Code: true, atom.Data: true, atom.Del: true, atom.Dfn: true,
	atom.Em: true, atom.Font: true, atom.I: true, atom.Ins: true, atom.Kbd: true,
	atom.Mark: true, atom.Q: true, atom.Rp: true, atom.Rt: true, atom.Ruby: true,
	atom.S: true, atom.Samp: true, atom.Small: true, atom.Span: true, atom.Strong: true,
	atom.Sub: true, atom.Sup: true, atom.Time: true, atom.U: true, atom.Var: true,
}

// opaqueTags never contribute text, whatever the filter rules say.
var opaqueTags = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true,
}

// bodyText collects the text under the <body> element, or the whole
// document when there is none. Text nodes separated by anything other than
// inline markup are joined with a line break; normalization later folds
// those into single spaces.
func bodyText(doc *html.Node) string {
	root := findElement(doc, atom.Body)
	if root == nil {
		root = doc
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if opaqueTags[n.DataAtom] {
				return
			}
		case html.CommentNode, html.DoctypeNode:
			return
		}
		block := n.Type == html.ElementNode && !inlineTags[n.DataAtom]
		if block {
			sb.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			sb.WriteByte('\n')
		}
	}
	walk(root)
	return strings.TrimSpace(sb.String())
}

// spaceRunPattern matches two or more consecutive whitespace characters,
// including no-break and other Unicode spaces.
var spaceRunPattern = regexp.MustCompile(`[\s\p{Zs}\x{0085}\x{2028}\x{2029}]{2,}`)

// NormalizeText flattens s into a single line: it splits on newlines, drops
// blank lines, rejoins with single spaces and collapses every run of two or
// more whitespace characters into one space. The result is NFC-normalized
// and trimmed.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	s = strings.Join(kept, " ")
	s = spaceRunPattern.ReplaceAllString(s, " ")
	return norm.NFC.String(strings.TrimSpace(s))
}

// ExtractBlock filters and normalizes one content document.
//
// Elements matched by m are removed first, then the heading is taken out of
// the tree, then the remaining body text is normalized. A nil m removes
// nothing. ExtractBlock returns nil when the document has neither a heading
// nor body text.
func ExtractBlock(data []byte, m Matcher) (*TextBlock, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return nil, err
	}

	removeMatching(doc, m)
	heading := takeHeading(doc)
	body := NormalizeText(bodyText(doc))

	if heading == "" && body == "" {
		return nil, nil
	}
	return &TextBlock{Heading: heading, Body: body}, nil
}

// FilterDocument reads the document at path and calls ExtractBlock.
// A missing file yields an error satisfying errors.Is(err, fs.ErrNotExist);
// a document without text yields (nil, nil).
func FilterDocument(path string, m Matcher) (*TextBlock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	block, err := ExtractBlock(data, m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if block != nil {
		block.Path = path
	}
	return block, nil
}
