package epubtext

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// entityNameToNumeric maps lowercase HTML entity names to their XML numeric
// character references. encoding/xml does not recognise HTML named entities,
// so we convert them before parsing OPF/NCX files.
var entityNameToNumeric = map[string][]byte{
	"nbsp": []byte("&#160;"), "mdash": []byte("&#8212;"), "ndash": []byte("&#8211;"),
	"hellip": []byte("&#8230;"),
	"lsquo": []byte("&#8216;"), "rsquo": []byte("&#8217;"),
	"ldquo": []byte("&#8220;"), "rdquo": []byte("&#8221;"),
	"copy": []byte("&#169;"), "reg": []byte("&#174;"), "trade": []byte("&#8482;"),
	"eacute": []byte("&#233;"), "egrave": []byte("&#232;"),
	"aacute": []byte("&#225;"), "agrave": []byte("&#224;"),
	"ouml": []byte("&#246;"), "uuml": []byte("&#252;"), "auml": []byte("&#228;"),
	"ntilde": []byte("&#241;"), "ccedil": []byte("&#231;"),
	"laquo": []byte("&#171;"), "raquo": []byte("&#187;"),
}

// htmlEntityPattern matches the entities in entityNameToNumeric case-insensitively.
var htmlEntityPattern = regexp.MustCompile(
	`(?i)&(nbsp|mdash|ndash|hellip|lsquo|rsquo|ldquo|rdquo|copy|reg|trade|` +
		`eacute|egrave|aacute|agrave|ouml|uuml|auml|ntilde|ccedil|laquo|raquo);`)

// preprocessHTMLEntities replaces common HTML named entities with their
// numeric character references so that encoding/xml can parse the data.
func preprocessHTMLEntities(data []byte) []byte {
	return htmlEntityPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := strings.ToLower(string(match[1 : len(match)-1]))
		if replacement, ok := entityNameToNumeric[name]; ok {
			return replacement
		}
		return match
	})
}

// selfClosingTagPattern matches XML-style self-closing tags such as <a id="n1"/>.
var selfClosingTagPattern = regexp.MustCompile(`(?is)<([a-z][a-z0-9:_-]*)(\s[^<>]*?)?/>`)

// voidElements may legitimately self-close in HTML.
var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Source: true, atom.Track: true,
	atom.Wbr: true,
}

// expandSelfClosingTags rewrites <tag/> into <tag></tag> for non-void elements.
//
// XHTML content documents are parsed with the HTML parser, which ignores the
// self-closing flag on ordinary elements. Without this step an empty anchor
// such as <a id="note1"/> would swallow the text that follows it, and
// <script/> would swallow the rest of the document.
func expandSelfClosingTags(data []byte) []byte {
	if !selfClosingTagPattern.Match(data) {
		return data
	}
	return selfClosingTagPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		sub := selfClosingTagPattern.FindSubmatch(match)
		name := string(sub[1])
		if voidElements[atom.Lookup(bytes.ToLower(sub[1]))] {
			return match
		}
		return []byte("<" + name + string(sub[2]) + "></" + name + ">")
	})
}

// xmlEncodingPattern finds the encoding pseudo-attribute of an XML declaration.
var xmlEncodingPattern = regexp.MustCompile(`^\s*<\?xml[^>]*\sencoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)

// documentContentType builds the content type handed to the charset detector.
// XHTML declares its encoding in the XML declaration, which the HTML
// prescanner does not look at.
func documentContentType(data []byte) string {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	if m := xmlEncodingPattern.FindSubmatch(stripBOM(head)); m != nil {
		return "text/html; charset=" + string(m[1])
	}
	return "text/html"
}

// parseDocument decodes a content document to UTF-8 and parses it into a tree.
// The character set is taken from a BOM, the XML declaration or <meta charset>,
// defaulting to UTF-8 for valid UTF-8 input.
func parseDocument(data []byte) (*html.Node, error) {
	r, err := charset.NewReader(bytes.NewReader(data), documentContentType(data))
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	doc, err := html.Parse(bytes.NewReader(expandSelfClosingTags(stripBOM(decoded))))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// findElement performs a depth-first search for a node with the given atom tag.
func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findElement(c, a); result != nil {
			return result
		}
	}
	return nil
}

// getAttr returns the value of the attribute with the given key on n.
func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeTextContent recursively collects all text content within a node.
func nodeTextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeTextContent(c))
	}
	return sb.String()
}
