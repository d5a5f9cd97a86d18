// Package htmldoc parses pages into x/net/html trees and serializes them
// back as indented HTML.
//
// Render produces one node per line with two-space indentation. The output
// depends only on the tree, so rendering the same tree twice yields the same
// bytes. Whitespace-sensitive elements (pre, textarea) are written as they
// are, and the contents of raw text elements such as script and style are
// never escaped.
//
// Rendered pages are always UTF-8; DeclareUTF8 updates a parsed page's
// charset declarations to say so.
package htmldoc

import (
	"bufio"
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	xhtml "golang.org/x/net/html"
)

// indentUnit is the indentation added per nesting level.
const indentUnit = "  "

// voidElements never have a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// rawTextElements hold text that must not be escaped.
var rawTextElements = map[string]bool{
	"script": true, "style": true, "xmp": true, "iframe": true,
	"noembed": true, "noframes": true, "noscript": true,
}

// verbatimElements are rendered by x/net/html without re-indentation
// because their whitespace is significant.
var verbatimElements = map[string]bool{
	"pre": true, "textarea": true, "listing": true, "plaintext": true,
}

// Parse builds a parse tree from r. The input must already be UTF-8.
func Parse(r io.Reader) (*xhtml.Node, error) {
	doc, err := xhtml.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// Render writes n and its descendants to w as indented HTML.
func Render(w io.Writer, n *xhtml.Node) error {
	bw := bufio.NewWriter(w)
	r := &renderer{w: bw}
	r.node(n, 0)
	if r.err != nil {
		return r.err
	}
	return bw.Flush()
}

// RenderBytes renders n into a byte slice.
func RenderBytes(n *xhtml.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderer keeps the first write error so the tree walk stays linear.
type renderer struct {
	w   *bufio.Writer
	err error
}

func (r *renderer) line(depth int, s string) {
	if r.err != nil {
		return
	}
	if _, err := r.w.WriteString(strings.Repeat(indentUnit, depth) + s + "\n"); err != nil {
		r.err = err
	}
}

// native renders n with x/net/html on a single line.
func (r *renderer) native(n *xhtml.Node, depth int) {
	if r.err != nil {
		return
	}
	var buf bytes.Buffer
	if err := xhtml.Render(&buf, n); err != nil {
		r.err = fmt.Errorf("failed to render <%s>: %w", n.Data, err)
		return
	}
	r.line(depth, buf.String())
}

func (r *renderer) node(n *xhtml.Node, depth int) {
	switch n.Type {
	case xhtml.DocumentNode:
		r.children(n, depth)
	case xhtml.DoctypeNode, xhtml.CommentNode:
		r.native(n, depth)
	case xhtml.TextNode:
		r.text(n, depth)
	case xhtml.ElementNode:
		r.element(n, depth)
	default:
		// Raw and error nodes do not occur in parsed documents.
	}
}

func (r *renderer) children(n *xhtml.Node, depth int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.node(c, depth)
	}
}

func (r *renderer) text(n *xhtml.Node, depth int) {
	s := strings.TrimSpace(n.Data)
	if s == "" {
		return
	}
	if n.Parent != nil && n.Parent.Type == xhtml.ElementNode && rawTextElements[n.Parent.Data] {
		r.line(depth, s)
		return
	}
	r.line(depth, html.EscapeString(s))
}

func (r *renderer) element(n *xhtml.Node, depth int) {
	if verbatimElements[n.Data] {
		r.native(n, depth)
		return
	}

	open := openTag(n)
	switch {
	case voidElements[n.Data]:
		r.line(depth, open)
	case n.FirstChild == nil:
		r.line(depth, open+"</"+n.Data+">")
	default:
		r.line(depth, open)
		r.children(n, depth+1)
		r.line(depth, "</"+n.Data+">")
	}
}

func openTag(n *xhtml.Node) string {
	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(n.Data)
	for _, a := range n.Attr {
		sb.WriteString(" ")
		if a.Namespace != "" {
			sb.WriteString(a.Namespace)
			sb.WriteString(":")
		}
		sb.WriteString(a.Key)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(a.Val))
		sb.WriteString(`"`)
	}
	sb.WriteString(">")
	return sb.String()
}
