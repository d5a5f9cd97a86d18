package model

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// findElement returns the first element with the given atom.
func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	doc, err := html.Parse(strings.NewReader(
		`<html><head><link href="/a.css"><script src="/a.js"></script></head><body><img src="/a.png"><a href="/x">x</a></body></html>`))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	tests := []struct {
		name     string
		element  atom.Atom
		wantKind Kind
		wantOK   bool
		wantAttr string
	}{
		{"img uses src", atom.Img, KindImage, true, "src"},
		{"link uses href", atom.Link, KindLink, true, "href"},
		{"script uses src", atom.Script, KindScript, true, "src"},
		{"anchor is not an asset", atom.A, 0, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			n := findElement(doc, tt.element)
			if n == nil {
				t.Fatalf("element %s not found", tt.element)
			}
			kind, ok := KindOf(n)
			if ok != tt.wantOK {
				t.Fatalf("KindOf ok = %v, want %v", ok, tt.wantOK)
			}
			if kind != tt.wantKind {
				t.Errorf("KindOf = %v, want %v", kind, tt.wantKind)
			}
			if kind.Attr() != tt.wantAttr {
				t.Errorf("Attr() = %q, want %q", kind.Attr(), tt.wantAttr)
			}
		})
	}

	t.Run("text node is not an asset", func(t *testing.T) {
		t.Parallel()
		if _, ok := KindOf(&html.Node{Type: html.TextNode, Data: "img"}); ok {
			t.Error("expected text node to be rejected")
		}
	})

	t.Run("nil node is not an asset", func(t *testing.T) {
		t.Parallel()
		if _, ok := KindOf(nil); ok {
			t.Error("expected nil node to be rejected")
		}
	})
}

func TestKindString(t *testing.T) {
	t.Parallel()

	if KindImage.String() != "img" || KindLink.String() != "link" || KindScript.String() != "script" {
		t.Error("unexpected kind names")
	}
	if Kind(0).String() != "unknown" {
		t.Errorf("expected unknown, got %q", Kind(0).String())
	}

	text, err := KindLink.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}
	if string(text) != "link" {
		t.Errorf("MarshalText = %q, want link", text)
	}
}

func TestAssetSetReference(t *testing.T) {
	t.Parallel()

	t.Run("rewrites only the reference attribute", func(t *testing.T) {
		t.Parallel()
		el := &html.Node{
			Type:     html.ElementNode,
			Data:     "img",
			DataAtom: atom.Img,
			Attr: []html.Attribute{
				{Key: "alt", Val: "logo"},
				{Key: "src", Val: "/logo.png"},
			},
		}
		a := &Asset{Element: el, Kind: KindImage}

		a.SetReference("https://site.example/logo.png")

		if got := a.Reference(); got != "https://site.example/logo.png" {
			t.Errorf("Reference() = %q", got)
		}
		if el.Attr[0].Val != "logo" {
			t.Errorf("alt attribute was modified: %q", el.Attr[0].Val)
		}
	})

	t.Run("missing attribute is not added", func(t *testing.T) {
		t.Parallel()
		el := &html.Node{Type: html.ElementNode, Data: "script", DataAtom: atom.Script}
		a := &Asset{Element: el, Kind: KindScript}

		a.SetReference("x.js")

		if len(el.Attr) != 0 {
			t.Errorf("expected no attributes, got %v", el.Attr)
		}
		if a.Reference() != "" {
			t.Errorf("expected empty reference, got %q", a.Reference())
		}
	})

	t.Run("nil element is ignored", func(t *testing.T) {
		t.Parallel()
		a := &Asset{Kind: KindLink}
		a.SetReference("x.css")
		if a.Reference() != "" {
			t.Error("expected empty reference for nil element")
		}
	})
}
