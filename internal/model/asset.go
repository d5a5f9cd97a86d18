package model

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Kind identifies the element family an asset was discovered in.
// Every kind carries a fixed reference attribute.
type Kind int

const (
	// KindImage is an <img> element referencing its asset through src.
	KindImage Kind = iota + 1

	// KindLink is a <link> element (stylesheets, icons, canonical links)
	// referencing its asset through href.
	KindLink

	// KindScript is a <script> element referencing its asset through src.
	KindScript
)

// kindTable is the dispatch table from element atom to asset kind.
var kindTable = map[atom.Atom]Kind{
	atom.Img:    KindImage,
	atom.Link:   KindLink,
	atom.Script: KindScript,
}

// KindOf returns the asset kind for an element node.
// The second return value is false for nodes that never carry assets.
func KindOf(n *html.Node) (Kind, bool) {
	if n == nil || n.Type != html.ElementNode {
		return 0, false
	}
	k, ok := kindTable[n.DataAtom]
	return k, ok
}

// Attr returns the name of the attribute holding the asset reference.
func (k Kind) Attr() string {
	switch k {
	case KindImage, KindScript:
		return "src"
	case KindLink:
		return "href"
	default:
		return ""
	}
}

// String returns the element name of the kind.
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "img"
	case KindLink:
		return "link"
	case KindScript:
		return "script"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind as its element name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Asset is a same-domain resource referenced from the page.
//
// The attribute named by Kind.Attr() on Element is rewritten twice during a
// run: first to URL during discovery, then to LocalPath once the asset has
// been saved.
type Asset struct {
	// Element is the node in the page's parse tree that references the asset.
	Element *html.Node `json:"-"`

	// Kind is the element family the asset was found in.
	Kind Kind `json:"kind"`

	// URL is the absolute, normalized asset URL.
	URL string `json:"url"`

	// FileName is the generated file name inside the assets directory.
	FileName string `json:"file_name,omitempty"`

	// LocalPath is the page-relative path written back into the element.
	LocalPath string `json:"local_path,omitempty"`

	// Binary reports whether the asset belongs to the binary image allowlist.
	Binary bool `json:"binary"`

	// Size is the number of bytes written.
	Size int64 `json:"size"`

	// Digest is the SHA3-256 digest of the saved bytes.
	Digest string `json:"digest,omitempty"`
}

// SetReference overwrites the asset's reference attribute on its element.
// It does nothing when the element lacks the attribute.
func (a *Asset) SetReference(value string) {
	if a.Element == nil {
		return
	}
	key := a.Kind.Attr()
	for i := range a.Element.Attr {
		if a.Element.Attr[i].Namespace == "" && a.Element.Attr[i].Key == key {
			a.Element.Attr[i].Val = value
			return
		}
	}
}

// Reference returns the current value of the asset's reference attribute.
func (a *Asset) Reference() string {
	if a.Element == nil {
		return ""
	}
	key := a.Kind.Attr()
	for _, attr := range a.Element.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
