package htmldoc

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
)

// utf8Label is the charset every rendered page is written in.
const utf8Label = "utf-8"

// charsetParam is the content attribute parameter naming the encoding.
const charsetParam = "charset="

// DeclareUTF8 rewrites the charset declared by <meta charset> and
// <meta http-equiv="Content-Type"> elements to utf-8 and returns the number
// of elements changed. Parse expects UTF-8 input and Render writes UTF-8, so
// a page decoded from another encoding must not keep its old declaration.
func DeclareUTF8(doc *xhtml.Node) int {
	changed := 0
	sel := goquery.NewDocumentFromNode(doc)

	sel.Find("meta[charset]").Each(func(_ int, s *goquery.Selection) {
		if v, _ := s.Attr("charset"); !strings.EqualFold(strings.TrimSpace(v), utf8Label) {
			s.SetAttr("charset", utf8Label)
			changed++
		}
	})

	sel.Find("meta[http-equiv][content]").Each(func(_ int, s *goquery.Selection) {
		equiv, _ := s.Attr("http-equiv")
		if !strings.EqualFold(strings.TrimSpace(equiv), "content-type") {
			return
		}
		content, _ := s.Attr("content")
		if rewritten := replaceCharset(content); rewritten != content {
			s.SetAttr("content", rewritten)
			changed++
		}
	})

	return changed
}

// replaceCharset replaces the charset parameter of a Content-Type value
// with utf-8. Values without the parameter are returned unchanged.
func replaceCharset(content string) string {
	start := -1
	for i := 0; i+len(charsetParam) <= len(content); i++ {
		if strings.EqualFold(content[i:i+len(charsetParam)], charsetParam) {
			start = i + len(charsetParam)
			break
		}
	}
	if start < 0 {
		return content
	}

	end := len(content)
	rest := content[start:]
	if rest != "" && (rest[0] == '"' || rest[0] == '\'') {
		if j := strings.IndexByte(rest[1:], rest[0]); j >= 0 {
			end = start + j + 2
		}
	} else if j := strings.IndexAny(rest, "; \t"); j >= 0 {
		end = start + j
	}

	if strings.EqualFold(strings.Trim(content[start:end], `"'`), utf8Label) {
		return content
	}
	return content[:start] + utf8Label + content[end:]
}
