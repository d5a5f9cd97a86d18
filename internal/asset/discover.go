package asset

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/pageloader/internal/model"
	"github.com/nao1215/pageloader/internal/urlnorm"
)

// selector matches every element that can reference an asset.
const selector = "img[src], link[href], script[src]"

// Discover returns the same-domain assets referenced from doc, in document
// order, and rewrites each qualifying reference to its absolute URL.
//
// pageURL must already be normalized. Elements with an empty reference or a
// reference to another host are left unchanged and are not returned.
func Discover(doc *html.Node, pageURL string) []*model.Asset {
	assets := make([]*model.Asset, 0)

	goquery.NewDocumentFromNode(doc).Find(selector).Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		kind, ok := model.KindOf(n)
		if !ok {
			return
		}

		a := &model.Asset{Element: n, Kind: kind}
		ref := strings.TrimSpace(a.Reference())
		if ref == "" || !urlnorm.IsSameDomain(ref, pageURL) {
			return
		}

		a.URL = urlnorm.NormalizeAssetURL(ref, pageURL)
		a.SetReference(a.URL)
		assets = append(assets, a)
	})

	return assets
}
