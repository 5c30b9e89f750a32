package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/dealwatch/internal/entity"
	"github.com/user/dealwatch/internal/repository"
	"github.com/user/dealwatch/pkg/utils"
)

// Selectors locate the parts of one search result.
type Selectors struct {
	Item  string
	Title string
	Price string
	Link  string
	// IDMarker precedes the item id in a listing link, e.g. "itm/" in /itm/1234?hash=...
	IDMarker string
}

// EbaySelectors match eBay's search results page.
var EbaySelectors = Selectors{
	Item:     ".s-item",
	Title:    ".s-item__title",
	Price:    ".s-item__price",
	Link:     ".s-item__link",
	IDMarker: "itm/",
}

// Extractor turns search result markup into candidates. It holds no mutable state.
type Extractor struct {
	sel  Selectors
	base *url.URL
}

// New creates an Extractor. Relative links are resolved against baseURL when it parses.
func New(sel Selectors, baseURL string) *Extractor {
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		base = nil
	}
	return &Extractor{sel: sel, base: base}
}

// Extract returns candidates in document order. Items missing a title, price or link are
// skipped. A document that cannot be parsed yields no candidates and ErrParseFailure.
func (e *Extractor) Extract(markup string) ([]entity.RawCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrParseFailure, err)
	}

	var out []entity.RawCandidate
	doc.Find(e.sel.Item).Each(func(_ int, s *goquery.Selection) {
		if c, ok := e.extractItem(s); ok {
			out = append(out, c)
		}
	})
	return out, nil
}

func (e *Extractor) extractItem(s *goquery.Selection) (entity.RawCandidate, bool) {
	titleSel := s.Find(e.sel.Title).First()
	priceSel := s.Find(e.sel.Price).First()
	linkSel := s.Find(e.sel.Link).First()
	if titleSel.Length() == 0 || priceSel.Length() == 0 || linkSel.Length() == 0 {
		return entity.RawCandidate{}, false
	}

	href, ok := linkSel.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return entity.RawCandidate{}, false
	}
	link, err := utils.ToAbsoluteURL(e.base, href)
	if err != nil {
		return entity.RawCandidate{}, false
	}

	id := ListingID(link, e.sel.IDMarker)
	if id == "" {
		return entity.RawCandidate{}, false
	}

	return entity.RawCandidate{
		ID:        id,
		Title:     strings.TrimSpace(titleSel.Text()),
		PriceText: strings.TrimSpace(priceSel.Text()),
		Link:      link,
	}, true
}

// ListingID isolates the segment after the last marker and before the query string.
// Without the marker the whole link up to the query string is used.
func ListingID(link, marker string) string {
	id := link
	if marker != "" {
		if i := strings.LastIndex(id, marker); i >= 0 {
			id = id[i+len(marker):]
		}
	}
	if i := strings.IndexByte(id, '?'); i >= 0 {
		id = id[:i]
	}
	return strings.TrimSpace(id)
}
