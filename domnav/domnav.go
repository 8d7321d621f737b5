// Package domnav implements harvest.NavContext over a static HTML document.
// It backs two things: offline harvesting of a saved search page, and unit
// testing of locator chains against synthetic fixtures without a browser.
package domnav

import (
	"context"
	"io"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/qharvest/harvest"
)

// Nav is a NavContext over one parsed document. The snapshot cannot grow,
// so a harvest against it processes everything in the first round and then
// stagnates to termination.
type Nav struct {
	doc          *goquery.Document
	itemSelector string
}

// New parses the HTML from r.
func New(r io.Reader, itemSelector string) (*Nav, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Nav{doc: doc, itemSelector: itemSelector}, nil
}

// Grow is a no-op: a static snapshot has nothing more to load.
func (n *Nav) Grow(ctx context.Context) error { return nil }

// Settle is a no-op: the document is already fully rendered.
func (n *Nav) Settle(ctx context.Context) error { return nil }

// Items returns one handle per matched list row, in document order.
func (n *Nav) Items(ctx context.Context) ([]harvest.Item, error) {
	var items []harvest.Item
	n.doc.Find(n.itemSelector).Each(func(_ int, s *goquery.Selection) {
		items = append(items, item{s: s})
	})
	return items, nil
}

type item struct {
	s *goquery.Selection
}

func (it item) Read(r harvest.Rule) string {
	m := it.s.Find(r.Selector).First()
	if m.Length() == 0 {
		return ""
	}
	if r.Attr != "" {
		v, _ := m.Attr(r.Attr)
		return v
	}
	return m.Text()
}

func (it item) Exists(selector string) bool {
	return it.s.Find(selector).Length() > 0
}
