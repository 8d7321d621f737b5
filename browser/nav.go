package browser

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/use-agent/qharvest/config"
	"github.com/use-agent/qharvest/harvest"
	"golang.org/x/time/rate"
)

// Nav adapts a live Rod page to harvest.NavContext. Growth actions are
// paced by a token bucket so repeated scrolls read like a human session
// rather than a tight loop.
type Nav struct {
	page          *rod.Page
	itemSelector  string
	settleTimeout time.Duration
	limiter       *rate.Limiter
}

// NewNav wraps an already-navigated page.
func NewNav(page *rod.Page, cfg config.HarvestConfig) *Nav {
	sel := cfg.ItemSelector
	if sel == "" {
		sel = harvest.DefaultItemSelector
	}
	interval := cfg.GrowInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	settle := cfg.SettleTimeout
	if settle <= 0 {
		settle = 4 * time.Second
	}
	return &Nav{
		page:          page,
		itemSelector:  sel,
		settleTimeout: settle,
		limiter:       rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Grow scrolls the window to the document bottom, which triggers the list's
// lazy loading.
func (n *Nav) Grow(ctx context.Context) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := n.page.Context(ctx).Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

// Settle waits for the DOM to stop mutating, bounded by the settle timeout.
// Not converging within the bound is a normal outcome on a busy page; only
// cancellation is surfaced.
func (n *Nav) Settle(ctx context.Context) error {
	p := n.page.Context(ctx).Timeout(n.settleTimeout)
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Debug("DOM did not stabilize within settle bound, proceeding", "error", err)
	}
	return nil
}

// Items re-queries the list rows and returns fresh handles. Handles from
// earlier rounds go stale once the page re-renders, so nothing is cached
// here.
func (n *Nav) Items(ctx context.Context) ([]harvest.Item, error) {
	els, err := n.page.Context(ctx).Sleeper(rod.NotFoundSleeper).Elements(n.itemSelector)
	if err != nil {
		return nil, err
	}
	items := make([]harvest.Item, 0, len(els))
	for _, el := range els {
		items = append(items, pageItem{el: el})
	}
	return items, nil
}

// pageItem adapts one rod.Element to harvest.Item. Every read failure
// (missing descendant, detached node, protocol error) collapses to "",
// which the locator chains treat as a miss.
type pageItem struct {
	el *rod.Element
}

func (it pageItem) Read(r harvest.Rule) string {
	el, err := it.el.Sleeper(rod.NotFoundSleeper).Element(r.Selector)
	if err != nil {
		return ""
	}
	if r.Attr != "" {
		v, err := el.Attribute(r.Attr)
		if err != nil || v == nil {
			return ""
		}
		return *v
	}
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return text
}

func (it pageItem) Exists(selector string) bool {
	has, _, err := it.el.Has(selector)
	return err == nil && has
}
