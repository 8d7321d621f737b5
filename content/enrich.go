package content

import (
	"context"
	"log/slog"
	nurl "net/url"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/use-agent/qharvest/config"
	"github.com/use-agent/qharvest/models"
	"golang.org/x/time/rate"
)

// Enricher fills Record.Content for harvested records. Failures on a single
// record are logged and leave its Content empty; enrichment never fails a
// harvest that already succeeded.
type Enricher struct {
	fetcher *Fetcher
	conv    *converter.Converter
	cache   *bodyCache
	timeout time.Duration
	format  string // "markdown" or "text"
}

// NewEnricher builds an Enricher from config. fallback may be nil to stay
// HTTP-only.
func NewEnricher(cfg config.EnrichConfig, proxy string, fallback BrowserFallback) *Enricher {
	interval := cfg.FetchInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	entries := cfg.CacheEntries
	if entries <= 0 {
		entries = 256
	}
	format := cfg.Format
	if format != "text" {
		format = "markdown"
	}
	return &Enricher{
		fetcher: NewFetcher(proxy, rate.NewLimiter(rate.Every(interval), 1), fallback),
		conv:    newMarkdownConverter(),
		cache:   newBodyCache(entries),
		timeout: timeout,
		format:  format,
	}
}

// Enrich visits each record's URL in order and fills Content. Returns the
// number of records that could not be enriched. Cancellation stops between
// records and keeps what was already filled.
func (e *Enricher) Enrich(ctx context.Context, records []models.Record) int {
	failed := 0
	for i := range records {
		select {
		case <-ctx.Done():
			slog.Info("enrichment canceled",
				"enriched", i, "remaining", len(records)-i)
			return failed + len(records) - i
		default:
		}

		body, err := e.one(ctx, records[i].URL)
		if err != nil || body == "" {
			failed++
			slog.Warn("post body extraction failed",
				"url", records[i].URL, "error", err)
			continue
		}
		records[i].Content = body
	}
	return failed
}

func (e *Enricher) one(ctx context.Context, target string) (string, error) {
	if body, ok := e.cache.get(target); ok {
		return body, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rawHTML, err := e.fetcher.HTML(fetchCtx, target)
	if err != nil {
		return "", models.NewHarvestError(
			models.ErrCodeFetch, "post page fetch failed", err)
	}

	bodyHTML := ExtractBody(rawHTML, target)
	if bodyHTML == "" {
		return "", nil
	}

	var body string
	if e.format == "text" {
		body = visibleText([]byte(bodyHTML))
	} else {
		body, err = toMarkdown(e.conv, bodyHTML, domainOf(target))
		if err != nil {
			return "", models.NewHarvestError(
				models.ErrCodeFetch, "markdown conversion failed", err)
		}
	}

	e.cache.set(target, body)
	return body, nil
}

func domainOf(target string) string {
	if u, err := nurl.Parse(target); err == nil {
		return u.Scheme + "://" + u.Host
	}
	return ""
}
