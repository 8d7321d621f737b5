// Package content enriches harvested records with the post body text. It
// fetches each post page over plain HTTP with a Chrome TLS fingerprint,
// falls back to the headless browser when the response looks like a JS
// shell, extracts the main body, and converts it to markdown or plain text.
package content

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	tls2 "github.com/refraction-networking/utls"
	"golang.org/x/time/rate"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBodyBytes caps a single post page read.
const maxBodyBytes = 10 * 1024 * 1024

// BrowserFallback renders a URL in the headless browser and returns its HTML.
type BrowserFallback func(ctx context.Context, url string) (string, error)

// Fetcher retrieves post pages. HTTP first (fast, no tab churn), browser
// second when the HTTP response needs JS rendering. Fetches are paced by a
// token bucket shared across the enrichment pass.
type Fetcher struct {
	proxy    string
	limiter  *rate.Limiter
	fallback BrowserFallback
}

// NewFetcher creates a Fetcher. fallback may be nil, which disables the
// browser path.
func NewFetcher(proxy string, limiter *rate.Limiter, fallback BrowserFallback) *Fetcher {
	return &Fetcher{proxy: proxy, limiter: limiter, fallback: fallback}
}

// HTML fetches one post page and returns its HTML.
func (f *Fetcher) HTML(ctx context.Context, target string) (string, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	body, err := f.fetchHTTP(ctx, target)
	if err == nil && !needsBrowser(body) {
		return string(body), nil
	}
	if f.fallback == nil {
		if err != nil {
			return "", err
		}
		return string(body), nil
	}
	return f.fallback(ctx, target)
}

// fetchHTTP performs the request with a Chrome TLS fingerprint so the CDN
// sees an ordinary browser handshake.
func (f *Fetcher) fetchHTTP(ctx context.Context, target string) ([]byte, error) {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLSChrome(ctx, network, addr)
		},
	}
	if f.proxy != "" {
		if proxyURL, err := url.Parse(f.proxy); err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	client := &http.Client{Transport: transport}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("content: build request: %w", err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("content: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("content: HTTP %d for %s", resp.StatusCode, target)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("content: read body: %w", err)
	}
	return body, nil
}

// dialTLSChrome establishes a TLS connection with a Chrome hello via utls.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{
		ServerName: host,
	}, tls2.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// needsBrowser decides whether the HTTP-fetched HTML is a JS shell that must
// be rendered in the browser instead.
func needsBrowser(body []byte) bool {
	text := visibleText(body)
	if len(text) < 200 {
		return true
	}
	lower := strings.ToLower(string(body))
	if strings.Count(lower, "<script") > 10 && len(text) < 500 {
		return true
	}
	return false
}
