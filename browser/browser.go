// Package browser owns the Rod browser lifecycle and the live-page
// implementation of harvest.NavContext.
package browser

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/qharvest/config"
	"github.com/use-agent/qharvest/models"
	"github.com/ysmood/gson"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Browser wraps a launched Chromium instance.
type Browser struct {
	browser *rod.Browser
	cfg     config.BrowserConfig
}

// New launches Chromium with anti-automation-detection flags and connects.
func New(cfg config.BrowserConfig) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewHarvestError(
			models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL, "headless", cfg.Headless)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewHarvestError(
			models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	return &Browser{browser: b, cfg: cfg}, nil
}

// Rod exposes the underlying rod.Browser for collaborators that need
// browser-level calls (cookies).
func (b *Browser) Rod() *rod.Browser {
	return b.browser
}

// NewPage creates a tab with stealth JS installed, a desktop Chrome
// user agent, and the configured resource types blocked. Stealth and
// blocking must both be in place before the first navigation; they only
// apply to navigations after installation.
func (b *Browser) NewPage() (*rod.Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewHarvestError(
			models.ErrCodeBrowserCrash, "failed to create page", err)
	}

	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
	}

	_ = proto.NetworkSetUserAgentOverride{UserAgent: chromeUA}.Call(page)
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: proto.NetworkHeaders{"Accept-Language": gson.New("en-US,en;q=0.9")},
	}.Call(page)

	blockResources(page, b.cfg.BlockedResourceTypes)

	return page, nil
}

// FetchHTML navigates a throwaway tab to url and returns the rendered HTML.
// Used as the enrichment fallback when a plain HTTP fetch comes back as a
// JS shell.
func (b *Browser) FetchHTML(ctx context.Context, url string) (string, error) {
	page, err := b.NewPage()
	if err != nil {
		return "", err
	}
	defer func() { _ = page.Close() }()

	p := page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return "", models.NewHarvestError(
			models.ErrCodeNavigation, "navigation to post page failed", err)
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("post page did not stabilize, using current DOM", "url", url, "error", err)
	}

	html, err := p.HTML()
	if err != nil {
		return "", models.NewHarvestError(
			models.ErrCodeNavigation, "failed to read post page HTML", err)
	}
	return html, nil
}

// Close kills the browser process. Call on shutdown to avoid zombie Chrome
// processes.
func (b *Browser) Close() {
	slog.Info("closing browser")
	b.browser.MustClose()
}
