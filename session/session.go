// Package session handles Quora login state: persisting cookies between
// runs and probing whether a page is logged in. The harvester only ever
// asks the resulting Session whether it is authenticated.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/qharvest/models"
)

// loginProbes are selectors whose presence indicates a logged-out page.
// The probe is an existence chain: any match means unauthenticated.
var loginProbes = []string{
	"button[data-login]",
	"a[href*='login']",
	"div[class*='login']",
}

// Session is an authenticated-or-not navigation context handle.
type Session struct {
	page          *rod.Page
	authenticated bool
}

// Authenticated reports whether the login probe found a logged-in page.
func (s *Session) Authenticated() bool { return s.authenticated }

// Page returns the navigation page this session was established on.
func (s *Session) Page() *rod.Page { return s.page }

// Provider establishes sessions against a site origin, restoring cookie
// state from StateFile when it exists.
type Provider struct {
	Origin    string
	StateFile string
}

// Establish restores saved cookies into the browser, navigates the given
// page to the origin, and probes the login state. A missing state file is
// not an error; it just means the probe will most likely come back
// unauthenticated.
func (p *Provider) Establish(ctx context.Context, browser *rod.Browser, page *rod.Page) (*Session, error) {
	if err := p.restoreCookies(browser); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("no saved login state", "file", p.StateFile)
		} else {
			slog.Warn("could not restore login state, continuing without it",
				"file", p.StateFile, "error", err)
		}
	}

	pg := page.Context(ctx)
	if err := pg.Navigate(p.Origin); err != nil {
		return nil, models.NewHarvestError(
			models.ErrCodeNavigation, "navigation to site origin failed", err)
	}
	if err := pg.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("origin page did not stabilize before login probe", "error", err)
	}

	s := &Session{page: page, authenticated: probeLoggedIn(pg)}
	slog.Info("session established", "authenticated", s.authenticated)
	return s, nil
}

// Reprobe re-checks the login state on the session's current page, for use
// after a manual login.
func (p *Provider) Reprobe(ctx context.Context, s *Session) bool {
	s.authenticated = probeLoggedIn(s.page.Context(ctx))
	return s.authenticated
}

// SaveState writes the browser's cookies to StateFile so the next run can
// skip the login.
func (p *Provider) SaveState(browser *rod.Browser) error {
	cookies, err := browser.GetCookies()
	if err != nil {
		return models.NewHarvestError(
			models.ErrCodeBrowserCrash, "failed to read cookies", err)
	}
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return models.NewHarvestError(
			models.ErrCodeWrite, "failed to encode login state", err)
	}
	if err := os.WriteFile(p.StateFile, data, 0o600); err != nil {
		return models.NewHarvestError(
			models.ErrCodeWrite, "failed to write login state", err)
	}
	slog.Info("login state saved", "file", p.StateFile, "cookies", len(cookies))
	return nil
}

func (p *Provider) restoreCookies(browser *rod.Browser) error {
	data, err := os.ReadFile(p.StateFile)
	if err != nil {
		return err
	}
	var cookies []*proto.NetworkCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return err
	}
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: c.SameSite,
			Expires:  c.Expires,
		})
	}
	if err := browser.SetCookies(params); err != nil {
		return err
	}
	slog.Info("login state restored", "file", p.StateFile, "cookies", len(params))
	return nil
}

// probeLoggedIn returns false as soon as any logged-out marker is present.
func probeLoggedIn(page *rod.Page) bool {
	for _, sel := range loginProbes {
		if has, _, err := page.Has(sel); err == nil && has {
			return false
		}
	}
	return true
}
