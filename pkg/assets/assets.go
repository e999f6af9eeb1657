// Package assets removes binary media from the external stores items point
// at. Providers are selected by URL shape only; nothing here knows about
// items or categories.
package assets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/log"
)

var (
	// ErrNoProvider is reported for URLs that no configured provider claims.
	ErrNoProvider = errors.New("no asset provider for url")

	// ErrAssetNotFound is reported when a provider recognises the URL but the
	// remote store has no such asset.
	ErrAssetNotFound = errors.New("asset not found")
)

// Provider deletes assets from one external store.
type Provider interface {
	// Name identifies the provider in reports and logs.
	Name() string
	// Match reports whether u looks like an asset this provider hosts.
	Match(u *url.URL) bool
	// Delete removes the asset addressed by rawURL.
	Delete(ctx context.Context, rawURL string) error
}

// ProviderError describes a failed call against a provider API.
type ProviderError struct {
	Provider   string
	Op         string
	StatusCode int
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status=%d: %v", e.Provider, e.Op, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Cause)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// Failure records one URL that could not be deleted.
type Failure struct {
	URL      string
	Provider string
	Err      error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.URL, f.Err)
}

// Report is the outcome of a bulk deletion.
type Report struct {
	Deleted []string
	Failed  []Failure
}

// OK reports whether every URL was deleted.
func (r Report) OK() bool { return len(r.Failed) == 0 }

// FailedURLs lists the URLs in Failed, in order.
func (r Report) FailedURLs() []string {
	out := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		out = append(out, f.URL)
	}
	return out
}

// Manager dispatches deletions to the first matching provider.
type Manager struct {
	providers []Provider
}

func NewManager(providers ...Provider) *Manager {
	ps := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	return &Manager{providers: ps}
}

// Providers returns the configured providers in dispatch order.
func (m *Manager) Providers() []Provider {
	return append([]Provider(nil), m.providers...)
}

// Resolve returns the provider that claims rawURL.
func (m *Manager) Resolve(rawURL string) (Provider, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse asset url: %w", err)
	}
	for _, p := range m.providers {
		if p.Match(u) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoProvider, rawURL)
}

// DeleteAll deletes each URL independently. A failure never stops the
// remaining deletions. Empty URLs are ignored.
func (m *Manager) DeleteAll(ctx context.Context, urls []string) Report {
	lg := log.FromContext(ctx)
	var rep Report
	for _, raw := range urls {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		p, err := m.Resolve(raw)
		if err != nil {
			lg.Warn("asset not deleted", "url", raw, "err", err)
			rep.Failed = append(rep.Failed, Failure{URL: raw, Err: err})
			continue
		}
		if err := p.Delete(ctx, raw); err != nil {
			lg.Warn("asset not deleted", "url", raw, "provider", p.Name(), "err", err)
			rep.Failed = append(rep.Failed, Failure{URL: raw, Provider: p.Name(), Err: err})
			continue
		}
		lg.Info("asset deleted", "url", raw, "provider", p.Name())
		rep.Deleted = append(rep.Deleted, raw)
	}
	return rep
}
