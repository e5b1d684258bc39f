// Package discovery resolves a company and city into the ordered list of
// branch pages shown by the listing service.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/dtnitsch/review-harvester/internal/common"
	"github.com/dtnitsch/review-harvester/models"
	"github.com/dtnitsch/review-harvester/pkg/render"
	"github.com/dtnitsch/review-harvester/pkg/selector"
)

// ErrDiscoveryUnavailable means the branch listing never became ready.
// No branch can be processed, so callers treat it as fatal for the run.
var ErrDiscoveryUnavailable = errors.New("branch listing unavailable")

// Config controls discovery timing and the listing location.
type Config struct {
	BaseURL         string
	NavigationDelay time.Duration
	ReadyTimeout    time.Duration
}

// Discoverer finds branch endpoints on a render surface.
type Discoverer struct {
	surface render.Surface
	sel     *selector.Selector
	cfg     Config
	logger  *slog.Logger
}

func New(surface render.Surface, sel *selector.Selector, cfg Config, logger *slog.Logger) *Discoverer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://yandex.ru"
	}
	return &Discoverer{surface: surface, sel: sel, cfg: cfg, logger: logger}
}

// SearchURL builds the listing query for company in city.
func SearchURL(baseURL, company, city string) string {
	query := strings.TrimSpace(company + " " + city)
	return strings.TrimRight(baseURL, "/") + "/maps/?text=" + url.QueryEscape(query)
}

// Discover returns at most maxBranches branch endpoints in listing order.
func (d *Discoverer) Discover(ctx context.Context, company, city string, maxBranches int) ([]models.BranchEndpoint, error) {
	searchURL := SearchURL(d.cfg.BaseURL, company, city)
	d.logger.Info("Searching for branches", "url", searchURL, "max_branches", maxBranches)

	if err := d.surface.Navigate(ctx, searchURL); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: navigate: %v", ErrDiscoveryUnavailable, err)
	}
	if err := render.Sleep(ctx, d.cfg.NavigationDelay); err != nil {
		return nil, err
	}

	cardSelector := d.sel.Config().BranchCard
	if err := d.surface.WaitForElement(ctx, cardSelector, d.cfg.ReadyTimeout); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrDiscoveryUnavailable, err)
	}

	markup, err := d.surface.CurrentMarkup(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read listing: %v", ErrDiscoveryUnavailable, err)
	}

	hrefs, err := d.sel.BranchHrefs(markup, maxBranches)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiscoveryUnavailable, err)
	}

	branches := make([]models.BranchEndpoint, 0, len(hrefs))
	for _, href := range hrefs {
		resolved, err := resolve(d.cfg.BaseURL, href)
		if err != nil {
			d.logger.Warn("Skipping unresolvable branch link", "href", href, "error", err)
			continue
		}
		branches = append(branches, models.BranchEndpoint(resolved))
	}

	d.logger.Info("Branches found", "count", len(branches))
	return branches, nil
}

// resolve turns a listing href into an absolute branch URL.
func resolve(baseURL, href string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(common.SanitizeURL(href))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
