package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Selectors names the CSS selectors used against the listing service markup.
// Defaults target the Yandex Maps branch list, branch page and review feed.
type Selectors struct {
	BranchCard    string `yaml:"branch_card"`
	BranchLink    string `yaml:"branch_link"`
	ReviewsTab    string `yaml:"reviews_tab"`
	ReviewItem    string `yaml:"review_item"`
	Author        string `yaml:"author"`
	RatingBadge   string `yaml:"rating_badge"`
	RatingAttr    string `yaml:"rating_attr"`
	Date          string `yaml:"date"`
	Body          string `yaml:"body"`
	Response      string `yaml:"response"`
	FeatureImages string `yaml:"feature_images"`
	FeatureAttr   string `yaml:"feature_attr"`
}

// DefaultSelectors returns the selectors for the Yandex Maps page shape.
func DefaultSelectors() Selectors {
	return Selectors{
		BranchCard:    "div.search-business-snippet-view",
		BranchLink:    "a.search-business-snippet-view__link-overlay",
		ReviewsTab:    "div[data-section-id='reviews']",
		ReviewItem:    "div.business-review-view__info",
		Author:        "div.business-review-view__author",
		RatingBadge:   "div.business-rating-badge-view__stars",
		RatingAttr:    "aria-label",
		Date:          "span.business-review-view__date",
		Body:          "span.business-review-view__body-text",
		Response:      "div.business-review-view__response-text",
		FeatureImages: "div.business-review-view__features img",
		FeatureAttr:   "alt",
	}
}

// Merge fills empty fields of s from fallback.
func (s Selectors) Merge(fallback Selectors) Selectors {
	pick := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	return Selectors{
		BranchCard:    pick(s.BranchCard, fallback.BranchCard),
		BranchLink:    pick(s.BranchLink, fallback.BranchLink),
		ReviewsTab:    pick(s.ReviewsTab, fallback.ReviewsTab),
		ReviewItem:    pick(s.ReviewItem, fallback.ReviewItem),
		Author:        pick(s.Author, fallback.Author),
		RatingBadge:   pick(s.RatingBadge, fallback.RatingBadge),
		RatingAttr:    pick(s.RatingAttr, fallback.RatingAttr),
		Date:          pick(s.Date, fallback.Date),
		Body:          pick(s.Body, fallback.Body),
		Response:      pick(s.Response, fallback.Response),
		FeatureImages: pick(s.FeatureImages, fallback.FeatureImages),
		FeatureAttr:   pick(s.FeatureAttr, fallback.FeatureAttr),
	}
}

// HarvestConfig holds runtime configuration for a harvest run.
// All values come from CLI flags (or their environment variables).
type HarvestConfig struct {
	Company             string
	City                string
	BaseURL             string
	MaxBranches         int
	MaxReviewsPerBranch int
	StallThreshold      int
	SettleDelay         time.Duration // wait after each reveal before measuring
	NavigationDelay     time.Duration // wait after navigating and after opening the reviews tab
	DiscoveryTimeout    time.Duration
	SectionTimeout      time.Duration
	Language            string // stopword language, or "auto"
	BranchRate          float64
	Headless            bool
	Selectors           Selectors
}

// DefaultHarvestConfig mirrors the constants the harvester was tuned with.
func DefaultHarvestConfig() HarvestConfig {
	return HarvestConfig{
		City:                "Ростов-на-Дону",
		BaseURL:             "https://yandex.ru",
		MaxBranches:         20,
		MaxReviewsPerBranch: 200,
		StallThreshold:      20,
		SettleDelay:         1500 * time.Millisecond,
		NavigationDelay:     2 * time.Second,
		DiscoveryTimeout:    20 * time.Second,
		SectionTimeout:      15 * time.Second,
		Language:            "russian",
		Headless:            true,
		Selectors:           DefaultSelectors(),
	}
}

// Validate reports the first invalid setting.
func (c HarvestConfig) Validate() error {
	if c.Company == "" {
		return errors.New("company name is required")
	}
	if c.MaxBranches < 1 {
		return fmt.Errorf("max branches must be at least 1, got %d", c.MaxBranches)
	}
	if c.MaxReviewsPerBranch < 1 {
		return fmt.Errorf("max reviews per branch must be at least 1, got %d", c.MaxReviewsPerBranch)
	}
	if c.StallThreshold < 1 {
		return fmt.Errorf("stall threshold must be at least 1, got %d", c.StallThreshold)
	}
	if c.SettleDelay < 0 || c.NavigationDelay < 0 || c.DiscoveryTimeout < 0 || c.SectionTimeout < 0 {
		return errors.New("delays and timeouts must not be negative")
	}
	if c.BranchRate < 0 {
		return fmt.Errorf("branch rate must not be negative, got %v", c.BranchRate)
	}
	return nil
}

// FileConfig is the optional YAML file passed with --config. It only
// carries what flags cannot express well.
type FileConfig struct {
	Selectors Selectors `yaml:"selectors"`
}

// LoadFileConfig reads a FileConfig from path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fc, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return fc, nil
}
