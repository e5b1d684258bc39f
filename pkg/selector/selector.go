// Package selector locates review fragments and their named child values
// in rendered markup.
package selector

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/review-harvester/models"
	"github.com/go-shiori/go-readability"
)

// ErrEmptyFragment is returned for a Fragment that wraps no markup.
var ErrEmptyFragment = errors.New("fragment has no markup")

// Selector applies a set of CSS selectors to listing and branch markup.
type Selector struct {
	cfg models.Selectors
}

func New(cfg models.Selectors) *Selector {
	return &Selector{cfg: cfg.Merge(models.DefaultSelectors())}
}

// Config returns the effective selectors.
func (s *Selector) Config() models.Selectors {
	return s.cfg
}

// Fragment is one rendered review unit, in document order.
type Fragment struct {
	Index int
	HTML  string
	sel   *goquery.Selection
}

// Fields holds the named child values of a fragment. A nil pointer means
// the child element is absent; a present element may still be empty.
type Fields struct {
	Author      *string
	RatingLabel *string
	Date        *string
	Body        *string
	Response    *string
	Tags        []string
}

func parse(markup string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// Fragments returns every review fragment in markup.
func (s *Selector) Fragments(markup string) ([]Fragment, error) {
	doc, err := parse(markup)
	if err != nil {
		return nil, err
	}

	var fragments []Fragment
	doc.Find(s.cfg.ReviewItem).Each(func(i int, sel *goquery.Selection) {
		html, err := goquery.OuterHtml(sel)
		if err != nil {
			html = sel.Text()
		}
		fragments = append(fragments, Fragment{Index: i, HTML: html, sel: sel})
	})
	return fragments, nil
}

// Fields reads the named child values of f.
func (s *Selector) Fields(f Fragment) (Fields, error) {
	if f.sel == nil || f.sel.Length() == 0 {
		return Fields{}, ErrEmptyFragment
	}

	fields := Fields{
		Author:   childText(f.sel, s.cfg.Author),
		Date:     childText(f.sel, s.cfg.Date),
		Body:     childText(f.sel, s.cfg.Body),
		Response: childText(f.sel, s.cfg.Response),
	}

	if badge := f.sel.Find(s.cfg.RatingBadge).First(); badge.Length() > 0 {
		label, _ := badge.Attr(s.cfg.RatingAttr)
		fields.RatingLabel = &label
	}

	f.sel.Find(s.cfg.FeatureImages).Each(func(i int, img *goquery.Selection) {
		if alt, ok := img.Attr(s.cfg.FeatureAttr); ok {
			fields.Tags = append(fields.Tags, strings.TrimSpace(alt))
		}
	})

	return fields, nil
}

func childText(parent *goquery.Selection, selector string) *string {
	child := parent.Find(selector).First()
	if child.Length() == 0 {
		return nil
	}
	text := strings.TrimSpace(child.Text())
	return &text
}

// BranchHrefs returns the link targets of the first maxCards branch cards,
// in listing order. Cards without a link are dropped.
func (s *Selector) BranchHrefs(markup string, maxCards int) ([]string, error) {
	doc, err := parse(markup)
	if err != nil {
		return nil, err
	}

	var hrefs []string
	doc.Find(s.cfg.BranchCard).EachWithBreak(func(i int, card *goquery.Selection) bool {
		if i >= maxCards {
			return false
		}
		if href, ok := card.Find(s.cfg.BranchLink).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
			hrefs = append(hrefs, strings.TrimSpace(href))
		}
		return true
	})
	return hrefs, nil
}

// PageTitle returns a display title for a branch page. It prefers the
// document metadata found by go-readability and falls back to the first h1.
func PageTitle(markup, pageURL string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}
	if parsedURL, err := url.Parse(pageURL); err == nil {
		parser := readability.NewParser()
		article, err := parser.Parse(strings.NewReader(markup), parsedURL)
		if err == nil {
			if title := normalizeText(article.Title); title != "" {
				return title
			}
		}
	}

	doc, err := parse(markup)
	if err != nil {
		return ""
	}
	return normalizeText(doc.Find("h1").First().Text())
}

// normalizeText cleans up a string by trimming space and removing excess newlines.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}
