// Package testfixtures renders listing and branch markup in the shape the
// default selectors expect, for use in tests.
package testfixtures

import (
	"fmt"
	"html"
	"strings"
)

// Review describes one review fragment. Empty fields are omitted from the
// markup entirely, so tests can exercise missing children.
type Review struct {
	Author   string
	Rating   string // aria-label of the rating badge, e.g. "Оценка 5 Из 5"
	Date     string
	Body     string
	Response string
	Tags     []string
}

// ReviewHTML renders one review fragment.
func ReviewHTML(r Review) string {
	var b strings.Builder
	b.WriteString(`<div class="business-review-view__info">`)
	if r.Author != "" {
		fmt.Fprintf(&b, `<div class="business-review-view__author"><span>%s</span></div>`, html.EscapeString(r.Author))
	}
	if r.Rating != "" {
		fmt.Fprintf(&b, `<div class="business-rating-badge-view__stars" aria-label="%s"></div>`, html.EscapeString(r.Rating))
	}
	if r.Date != "" {
		fmt.Fprintf(&b, `<span class="business-review-view__date">%s</span>`, html.EscapeString(r.Date))
	}
	if r.Body != "" {
		fmt.Fprintf(&b, `<span class="business-review-view__body-text">%s</span>`, html.EscapeString(r.Body))
	}
	if len(r.Tags) > 0 {
		b.WriteString(`<div class="business-review-view__features">`)
		for _, tag := range r.Tags {
			fmt.Fprintf(&b, `<img src="x.png" alt="%s">`, html.EscapeString(tag))
		}
		b.WriteString(`</div>`)
	}
	if r.Response != "" {
		fmt.Fprintf(&b, `<div class="business-review-view__response-text">%s</div>`, html.EscapeString(r.Response))
	}
	b.WriteString(`</div>`)
	return b.String()
}

// BranchPage renders a branch page with a reviews tab and the given reviews.
func BranchPage(title string, reviews ...Review) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<html><head><title>%s</title></head><body>`, html.EscapeString(title))
	fmt.Fprintf(&b, `<h1>%s</h1><div data-section-id="reviews">Отзывы</div>`, html.EscapeString(title))
	for _, r := range reviews {
		b.WriteString(ReviewHTML(r))
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

// NumberedReviews returns n distinct reviews.
func NumberedReviews(n int) []Review {
	reviews := make([]Review, n)
	for i := range reviews {
		reviews[i] = Review{
			Author: fmt.Sprintf("Автор %d", i+1),
			Rating: "Оценка 5 Из 5",
			Date:   "1 января",
			Body:   fmt.Sprintf("Отзыв номер %d: доставка быстрая", i+1),
		}
	}
	return reviews
}

// ListingPage renders a search result list. An empty href renders a card
// without a link.
func ListingPage(hrefs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><ul>`)
	for i, href := range hrefs {
		b.WriteString(`<li><div class="search-business-snippet-view">`)
		if href != "" {
			fmt.Fprintf(&b, `<a class="search-business-snippet-view__link-overlay" href="%s"></a>`, html.EscapeString(href))
		}
		fmt.Fprintf(&b, `<span>Филиал %d</span></div></li>`, i+1)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}
