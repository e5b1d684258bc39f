// Package render defines the browser surface the harvester drives and
// provides a chromedp implementation plus a scripted fake for tests.
package render

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when an element does not become ready in time.
var ErrTimeout = errors.New("timed out waiting for element")

// Surface is one live rendering session (a browser tab).
type Surface interface {
	// Navigate loads url and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error
	// WaitForElement blocks until selector matches a visible element,
	// or returns ErrTimeout after timeout.
	WaitForElement(ctx context.Context, selector string, timeout time.Duration) error
	// Click waits up to timeout for selector and clicks it.
	Click(ctx context.Context, selector string, timeout time.Duration) error
	// TriggerReveal scrolls to the bottom of the page so more content loads.
	TriggerReveal(ctx context.Context) error
	// CurrentExtent returns the current scrollable height of the page.
	CurrentExtent(ctx context.Context) (float64, error)
	// Count returns how many elements currently match selector.
	Count(ctx context.Context, selector string) (int, error)
	// CurrentMarkup returns the rendered document HTML.
	CurrentMarkup(ctx context.Context) (string, error)
}

// Sleep waits for d or until ctx is done. Non-positive d returns at once.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
