package render

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FakePage scripts what a Fake surface shows for one URL.
type FakePage struct {
	// Ready lists selectors that WaitForElement and Click find.
	Ready []string
	// Counts[i] is what Count reports after reveal i+1. The last value repeats.
	Counts []int
	// Extents[0] is the extent before any reveal, Extents[i] after reveal i.
	// The last value repeats. A nil slice grows by 1000 on every reveal.
	Extents []float64
	// Markup is returned by CurrentMarkup unless MarkupAt is set.
	Markup string
	// MarkupAt returns the markup after the given number of reveals.
	MarkupAt func(reveals int) string
	// NavigateErr fails navigation to this page.
	NavigateErr error
	// RevealErrAt fails the reveal with this 1-based index (0 disables).
	RevealErrAt int
}

// Fake is a deterministic Surface for replaying scripted pages in tests.
type Fake struct {
	mu      sync.Mutex
	pages   map[string]*FakePage
	current *FakePage
	reveals int

	Navigations []string
	Clicks      []string
	Reveals     int
	Closed      bool
}

func NewFake(pages map[string]*FakePage) *Fake {
	return &Fake{pages: pages}
}

func (f *Fake) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	f.Navigations = append(f.Navigations, url)
	page, ok := f.pages[url]
	if !ok {
		page = &FakePage{}
	}
	if page.NavigateErr != nil {
		return page.NavigateErr
	}
	f.current = page
	f.reveals = 0
	return nil
}

func (f *Fake) ready(selector string) bool {
	if f.current == nil {
		return false
	}
	for _, s := range f.current.Ready {
		if s == selector {
			return true
		}
	}
	return false
}

func (f *Fake) WaitForElement(ctx context.Context, selector string, timeout time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if !f.ready(selector) {
		return fmt.Errorf("%w: %s", ErrTimeout, selector)
	}
	return nil
}

func (f *Fake) Click(ctx context.Context, selector string, timeout time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if !f.ready(selector) {
		return fmt.Errorf("%w: %s", ErrTimeout, selector)
	}
	f.Clicks = append(f.Clicks, selector)
	return nil
}

func (f *Fake) TriggerReveal(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	f.reveals++
	f.Reveals++
	if f.current != nil && f.current.RevealErrAt == f.reveals {
		return fmt.Errorf("reveal %d failed", f.reveals)
	}
	return nil
}

func (f *Fake) CurrentExtent(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil || f.current.Extents == nil {
		return float64(1000 * (f.reveals + 1)), nil
	}
	return f.current.Extents[clamp(f.reveals, len(f.current.Extents))], nil
}

func (f *Fake) Count(ctx context.Context, selector string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil || len(f.current.Counts) == 0 || f.reveals == 0 {
		return 0, nil
	}
	return f.current.Counts[clamp(f.reveals-1, len(f.current.Counts))], nil
}

func (f *Fake) CurrentMarkup(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return "", nil
	}
	if f.current.MarkupAt != nil {
		return f.current.MarkupAt(f.reveals), nil
	}
	return f.current.Markup, nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

func clamp(i, n int) int {
	if i >= n {
		return n - 1
	}
	return i
}
