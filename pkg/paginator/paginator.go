// Package paginator drives one branch page through progressive reveal until
// its review feed stops growing, then hands the rendered fragments on.
package paginator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dtnitsch/review-harvester/models"
	"github.com/dtnitsch/review-harvester/pkg/render"
	"github.com/dtnitsch/review-harvester/pkg/selector"
)

// ErrBranchSkipped means the reviews section of a branch was unreachable.
// The branch contributes no records and the run continues.
var ErrBranchSkipped = errors.New("branch skipped")

// State is a step of the per-branch state machine.
type State string

const (
	StateInit    State = "init"
	StateLoading State = "loading"
	StateDone    State = "done"
	StateSkipped State = "skipped"
)

// Stop reasons recorded when Loading transitions to Done.
const (
	StopCap    = "cap"
	StopStall  = "stall"
	StopExtent = "extent"
	StopError  = "error"
)

// Config bounds a single branch pass.
type Config struct {
	MaxReviews      int
	StallThreshold  int
	SettleDelay     time.Duration
	NavigationDelay time.Duration
	SectionTimeout  time.Duration
}

// Result is the terminal state of one branch pass.
type Result struct {
	Branch     models.BranchEndpoint
	State      State
	StopReason string
	Reason     string
	Attempts   int
	Count      int
	Markup     string
	Title      string
	Fragments  []selector.Fragment
	Err        error
}

// Engine paginates branch pages on a shared render surface.
type Engine struct {
	surface render.Surface
	sel     *selector.Selector
	cfg     Config
	logger  *slog.Logger
}

func New(surface render.Surface, sel *selector.Selector, cfg Config, logger *slog.Logger) *Engine {
	if cfg.MaxReviews < 1 {
		cfg.MaxReviews = 200
	}
	if cfg.StallThreshold < 1 {
		cfg.StallThreshold = 20
	}
	return &Engine{surface: surface, sel: sel, cfg: cfg, logger: logger}
}

// tracker holds the Loading counters. observe folds one measurement and
// reports whether loading is finished and why.
type tracker struct {
	maxReviews int
	threshold  int
	attempts   int
	previous   int
	stalls     int
	lastExtent float64
}

func (t *tracker) observe(n int, extent float64) (bool, string) {
	t.attempts++
	if n > t.previous {
		t.previous = n
		t.stalls = 0
	} else {
		t.stalls++
	}

	switch {
	case t.previous >= t.maxReviews:
		return true, StopCap
	case t.stalls >= t.threshold:
		return true, StopStall
	case extent <= t.lastExtent:
		return true, StopExtent
	}
	t.lastExtent = extent
	return false, ""
}

// Paginate runs Init, Loading and Done for branch. Only context
// cancellation is returned as an error; every other failure ends in a
// Skipped result.
func (e *Engine) Paginate(ctx context.Context, branch models.BranchEndpoint) (Result, error) {
	res := Result{Branch: branch, State: StateInit}
	log := e.logger.With("branch", branch.String())

	if err := e.surface.Navigate(ctx, branch.String()); err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return e.skip(log, res, fmt.Errorf("navigate: %w", err)), nil
	}
	if err := render.Sleep(ctx, e.cfg.NavigationDelay); err != nil {
		return res, err
	}
	if err := e.surface.Click(ctx, e.sel.Config().ReviewsTab, e.cfg.SectionTimeout); err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return e.skip(log, res, fmt.Errorf("reviews section: %w", err)), nil
	}
	if err := render.Sleep(ctx, e.cfg.NavigationDelay); err != nil {
		return res, err
	}

	res.State = StateLoading
	initial, err := e.surface.CurrentExtent(ctx)
	if err != nil {
		log.Warn("Could not measure page extent", "error", err)
	}
	t := &tracker{maxReviews: e.cfg.MaxReviews, threshold: e.cfg.StallThreshold, lastExtent: initial}

	for {
		n, extent, err := e.step(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			log.Warn("Loading interrupted, keeping rendered reviews", "attempt", t.attempts+1, "error", err)
			res.StopReason = StopError
			break
		}
		done, reason := t.observe(n, extent)
		log.Debug("Reveal measured", "attempt", t.attempts, "count", n, "extent", extent, "stalls", t.stalls)
		if done {
			res.StopReason = reason
			break
		}
	}
	res.Attempts = t.attempts
	res.Count = t.previous

	markup, err := e.surface.CurrentMarkup(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return e.skip(log, res, fmt.Errorf("read markup: %w", err)), nil
	}
	fragments, err := e.sel.Fragments(markup)
	if err != nil {
		return e.skip(log, res, err), nil
	}
	if len(fragments) > e.cfg.MaxReviews {
		fragments = fragments[:e.cfg.MaxReviews]
	}

	res.State = StateDone
	res.Markup = markup
	res.Fragments = fragments
	res.Title = selector.PageTitle(markup, branch.String())
	log.Info("Branch loaded", "title", res.Title, "fragments", len(fragments), "attempts", res.Attempts, "stop", res.StopReason)
	return res, nil
}

// step performs one reveal and returns the fragment count and page extent.
func (e *Engine) step(ctx context.Context) (int, float64, error) {
	if err := e.surface.TriggerReveal(ctx); err != nil {
		return 0, 0, fmt.Errorf("reveal: %w", err)
	}
	if err := render.Sleep(ctx, e.cfg.SettleDelay); err != nil {
		return 0, 0, err
	}
	n, err := e.surface.Count(ctx, e.sel.Config().ReviewItem)
	if err != nil {
		return 0, 0, fmt.Errorf("count reviews: %w", err)
	}
	extent, err := e.surface.CurrentExtent(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("measure extent: %w", err)
	}
	return n, extent, nil
}

func (e *Engine) skip(log *slog.Logger, res Result, cause error) Result {
	res.State = StateSkipped
	res.Err = fmt.Errorf("%w: %w", ErrBranchSkipped, cause)
	res.Reason = cause.Error()
	log.Warn("Skipping branch", "reason", res.Reason)
	return res
}
