// Package harvest runs the collection flow for one company: discover the
// branches, paginate each one in turn, extract its reviews and append them
// to the corpus.
package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dtnitsch/review-harvester/models"
	"github.com/dtnitsch/review-harvester/pkg/analytics"
	"github.com/dtnitsch/review-harvester/pkg/discovery"
	"github.com/dtnitsch/review-harvester/pkg/extractor"
	"github.com/dtnitsch/review-harvester/pkg/metrics"
	"github.com/dtnitsch/review-harvester/pkg/paginator"
	"github.com/dtnitsch/review-harvester/pkg/render"
	"github.com/dtnitsch/review-harvester/pkg/selector"
	"golang.org/x/time/rate"
)

// BranchReport is everything one branch pass produced.
type BranchReport struct {
	Outcome   models.BranchOutcome
	Records   []models.ReviewRecord
	Fragments []models.FragmentOutcome
	Markup    string
}

// BranchHook receives each branch report as soon as the branch is done.
// A hook error stops the run.
type BranchHook func(ctx context.Context, report BranchReport) error

// Pipeline wires discovery, pagination and extraction over one surface.
type Pipeline struct {
	discoverer  *discovery.Discoverer
	engine      *paginator.Engine
	extractor   *extractor.Extractor
	limiter     *rate.Limiter
	metrics     *metrics.Metrics
	logger      *slog.Logger
	maxBranches int

	// OnBranch is called after every branch, skipped ones included.
	OnBranch BranchHook
}

// New builds a pipeline from cfg. The surface stays owned by the caller.
func New(surface render.Surface, cfg models.HarvestConfig, a *analytics.Analytics, m *metrics.Metrics, logger *slog.Logger) *Pipeline {
	sel := selector.New(cfg.Selectors)

	limit := rate.Inf
	if cfg.BranchRate > 0 {
		limit = rate.Limit(cfg.BranchRate)
	}

	return &Pipeline{
		discoverer: discovery.New(surface, sel, discovery.Config{
			BaseURL:         cfg.BaseURL,
			NavigationDelay: cfg.NavigationDelay,
			ReadyTimeout:    cfg.DiscoveryTimeout,
		}, logger),
		engine: paginator.New(surface, sel, paginator.Config{
			MaxReviews:      cfg.MaxReviewsPerBranch,
			StallThreshold:  cfg.StallThreshold,
			SettleDelay:     cfg.SettleDelay,
			NavigationDelay: cfg.NavigationDelay,
			SectionTimeout:  cfg.SectionTimeout,
		}, logger),
		extractor:   extractor.New(sel, a, logger),
		limiter:     rate.NewLimiter(limit, 1),
		metrics:     m,
		logger:      logger,
		maxBranches: cfg.MaxBranches,
	}
}

// Collect harvests every discovered branch in discovery order. Skipped
// branches and malformed fragments are reported in the outcomes; only a
// discovery failure, a hook failure or cancellation is returned as an
// error, together with whatever was collected so far.
func (p *Pipeline) Collect(ctx context.Context, company, city string) (models.Corpus, []models.BranchOutcome, error) {
	branches, err := p.discoverer.Discover(ctx, company, city, p.maxBranches)
	if err != nil {
		return nil, nil, err
	}

	var corpus models.Corpus
	outcomes := make([]models.BranchOutcome, 0, len(branches))

	for i, branch := range branches {
		if err := p.limiter.Wait(ctx); err != nil {
			return corpus, outcomes, err
		}
		p.logger.Info("Processing branch", "position", i+1, "of", len(branches), "branch", branch.String())

		report, err := p.processBranch(ctx, i, branch)
		if err != nil {
			return corpus, outcomes, err
		}
		corpus = append(corpus, report.Records...)
		outcomes = append(outcomes, report.Outcome)

		if p.OnBranch != nil {
			if err := p.OnBranch(ctx, report); err != nil {
				return corpus, outcomes, fmt.Errorf("branch %d: %w", i+1, err)
			}
		}
	}

	p.logger.Info("Collection finished", "branches", len(branches), "reviews", len(corpus))
	return corpus, outcomes, nil
}

func (p *Pipeline) processBranch(ctx context.Context, position int, branch models.BranchEndpoint) (BranchReport, error) {
	start := time.Now()
	res, err := p.engine.Paginate(ctx, branch)
	if err != nil {
		return BranchReport{}, err
	}

	outcome := models.BranchOutcome{
		Branch:     branch,
		Position:   position,
		Title:      res.Title,
		StopReason: res.StopReason,
		Attempts:   res.Attempts,
	}
	report := BranchReport{Markup: res.Markup}

	if res.State == paginator.StateSkipped {
		outcome.Status = models.BranchSkipped
		outcome.Reason = res.Reason
	} else {
		records, fragments := p.extractor.ExtractBranch(res.Fragments, branch)
		_, malformed, duplicates := extractor.Tally(fragments)
		outcome.Status = models.BranchDone
		outcome.Fragments = len(res.Fragments)
		outcome.Records = len(records)
		outcome.Malformed = malformed
		outcome.Duplicates = duplicates
		report.Records = records
		report.Fragments = fragments
		p.metrics.ObserveFragments(fragments)
	}

	report.Outcome = outcome
	p.metrics.ObserveBranch(outcome, time.Since(start))
	return report, nil
}

// Skipped counts skipped branches in outcomes.
func Skipped(outcomes []models.BranchOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Status == models.BranchSkipped {
			n++
		}
	}
	return n
}
