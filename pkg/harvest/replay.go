package harvest

import (
	"log/slog"

	"github.com/dtnitsch/review-harvester/models"
	"github.com/dtnitsch/review-harvester/pkg/analytics"
	"github.com/dtnitsch/review-harvester/pkg/extractor"
	"github.com/dtnitsch/review-harvester/pkg/selector"
)

// Replayer re-extracts reviews from saved branch markup, without a browser.
type Replayer struct {
	sel        *selector.Selector
	extractor  *extractor.Extractor
	maxReviews int
}

func NewReplayer(cfg models.HarvestConfig, a *analytics.Analytics, logger *slog.Logger) *Replayer {
	sel := selector.New(cfg.Selectors)
	return &Replayer{
		sel:        sel,
		extractor:  extractor.New(sel, a, logger),
		maxReviews: cfg.MaxReviewsPerBranch,
	}
}

// Replay extracts the first maxReviews fragments of markup for branch.
func (r *Replayer) Replay(position int, branch models.BranchEndpoint, markup string) (BranchReport, error) {
	fragments, err := r.sel.Fragments(markup)
	if err != nil {
		return BranchReport{}, err
	}
	if r.maxReviews > 0 && len(fragments) > r.maxReviews {
		fragments = fragments[:r.maxReviews]
	}

	records, outcomes := r.extractor.ExtractBranch(fragments, branch)
	_, malformed, duplicates := extractor.Tally(outcomes)
	return BranchReport{
		Outcome: models.BranchOutcome{
			Branch:     branch,
			Position:   position,
			Title:      selector.PageTitle(markup, branch.String()),
			Status:     models.BranchDone,
			Fragments:  len(fragments),
			Records:    len(records),
			Malformed:  malformed,
			Duplicates: duplicates,
		},
		Records:   records,
		Fragments: outcomes,
		Markup:    markup,
	}, nil
}
