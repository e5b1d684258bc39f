// Package extractor turns rendered review fragments into ReviewRecords.
// Extraction is total: missing fields fall back to defaults and a broken
// fragment is reported, never propagated past the branch.
package extractor

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/dtnitsch/review-harvester/internal/common"
	"github.com/dtnitsch/review-harvester/models"
	"github.com/dtnitsch/review-harvester/pkg/analytics"
	"github.com/dtnitsch/review-harvester/pkg/selector"
)

// ErrFragmentMalformed means one fragment could not be read at all.
var ErrFragmentMalformed = errors.New("malformed review fragment")

// AnonymousAuthor replaces a missing author name.
const AnonymousAuthor = "Anonymous"

const maxRating = 5.0

var ratingPattern = regexp.MustCompile(`(\d+[.,]?\d?)`)

// Extractor reads fragments with a Selector and scores their text.
type Extractor struct {
	sel       *selector.Selector
	analytics *analytics.Analytics
	logger    *slog.Logger
}

func New(sel *selector.Selector, a *analytics.Analytics, logger *slog.Logger) *Extractor {
	return &Extractor{sel: sel, analytics: a, logger: logger}
}

// ParseRating returns the first number in a rating label, clamped to
// [0, 5]. A label without a number yields 0.
func ParseRating(label string) float64 {
	match := ratingPattern.FindString(label)
	if match == "" {
		return 0
	}
	rating, err := strconv.ParseFloat(strings.Replace(match, ",", ".", 1), 64)
	if err != nil {
		return 0
	}
	switch {
	case rating < 0:
		return 0
	case rating > maxRating:
		return maxRating
	}
	return rating
}

// Extract builds the record for one fragment. The only error is
// ErrFragmentMalformed.
func (e *Extractor) Extract(f selector.Fragment, branch models.BranchEndpoint) (rec models.ReviewRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = models.ReviewRecord{}
			err = fmt.Errorf("%w: %v", ErrFragmentMalformed, r)
		}
	}()

	fields, err := e.sel.Fields(f)
	if err != nil {
		return models.ReviewRecord{}, fmt.Errorf("%w: %w", ErrFragmentMalformed, err)
	}

	rec = models.ReviewRecord{
		Branch:          branch,
		Author:          valueOr(fields.Author, ""),
		Date:            valueOr(fields.Date, ""),
		Body:            valueOr(fields.Body, ""),
		CompanyResponse: valueOr(fields.Response, ""),
		FeatureTags:     fields.Tags,
	}
	if rec.Author == "" {
		rec.Author = AnonymousAuthor
	}
	if fields.RatingLabel != nil {
		rec.Rating = ParseRating(*fields.RatingLabel)
	}
	if rec.Body != "" {
		rec.Keywords = e.analytics.Keywords(rec.Body)
		rec.Sentiment = e.analytics.Sentiment(rec.Body)
	}
	return rec, nil
}

// ExtractBranch extracts every fragment of one branch pass in render
// order. Fragments whose markup repeats an earlier one are reported as
// duplicates and contribute no record.
func (e *Extractor) ExtractBranch(fragments []selector.Fragment, branch models.BranchEndpoint) ([]models.ReviewRecord, []models.FragmentOutcome) {
	records := make([]models.ReviewRecord, 0, len(fragments))
	outcomes := make([]models.FragmentOutcome, 0, len(fragments))
	seen := make(map[string]struct{}, len(fragments))

	for _, f := range fragments {
		hash := common.ContentHash([]byte(f.HTML))
		if _, dup := seen[hash]; dup {
			e.logger.Debug("Duplicate review fragment", "branch", branch.String(), "index", f.Index)
			outcomes = append(outcomes, models.FragmentOutcome{Index: f.Index, Status: models.FragmentDuplicate})
			continue
		}
		seen[hash] = struct{}{}

		rec, err := e.Extract(f, branch)
		if err != nil {
			e.logger.Warn("Skipping review fragment", "branch", branch.String(), "index", f.Index, "reason", err)
			outcomes = append(outcomes, models.FragmentOutcome{Index: f.Index, Status: models.FragmentMalformed, Reason: err.Error()})
			continue
		}
		records = append(records, rec)
		outcomes = append(outcomes, models.FragmentOutcome{Index: f.Index, Status: models.FragmentOK})
	}
	return records, outcomes
}

// Tally counts outcomes by status.
func Tally(outcomes []models.FragmentOutcome) (ok, malformed, duplicate int) {
	for _, o := range outcomes {
		switch o.Status {
		case models.FragmentOK:
			ok++
		case models.FragmentMalformed:
			malformed++
		case models.FragmentDuplicate:
			duplicate++
		}
	}
	return ok, malformed, duplicate
}

func valueOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}
