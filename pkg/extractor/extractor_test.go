package extractor

import (
	"io"
	"log/slog"
	"testing"

	"github.com/dtnitsch/review-harvester/internal/testfixtures"
	"github.com/dtnitsch/review-harvester/models"
	"github.com/dtnitsch/review-harvester/pkg/analytics"
	"github.com/dtnitsch/review-harvester/pkg/selector"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const branch = models.BranchEndpoint("https://yandex.ru/maps/org/sushibox/1/")

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type countingScorer struct {
	calls int
	value float64
}

func (c *countingScorer) Polarity(string) float64 {
	c.calls++
	return c.value
}

func newExtractor(scorer analytics.Scorer) (*Extractor, *selector.Selector) {
	sel := selector.New(models.DefaultSelectors())
	return New(sel, analytics.New("russian", scorer), discardLogger), sel
}

func fragments(t *testing.T, sel *selector.Selector, reviews ...testfixtures.Review) []selector.Fragment {
	t.Helper()
	frags, err := sel.Fragments(testfixtures.BranchPage("Sushibox", reviews...))
	require.NoError(t, err)
	require.Len(t, frags, len(reviews))
	return frags
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		label string
		want  float64
	}{
		{"Rating: 3.5 stars", 3.5},
		{"Оценка 5 Из 5", 5},
		{"Оценка 4,5 Из 5", 4.5},
		{"12 stars", 5},
		{"no digits", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRating(tt.label))
		})
	}
}

func TestExtractFullFragment(t *testing.T) {
	scorer := &countingScorer{value: 0.6}
	ex, sel := newExtractor(scorer)
	frags := fragments(t, sel, testfixtures.Review{
		Author:   "Мария",
		Rating:   "Оценка 4 Из 5",
		Date:     "12 марта",
		Body:     "Отличная доставка, вкусные роллы",
		Response: "Спасибо за отзыв!",
		Tags:     []string{"Быстрая доставка", "Вкусно"},
	})

	rec, err := ex.Extract(frags[0], branch)
	require.NoError(t, err)

	want := models.ReviewRecord{
		Branch:          branch,
		Author:          "Мария",
		Rating:          4,
		Date:            "12 марта",
		Body:            "Отличная доставка, вкусные роллы",
		CompanyResponse: "Спасибо за отзыв!",
		FeatureTags:     []string{"Быстрая доставка", "Вкусно"},
		Keywords:        []string{"вкусные", "доставка", "отличная", "роллы"},
		Sentiment:       0.6,
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, scorer.calls)
}

func TestExtractDefaults(t *testing.T) {
	scorer := &countingScorer{value: 0.9}
	ex, sel := newExtractor(scorer)

	tests := []struct {
		name   string
		review testfixtures.Review
		want   models.ReviewRecord
	}{
		{
			name:   "no badge",
			review: testfixtures.Review{Author: "Олег", Date: "1 мая"},
			want:   models.ReviewRecord{Branch: branch, Author: "Олег", Date: "1 мая"},
		},
		{
			name:   "badge with rating text",
			review: testfixtures.Review{Rating: "Rating: 3.5 stars"},
			want:   models.ReviewRecord{Branch: branch, Author: AnonymousAuthor, Rating: 3.5},
		},
		{
			name:   "nothing but the wrapper",
			review: testfixtures.Review{},
			want:   models.ReviewRecord{Branch: branch, Author: AnonymousAuthor},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frags := fragments(t, sel, tt.review)
			rec, err := ex.Extract(frags[0], branch)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, rec); diff != "" {
				t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
			}
		})
	}
	assert.Zero(t, scorer.calls, "empty bodies must not reach the sentiment model")
}

func TestExtractMalformed(t *testing.T) {
	ex, _ := newExtractor(&countingScorer{})
	_, err := ex.Extract(selector.Fragment{}, branch)
	assert.ErrorIs(t, err, ErrFragmentMalformed)
}

func TestExtractRecoversFromPanics(t *testing.T) {
	ex, sel := newExtractor(analytics.ScorerFunc(func(string) float64 { panic("model crashed") }))
	frags := fragments(t, sel, testfixtures.Review{Body: "Вкусно и быстро"})

	_, err := ex.Extract(frags[0], branch)
	assert.ErrorIs(t, err, ErrFragmentMalformed)
}

func TestExtractBranch(t *testing.T) {
	ex, sel := newExtractor(&countingScorer{})
	a := testfixtures.Review{Author: "А", Body: "Первый отзыв"}
	b := testfixtures.Review{Author: "Б", Body: "Второй отзыв"}
	frags := fragments(t, sel, a, b, a)
	frags = append(frags, selector.Fragment{Index: 3, HTML: "<div></div>"})

	records, outcomes := ex.ExtractBranch(frags, branch)

	require.Len(t, records, 2)
	assert.Equal(t, "А", records[0].Author)
	assert.Equal(t, "Б", records[1].Author)
	assert.Equal(t, []models.FragmentOutcome{
		{Index: 0, Status: models.FragmentOK},
		{Index: 1, Status: models.FragmentOK},
		{Index: 2, Status: models.FragmentDuplicate},
		{Index: 3, Status: models.FragmentMalformed, Reason: outcomes[3].Reason},
	}, outcomes)
	assert.NotEmpty(t, outcomes[3].Reason)

	ok, malformed, duplicate := Tally(outcomes)
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, malformed)
	assert.Equal(t, 1, duplicate)
}
