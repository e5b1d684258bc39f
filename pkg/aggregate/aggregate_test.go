package aggregate

import (
	"strings"
	"testing"

	"github.com/dtnitsch/review-harvester/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeEmptyCorpus(t *testing.T) {
	_, err := Summarize(nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyCorpus)

	_, err = Summarize(models.Corpus{}, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}

func TestSummarizeExemplars(t *testing.T) {
	corpus := models.Corpus{
		{Author: "a", Body: "great", Sentiment: 0.8},
		{Author: "b", Body: "awful", Sentiment: -0.5},
		{Author: "c", Body: "fine", Sentiment: 0.1},
	}
	stats, err := Summarize(corpus, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "a", stats.Positive.Record.Author)
	assert.Equal(t, "b", stats.Negative.Record.Author)
	assert.Equal(t, "great", stats.Positive.Excerpt)
	assert.InDelta(t, 0.4/3, stats.MeanSentiment, 1e-9)
}

func TestSummarizeExemplarTiesKeepFirst(t *testing.T) {
	corpus := models.Corpus{
		{Author: "first", Sentiment: 0.5},
		{Author: "second", Sentiment: 0.5},
		{Author: "third", Sentiment: -0.2},
		{Author: "fourth", Sentiment: -0.2},
	}
	stats, err := Summarize(corpus, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "first", stats.Positive.Record.Author)
	assert.Equal(t, "third", stats.Negative.Record.Author)
}

func TestSummarizeSingleRecord(t *testing.T) {
	stats, err := Summarize(models.Corpus{{Author: "only", Rating: 3, Body: "ok"}}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "only", stats.Positive.Record.Author)
	assert.Equal(t, "only", stats.Negative.Record.Author)
	assert.Equal(t, 3.0, stats.MeanRating)
}

func TestSummarizeUniformRating(t *testing.T) {
	corpus := make(models.Corpus, 5)
	for i := range corpus {
		corpus[i] = models.ReviewRecord{Rating: 4.0}
	}
	stats, err := Summarize(corpus, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []models.RatingBucket{{Rating: 4.0, Count: 5}}, stats.RatingHistogram)
	assert.Equal(t, 4.0, stats.MeanRating)
	assert.Equal(t, 5, stats.Count)
}

func TestSummarizeHistogram(t *testing.T) {
	ratings := []float64{3, 5, 0, 4.5, 5, 3, 1, 5}
	corpus := make(models.Corpus, len(ratings))
	for i, r := range ratings {
		corpus[i] = models.ReviewRecord{Rating: r}
	}
	stats, err := Summarize(corpus, DefaultOptions())
	require.NoError(t, err)

	want := []models.RatingBucket{
		{Rating: 5, Count: 3},
		{Rating: 4.5, Count: 1},
		{Rating: 3, Count: 2},
		{Rating: 1, Count: 1},
		{Rating: 0, Count: 1},
	}
	if diff := cmp.Diff(want, stats.RatingHistogram); diff != "" {
		t.Errorf("histogram mismatch (-want +got):\n%s", diff)
	}

	total := 0
	for _, b := range stats.RatingHistogram {
		total += b.Count
	}
	assert.Equal(t, len(corpus), total)
}

func TestSummarizeFrequencyTables(t *testing.T) {
	corpus := models.Corpus{
		{Keywords: []string{"доставка", "роллы"}, FeatureTags: []string{"Вкусно", "Быстро"}},
		{Keywords: []string{"курьер", "роллы"}, FeatureTags: []string{"Быстро"}},
		{Keywords: []string{"доставка", "курьер"}, FeatureTags: []string{"Вежливо", "Вкусно", "Быстро"}},
		{Keywords: []string{"упаковка"}},
	}
	stats, err := Summarize(corpus, Options{TopKeywords: 3, TopFeatures: 5, ExemplarChars: 150})
	require.NoError(t, err)

	assert.Equal(t, []models.TermCount{
		{Term: "доставка", Count: 2},
		{Term: "роллы", Count: 2},
		{Term: "курьер", Count: 2},
	}, stats.TopKeywords)
	assert.Equal(t, []models.TermCount{
		{Term: "Быстро", Count: 3},
		{Term: "Вкусно", Count: 2},
		{Term: "Вежливо", Count: 1},
	}, stats.TopFeatures)
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("ж", 200)
	exact := strings.Repeat("ж", 150)

	assert.Equal(t, strings.Repeat("ж", 150)+"...", Truncate(long, 150))
	assert.Equal(t, exact, Truncate(exact, 150))
	assert.Equal(t, "short", Truncate("short", 150))
	assert.Equal(t, "", Truncate("", 150))
	assert.Equal(t, long, Truncate(long, 0))
}
