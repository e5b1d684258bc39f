// Package aggregate folds a review corpus into summary statistics.
package aggregate

import (
	"errors"
	"sort"

	"github.com/dtnitsch/review-harvester/models"
	"github.com/dtnitsch/review-harvester/pkg/mapreduce"
)

// ErrEmptyCorpus signals that there is nothing to summarize. Callers
// report "no data" instead of statistics.
var ErrEmptyCorpus = errors.New("corpus is empty")

const ellipsis = "..."

// Options sizes the frequency tables and exemplar excerpts.
type Options struct {
	TopKeywords   int
	TopFeatures   int
	ExemplarChars int
}

// DefaultOptions matches the layout of the summary report.
func DefaultOptions() Options {
	return Options{TopKeywords: 10, TopFeatures: 5, ExemplarChars: 150}
}

// Summarize computes SummaryStatistics for corpus. The result depends only
// on corpus content and order.
func Summarize(corpus models.Corpus, opts Options) (models.SummaryStatistics, error) {
	if len(corpus) == 0 {
		return models.SummaryStatistics{}, ErrEmptyCorpus
	}

	var ratingSum, sentimentSum float64
	histogram := make(map[float64]int)
	keywords := make([]*mapreduce.Counter, 0, len(corpus))
	features := make([]*mapreduce.Counter, 0, len(corpus))
	positive, negative := 0, 0

	for i, rec := range corpus {
		ratingSum += rec.Rating
		sentimentSum += rec.Sentiment
		histogram[rec.Rating]++
		keywords = append(keywords, mapreduce.Map(rec.Keywords))
		features = append(features, mapreduce.Map(rec.FeatureTags))

		if rec.Sentiment > corpus[positive].Sentiment {
			positive = i
		}
		if rec.Sentiment < corpus[negative].Sentiment {
			negative = i
		}
	}

	n := float64(len(corpus))
	return models.SummaryStatistics{
		Count:           len(corpus),
		MeanRating:      ratingSum / n,
		MeanSentiment:   sentimentSum / n,
		RatingHistogram: sortedHistogram(histogram),
		TopKeywords:     mapreduce.Reduce(keywords).Top(opts.TopKeywords),
		TopFeatures:     mapreduce.Reduce(features).Top(opts.TopFeatures),
		Positive:        exemplar(corpus[positive], opts.ExemplarChars),
		Negative:        exemplar(corpus[negative], opts.ExemplarChars),
	}, nil
}

func sortedHistogram(histogram map[float64]int) []models.RatingBucket {
	buckets := make([]models.RatingBucket, 0, len(histogram))
	for rating, count := range histogram {
		buckets = append(buckets, models.RatingBucket{Rating: rating, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Rating > buckets[j].Rating
	})
	return buckets
}

func exemplar(rec models.ReviewRecord, budget int) models.Exemplar {
	return models.Exemplar{Record: rec, Excerpt: Truncate(rec.Body, budget)}
}

// Truncate shortens text to budget characters and appends an ellipsis
// when anything was cut. A non-positive budget leaves text unchanged.
func Truncate(text string, budget int) string {
	runes := []rune(text)
	if budget <= 0 || len(runes) <= budget {
		return text
	}
	return string(runes[:budget]) + ellipsis
}
