package analytics

import (
	"strings"

	"github.com/jonreiter/govader"
)

// Scorer is a lexicon-based polarity model returning a compound score.
type Scorer interface {
	Polarity(text string) float64
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(text string) float64

func (f ScorerFunc) Polarity(text string) float64 { return f(text) }

// VaderScorer scores text with the VADER compound polarity.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VaderScorer) Polarity(text string) float64 {
	return v.analyzer.PolarityScores(text).Compound
}

// ScoreSentiment returns the compound polarity of text clamped to [-1, 1].
// Empty text is 0 by convention and never reaches the model.
func ScoreSentiment(s Scorer, text string) float64 {
	if s == nil || strings.TrimSpace(text) == "" {
		return 0
	}
	score := s.Polarity(text)
	switch {
	case score > 1:
		return 1
	case score < -1:
		return -1
	}
	return score
}
