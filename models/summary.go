package models

// RatingBucket is one histogram entry: how many records carry exactly Rating.
type RatingBucket struct {
	Rating float64 `json:"rating" yaml:"rating"`
	Count  int     `json:"count" yaml:"count"`
}

// TermCount is a keyword or feature tag with its corpus-wide frequency.
type TermCount struct {
	Term  string `json:"term" yaml:"term"`
	Count int    `json:"count" yaml:"count"`
}

// Exemplar is the record chosen to represent a sentiment extreme.
type Exemplar struct {
	Record  ReviewRecord `json:"record" yaml:"record"`
	Excerpt string       `json:"excerpt" yaml:"excerpt"` // body truncated to the excerpt budget
}

// SummaryStatistics is a derived view over a non-empty Corpus.
type SummaryStatistics struct {
	Count           int            `json:"count" yaml:"count"`
	MeanRating      float64        `json:"mean_rating" yaml:"mean_rating"`
	MeanSentiment   float64        `json:"mean_sentiment" yaml:"mean_sentiment"`
	RatingHistogram []RatingBucket `json:"rating_histogram" yaml:"rating_histogram"` // highest rating first
	TopKeywords     []TermCount    `json:"top_keywords" yaml:"top_keywords"`
	TopFeatures     []TermCount    `json:"top_features" yaml:"top_features"`
	Positive        Exemplar       `json:"positive" yaml:"positive"`
	Negative        Exemplar       `json:"negative" yaml:"negative"`
}
