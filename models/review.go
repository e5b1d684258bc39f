// Package models defines the data structures shared by the harvester packages.
package models

// BranchEndpoint is an opaque locator (page URL) for one branch of the chain.
type BranchEndpoint string

func (b BranchEndpoint) String() string {
	return string(b)
}

// ReviewRecord is one extracted review. Records are never mutated after
// the extractor creates them.
type ReviewRecord struct {
	Branch          BranchEndpoint `json:"branch" yaml:"branch"`
	Author          string         `json:"author" yaml:"author"`
	Rating          float64        `json:"rating" yaml:"rating"`
	Date            string         `json:"date" yaml:"date"`
	Body            string         `json:"body" yaml:"body"`
	CompanyResponse string         `json:"company_response,omitempty" yaml:"company_response,omitempty"`
	FeatureTags     []string       `json:"feature_tags,omitempty" yaml:"feature_tags,omitempty"`
	// Keywords has set semantics; it is kept sorted so output is stable.
	Keywords  []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Sentiment float64  `json:"sentiment" yaml:"sentiment"`
}

// Corpus is the ordered, append-only collection of records for a run.
// Order is branch discovery order, then fragment render order.
type Corpus []ReviewRecord
