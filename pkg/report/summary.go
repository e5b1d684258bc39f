package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dtnitsch/review-harvester/models"
	"github.com/dtnitsch/review-harvester/pkg/mapreduce"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

// NoDataMessage replaces the statistics of an empty corpus.
const NoDataMessage = "No data for analysis"

// Header identifies the run a report belongs to.
type Header struct {
	RunID   int64     `yaml:"run_id,omitempty"`
	Company string    `yaml:"company"`
	City    string    `yaml:"city"`
	Created time.Time `yaml:"created"`
	Total   int       `yaml:"total_reviews"`
	Skipped int       `yaml:"skipped_branches,omitempty"`
}

// summaryDocument is the YAML layout of a run summary.
type summaryDocument struct {
	Header  Header                    `yaml:"run"`
	Summary *models.SummaryStatistics `yaml:"summary,omitempty"`
	Note    string                    `yaml:"note,omitempty"`
}

// WriteSummaryYAML writes the header and statistics as YAML. A nil stats
// records the no-data outcome.
func WriteSummaryYAML(w io.Writer, h Header, stats *models.SummaryStatistics) error {
	doc := summaryDocument{Header: h, Summary: stats}
	if stats == nil {
		doc.Note = NoDataMessage
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return enc.Close()
}

// FormatSummary renders the statistics as "- key: value" lines for the
// console.
func FormatSummary(stats *models.SummaryStatistics) []string {
	if stats == nil {
		return []string{NoDataMessage}
	}
	lines := []string{
		fmt.Sprintf("- Total reviews: %d", stats.Count),
		fmt.Sprintf("- Mean rating: %.2f", stats.MeanRating),
		fmt.Sprintf("- Mean sentiment: %.3f", stats.MeanSentiment),
		fmt.Sprintf("- Rating distribution: %s", formatHistogram(stats.RatingHistogram)),
		fmt.Sprintf("- Top keywords: %s", strings.Join(mapreduce.Terms(stats.TopKeywords), ", ")),
		fmt.Sprintf("- Top features: %s", strings.Join(mapreduce.Terms(stats.TopFeatures), ", ")),
		fmt.Sprintf("- Positive example: %s", stats.Positive.Excerpt),
		fmt.Sprintf("- Negative example: %s", stats.Negative.Excerpt),
	}
	return lines
}

func formatHistogram(buckets []models.RatingBucket) string {
	parts := make([]string, len(buckets))
	for i, b := range buckets {
		parts[i] = fmt.Sprintf("%s: %d", formatRating(b.Rating), b.Count)
	}
	return strings.Join(parts, ", ")
}

func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// WriteTextReport writes the human-readable summary report.
func WriteTextReport(w io.Writer, h Header, stats *models.SummaryStatistics) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Review report for %s in %s\n", h.Company, h.City)
	fmt.Fprintf(&b, "Created: %s\n", h.Created.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Total reviews: %d\n", h.Total)
	if h.Skipped > 0 {
		fmt.Fprintf(&b, "Skipped branches: %d\n", h.Skipped)
	}
	b.WriteString("\n")

	if stats == nil {
		b.WriteString(NoDataMessage + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	overview := newTable()
	overview.AppendRow(table.Row{"Reviews", stats.Count})
	overview.AppendRow(table.Row{"Mean rating", fmt.Sprintf("%.2f", stats.MeanRating)})
	overview.AppendRow(table.Row{"Mean sentiment", fmt.Sprintf("%.3f", stats.MeanSentiment)})
	b.WriteString(section("Overview", overview) + "\n\n")

	ratings := newTable()
	ratings.AppendHeader(table.Row{"Rating", "Reviews"})
	for _, bucket := range stats.RatingHistogram {
		ratings.AppendRow(table.Row{formatRating(bucket.Rating), bucket.Count})
	}
	b.WriteString(section("Rating distribution", ratings) + "\n\n")

	b.WriteString(termTable(fmt.Sprintf("Top %d keywords", len(stats.TopKeywords)), "Keyword", stats.TopKeywords) + "\n\n")
	b.WriteString(termTable(fmt.Sprintf("Top %d features", len(stats.TopFeatures)), "Feature", stats.TopFeatures) + "\n\n")

	examples := newTable()
	examples.AppendHeader(table.Row{"", "Sentiment", "Author", "Review"})
	examples.AppendRow(table.Row{"Positive", fmt.Sprintf("%.3f", stats.Positive.Record.Sentiment), stats.Positive.Record.Author, stats.Positive.Excerpt})
	examples.AppendRow(table.Row{"Negative", fmt.Sprintf("%.3f", stats.Negative.Record.Sentiment), stats.Negative.Record.Author, stats.Negative.Excerpt})
	examples.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 80}})
	b.WriteString(section("Examples", examples) + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	return t
}

// section renders t under a plain heading line, so the heading is never
// wrapped to the table width.
func section(title string, t table.Writer) string {
	return title + "\n" + t.Render()
}

func termTable(title, column string, terms []models.TermCount) string {
	t := newTable()
	t.AppendHeader(table.Row{"#", column, "Count"})
	for i, tc := range terms {
		t.AppendRow(table.Row{i + 1, tc.Term, tc.Count})
	}
	return section(title, t)
}
