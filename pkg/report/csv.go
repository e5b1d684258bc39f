// Package report writes a corpus and its summary to the run outputs: a
// spreadsheet-friendly CSV, a YAML summary and a human-readable report.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dtnitsch/review-harvester/models"
)

// utf8BOM lets spreadsheet tools detect UTF-8 in Cyrillic exports.
const utf8BOM = "\ufeff"

// CSVHeader lists the export columns in order.
var CSVHeader = []string{"branch", "author", "rating", "date", "text", "response", "features", "keywords", "sentiment"}

// WriteCSV writes one row per record, preceded by a byte order mark and
// the header row.
func WriteCSV(w io.Writer, corpus models.Corpus) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, rec := range corpus {
		row := []string{
			rec.Branch.String(),
			rec.Author,
			strconv.FormatFloat(rec.Rating, 'f', -1, 64),
			rec.Date,
			rec.Body,
			rec.CompanyResponse,
			strings.Join(rec.FeatureTags, ", "),
			strings.Join(rec.Keywords, ", "),
			strconv.FormatFloat(rec.Sentiment, 'f', 4, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
