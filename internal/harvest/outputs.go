package harvest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dtnitsch/review-harvester/models"
	"github.com/dtnitsch/review-harvester/pkg/aggregate"
	"github.com/dtnitsch/review-harvester/pkg/artifacts"
	"github.com/dtnitsch/review-harvester/pkg/report"
)

// Outputs are the files written for one run.
type Outputs struct {
	CSV         string
	Summary     string
	SummaryYAML string
}

// Files lists the written paths.
func (o Outputs) Files() []string {
	return []string{o.CSV, o.Summary, o.SummaryYAML}
}

// Summarize returns the corpus statistics, or nil for an empty corpus.
func Summarize(corpus models.Corpus) (*models.SummaryStatistics, error) {
	stats, err := aggregate.Summarize(corpus, aggregate.DefaultOptions())
	if errors.Is(err, aggregate.ErrEmptyCorpus) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// WriteOutputs writes the CSV export, the text report and the YAML
// summary of corpus into dir.
func WriteOutputs(dir string, h report.Header, corpus models.Corpus) (Outputs, *models.SummaryStatistics, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return Outputs{}, nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	stats, err := Summarize(corpus)
	if err != nil {
		return Outputs{}, nil, err
	}

	csvName, summaryName := artifacts.ReportNames(h.Company, h.City, h.Created)
	out := Outputs{
		CSV:         filepath.Join(dir, csvName),
		Summary:     filepath.Join(dir, summaryName),
		SummaryYAML: filepath.Join(dir, "summary.yaml"),
	}

	if err := writeFile(out.CSV, func(w io.Writer) error { return report.WriteCSV(w, corpus) }); err != nil {
		return out, stats, err
	}
	if err := writeFile(out.Summary, func(w io.Writer) error { return report.WriteTextReport(w, h, stats) }); err != nil {
		return out, stats, err
	}
	if err := writeFile(out.SummaryYAML, func(w io.Writer) error { return report.WriteSummaryYAML(w, h, stats) }); err != nil {
		return out, stats, err
	}
	return out, stats, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return write(f)
}
