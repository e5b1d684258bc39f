package db

import (
	"fmt"
	"os"
	"strings"

	harvestcmd "github.com/dtnitsch/review-harvester/internal/harvest"
	"github.com/dtnitsch/review-harvester/models"
	"github.com/dtnitsch/review-harvester/pkg/report"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
)

// RunsAction lists stored runs, newest first.
func RunsAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"), c.String("company"))
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Created", "Company", "City", "Status", "Branches", "Skipped", "Reviews", "Run Dir"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.RunID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Company,
			r.City,
			r.Status,
			r.BranchCount,
			r.SkippedCount,
			r.ReviewCount,
			r.RunDir,
		})
	}
	t.Render()

	fmt.Printf("\nTotal: %d runs\n", len(runs))
	fmt.Printf("\nTip: Use 'review-harvester run <id>' to see branch details\n")
	return nil
}

// RunAction shows the branch outcomes of one run.
func RunAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runID, err := GetRunIDOrLatest(c, database)
	if err != nil {
		return err
	}
	run, err := database.GetRun(runID)
	if err != nil {
		return err
	}
	branches, err := database.ListRunBranches(runID)
	if err != nil {
		return err
	}

	fmt.Printf("Run %d\n", run.RunID)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Created:     %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	if run.FinishedAt.Valid {
		fmt.Printf("Finished:    %s\n", run.FinishedAt.Time.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("Company:     %s (%s)\n", run.Company, run.City)
	fmt.Printf("Status:      %s\n", run.Status)
	fmt.Printf("Directory:   %s\n", run.RunDir)
	fmt.Printf("Limits:      %d branches, %d reviews per branch\n", run.MaxBranches, run.MaxReviews)
	fmt.Printf("Reviews:     %d from %d branches (%d skipped)\n\n", run.ReviewCount, run.BranchCount, run.SkippedCount)

	if len(branches) == 0 {
		fmt.Println("No branches recorded")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Branch", "Status", "Stop", "Scrolls", "Fragments", "Reviews", "Malformed", "Dup"})
	for _, b := range branches {
		o := b.Outcome
		name := o.Title
		if name == "" {
			name = o.Branch.String()
		}
		stop := o.StopReason
		if o.Status == models.BranchSkipped {
			stop = o.Reason
		}
		t.AppendRow(table.Row{o.Position + 1, name, o.Status, stop, o.Attempts, o.Fragments, o.Records, o.Malformed, o.Duplicates})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 40}, {Number: 4, WidthMax: 40}})
	t.Render()

	fmt.Printf("\nTip: Use 'review-harvester summary %d' to see the analysis\n", runID)
	return nil
}

// SummaryAction recomputes the summary of a stored run and prints it.
func SummaryAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runID, err := GetRunIDOrLatest(c, database)
	if err != nil {
		return err
	}
	run, err := database.GetRun(runID)
	if err != nil {
		return err
	}
	corpus, err := database.LoadCorpus(runID)
	if err != nil {
		return err
	}

	stats, err := harvestcmd.Summarize(corpus)
	if err != nil {
		return err
	}

	h := report.Header{
		RunID:   run.RunID,
		Company: run.Company,
		City:    run.City,
		Created: run.CreatedAt,
		Total:   len(corpus),
		Skipped: run.SkippedCount,
	}

	switch strings.ToLower(c.String("format")) {
	case "yaml":
		return report.WriteSummaryYAML(os.Stdout, h, stats)
	case "text", "":
		return report.WriteTextReport(os.Stdout, h, stats)
	case "short":
		for _, line := range report.FormatSummary(stats) {
			fmt.Println(line)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s (use: text, yaml, or short)", c.String("format"))
	}
}
