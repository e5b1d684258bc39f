package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/dtnitsch/review-harvester/models"
	"github.com/dtnitsch/review-harvester/pkg/analytics"
	"github.com/dtnitsch/review-harvester/pkg/artifacts"
	"github.com/dtnitsch/review-harvester/pkg/db"
	"github.com/dtnitsch/review-harvester/pkg/discovery"
	harvestpkg "github.com/dtnitsch/review-harvester/pkg/harvest"
	"github.com/dtnitsch/review-harvester/pkg/metrics"
	"github.com/dtnitsch/review-harvester/pkg/render"
	"github.com/dtnitsch/review-harvester/pkg/report"
	"github.com/urfave/cli/v2"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitPartial = 1
	ExitFatal   = 2
)

// RunStatus classifies a finished collection.
func RunStatus(reviews, skipped int) (string, int) {
	switch {
	case reviews == 0:
		return db.RunEmpty, ExitPartial
	case skipped > 0:
		return db.RunPartial, ExitPartial
	default:
		return db.RunComplete, ExitOK
	}
}

// recorder persists each branch as soon as the pipeline finishes it.
type recorder struct {
	database *db.DB
	manager  *artifacts.Manager
	run      *db.Run
	logger   *slog.Logger
	total    int
}

func (r *recorder) record(_ context.Context, rep harvestpkg.BranchReport) error {
	o := rep.Outcome
	branchID, err := r.database.UpsertBranch(o.Branch.String(), o.Title)
	if err != nil {
		return err
	}

	var snapshot, hash string
	if rep.Markup != "" {
		snapshot, hash, err = r.manager.SaveSnapshot(r.run.RunDir, o.Position, o.Branch, rep.Markup)
		if err != nil {
			r.logger.Warn("Failed to save branch snapshot", "branch", o.Branch.String(), "error", err)
		}
	}

	if err := r.database.InsertRunBranch(r.run.RunID, branchID, o, snapshot, hash); err != nil {
		return err
	}
	if err := r.database.InsertReviews(r.run.RunID, branchID, rep.Records); err != nil {
		return err
	}

	r.total += len(rep.Records)
	if o.Status == models.BranchSkipped {
		fmt.Fprintf(os.Stderr, "[%d/%d] skipped %s: %s\n", o.Position+1, r.run.MaxBranches, o.Branch, o.Reason)
	} else {
		fmt.Fprintf(os.Stderr, "[%d/%d] %s: %d reviews (%s after %d scrolls)\n",
			o.Position+1, r.run.MaxBranches, displayName(o), o.Records, o.StopReason, o.Attempts)
	}
	return nil
}

func displayName(o models.BranchOutcome) string {
	if o.Title != "" {
		return o.Title
	}
	return o.Branch.String()
}

// HarvestAction collects reviews for one company and writes the run outputs.
func HarvestAction(c *cli.Context) error {
	logger := NewLogger(c)

	cfg, err := ConfigFromContext(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v\n\nUsage:\n  review-harvester harvest --company \"Sushibox\" --city \"Ростов-на-Дону\"", err), ExitFatal)
	}

	manager, err := artifacts.NewManager(c.String("output-dir"))
	if err != nil {
		logger.Error("failed to initialize artifact manager", "error", err)
		return cli.Exit("", ExitFatal)
	}

	database, err := db.Open(c.String("db"))
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return cli.Exit("", ExitFatal)
	}
	defer database.Close()

	runID, err := database.CreateRun(cfg.Company, cfg.City, cfg.MaxBranches, cfg.MaxReviewsPerBranch)
	if err != nil {
		logger.Error("failed to create run", "error", err)
		return cli.Exit("", ExitFatal)
	}
	run, err := database.GetRun(runID)
	if err != nil {
		logger.Error("failed to load run", "error", err)
		return cli.Exit("", ExitFatal)
	}
	if err := manager.EnsureRunDir(run.RunDir); err != nil {
		logger.Error("failed to create run directory", "error", err)
		return cli.Exit("", ExitFatal)
	}
	logger = logger.With("run_id", runID)
	fmt.Fprintf(os.Stderr, "Harvesting %s in %s (run %d)...\n", cfg.Company, cfg.City, runID)

	fail := func(msg string, err error) error {
		logger.Error(msg, "error", err)
		if ferr := database.FinishRun(runID, db.RunStats{Status: db.RunFailed}); ferr != nil {
			logger.Error("failed to mark run as failed", "error", ferr)
		}
		return cli.Exit(fmt.Sprintf("Error: %s: %v", msg, err), ExitFatal)
	}

	chrome, err := render.NewChrome(render.ChromeOptions{Headless: cfg.Headless})
	if err != nil {
		return fail("failed to start browser", err)
	}
	defer chrome.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	m := metrics.New()
	rec := &recorder{database: database, manager: manager, run: run, logger: logger}
	pipeline := harvestpkg.New(chrome, cfg, analytics.New(cfg.Language, analytics.NewVaderScorer()), m, logger)
	pipeline.OnBranch = rec.record

	corpus, outcomes, collectErr := pipeline.Collect(ctx, cfg.Company, cfg.City)
	if errors.Is(collectErr, discovery.ErrDiscoveryUnavailable) {
		return fail("no branches could be discovered", collectErr)
	}

	skipped := harvestpkg.Skipped(outcomes)
	header := report.Header{
		RunID:   runID,
		Company: cfg.Company,
		City:    cfg.City,
		Created: time.Now(),
		Total:   len(corpus),
		Skipped: skipped,
	}
	out, stats, err := WriteOutputs(manager.RunDir(run.RunDir), header, corpus)
	if err != nil {
		return fail("failed to write outputs", err)
	}

	status, code := RunStatus(len(corpus), skipped)
	if collectErr != nil {
		status, code = db.RunFailed, ExitFatal
		logger.Error("collection stopped early", "error", collectErr, "branches", len(outcomes))
	}
	if err := database.FinishRun(runID, db.RunStats{
		Status:       status,
		BranchCount:  len(outcomes),
		SkippedCount: skipped,
		ReviewCount:  len(corpus),
	}); err != nil {
		logger.Error("failed to finish run", "error", err)
		code = ExitFatal
	}

	if err := manager.UpdateIndex(artifacts.RunInfo{
		RunID:   runID,
		Created: run.CreatedAt,
		Company: cfg.Company,
		City:    cfg.City,
		Status:  status,
		Reviews: len(corpus),
		Skipped: skipped,
		Dir:     run.RunDir,
		Files:   out.Files(),
	}); err != nil {
		logger.Warn("failed to update run index", "error", err)
	}

	if path := c.String("metrics-file"); path != "" {
		if err := m.WriteTextfile(path); err != nil {
			logger.Warn("failed to write metrics", "error", err)
		}
	}

	printResult(len(corpus), skipped, out, stats)
	return exitWith(code)
}

func printResult(reviews, skipped int, out Outputs, stats *models.SummaryStatistics) {
	fmt.Fprintf(os.Stderr, "\nSaved %d reviews to %s\n", reviews, out.CSV)
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "Skipped branches: %d\n", skipped)
	}
	fmt.Fprintln(os.Stderr, "\nSummary:")
	for _, line := range report.FormatSummary(stats) {
		fmt.Fprintln(os.Stderr, line)
	}
	fmt.Fprintf(os.Stderr, "\nReport: %s\n", out.Summary)
}

func exitWith(code int) error {
	if code == ExitOK {
		return nil
	}
	return cli.Exit("", code)
}
