package db

import (
	"fmt"
	"os"
	"time"

	harvestcmd "github.com/dtnitsch/review-harvester/internal/harvest"
	"github.com/dtnitsch/review-harvester/models"
	"github.com/dtnitsch/review-harvester/pkg/analytics"
	"github.com/dtnitsch/review-harvester/pkg/artifacts"
	dbpkg "github.com/dtnitsch/review-harvester/pkg/db"
	harvestpkg "github.com/dtnitsch/review-harvester/pkg/harvest"
	"github.com/dtnitsch/review-harvester/pkg/report"
	"github.com/urfave/cli/v2"
)

// ReplayFlags returns the flags of the replay command.
func ReplayFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:    "lang",
			Value:   models.DefaultHarvestConfig().Language,
			Usage:   "Stopword language: russian, english or auto",
			EnvVars: []string{"HARVEST_LANG"},
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "YAML file with selector overrides",
			EnvVars: []string{"HARVEST_CONFIG"},
		},
	}, harvestcmd.CommonFlags()...)
}

// ReplayAction re-extracts a stored run from its branch snapshots and
// rewrites the run's reviews and reports. No browser is started.
func ReplayAction(c *cli.Context) error {
	logger := harvestcmd.NewLogger(c)

	database, err := openDatabase(c)
	if err != nil {
		return cli.Exit(err.Error(), harvestcmd.ExitFatal)
	}
	defer database.Close()

	runID, err := GetRunIDOrLatest(c, database)
	if err != nil {
		return cli.Exit(err.Error(), harvestcmd.ExitFatal)
	}
	run, err := database.GetRun(runID)
	if err != nil {
		return cli.Exit(err.Error(), harvestcmd.ExitFatal)
	}
	branches, err := database.ListRunBranches(runID)
	if err != nil {
		return cli.Exit(err.Error(), harvestcmd.ExitFatal)
	}

	manager, err := artifacts.NewManager(c.String("output-dir"))
	if err != nil {
		return cli.Exit(err.Error(), harvestcmd.ExitFatal)
	}

	cfg := models.DefaultHarvestConfig()
	cfg.MaxReviewsPerBranch = run.MaxReviews
	cfg.Language = c.String("lang")
	if path := c.String("config"); path != "" {
		fc, err := models.LoadFileConfig(path)
		if err != nil {
			return cli.Exit(err.Error(), harvestcmd.ExitFatal)
		}
		cfg.Selectors = fc.Selectors.Merge(models.DefaultSelectors())
	}

	logger = logger.With("run_id", runID)
	replayer := harvestpkg.NewReplayer(cfg, analytics.New(cfg.Language, analytics.NewVaderScorer()), logger)

	var corpus models.Corpus
	var replays []dbpkg.BranchReplay
	skipped := 0
	for _, b := range branches {
		if b.Outcome.Status == models.BranchSkipped || b.SnapshotPath == "" {
			skipped++
			logger.Info("No snapshot for branch, skipping", "branch", b.Outcome.Branch.String())
			continue
		}

		markup, err := manager.LoadSnapshot(run.RunDir, b.SnapshotPath, b.SnapshotHash)
		if err != nil {
			skipped++
			logger.Warn("Failed to load branch snapshot", "branch", b.Outcome.Branch.String(), "error", err)
			continue
		}

		rep, err := replayer.Replay(b.Outcome.Position, b.Outcome.Branch, markup)
		if err != nil {
			skipped++
			logger.Warn("Failed to replay branch", "branch", b.Outcome.Branch.String(), "error", err)
			continue
		}

		replays = append(replays, dbpkg.BranchReplay{BranchID: b.BranchID, Outcome: rep.Outcome, Records: rep.Records})
		corpus = append(corpus, rep.Records...)
		fmt.Fprintf(os.Stderr, "[%d/%d] %s: %d reviews\n", b.Outcome.Position+1, len(branches), rep.Outcome.Title, len(rep.Records))
	}

	if err := database.ReplaceRunReviews(runID, replays); err != nil {
		return cli.Exit(err.Error(), harvestcmd.ExitFatal)
	}

	header := report.Header{
		RunID:   runID,
		Company: run.Company,
		City:    run.City,
		Created: time.Now(),
		Total:   len(corpus),
		Skipped: skipped,
	}
	out, stats, err := harvestcmd.WriteOutputs(manager.RunDir(run.RunDir), header, corpus)
	if err != nil {
		return cli.Exit(err.Error(), harvestcmd.ExitFatal)
	}

	status, code := harvestcmd.RunStatus(len(corpus), skipped)
	if err := database.FinishRun(runID, dbpkg.RunStats{
		Status:       status,
		BranchCount:  len(branches),
		SkippedCount: skipped,
		ReviewCount:  len(corpus),
	}); err != nil {
		return cli.Exit(err.Error(), harvestcmd.ExitFatal)
	}

	if err := manager.UpdateIndex(artifacts.RunInfo{
		RunID:   runID,
		Created: run.CreatedAt,
		Company: run.Company,
		City:    run.City,
		Status:  status,
		Reviews: len(corpus),
		Skipped: skipped,
		Dir:     run.RunDir,
		Files:   out.Files(),
	}); err != nil {
		logger.Warn("failed to update run index", "error", err)
	}

	fmt.Fprintf(os.Stderr, "\nReplayed run %d: %d reviews\n", runID, len(corpus))
	for _, line := range report.FormatSummary(stats) {
		fmt.Fprintln(os.Stderr, line)
	}
	if code != harvestcmd.ExitOK {
		return cli.Exit("", code)
	}
	return nil
}
