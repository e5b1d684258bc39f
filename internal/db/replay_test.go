package db

import (
	"os"
	"path/filepath"
	"testing"

	harvestcmd "github.com/dtnitsch/review-harvester/internal/harvest"
	"github.com/dtnitsch/review-harvester/internal/testfixtures"
	"github.com/dtnitsch/review-harvester/models"
	"github.com/dtnitsch/review-harvester/pkg/artifacts"
	dbpkg "github.com/dtnitsch/review-harvester/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// storedRun is a finished run with its database and results directory on disk.
type storedRun struct {
	dbPath    string
	outputDir string
	db        *dbpkg.DB
	manager   *artifacts.Manager
	run       *dbpkg.Run
}

func newStoredRun(t *testing.T) *storedRun {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "harvest.db")
	outputDir := filepath.Join(dir, "results")

	database, err := dbpkg.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	manager, err := artifacts.NewManager(outputDir)
	require.NoError(t, err)

	runID, err := database.CreateRun("Sushibox", "Rostov", 3, 200)
	require.NoError(t, err)
	run, err := database.GetRun(runID)
	require.NoError(t, err)
	require.NoError(t, manager.EnsureRunDir(run.RunDir))

	return &storedRun{dbPath: dbPath, outputDir: outputDir, db: database, manager: manager, run: run}
}

// addBranch stores a branch of the run. An empty markup stores it as skipped.
func (s *storedRun) addBranch(t *testing.T, position int, markup string) (int64, string) {
	t.Helper()
	branch := models.BranchEndpoint("https://yandex.ru/maps/org/" + string(rune('a'+position)) + "/")
	branchID, err := s.db.UpsertBranch(branch.String(), "")
	require.NoError(t, err)

	if markup == "" {
		outcome := models.BranchOutcome{Branch: branch, Position: position, Status: models.BranchSkipped, Reason: "reviews section: timed out"}
		require.NoError(t, s.db.InsertRunBranch(s.run.RunID, branchID, outcome, "", ""))
		return branchID, ""
	}

	rel, hash, err := s.manager.SaveSnapshot(s.run.RunDir, position, branch, markup)
	require.NoError(t, err)
	outcome := models.BranchOutcome{Branch: branch, Position: position, Status: models.BranchDone, StopReason: "stall"}
	require.NoError(t, s.db.InsertRunBranch(s.run.RunID, branchID, outcome, rel, hash))
	return branchID, rel
}

func (s *storedRun) replay(t *testing.T, args ...string) error {
	t.Helper()
	app := &cli.App{
		Name:           "replay",
		Flags:          ReplayFlags(),
		Action:         ReplayAction,
		ExitErrHandler: func(*cli.Context, error) {},
	}
	base := []string{"replay", "--db", s.dbPath, "--output-dir", s.outputDir, "--quiet"}
	return app.Run(append(base, args...))
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var coder cli.ExitCoder
	require.ErrorAs(t, err, &coder)
	return coder.ExitCode()
}

func TestReplayActionSkipsUnusableBranches(t *testing.T) {
	s := newStoredRun(t)

	first, _ := s.addBranch(t, 0, testfixtures.BranchPage("Branch one", testfixtures.NumberedReviews(3)...))
	s.addBranch(t, 1, "")
	_, changed := s.addBranch(t, 2, testfixtures.BranchPage("Branch three", testfixtures.NumberedReviews(2)...))
	require.NoError(t, os.WriteFile(filepath.Join(s.manager.RunDir(s.run.RunDir), changed), []byte("<html></html>"), 0600))

	stale := []models.ReviewRecord{{Branch: "https://yandex.ru/maps/org/a/", Author: "Старый", Rating: 1}}
	require.NoError(t, s.db.InsertReviews(s.run.RunID, first, stale))

	err := s.replay(t)
	assert.Equal(t, harvestcmd.ExitPartial, exitCode(t, err))

	run, err := s.db.GetRun(s.run.RunID)
	require.NoError(t, err)
	assert.Equal(t, dbpkg.RunPartial, run.Status)
	assert.Equal(t, 3, run.BranchCount)
	assert.Equal(t, 2, run.SkippedCount)
	assert.Equal(t, 3, run.ReviewCount)

	corpus, err := s.db.LoadCorpus(s.run.RunID)
	require.NoError(t, err)
	require.Len(t, corpus, 3)
	for i, rec := range corpus {
		assert.Equal(t, "Автор "+string(rune('1'+i)), rec.Author)
	}

	branches, err := s.db.ListRunBranches(s.run.RunID)
	require.NoError(t, err)
	require.Len(t, branches, 3)
	assert.Equal(t, 3, branches[0].Outcome.Fragments)
	assert.Equal(t, 3, branches[0].Outcome.Records)
	assert.Equal(t, models.BranchSkipped, branches[1].Outcome.Status)
	assert.Zero(t, branches[2].Outcome.Records)

	index, err := s.manager.ReadIndex()
	require.NoError(t, err)
	require.Len(t, index.Runs, 1)
	assert.Equal(t, dbpkg.RunPartial, index.Runs[0].Status)
}

func TestReplayActionComplete(t *testing.T) {
	s := newStoredRun(t)
	s.addBranch(t, 0, testfixtures.BranchPage("Branch one", testfixtures.NumberedReviews(2)...))
	s.addBranch(t, 1, testfixtures.BranchPage("Branch two", testfixtures.NumberedReviews(1)...))

	require.NoError(t, s.replay(t, "1"))

	run, err := s.db.GetRun(s.run.RunID)
	require.NoError(t, err)
	assert.Equal(t, dbpkg.RunComplete, run.Status)
	assert.Zero(t, run.SkippedCount)
	assert.Equal(t, 3, run.ReviewCount)
}

func TestReplayActionEmpty(t *testing.T) {
	s := newStoredRun(t)
	s.addBranch(t, 0, testfixtures.BranchPage("Branch one"))

	err := s.replay(t)
	assert.Equal(t, harvestcmd.ExitPartial, exitCode(t, err))

	run, err := s.db.GetRun(s.run.RunID)
	require.NoError(t, err)
	assert.Equal(t, dbpkg.RunEmpty, run.Status)
}

func TestReplayActionBadRunID(t *testing.T) {
	s := newStoredRun(t)

	tests := []struct {
		name string
		arg  string
	}{
		{"not a number", "abc"},
		{"zero", "0"},
		{"unknown run", "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.replay(t, tt.arg)
			assert.Equal(t, harvestcmd.ExitFatal, exitCode(t, err))
		})
	}
}
