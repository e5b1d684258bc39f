package harvest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dtnitsch/review-harvester/models"
	"github.com/dtnitsch/review-harvester/pkg/artifacts"
	"github.com/dtnitsch/review-harvester/pkg/db"
	harvestpkg "github.com/dtnitsch/review-harvester/pkg/harvest"
	"github.com/dtnitsch/review-harvester/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// parseConfig runs the harvest flags against args and returns the config.
func parseConfig(t *testing.T, args ...string) (models.HarvestConfig, error) {
	t.Helper()
	var cfg models.HarvestConfig
	var cfgErr error
	app := &cli.App{
		Name:  "test",
		Flags: Flags(),
		Action: func(c *cli.Context) error {
			cfg, cfgErr = ConfigFromContext(c)
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"test"}, args...)))
	return cfg, cfgErr
}

func TestConfigFromContextDefaults(t *testing.T) {
	cfg, err := parseConfig(t, "--company", "Sushibox")
	require.NoError(t, err)

	def := models.DefaultHarvestConfig()
	assert.Equal(t, "Sushibox", cfg.Company)
	assert.Equal(t, def.City, cfg.City)
	assert.Equal(t, def.MaxBranches, cfg.MaxBranches)
	assert.Equal(t, def.MaxReviewsPerBranch, cfg.MaxReviewsPerBranch)
	assert.Equal(t, def.StallThreshold, cfg.StallThreshold)
	assert.Equal(t, def.Selectors, cfg.Selectors)
	assert.Equal(t, "https://yandex.ru", cfg.BaseURL)
}

func TestConfigFromContextOverrides(t *testing.T) {
	cfg, err := parseConfig(t,
		"--city", "Moscow",
		"--max-branches", "3",
		"--max-reviews", "50",
		"--stall-threshold", "5",
		"--settle-delay", "250ms",
		"--base-url", "https://maps.example.com/",
		"Sushibox",
	)
	require.NoError(t, err)

	assert.Equal(t, "Sushibox", cfg.Company)
	assert.Equal(t, "Moscow", cfg.City)
	assert.Equal(t, 3, cfg.MaxBranches)
	assert.Equal(t, 50, cfg.MaxReviewsPerBranch)
	assert.Equal(t, 5, cfg.StallThreshold)
	assert.Equal(t, 250*time.Millisecond, cfg.SettleDelay)
	assert.Equal(t, "https://maps.example.com", cfg.BaseURL)
}

func TestConfigFromContextSelectorFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harvest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("selectors:\n  review_item: div.review\n"), 0600))

	cfg, err := parseConfig(t, "--company", "Sushibox", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "div.review", cfg.Selectors.ReviewItem)
	assert.Equal(t, models.DefaultSelectors().Body, cfg.Selectors.Body)
}

func TestConfigFromContextInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing company", args: nil, want: "company name is required"},
		{name: "zero branches", args: []string{"--company", "x", "--max-branches", "0"}, want: "max branches"},
		{name: "zero stall threshold", args: []string{"--company", "x", "--stall-threshold", "0"}, want: "stall threshold"},
		{name: "bad base url", args: []string{"--company", "x", "--base-url", "ftp://example.com"}, want: "base URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseConfig(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunStatus(t *testing.T) {
	tests := []struct {
		reviews, skipped int
		status           string
		code             int
	}{
		{reviews: 10, skipped: 0, status: db.RunComplete, code: ExitOK},
		{reviews: 10, skipped: 2, status: db.RunPartial, code: ExitPartial},
		{reviews: 0, skipped: 0, status: db.RunEmpty, code: ExitPartial},
		{reviews: 0, skipped: 3, status: db.RunEmpty, code: ExitPartial},
	}
	for _, tt := range tests {
		status, code := RunStatus(tt.reviews, tt.skipped)
		assert.Equal(t, tt.status, status)
		assert.Equal(t, tt.code, code)
	}
}

func sampleCorpus() models.Corpus {
	return models.Corpus{
		{Branch: "https://yandex.ru/maps/org/1/", Author: "Anna", Rating: 5, Body: "Отличные роллы", Keywords: []string{"отличные", "роллы"}, Sentiment: 0.8},
		{Branch: "https://yandex.ru/maps/org/1/", Author: "Oleg", Rating: 2, Body: "Долгая доставка", Keywords: []string{"доставка", "долгая"}, Sentiment: -0.4},
	}
}

func TestWriteOutputs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs", "2026-01-01-1")
	h := report.Header{RunID: 1, Company: "Sushibox", City: "Rostov", Created: time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC), Total: 2}

	out, stats, err := WriteOutputs(dir, h, sampleCorpus())
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.Count)

	assert.Equal(t, filepath.Join(dir, "Sushibox_Rostov_reviews_20260102_1504.csv"), out.CSV)
	for _, path := range out.Files() {
		assert.FileExists(t, path)
	}

	data, err := os.ReadFile(out.CSV)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\ufeff"))
	assert.Contains(t, string(data), "Долгая доставка")
}

func TestWriteOutputsEmptyCorpus(t *testing.T) {
	dir := t.TempDir()
	h := report.Header{Company: "Sushibox", City: "Rostov", Created: time.Now()}

	out, stats, err := WriteOutputs(dir, h, nil)
	require.NoError(t, err)
	assert.Nil(t, stats)

	data, err := os.ReadFile(out.Summary)
	require.NoError(t, err)
	assert.Contains(t, string(data), report.NoDataMessage)
}

func TestRecorderPersistsBranch(t *testing.T) {
	base := t.TempDir()
	database, err := db.Open(filepath.Join(base, "test.db"))
	require.NoError(t, err)
	defer database.Close()

	manager, err := artifacts.NewManager(filepath.Join(base, "results"))
	require.NoError(t, err)

	runID, err := database.CreateRun("Sushibox", "Rostov", 2, 200)
	require.NoError(t, err)
	run, err := database.GetRun(runID)
	require.NoError(t, err)
	require.NoError(t, manager.EnsureRunDir(run.RunDir))

	rec := &recorder{database: database, manager: manager, run: run, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	corpus := sampleCorpus()
	branch := models.BranchEndpoint("https://yandex.ru/maps/org/1/")
	require.NoError(t, rec.record(context.Background(), harvestpkg.BranchReport{
		Outcome: models.BranchOutcome{Branch: branch, Position: 0, Title: "Branch one", Status: models.BranchDone, StopReason: "stall", Attempts: 21, Fragments: 2, Records: 2},
		Records: corpus,
		Markup:  "<html><body>snapshot</body></html>",
	}))
	require.NoError(t, rec.record(context.Background(), harvestpkg.BranchReport{
		Outcome: models.BranchOutcome{Branch: "https://yandex.ru/maps/org/2/", Position: 1, Status: models.BranchSkipped, Reason: "reviews section not found"},
	}))
	assert.Equal(t, 2, rec.total)

	branches, err := database.ListRunBranches(runID)
	require.NoError(t, err)
	require.Len(t, branches, 2)
	assert.Equal(t, "Branch one", branches[0].Outcome.Title)
	assert.NotEmpty(t, branches[0].SnapshotPath)
	assert.Empty(t, branches[1].SnapshotPath)
	assert.Equal(t, models.BranchSkipped, branches[1].Outcome.Status)

	markup, err := manager.LoadSnapshot(run.RunDir, branches[0].SnapshotPath, branches[0].SnapshotHash)
	require.NoError(t, err)
	assert.Contains(t, markup, "snapshot")

	stored, err := database.LoadCorpus(runID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, corpus[0].Body, stored[0].Body)
	assert.Equal(t, corpus[1].Keywords, stored[1].Keywords)
}
