package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dtnitsch/review-harvester/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveBranch(models.BranchOutcome{Status: models.BranchDone, StopReason: "stall", Attempts: 21}, 30*time.Second)
	m.ObserveBranch(models.BranchOutcome{Status: models.BranchSkipped}, time.Second)
	m.ObserveFragments([]models.FragmentOutcome{
		{Status: models.FragmentOK},
		{Status: models.FragmentOK},
		{Status: models.FragmentDuplicate},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Branches.WithLabelValues("done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Branches.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StopReasons.WithLabelValues("stall")))
	assert.Equal(t, 21.0, testutil.ToFloat64(m.Attempts))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Fragments.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fragments.WithLabelValues("duplicate")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveBranch(models.BranchOutcome{Status: models.BranchDone}, time.Second)
	m.ObserveFragments([]models.FragmentOutcome{{Status: models.FragmentOK}})
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveBranch(models.BranchOutcome{Status: models.BranchDone, StopReason: "cap", Attempts: 3}, time.Second)

	path := filepath.Join(t.TempDir(), "harvest.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `review_harvester_branches_total{status="done"} 1`)
	assert.Contains(t, string(data), "review_harvester_pagination_attempts_total 3")
}
