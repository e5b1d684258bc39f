package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHarvestConfigValidate(t *testing.T) {
	valid := DefaultHarvestConfig()
	valid.Company = "Sushibox"

	tests := []struct {
		name    string
		mutate  func(c *HarvestConfig)
		wantErr bool
	}{
		{name: "defaults with company", mutate: func(c *HarvestConfig) {}, wantErr: false},
		{name: "missing company", mutate: func(c *HarvestConfig) { c.Company = "" }, wantErr: true},
		{name: "zero branches", mutate: func(c *HarvestConfig) { c.MaxBranches = 0 }, wantErr: true},
		{name: "zero reviews", mutate: func(c *HarvestConfig) { c.MaxReviewsPerBranch = 0 }, wantErr: true},
		{name: "zero stall threshold", mutate: func(c *HarvestConfig) { c.StallThreshold = 0 }, wantErr: true},
		{name: "negative settle", mutate: func(c *HarvestConfig) { c.SettleDelay = -1 }, wantErr: true},
		{name: "negative rate", mutate: func(c *HarvestConfig) { c.BranchRate = -0.5 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSelectorsMerge(t *testing.T) {
	custom := Selectors{ReviewItem: "li.review"}
	merged := custom.Merge(DefaultSelectors())

	require.Equal(t, "li.review", merged.ReviewItem)
	assert.Equal(t, DefaultSelectors().Author, merged.Author)
	assert.Equal(t, "aria-label", merged.RatingAttr)
}

func TestLoadFileConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harvest.yaml")
	content := "selectors:\n  review_item: div.review\n  rating_attr: data-rating\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	fc, err := LoadFileConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "div.review", fc.Selectors.ReviewItem)
	assert.Equal(t, "data-rating", fc.Selectors.RatingAttr)

	merged := fc.Selectors.Merge(DefaultSelectors())
	assert.Equal(t, DefaultSelectors().BranchCard, merged.BranchCard)

	_, err = LoadFileConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("selectors: [unclosed"), 0600))
	_, err = LoadFileConfig(bad)
	assert.Error(t, err)
}
