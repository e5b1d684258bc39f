package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// RunInfo is one entry of the results index.
type RunInfo struct {
	RunID   int64     `yaml:"run_id"`
	Created time.Time `yaml:"created"`
	Company string    `yaml:"company"`
	City    string    `yaml:"city"`
	Status  string    `yaml:"status"`
	Reviews int       `yaml:"reviews"`
	Skipped int       `yaml:"skipped,omitempty"`
	Dir     string    `yaml:"dir"`
	Files   []string  `yaml:"files,omitempty"`
}

// RunIndex represents the index.yaml file at the results root.
type RunIndex struct {
	Runs []RunInfo `yaml:"runs"`
}

// IndexPath returns the path to the run index file.
func (m *Manager) IndexPath() string {
	return filepath.Join(m.baseDir, "index.yaml")
}

// ReadIndex loads the run index. A missing file yields an empty index.
func (m *Manager) ReadIndex() (RunIndex, error) {
	var index RunIndex
	data, err := os.ReadFile(m.IndexPath())
	if os.IsNotExist(err) {
		return index, nil
	}
	if err != nil {
		return index, fmt.Errorf("failed to read run index: %w", err)
	}
	if err := yaml.Unmarshal(data, &index); err != nil {
		return index, fmt.Errorf("failed to parse run index: %w", err)
	}
	return index, nil
}

// UpdateIndex adds or replaces the entry for info.RunID, newest run first.
func (m *Manager) UpdateIndex(info RunInfo) error {
	index, err := m.ReadIndex()
	if err != nil {
		return err
	}

	found := false
	for i, r := range index.Runs {
		if r.RunID == info.RunID {
			index.Runs[i] = info
			found = true
			break
		}
	}
	if !found {
		index.Runs = append(index.Runs, info)
	}

	sort.Slice(index.Runs, func(i, j int) bool {
		return index.Runs[i].RunID > index.Runs[j].RunID
	})

	output, err := yaml.Marshal(&index)
	if err != nil {
		return fmt.Errorf("failed to marshal run index: %w", err)
	}
	if err := os.WriteFile(m.IndexPath(), output, 0644); err != nil {
		return fmt.Errorf("failed to write run index: %w", err)
	}
	return nil
}
