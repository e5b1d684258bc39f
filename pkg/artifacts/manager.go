// Package artifacts manages the on-disk outputs of harvest runs: the run
// directory, raw branch markup snapshots, report files and the run index.
package artifacts

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dtnitsch/review-harvester/internal/common"
	"github.com/dtnitsch/review-harvester/models"
)

const (
	DefaultBaseDir = "harvest-results"
	BranchesDir    = "branches"
)

// Manager handles storage and retrieval of run artifacts.
type Manager struct {
	baseDir string
}

// NewManager creates a new Manager and ensures its base directory exists.
func NewManager(baseDir string) (*Manager, error) {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	if err := os.MkdirAll(baseDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	return &Manager{baseDir: baseDir}, nil
}

// BaseDir returns the results root.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// RunDir returns the absolute location of a run directory as stored in the
// database (e.g. runs/2026-10-19-4).
func (m *Manager) RunDir(runDir string) string {
	return filepath.Join(m.baseDir, runDir)
}

// EnsureRunDir creates the run directory and its branches/ subdirectory.
func (m *Manager) EnsureRunDir(runDir string) error {
	if err := os.MkdirAll(filepath.Join(m.RunDir(runDir), BranchesDir), 0750); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	return nil
}

// getShortHash generates a short, stable hash from a branch URL.
func getShortHash(rawURL string) string {
	hash := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("%x", hash[:6]) // 12-char hex string
}

var invalidFilenameChar = regexp.MustCompile(`[^a-zA-Z0-9\-_]+`)

// sanitizeSlug creates a filesystem-safe slug from a URL path.
func sanitizeSlug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		safe := invalidFilenameChar.ReplaceAllString(rawURL, "_")
		return strings.Trim(safe, "_")
	}

	pathPart := strings.TrimPrefix(u.Path, "/")
	pathPart = invalidFilenameChar.ReplaceAllString(pathPart, "_")
	pathPart = strings.Trim(pathPart, "_")
	if pathPart == "" {
		return strings.ReplaceAll(u.Host, ".", "_")
	}
	return pathPart
}

// SnapshotPath returns the run-relative path of a branch markup snapshot.
// Example: branches/003-maps_org_sushibox_1-1a2b3c4d5e6f.html
func SnapshotPath(position int, branch models.BranchEndpoint) string {
	name := fmt.Sprintf("%03d-%s-%s.html", position, sanitizeSlug(branch.String()), getShortHash(branch.String()))
	return filepath.Join(BranchesDir, name)
}

// SaveSnapshot writes the rendered markup of one branch and returns its
// run-relative path and content hash.
func (m *Manager) SaveSnapshot(runDir string, position int, branch models.BranchEndpoint, markup string) (string, string, error) {
	if err := m.EnsureRunDir(runDir); err != nil {
		return "", "", err
	}
	rel := SnapshotPath(position, branch)
	data := []byte(markup)
	if err := os.WriteFile(filepath.Join(m.RunDir(runDir), rel), data, 0600); err != nil {
		return "", "", fmt.Errorf("failed to write branch snapshot: %w", err)
	}
	return rel, common.ContentHash(data), nil
}

// LoadSnapshot reads a snapshot saved by SaveSnapshot. When wantHash is
// not empty the content must match it.
func (m *Manager) LoadSnapshot(runDir, rel, wantHash string) (string, error) {
	data, err := os.ReadFile(filepath.Clean(filepath.Join(m.RunDir(runDir), rel)))
	if err != nil {
		return "", fmt.Errorf("error reading branch snapshot: %w", err)
	}
	if wantHash != "" && common.ContentHash(data) != wantHash {
		return "", fmt.Errorf("branch snapshot %s changed since it was saved", rel)
	}
	return string(data), nil
}

// ReportNames returns the file names of the tabular export and the summary
// report for a run, e.g. Sushibox_Ростов-на-Дону_reviews_20261019_1430.csv.
func ReportNames(company, city string, at time.Time) (csvName, summaryName string) {
	prefix := common.FileComponent(company) + "_" + common.FileComponent(city)
	return fmt.Sprintf("%s_reviews_%s.csv", prefix, at.Format("20060102_1504")),
		prefix + "_summary.txt"
}
