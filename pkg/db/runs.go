package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Run statuses.
const (
	RunRunning  = "running"
	RunComplete = "complete"
	RunPartial  = "partial"
	RunEmpty    = "empty"
	RunFailed   = "failed"
)

// Run represents one harvest invocation
type Run struct {
	RunID        int64
	CreatedAt    time.Time
	FinishedAt   sql.NullTime
	Company      string
	City         string
	MaxBranches  int
	MaxReviews   int
	Status       string
	BranchCount  int
	SkippedCount int
	ReviewCount  int
	RunDir       string
}

// RunStats are the totals stored when a run finishes.
type RunStats struct {
	Status       string
	BranchCount  int
	SkippedCount int
	ReviewCount  int
}

// CreateRun creates a new run record and returns its ID.
func (db *DB) CreateRun(company, city string, maxBranches, maxReviews int) (int64, error) {
	dateStr := time.Now().Format("2006-01-02")

	// Insert with placeholder run_dir, will update after we get the ID
	result, err := db.Exec(`
		INSERT INTO runs (company, city, max_branches, max_reviews, run_dir)
		VALUES (?, ?, ?, ?, ?)
	`, company, city, maxBranches, maxReviews, "temp")
	if err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	runDir := fmt.Sprintf("runs/%s-%d", dateStr, runID)
	_, err = db.Exec("UPDATE runs SET run_dir = ? WHERE run_id = ?", runDir, runID)
	if err != nil {
		return 0, fmt.Errorf("failed to update run_dir: %w", err)
	}

	return runID, nil
}

// FinishRun stores the final status and totals of a run.
func (db *DB) FinishRun(runID int64, stats RunStats) error {
	_, err := db.Exec(`
		UPDATE runs
		SET status = ?, branch_count = ?, skipped_count = ?, review_count = ?, finished_at = CURRENT_TIMESTAMP
		WHERE run_id = ?
	`, stats.Status, stats.BranchCount, stats.SkippedCount, stats.ReviewCount, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

const runColumns = `run_id, created_at, finished_at, company, city, max_branches, max_reviews,
		       status, branch_count, skipped_count, review_count, run_dir`

func scanRun(row interface{ Scan(...any) error }) (Run, error) {
	var r Run
	err := row.Scan(&r.RunID, &r.CreatedAt, &r.FinishedAt, &r.Company, &r.City, &r.MaxBranches,
		&r.MaxReviews, &r.Status, &r.BranchCount, &r.SkippedCount, &r.ReviewCount, &r.RunDir)
	return r, err
}

// GetRun retrieves a run by its ID
func (db *DB) GetRun(runID int64) (*Run, error) {
	r, err := scanRun(db.QueryRow("SELECT "+runColumns+" FROM runs WHERE run_id = ?", runID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &r, nil
}

// GetLatestRunID returns the most recent run ID.
func (db *DB) GetLatestRunID() (int64, error) {
	var runID int64
	err := db.QueryRow("SELECT run_id FROM runs ORDER BY run_id DESC LIMIT 1").Scan(&runID)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("no runs found")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get latest run: %w", err)
	}
	return runID, nil
}

// ListRuns retrieves runs ordered by most recent first, optionally
// filtered by company (substring match).
func (db *DB) ListRuns(limit int, company string) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs"

	var conditions []string
	var args []interface{}
	if company != "" {
		conditions = append(conditions, "company LIKE ?")
		args = append(args, "%"+company+"%")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY run_id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}
