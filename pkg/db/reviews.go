package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/dtnitsch/review-harvester/models"
)

// RunBranch is the stored outcome of one branch within a run.
type RunBranch struct {
	BranchID     int64
	Outcome      models.BranchOutcome
	SnapshotPath string
	SnapshotHash string
}

// UpsertBranch inserts a branch URL, returning the branch_id.
// If the URL already exists, its title is refreshed and the existing ID returned.
func (db *DB) UpsertBranch(rawURL, title string) (int64, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("failed to parse URL: %w", err)
	}

	var existingID int64
	err = db.QueryRow("SELECT branch_id FROM branches WHERE url = ?", rawURL).Scan(&existingID)
	if err == nil {
		if title != "" {
			if _, err := db.Exec("UPDATE branches SET title = ?, updated_at = CURRENT_TIMESTAMP WHERE branch_id = ?", title, existingID); err != nil {
				return 0, fmt.Errorf("failed to update branch title: %w", err)
			}
		}
		return existingID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to check existing branch: %w", err)
	}

	result, err := db.Exec(`
		INSERT INTO branches (url, domain, path, title)
		VALUES (?, ?, ?, ?)
	`, rawURL, parsed.Host, parsed.Path, NewNullString(title))
	if err != nil {
		return 0, fmt.Errorf("failed to insert branch: %w", err)
	}

	branchID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get branch ID: %w", err)
	}
	return branchID, nil
}

// InsertRunBranch records the outcome of one branch pass in a run.
func (db *DB) InsertRunBranch(runID, branchID int64, o models.BranchOutcome, snapshotPath, snapshotHash string) error {
	_, err := db.Exec(`
		INSERT INTO run_branches (run_id, branch_id, position, status, reason, stop_reason,
		                          attempts, fragments, records, malformed, duplicates, snapshot_path, snapshot_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, branchID, o.Position, string(o.Status), NewNullString(o.Reason), NewNullString(o.StopReason),
		o.Attempts, o.Fragments, o.Records, o.Malformed, o.Duplicates,
		NewNullString(snapshotPath), NewNullString(snapshotHash))
	if err != nil {
		return fmt.Errorf("failed to insert run branch: %w", err)
	}
	return nil
}

// ListRunBranches returns the branch outcomes of a run in discovery order.
func (db *DB) ListRunBranches(runID int64) ([]RunBranch, error) {
	rows, err := db.Query(`
		SELECT rb.branch_id, b.url, COALESCE(b.title, ''), rb.position, rb.status,
		       COALESCE(rb.reason, ''), COALESCE(rb.stop_reason, ''), rb.attempts, rb.fragments,
		       rb.records, rb.malformed, rb.duplicates,
		       COALESCE(rb.snapshot_path, ''), COALESCE(rb.snapshot_hash, '')
		FROM run_branches rb
		JOIN branches b ON rb.branch_id = b.branch_id
		WHERE rb.run_id = ?
		ORDER BY rb.position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list run branches: %w", err)
	}
	defer rows.Close()

	var branches []RunBranch
	for rows.Next() {
		var rb RunBranch
		var branchURL, status string
		if err := rows.Scan(&rb.BranchID, &branchURL, &rb.Outcome.Title, &rb.Outcome.Position, &status,
			&rb.Outcome.Reason, &rb.Outcome.StopReason, &rb.Outcome.Attempts, &rb.Outcome.Fragments,
			&rb.Outcome.Records, &rb.Outcome.Malformed, &rb.Outcome.Duplicates,
			&rb.SnapshotPath, &rb.SnapshotHash); err != nil {
			return nil, fmt.Errorf("failed to scan run branch: %w", err)
		}
		rb.Outcome.Branch = models.BranchEndpoint(branchURL)
		rb.Outcome.Status = models.BranchStatus(status)
		branches = append(branches, rb)
	}
	return branches, rows.Err()
}

// InsertReviews appends records to a run's corpus in one transaction.
// Records keep the order in which they are inserted.
func (db *DB) InsertReviews(runID, branchID int64, records []models.ReviewRecord) error {
	if len(records) == 0 {
		return nil
	}
	return db.inTx(func(tx *sql.Tx) error {
		return insertReviews(tx, runID, branchID, records)
	})
}

// BranchReplay is the re-extracted state of one stored branch.
type BranchReplay struct {
	BranchID int64
	Outcome  models.BranchOutcome
	Records  []models.ReviewRecord
}

// ReplaceRunReviews swaps a run's reviews for replays and refreshes the
// extraction counts of each replayed branch. Either everything is
// written or the run is left as it was.
func (db *DB) ReplaceRunReviews(runID int64, replays []BranchReplay) error {
	return db.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM reviews WHERE run_id = ?", runID); err != nil {
			return fmt.Errorf("failed to delete reviews: %w", err)
		}
		for _, r := range replays {
			o := r.Outcome
			res, err := tx.Exec(`
				UPDATE run_branches
				SET fragments = ?, records = ?, malformed = ?, duplicates = ?
				WHERE run_id = ? AND branch_id = ? AND position = ?
			`, o.Fragments, o.Records, o.Malformed, o.Duplicates, runID, r.BranchID, o.Position)
			if err != nil {
				return fmt.Errorf("failed to update run branch: %w", err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return fmt.Errorf("run %d has no branch %d at position %d", runID, r.BranchID, o.Position)
			}
			if err := insertReviews(tx, runID, r.BranchID, r.Records); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *DB) inTx(fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertReviews(tx *sql.Tx, runID, branchID int64, records []models.ReviewRecord) error {
	if len(records) == 0 {
		return nil
	}

	var next int
	if err := tx.QueryRow("SELECT COALESCE(MAX(seq), -1) + 1 FROM reviews WHERE run_id = ?", runID).Scan(&next); err != nil {
		return fmt.Errorf("failed to get next review seq: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO reviews (run_id, branch_id, seq, author, rating, review_date, body,
		                     company_response, feature_tags, keywords, sentiment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare review insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		tags, err := marshalList(rec.FeatureTags)
		if err != nil {
			return err
		}
		keywords, err := marshalList(rec.Keywords)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(runID, branchID, next+i, rec.Author, rec.Rating, rec.Date, rec.Body,
			rec.CompanyResponse, tags, keywords, rec.Sentiment); err != nil {
			return fmt.Errorf("failed to insert review: %w", err)
		}
	}
	return nil
}

// LoadCorpus returns the stored records of a run in corpus order.
func (db *DB) LoadCorpus(runID int64) (models.Corpus, error) {
	rows, err := db.Query(`
		SELECT b.url, r.author, r.rating, COALESCE(r.review_date, ''), COALESCE(r.body, ''),
		       COALESCE(r.company_response, ''), COALESCE(r.feature_tags, '[]'),
		       COALESCE(r.keywords, '[]'), r.sentiment
		FROM reviews r
		JOIN branches b ON r.branch_id = b.branch_id
		WHERE r.run_id = ?
		ORDER BY r.seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	defer rows.Close()

	var corpus models.Corpus
	for rows.Next() {
		var rec models.ReviewRecord
		var branchURL, tags, keywords string
		if err := rows.Scan(&branchURL, &rec.Author, &rec.Rating, &rec.Date, &rec.Body,
			&rec.CompanyResponse, &tags, &keywords, &rec.Sentiment); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		rec.Branch = models.BranchEndpoint(branchURL)
		if rec.FeatureTags, err = unmarshalList(tags); err != nil {
			return nil, err
		}
		if rec.Keywords, err = unmarshalList(keywords); err != nil {
			return nil, err
		}
		corpus = append(corpus, rec)
	}
	return corpus, rows.Err()
}

func marshalList(items []string) (string, error) {
	if len(items) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(data), nil
}

func unmarshalList(data string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}

// NewNullString creates a sql.NullString from a string.
// Empty strings are treated as NULL.
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
