package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Search job states for the start/status polling protocol.
const (
	JobStateRunning   = "running"
	JobStateCompleted = "completed"
	JobStateFailed    = "failed"
)

var ErrJobNotFound = errors.New("search job not found")

// SearchJob tracks one fire-and-forget search for status polling.
type SearchJob struct {
	ID              string
	Owner           string
	Keyword         string
	State           string
	PlatformsTotal  int
	PlatformsDone   int
	CandidatesFound int
	Error           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateSearchJob registers a new job in the running state.
func (d *DB) CreateSearchJob(ctx context.Context, id, owner, keyword string, platformsTotal int) error {
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO search_jobs(id, owner, keyword, state, platforms_total)
VALUES(?,?,?,?,?)`, id, owner, keyword, JobStateRunning, platformsTotal)
	return err
}

// UpdateSearchJobProgress bumps the per-platform and per-candidate counters.
func (d *DB) UpdateSearchJobProgress(ctx context.Context, id string, platformsDone, candidatesFound int) error {
	_, err := d.sql.ExecContext(ctx, `
UPDATE search_jobs SET platforms_done = ?, candidates_found = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`, platformsDone, candidatesFound, id)
	return err
}

// FinishSearchJob moves a job to a terminal state.
func (d *DB) FinishSearchJob(ctx context.Context, id, state, errMsg string) error {
	_, err := d.sql.ExecContext(ctx, `
UPDATE search_jobs SET state = ?, error = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`, state, nullIfEmpty(errMsg), id)
	return err
}

// GetSearchJob looks a job up by id.
func (d *DB) GetSearchJob(ctx context.Context, id string) (*SearchJob, error) {
	var (
		j                  SearchJob
		errMsg             sql.NullString
		createdS, updatedS string
	)
	err := d.sql.QueryRowContext(ctx, `
SELECT id, owner, keyword, state, platforms_total, platforms_done, candidates_found, error, created_at, updated_at
FROM search_jobs WHERE id = ?`, id).Scan(
		&j.ID, &j.Owner, &j.Keyword, &j.State, &j.PlatformsTotal, &j.PlatformsDone,
		&j.CandidatesFound, &errMsg, &createdS, &updatedS)
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	j.Error = errMsg.String
	j.CreatedAt = parseSQLiteTime(createdS)
	j.UpdatedAt = parseSQLiteTime(updatedS)
	return &j, nil
}
