// Package storage is the persistence gateway: a row store with
// insert-if-absent, exists-by-key and update-by-key operations. Persistence
// is a side effect of delivering results, never a precondition; callers log
// and move on when a write fails.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/candidate"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS candidates (
  key            TEXT PRIMARY KEY,
  owner          TEXT NOT NULL,
  platform       TEXT NOT NULL,
  title          TEXT,
  url            TEXT NOT NULL,
  snippet        TEXT,
  domain         TEXT,
  email          TEXT,
  profile_json   TEXT,
  monthly_visits INTEGER,
  global_rank    INTEGER,
  category       TEXT,
  top_keywords   TEXT,
  is_enriching   INTEGER NOT NULL DEFAULT 1 CHECK (is_enriching IN (0,1)),
  created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  enriched_at    DATETIME
);
CREATE INDEX IF NOT EXISTS idx_candidates_owner ON candidates(owner);
CREATE INDEX IF NOT EXISTS idx_candidates_domain ON candidates(domain);
CREATE TABLE IF NOT EXISTS search_jobs (
  id               TEXT PRIMARY KEY,
  owner            TEXT NOT NULL,
  keyword          TEXT NOT NULL,
  state            TEXT NOT NULL,
  platforms_total  INTEGER NOT NULL DEFAULT 0,
  platforms_done   INTEGER NOT NULL DEFAULT 0,
  candidates_found INTEGER NOT NULL DEFAULT 0,
  error            TEXT,
  created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_jobs_owner ON search_jobs(owner, created_at);
	`); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// InsertIfAbsent stores a discovered candidate unless its key already exists.
// Returns whether a row was inserted: a duplicate is a no-op, not an
// overwrite and not an error.
func (d *DB) InsertIfAbsent(ctx context.Context, key string, r candidate.Result) (bool, error) {
	owner := ownerFromKey(key)

	var profileJSON interface{}
	if r.Profile != nil {
		b, err := json.Marshal(r.Profile)
		if err != nil {
			return false, err
		}
		profileJSON = string(b)
	}

	res, err := d.sql.ExecContext(ctx, `
INSERT INTO candidates(key, owner, platform, title, url, snippet, domain, email, profile_json, is_enriching)
VALUES(?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(key) DO NOTHING`,
		key, owner, string(r.Platform), nullIfEmpty(r.Title), r.URL,
		nullIfEmpty(r.Snippet), nullIfEmpty(r.Domain), nullIfEmpty(r.Email),
		profileJSON, boolToInt(r.IsEnriching))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ExistsByKey reports whether a candidate row exists.
func (d *DB) ExistsByKey(ctx context.Context, key string) (bool, error) {
	var one int
	err := d.sql.QueryRowContext(ctx, `SELECT 1 FROM candidates WHERE key = ?`, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateEnrichment attaches traffic data to an existing candidate row and
// clears its enriching flag. Returns false when no row matched: insert and
// enrichment are independent concurrent paths, so a missing row is a
// recoverable no-op for the caller, not an error.
func (d *DB) UpdateEnrichment(ctx context.Context, key string, rec candidate.EnrichmentRecord) (bool, error) {
	res, err := d.sql.ExecContext(ctx, `
UPDATE candidates
SET monthly_visits = ?, global_rank = ?, category = ?, top_keywords = ?,
    is_enriching = 0, enriched_at = CURRENT_TIMESTAMP
WHERE key = ?`,
		rec.MonthlyVisits, rec.GlobalRank, nullIfEmpty(rec.Category),
		nullIfEmpty(strings.Join(rec.TopKeywords, ",")), key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// StoredCandidate is one persisted candidate row.
type StoredCandidate struct {
	Key           string
	Owner         string
	Platform      string
	Title         string
	URL           string
	Snippet       string
	Domain        string
	Email         string
	Profile       *candidate.Profile
	MonthlyVisits int64
	GlobalRank    int64
	Category      string
	TopKeywords   []string
	IsEnriching   bool
	CreatedAt     time.Time
}

// ListByOwner returns an owner's candidates, newest first.
func (d *DB) ListByOwner(ctx context.Context, owner string, limit int) ([]StoredCandidate, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := d.sql.QueryContext(ctx, `
SELECT key, owner, platform, title, url, snippet, domain, email, profile_json,
       monthly_visits, global_rank, category, top_keywords, is_enriching, created_at
FROM candidates WHERE owner = ? ORDER BY created_at DESC, key LIMIT ?`, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredCandidate
	for rows.Next() {
		var (
			c                                       StoredCandidate
			title, snippet, domain, email           sql.NullString
			profileJSON, category, keywords, create sql.NullString
			visits, rank                            sql.NullInt64
			enriching                               int
		)
		if err := rows.Scan(&c.Key, &c.Owner, &c.Platform, &title, &c.URL, &snippet,
			&domain, &email, &profileJSON, &visits, &rank, &category, &keywords,
			&enriching, &create); err != nil {
			return nil, err
		}
		c.Title = title.String
		c.Snippet = snippet.String
		c.Domain = domain.String
		c.Email = email.String
		c.MonthlyVisits = visits.Int64
		c.GlobalRank = rank.Int64
		c.Category = category.String
		if keywords.String != "" {
			c.TopKeywords = strings.Split(keywords.String, ",")
		}
		c.IsEnriching = enriching == 1
		if profileJSON.Valid && profileJSON.String != "" {
			var p candidate.Profile
			if err := json.Unmarshal([]byte(profileJSON.String), &p); err == nil {
				c.Profile = &p
			}
		}
		c.CreatedAt = parseSQLiteTime(create.String)
		out = append(out, c)
	}
	return out, rows.Err()
}

func ownerFromKey(key string) string {
	if i := strings.IndexByte(key, '|'); i >= 0 {
		return key[:i]
	}
	return key
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseSQLiteTime(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
