package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/candidate"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sample() candidate.Result {
	return candidate.Result{
		Title:       "Honest tracker review",
		URL:         "https://fitblog.de/review",
		Snippet:     "after 3 months",
		Platform:    candidate.PlatformWeb,
		Domain:      "fitblog.de",
		IsEnriching: true,
	}
}

func TestInsertIfAbsentIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := sample()
	key := r.Key("user-1")

	inserted, err := db.InsertIfAbsent(ctx, key, r)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !inserted {
		t.Fatal("first insert must report inserted")
	}

	// Same candidate found again (second provider, second page): no-op.
	inserted, err = db.InsertIfAbsent(ctx, key, r)
	if err != nil {
		t.Fatalf("duplicate insert must not error: %v", err)
	}
	if inserted {
		t.Fatal("duplicate insert must be a no-op")
	}

	rows, err := db.ListByOwner(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly one persisted row, got %d", len(rows))
	}
}

func TestExistsByKey(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := sample()
	key := r.Key("user-1")

	ok, err := db.ExistsByKey(ctx, key)
	if err != nil || ok {
		t.Fatalf("expected absent, got ok=%v err=%v", ok, err)
	}
	if _, err := db.InsertIfAbsent(ctx, key, r); err != nil {
		t.Fatalf("insert: %v", err)
	}
	ok, err = db.ExistsByKey(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected present, got ok=%v err=%v", ok, err)
	}
}

func TestUpdateEnrichmentMissingRowIsNoOp(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	updated, err := db.UpdateEnrichment(ctx, "user-1|https://nowhere.example/x", candidate.EnrichmentRecord{MonthlyVisits: 10})
	if err != nil {
		t.Fatalf("missing row must not error: %v", err)
	}
	if updated {
		t.Fatal("missing row must report not-updated")
	}
}

func TestUpdateEnrichmentFlipsEnrichingFlag(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := sample()
	key := r.Key("user-1")

	if _, err := db.InsertIfAbsent(ctx, key, r); err != nil {
		t.Fatalf("insert: %v", err)
	}
	updated, err := db.UpdateEnrichment(ctx, key, candidate.EnrichmentRecord{
		Key: "fitblog.de", MonthlyVisits: 54000, GlobalRank: 120345,
		Category: "Health", TopKeywords: []string{"fitness tracker", "test"},
	})
	if err != nil || !updated {
		t.Fatalf("expected update, got updated=%v err=%v", updated, err)
	}

	rows, err := db.ListByOwner(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := rows[0]
	if got.IsEnriching {
		t.Fatal("is_enriching must be cleared after enrichment")
	}
	if got.MonthlyVisits != 54000 || len(got.TopKeywords) != 2 {
		t.Fatalf("enrichment fields not stored: %+v", got)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := sample()
	r.URL = "https://www.instagram.com/fitgirl_anna/"
	r.Platform = candidate.PlatformInstagram
	r.Profile = &candidate.Profile{Handle: "fitgirl_anna", Followers: 34000, Verified: true}
	key := r.Key("user-1")

	if _, err := db.InsertIfAbsent(ctx, key, r); err != nil {
		t.Fatalf("insert: %v", err)
	}
	rows, err := db.ListByOwner(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	p := rows[0].Profile
	if p == nil || p.Handle != "fitgirl_anna" || p.Followers != 34000 || !p.Verified {
		t.Fatalf("profile not round-tripped: %+v", p)
	}
}

func TestSearchJobLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.CreateSearchJob(ctx, "job-1", "user-1", "fitness tracker", 2); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.UpdateSearchJobProgress(ctx, "job-1", 1, 5); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if err := db.FinishSearchJob(ctx, "job-1", JobStateCompleted, ""); err != nil {
		t.Fatalf("finish: %v", err)
	}

	j, err := db.GetSearchJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if j.State != JobStateCompleted || j.PlatformsDone != 1 || j.CandidatesFound != 5 {
		t.Fatalf("unexpected job: %+v", j)
	}

	if _, err := db.GetSearchJob(ctx, "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}
