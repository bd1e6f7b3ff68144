package enrich

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/candidate"
)

type countingClient struct {
	calls   int
	lastIn  []string
	records map[string]candidate.EnrichmentRecord
	err     error
	delay   time.Duration
}

func (c *countingClient) BatchTraffic(ctx context.Context, domains []string) (map[string]candidate.EnrichmentRecord, error) {
	c.calls++
	c.lastIn = domains
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.records, nil
}

func TestEnrichManyDeduplicatesAndBatches(t *testing.T) {
	c := &countingClient{records: map[string]candidate.EnrichmentRecord{
		"a.com": {Key: "a.com", MonthlyVisits: 1000},
	}}
	b := NewBatcher(c)

	got := b.EnrichMany(context.Background(), []string{"a.com", "a.com", "b.com"})
	if c.calls != 1 {
		t.Fatalf("expected exactly one provider call, got %d", c.calls)
	}
	if len(c.lastIn) != 2 {
		t.Fatalf("expected 2 deduplicated keys sent, got %v", c.lastIn)
	}
	// b.com absent from the provider answer: omitted, not an error.
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got["a.com"].MonthlyVisits != 1000 {
		t.Fatalf("record not mapped: %+v", got["a.com"])
	}
}

func TestEnrichManySwallowsProviderFailure(t *testing.T) {
	c := &countingClient{err: errors.New("boom")}
	b := NewBatcher(c)

	got := b.EnrichMany(context.Background(), []string{"a.com"})
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty map on failure, got %v", got)
	}
}

func TestEnrichManyHonorsSubBudget(t *testing.T) {
	c := &countingClient{delay: time.Second, records: map[string]candidate.EnrichmentRecord{"a.com": {}}}
	b := &Batcher{Client: c, Budget: 10 * time.Millisecond}

	start := time.Now()
	got := b.EnrichMany(context.Background(), []string{"a.com"})
	if len(got) != 0 {
		t.Fatalf("expected empty map on budget expiry, got %v", got)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("sub-budget not enforced")
	}
}

func TestEnrichManyEmptyInput(t *testing.T) {
	c := &countingClient{}
	b := NewBatcher(c)
	if got := b.EnrichMany(context.Background(), nil); len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
	if c.calls != 0 {
		t.Fatalf("no provider call expected for empty input, got %d", c.calls)
	}
}

func TestHTTPClientParsesBatchResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[
			{"domain":"fitblog.de","monthlyVisits":54000,"globalRank":120345,"category":"Health","topKeywords":["fitness tracker","schrittzähler"]},
			{"domain":"","monthlyVisits":1}
		]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient("key")
	c.APIURL = srv.URL

	got, err := c.BatchTraffic(context.Background(), []string{"fitblog.de", "missing.com"})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	rec := got["fitblog.de"]
	if rec.GlobalRank != 120345 || len(rec.TopKeywords) != 2 {
		t.Fatalf("record not parsed: %+v", rec)
	}
}
