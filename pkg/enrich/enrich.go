// Package enrich attaches third-party traffic analytics to discovered
// candidates. Enrichment is always best-effort relative to discovery: a
// failed or slow provider yields an empty map, never an error upstream.
package enrich

import (
	"context"
	"time"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/internal/utils"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/candidate"
)

// Client is the batch-capable traffic analytics provider.
type Client interface {
	// BatchTraffic resolves traffic metrics for many domains in one call.
	// Domains missing from the provider's answer are simply absent from the
	// returned map.
	BatchTraffic(ctx context.Context, domains []string) (map[string]candidate.EnrichmentRecord, error)
}

// DefaultBudget bounds one enrichment pass. It is deliberately shorter than
// a request's discovery budget; enrichment never holds up delivery.
const DefaultBudget = 30 * time.Second

// Batcher deduplicates keys and issues exactly one underlying provider call
// per enrichment kind, instead of one call per key. Per-key calls for ~20
// domains used to take tens of seconds sequentially.
type Batcher struct {
	Client Client
	Budget time.Duration
}

func NewBatcher(c Client) *Batcher {
	return &Batcher{Client: c, Budget: DefaultBudget}
}

// EnrichMany resolves enrichment records for the given domain/URL keys.
// Returns an empty map (never nil, never an error) on provider failure or
// when the sub-budget expires.
func (b *Batcher) EnrichMany(ctx context.Context, keys []string) map[string]candidate.EnrichmentRecord {
	out := map[string]candidate.EnrichmentRecord{}
	if b.Client == nil || len(keys) == 0 {
		return out
	}

	seen := make(map[string]bool, len(keys))
	deduped := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		deduped = append(deduped, k)
	}
	if len(deduped) == 0 {
		return out
	}

	budget := b.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	records, err := b.Client.BatchTraffic(ctx, deduped)
	if err != nil {
		utils.Log.Warnf("Traffic enrichment failed for %d keys: %v", len(deduped), err)
		return out
	}
	for k, rec := range records {
		out[k] = rec
	}
	return out
}
