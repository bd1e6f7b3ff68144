// Package searcher is the top-level coordinator: it fans a request out to
// one provider task per platform, streams each platform's filtered results
// the moment that platform completes, then runs enrichment in a detached
// background task and streams the deltas.
package searcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/internal/utils"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/candidate"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/credits"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/enrich"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/filter"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/platforms"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/storage"
)

// EventKind discriminates stream frames.
type EventKind string

const (
	EventCandidate  EventKind = "candidate"
	EventEnrichment EventKind = "enrichment"
	EventDone       EventKind = "done"
	EventError      EventKind = "error"
)

// Event is one self-describing stream frame.
type Event struct {
	Kind       EventKind                   `json:"kind"`
	Candidate  *candidate.Result           `json:"candidate,omitempty"`
	Key        string                      `json:"key,omitempty"`
	Enrichment *candidate.EnrichmentRecord `json:"enrichment,omitempty"`
	Summary    *Summary                    `json:"summary,omitempty"`
	Error      string                      `json:"error,omitempty"`
}

// PlatformOutcome records how one platform's task ended.
type PlatformOutcome struct {
	Platform candidate.Platform `json:"platform"`
	Count    int                `json:"count"`
	Error    string             `json:"error,omitempty"`
	Took     time.Duration      `json:"took"`
}

// Summary is carried by the done frame. Done signals completion of
// discovery, not of enrichment.
type Summary struct {
	Total             int               `json:"total"`
	Platforms         []PlatformOutcome `json:"platforms"`
	EnrichmentStarted bool              `json:"enrichmentStarted"`
}

// ErrInsufficientCredits is a request-level failure surfaced before any
// streaming begins.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ErrUnknownPlatform is returned when no provider serves a requested platform.
var ErrUnknownPlatform = errors.New("no provider for platform")

// Searcher wires the orchestration dependencies. Store, Batcher and Ledger
// are optional: nil disables persistence, enrichment and credit accounting
// respectively.
type Searcher struct {
	Providers []platforms.Provider
	Batcher   *enrich.Batcher
	Store     *storage.DB
	Ledger    credits.Ledger
}

// eventBuffer keeps slow consumers from stalling provider tasks for a while;
// a consumer that stops reading entirely is handled by the emit deadline.
const eventBuffer = 256

// Run validates the request and starts the search. Request-level problems
// (bad input, unknown platform, credit denial) are returned as errors before
// any event is emitted; everything after that arrives on the stream. The
// channel is closed once discovery and any background enrichment finished.
func (s *Searcher) Run(ctx context.Context, req candidate.SearchRequest) (<-chan Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	selected := make([]platforms.Provider, 0, len(req.Platforms))
	for _, p := range req.Platforms {
		prov := s.providerFor(p)
		if prov == nil {
			return nil, errors.Join(ErrUnknownPlatform, errors.New(string(p)))
		}
		selected = append(selected, prov)
	}

	if s.Ledger != nil {
		allowed, remaining, err := s.Ledger.Check(ctx, req.Owner, credits.KindSearch, 1)
		if err != nil {
			return nil, err
		}
		if !allowed {
			utils.Log.Infof("Credit check denied for %s (remaining %d)", req.Owner, remaining)
			return nil, ErrInsufficientCredits
		}
	}

	events := make(chan Event, eventBuffer)
	go s.run(ctx, req, selected, events)
	return events, nil
}

func (s *Searcher) run(parent context.Context, req candidate.SearchRequest, provs []platforms.Provider, events chan<- Event) {
	defer close(events)

	ctx, cancel := context.WithTimeout(parent, req.Budget)
	defer cancel()

	opts := filter.Options{
		Country:           req.Country,
		Language:          req.Language,
		BrandDomain:       req.BrandDomain,
		CompetitorDomains: req.CompetitorDomains,
	}

	var (
		mu        sync.Mutex
		outcomes  = make([]PlatformOutcome, len(provs))
		collected []candidate.Result
	)

	enriching := s.Batcher != nil && s.Batcher.Client != nil

	// Fan-out: one task per platform, no shared mutable state between them.
	// A platform failing or timing out never disturbs its siblings.
	g := new(errgroup.Group)
	for i, prov := range provs {
		i, prov := i, prov
		g.Go(func() error {
			started := time.Now()
			results, err := prov.Search(ctx, platforms.Query{
				Keyword:  req.Keyword,
				Country:  req.Country,
				Language: req.Language,
			})
			outcome := PlatformOutcome{Platform: prov.Name(), Took: time.Since(started).Round(time.Millisecond)}
			if err != nil {
				utils.Log.Warnf("Platform %s failed: %v", prov.Name(), err)
				outcome.Error = err.Error()
				mu.Lock()
				outcomes[i] = outcome
				mu.Unlock()
				return nil
			}

			kept := applyPipeline(prov.Name(), results, opts)
			outcome.Count = len(kept)

			// Stream this platform's survivors immediately, in filtered
			// order. Interleaving across platforms is unspecified; order
			// within a platform is not. The enriching flag only stays up
			// for items an enrichment delta can actually arrive for.
			for idx := range kept {
				if !enriching || !canEnrich(kept[idx]) {
					kept[idx].IsEnriching = false
				}
				s.persist(ctx, req.Owner, kept[idx])
				emit(ctx, events, Event{Kind: EventCandidate, Candidate: &kept[idx]})
			}

			mu.Lock()
			outcomes[i] = outcome
			collected = append(collected, kept...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	summary := &Summary{Platforms: outcomes}
	for _, o := range outcomes {
		summary.Total += o.Count
	}

	// Discovery is over. Enrichment only starts if anything enrichable was
	// collected and the overall budget hasn't already expired.
	enrichable := 0
	for _, r := range collected {
		if canEnrich(r) {
			enrichable++
		}
	}
	startEnrichment := enriching && enrichable > 0 && ctx.Err() == nil
	summary.EnrichmentStarted = startEnrichment

	// The done frame goes out even when the overall deadline already fired:
	// cancellation ends discovery, it never swallows the terminal signal.
	tail, tailCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer tailCancel()

	if s.Ledger != nil && summary.Total > 0 {
		if _, err := s.Ledger.Consume(tail, req.Owner, credits.KindSearch, summary.Total); err != nil {
			utils.Log.Warnf("Credit consume failed for %s: %v", req.Owner, err)
		}
	}

	emit(tail, events, Event{Kind: EventDone, Summary: summary})

	if !startEnrichment {
		return
	}

	// Detached task: enrichment runs on its own sub-deadline, decoupled
	// from the request context so a disappearing caller doesn't abort the
	// persistence of already-discovered data.
	s.enrichAndStream(req, collected, events)
}

func (s *Searcher) enrichAndStream(req candidate.SearchRequest, collected []candidate.Result, events chan<- Event) {
	budget := s.Batcher.Budget
	if budget <= 0 {
		budget = enrich.DefaultBudget
	}
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	keys := make([]string, 0, len(collected))
	for _, r := range collected {
		if canEnrich(r) {
			keys = append(keys, r.Domain)
		}
	}
	if len(keys) == 0 {
		utils.Log.Debug("No enrichable domains collected, skipping enrichment")
		return
	}

	started := time.Now()
	records := s.Batcher.EnrichMany(ctx, keys)

	for _, r := range collected {
		rec, ok := records[r.Domain]
		if !ok {
			continue
		}
		if s.Store != nil {
			updated, err := s.Store.UpdateEnrichment(ctx, r.Key(req.Owner), rec)
			if err != nil {
				utils.Log.Warnf("Enrichment write failed for %s: %v", r.URL, err)
			} else if !updated {
				// Insert and enrichment race on independent paths; a row
				// that never landed is a recoverable no-op.
				utils.Log.Debugf("Enrichment skipped, no row for %s", r.URL)
			}
		}
	}
	for key := range records {
		rec := records[key]
		emit(ctx, events, Event{Kind: EventEnrichment, Key: key, Enrichment: &rec})
	}

	utils.Log.Infof("Enrichment finished for %q: %d/%d domains in %s",
		req.Keyword, len(records), len(keys), time.Since(started).Round(time.Millisecond))
}

// canEnrich reports whether traffic enrichment applies to a result. Only
// web candidates with a registrable domain get batched; social candidates
// carry their metrics in the profile already.
func canEnrich(r candidate.Result) bool {
	return r.Platform == candidate.PlatformWeb && r.Domain != ""
}

// applyPipeline routes results to the branch matching the platform: web hits
// get the full URL/TLD treatment, profile-bearing platforms the social one.
func applyPipeline(p candidate.Platform, results []candidate.Result, opts filter.Options) []candidate.Result {
	if p == candidate.PlatformWeb {
		return filter.ApplyWeb(results, opts)
	}
	return filter.ApplySocial(results, opts)
}

// persist inserts a discovered candidate best-effort: failures are logged
// and never block the stream.
func (s *Searcher) persist(ctx context.Context, owner string, r candidate.Result) {
	if s.Store == nil {
		return
	}
	if _, err := s.Store.InsertIfAbsent(ctx, r.Key(owner), r); err != nil {
		utils.Log.Warnf("Persist failed for %s: %v", r.URL, err)
	}
}

// emit delivers an event unless the consumer has gone away for the whole
// lifetime of ctx.
func emit(ctx context.Context, events chan<- Event, ev Event) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

func (s *Searcher) providerFor(p candidate.Platform) platforms.Provider {
	for _, prov := range s.Providers {
		if prov.Name() == p {
			return prov
		}
	}
	return nil
}
